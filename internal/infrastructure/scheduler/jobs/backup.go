package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/church-register/roster-hub/internal/domain/shared"
	"github.com/church-register/roster-hub/internal/infrastructure/backup"
)

// ══════════════════════════════════════════════════════════════════════════════
// BACKUP JOB
// ══════════════════════════════════════════════════════════════════════════════

// BackupJob snapshots the register and the attendance ledger into a
// timestamped archive and prunes archives beyond the retention limit.
type BackupJob struct {
	archiver  *backup.Archiver
	publisher shared.EventPublisher // может быть nil
	logger    *slog.Logger
	timeout   time.Duration

	lastRun atomic.Value // *backup.ArchiveInfo
}

// NewBackupJob creates a new backup job.
func NewBackupJob(
	archiver *backup.Archiver,
	publisher shared.EventPublisher,
	logger *slog.Logger,
	timeout time.Duration,
) *BackupJob {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	return &BackupJob{
		archiver:  archiver,
		publisher: publisher,
		logger:    logger,
		timeout:   timeout,
	}
}

// Name returns the job name.
func (j *BackupJob) Name() string {
	return "backup"
}

// Description returns a human-readable description.
func (j *BackupJob) Description() string {
	return "Archives the roster database to a timestamped zip snapshot"
}

// Run executes one backup.
func (j *BackupJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	info, err := j.archiver.Run(ctx)
	if err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	j.lastRun.Store(info)

	j.logger.Info("backup completed",
		"path", info.Path,
		"persons", info.Persons,
		"records", info.Records,
		"size_bytes", info.SizeBytes,
		"pruned", info.Pruned,
	)

	if j.publisher != nil {
		event := shared.NewBackupCompletedEvent(info.Path, info.Persons, info.Records)
		if err := j.publisher.Publish(event); err != nil {
			j.logger.Warn("failed to publish backup event", "error", err)
		}
	}

	return nil
}

// LastRun returns info about the most recent archive, or nil.
func (j *BackupJob) LastRun() *backup.ArchiveInfo {
	info := j.lastRun.Load()
	if info == nil {
		return nil
	}
	return info.(*backup.ArchiveInfo)
}
