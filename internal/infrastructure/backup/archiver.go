// Package backup implements JSON snapshot archives of the roster database.
// Each archive is a zip holding the full children register and attendance
// ledger, named with a timestamp so operators can keep a rolling history.
package backup

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/church-register/roster-hub/internal/domain/attendance"
	"github.com/church-register/roster-hub/internal/domain/person"
	"github.com/church-register/roster-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ARCHIVER
// ══════════════════════════════════════════════════════════════════════════════

// archivePrefix and archiveExt shape backup file names:
// roster_backup_20060102_150405.zip
const (
	archivePrefix = "roster_backup_"
	archiveExt    = ".zip"
)

// ledgerEpoch is the earliest date attendance records can carry.
// Exports read the ledger as one range query from this date.
var ledgerEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Config contains archiver configuration.
type Config struct {
	// Dir is the directory where archives are written.
	Dir string

	// Retention is how many archives to keep. Older archives are
	// pruned after each run. Zero keeps everything.
	Retention int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Dir:       "backups",
		Retention: 30,
	}
}

// ArchiveInfo describes a completed backup.
type ArchiveInfo struct {
	Path        string
	Persons     int
	Records     int
	SizeBytes   int64
	Pruned      int
	GeneratedAt time.Time
}

// Archiver snapshots the register and the ledger into zip archives.
type Archiver struct {
	personRepo person.Repository
	ledger     attendance.Ledger
	config     Config
}

// NewArchiver creates a new Archiver.
func NewArchiver(personRepo person.Repository, ledger attendance.Ledger, config Config) *Archiver {
	if config.Dir == "" {
		config.Dir = DefaultConfig().Dir
	}

	return &Archiver{
		personRepo: personRepo,
		ledger:     ledger,
		config:     config,
	}
}

// manifest is the archive self-description entry.
type manifest struct {
	GeneratedAt time.Time `json:"generated_at"`
	Persons     int       `json:"persons"`
	Records     int       `json:"records"`
}

// Run writes one archive and prunes old ones per the retention policy.
func (a *Archiver) Run(ctx context.Context) (*ArchiveInfo, error) {
	generatedAt := timeutil.Now()

	// Everyone except hard-deleted records is exported, including
	// inactive children and those pending deletion.
	persons, err := a.personRepo.GetAll(ctx, person.DefaultListOptions())
	if err != nil {
		return nil, fmt.Errorf("backup: failed to list persons: %w", err)
	}

	records, err := a.ledger.GetRange(ctx, ledgerEpoch, timeutil.Today())
	if err != nil {
		return nil, fmt.Errorf("backup: failed to read ledger: %w", err)
	}

	if err := os.MkdirAll(a.config.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("backup: failed to create backup dir: %w", err)
	}

	name := archivePrefix + generatedAt.Format(timeutil.FormatStamp) + archiveExt
	path := filepath.Join(a.config.Dir, name)

	if err := a.writeArchive(path, persons, records, generatedAt); err != nil {
		// A half-written archive must not survive.
		_ = os.Remove(path)
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("backup: failed to stat archive: %w", err)
	}

	pruned, err := a.prune()
	if err != nil {
		return nil, err
	}

	return &ArchiveInfo{
		Path:        path,
		Persons:     len(persons),
		Records:     len(records),
		SizeBytes:   stat.Size(),
		Pruned:      pruned,
		GeneratedAt: generatedAt,
	}, nil
}

// writeArchive writes persons.json, attendance.json and manifest.json
// into a single zip file.
func (a *Archiver) writeArchive(
	path string,
	persons []*person.Person,
	records []*attendance.Record,
	generatedAt time.Time,
) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("backup: failed to create archive: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	entries := []struct {
		name string
		data interface{}
	}{
		{"manifest.json", manifest{
			GeneratedAt: generatedAt,
			Persons:     len(persons),
			Records:     len(records),
		}},
		{"persons.json", persons},
		{"attendance.json", records},
	}

	for _, entry := range entries {
		w, err := zw.Create(entry.name)
		if err != nil {
			return fmt.Errorf("backup: failed to create entry %s: %w", entry.name, err)
		}

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entry.data); err != nil {
			return fmt.Errorf("backup: failed to encode %s: %w", entry.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("backup: failed to finalize archive: %w", err)
	}

	return f.Close()
}

// prune removes archives beyond the retention limit, oldest first.
// The timestamped names sort chronologically.
func (a *Archiver) prune() (int, error) {
	if a.config.Retention <= 0 {
		return 0, nil
	}

	names, err := a.ListArchives()
	if err != nil {
		return 0, err
	}

	excess := len(names) - a.config.Retention
	if excess <= 0 {
		return 0, nil
	}

	for _, name := range names[:excess] {
		if err := os.Remove(filepath.Join(a.config.Dir, name)); err != nil {
			return 0, fmt.Errorf("backup: failed to prune %s: %w", name, err)
		}
	}

	return excess, nil
}

// ListArchives returns backup file names in the configured directory,
// oldest first.
func (a *Archiver) ListArchives() ([]string, error) {
	entries, err := os.ReadDir(a.config.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("backup: failed to read backup dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, archivePrefix) || !strings.HasSuffix(name, archiveExt) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}
