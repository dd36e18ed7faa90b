package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name string
	runs int
	err  error
}

func (j *stubJob) Name() string        { return j.name }
func (j *stubJob) Description() string { return "stub job for scheduler tests" }

func (j *stubJob) Run(ctx context.Context) error {
	j.runs++
	return j.err
}

func TestScheduler_RegisterRejectsDuplicates(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	sched := NewIntervalSchedule(time.Hour)

	require.NoError(t, s.Register(&stubJob{name: "evaluate_attendance"}, sched))

	err := s.Register(&stubJob{name: "evaluate_attendance"}, sched)
	assert.ErrorIs(t, err, ErrJobAlreadyExists)

	assert.ErrorIs(t, s.Register(nil, sched), ErrNilJob)
	assert.ErrorIs(t, s.Register(&stubJob{name: "backup"}, nil), ErrNilSchedule)
}

func TestScheduler_RunNow(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	job := &stubJob{name: "evaluate_attendance"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	res, err := s.RunNow(context.Background(), "evaluate_attendance")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, job.runs)

	_, err = s.RunNow(context.Background(), "no_such_job")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestScheduler_RunNowSurfacesJobError(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	job := &stubJob{name: "backup", err: errors.New("disk full")}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	res, err := s.RunNow(context.Background(), "backup")
	require.Error(t, err)
	assert.False(t, res.Success)
}

func TestScheduler_ListJobs(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	require.NoError(t, s.Register(&stubJob{name: "evaluate_attendance"}, NewIntervalSchedule(time.Hour)))

	infos := s.ListJobs()
	require.Len(t, infos, 1)
	assert.Equal(t, "evaluate_attendance", infos[0].Name)
	assert.Equal(t, "@every 1h0m0s", infos[0].Schedule)
	assert.False(t, infos[0].NextRun.IsZero())
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

func TestCronExpression_NextSundayEvening(t *testing.T) {
	expr, err := ParseCronExpression("0 21 * * 0")
	require.NoError(t, err)

	// Wednesday 2025-06-18 -> Sunday 2025-06-22 at 21:00.
	next := expr.Next(time.Date(2025, time.June, 18, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, time.June, 22, 21, 0, 0, 0, time.UTC), next)

	// Already Sunday evening past 21:00 -> the following Sunday.
	next = expr.Next(time.Date(2025, time.June, 22, 21, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, time.June, 29, 21, 0, 0, 0, time.UTC), next)
}

func TestParseCronExpression_Invalid(t *testing.T) {
	_, err := ParseCronExpression("not a cron")
	assert.Error(t, err)

	_, err = ParseCronExpression("61 0 * * *")
	assert.Error(t, err)
}

func TestIntervalSchedule(t *testing.T) {
	s := NewIntervalSchedule(6 * time.Hour)
	base := time.Date(2025, time.June, 18, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, base.Add(6*time.Hour), s.Next(base))
	assert.Equal(t, "@every 6h0m0s", s.String())
}
