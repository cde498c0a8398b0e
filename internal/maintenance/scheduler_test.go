package maintenance

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewSchedulerRejectsBadSchedule(t *testing.T) {
	_, err := NewScheduler(zap.NewNop(), []Job{
		{Name: "broken", Schedule: "every tuesday", Run: func(context.Context) error { return nil }},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestNewSchedulerSkipsDisabledJobs(t *testing.T) {
	s, err := NewScheduler(zap.NewNop(), []Job{
		{Name: "daily", Schedule: "@daily", Run: func(context.Context) error { return nil }},
		{Name: "off", Schedule: "", Run: func(context.Context) error { return nil }},
	})
	require.NoError(t, err)

	_, ok := s.Next("daily")
	assert.True(t, ok)
	_, ok = s.Next("off")
	assert.False(t, ok)
}

func TestSchedulerRunsJobs(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	var ticks, failures atomic.Int32
	s, err := NewScheduler(zap.New(core), []Job{
		{Name: "tick", Schedule: "@every 1s", Run: func(ctx context.Context) error {
			ticks.Add(1)
			return nil
		}},
		{Name: "fail", Schedule: "@every 1s", Run: func(ctx context.Context) error {
			failures.Add(1)
			return errors.New("boom")
		}},
		{Name: "panic", Schedule: "@every 1s", Run: func(ctx context.Context) error {
			panic("unexpected")
		}},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	assert.GreaterOrEqual(t, ticks.Load(), int32(1))
	assert.GreaterOrEqual(t, failures.Load(), int32(1))
	assert.NotEmpty(t, logs.FilterMessage("maintenance job failed").All())
	assert.Len(t, logs.FilterMessage("maintenance job scheduled").All(), 3)
}

func TestRunJob(t *testing.T) {
	var ran bool
	jobs := []Job{{Name: "once", Run: func(context.Context) error {
		ran = true
		return nil
	}}}

	require.NoError(t, RunJob(context.Background(), jobs, "once"))
	assert.True(t, ran)
	assert.ErrorIs(t, RunJob(context.Background(), jobs, "missing"), ErrUnknownJob)
}
