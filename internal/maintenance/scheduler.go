package maintenance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// cronLogger routes robfig/cron's own messages into zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}

// Scheduler runs jobs on their cron schedules. Overlapping runs of the same
// job are skipped and panics are recovered.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	entries map[string]cron.EntryID
}

// NewScheduler registers every job. Jobs with an empty schedule are disabled.
func NewScheduler(log *zap.Logger, jobs []Job) (*Scheduler, error) {
	cl := cronLogger{log: log.Sugar()}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log:     log,
		entries: make(map[string]cron.EntryID),
	}

	for _, job := range jobs {
		if job.Schedule == "" {
			log.Info("maintenance job disabled", zap.String("job", job.Name))
			continue
		}
		id, err := s.cron.AddFunc(job.Schedule, s.wrap(job))
		if err != nil {
			return nil, fmt.Errorf("schedule %s (%q): %w", job.Name, job.Schedule, err)
		}
		s.entries[job.Name] = id
	}

	return s, nil
}

func (s *Scheduler) wrap(job Job) func() {
	return func() {
		s.mu.Lock()
		parent := s.ctx
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(parent, jobTimeout)
		defer cancel()

		start := time.Now()
		if err := job.Run(ctx); err != nil {
			s.log.Error("maintenance job failed", zap.String("job", job.Name), zap.Error(err))
			return
		}
		s.log.Debug("maintenance job finished", zap.String("job", job.Name), zap.Duration("took", time.Since(start)))
	}
}

// Next reports when the named job fires next.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	id, ok := s.entries[name]
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

// Run starts the scheduler and blocks until ctx is done. In-flight jobs see
// their context cancelled and Run returns once they have.
func (s *Scheduler) Run(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.cron.Start()
	for name := range s.entries {
		next, _ := s.Next(name)
		s.log.Info("maintenance job scheduled", zap.String("job", name), zap.Time("next", next))
	}

	<-ctx.Done()

	s.log.Info("stopping maintenance scheduler")
	s.cancel()
	<-s.cron.Stop().Done()
}
