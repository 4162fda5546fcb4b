package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	lifecycle "github.com/goliatone/go-lifecycle"
	"github.com/goliatone/go-lifecycle/machine"

	rcron "github.com/robfig/cron/v3"
)

// Router applies a transition to an entity. *machine.Set satisfies it.
type Router interface {
	Apply(ctx context.Context, entityType, entityID, transition string, params lifecycle.Params) (*machine.Result, error)
}

var _ Router = (*machine.Set)(nil)

// Job describes a recurring transition.
type Job struct {
	Expression string
	EntityType string
	EntityID   string
	Transition string
	Params     lifecycle.Params

	// MaxRetries bounds in-process retries of a failed run. Zero means
	// a single attempt.
	MaxRetries int
	Timeout    time.Duration
}

// Scheduler fires lifecycle transitions on cron expressions.
type Scheduler struct {
	mu           sync.Mutex
	cron         *rcron.Cron
	router       Router
	logger       lifecycle.Logger
	location     *time.Location
	errorHandler func(error)
	retry        lifecycle.RetryStrategy

	handles map[int]*Handle
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the scheduler logger.
func WithLogger(logger lifecycle.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithLocation sets the timezone the cron expressions evaluate in.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		s.location = loc
	}
}

// WithErrorHandler sets the callback invoked when a job run fails after
// its retries are exhausted.
func WithErrorHandler(handler func(error)) Option {
	return func(s *Scheduler) {
		s.errorHandler = handler
	}
}

// WithRetryStrategy sets the delay strategy used between retries of a
// failed run.
func WithRetryStrategy(strategy lifecycle.RetryStrategy) Option {
	return func(s *Scheduler) {
		s.retry = strategy
	}
}

// NewScheduler creates a scheduler bound to a transition router.
func NewScheduler(router Router, opts ...Option) *Scheduler {
	s := &Scheduler{
		router:   router,
		location: time.Local,
		retry:    &lifecycle.NoDelayStrategy{},
		handles:  make(map[int]*Handle),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.logger = lifecycle.NormalizeLogger(s.logger)
	if s.errorHandler == nil {
		s.errorHandler = func(err error) {
			s.logger.Error("scheduled transition failed: %v", err)
		}
	}

	s.cron = rcron.New(
		rcron.WithLocation(s.location),
		rcron.WithLogger(&loggerAdapter{logger: s.logger}),
		rcron.WithChain(rcron.Recover(&loggerAdapter{logger: s.logger})),
	)
	return s
}

// Schedule registers a recurring transition job.
func (s *Scheduler) Schedule(job Job) (*Handle, error) {
	if job.Expression == "" {
		return nil, fmt.Errorf("cron expression cannot be empty")
	}
	if job.EntityType == "" || job.Transition == "" {
		return nil, fmt.Errorf("job requires an entity type and a transition")
	}

	handle := &Handle{scheduler: s, job: job, status: StatusScheduled}
	fn := rcron.FuncJob(func() {
		if handle.Status() == StatusCanceled {
			return
		}
		handle.setStatus(StatusRunning)
		if err := s.run(job); err != nil {
			handle.setStatus(StatusFailed)
			s.errorHandler(err)
			return
		}
		handle.setStatus(StatusIdle)
	})

	entryID, err := s.cron.AddJob(job.Expression, fn)
	if err != nil {
		return nil, fmt.Errorf("failed to add job: %w", err)
	}
	handle.entryID = int(entryID)

	s.mu.Lock()
	s.handles[handle.entryID] = handle
	s.mu.Unlock()
	return handle, nil
}

func (s *Scheduler) run(job Job) error {
	ctx := context.Background()
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	var err error
	for attempt := 0; attempt <= job.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.retry.SleepDuration(attempt, err)
			s.logger.Info("retrying %s %s/%s in %v (attempt %d)",
				job.Transition, job.EntityType, job.EntityID, delay, attempt)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		var result *machine.Result
		result, err = s.router.Apply(ctx, job.EntityType, job.EntityID, job.Transition, job.Params)
		if err == nil {
			s.logger.Info("scheduled %s moved %s/%s to %s",
				job.Transition, job.EntityType, job.EntityID, result.CurrentState)
			return nil
		}
	}
	return err
}

// Remove unschedules a job.
func (s *Scheduler) Remove(handle *Handle) {
	if s == nil || handle == nil {
		return
	}
	s.mu.Lock()
	delete(s.handles, handle.entryID)
	s.mu.Unlock()

	s.cron.Remove(rcron.EntryID(handle.entryID))
	handle.setStatus(StatusCanceled)
}

// Start begins executing scheduled jobs.
func (s *Scheduler) Start(_ context.Context) error {
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and marks live handles as stopped.
func (s *Scheduler) Stop(_ context.Context) error {
	s.cron.Stop()

	s.mu.Lock()
	handles := make([]*Handle, 0, len(s.handles))
	for _, h := range s.handles {
		handles = append(handles, h)
	}
	s.handles = make(map[int]*Handle)
	s.mu.Unlock()

	for _, h := range handles {
		h.setStatus(StatusStopped)
	}
	return nil
}

// loggerAdapter adapts lifecycle.Logger to robfig/cron's logger.
type loggerAdapter struct {
	logger lifecycle.Logger
}

func (l *loggerAdapter) Info(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

func (l *loggerAdapter) Error(err error, msg string, args ...any) {
	if err != nil {
		l.logger.Error("%s: %v", fmt.Sprintf(msg, args...), err)
		return
	}
	l.logger.Error(msg, args...)
}
