package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"pickupwatch/pkg/logger"
)

// Job statuses
const (
	JobStatusScheduled = "scheduled"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

var (
	ErrInvalidInterval = errors.New("interval must be positive")
	ErrJobNotFound     = errors.New("job not found")
	ErrJobPanicked     = errors.New("job panicked")
)

// Job is one unit of scheduled work. A returned error is logged; it never
// stops the schedule.
type Job func(ctx context.Context) error

// Repeater runs jobs every interval, anchored to a time zone. Callers do not
// depend on the cron library behind it.
type Repeater interface {
	Every(name string, interval time.Duration, job Job) (*ScheduledJob, error)
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
	Jobs() []ScheduledJob
}

// ScheduledJob represents a scheduled job
type ScheduledJob struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Cron     string        `json:"cron"`
	Interval time.Duration `json:"interval"`
	NextRun  time.Time     `json:"next_run"`
	LastRun  time.Time     `json:"last_run"`
	Status   string        `json:"status"`
	Runs     int           `json:"runs"`
	Failures int           `json:"failures"`
	EntryID  cron.EntryID  `json:"-"`

	job cron.Job
}

// Config holds scheduler configuration
type Config struct {
	Location *time.Location
	// AllowOverlap lets a tick start while the previous run is still going.
	AllowOverlap bool
	// RunImmediately runs every job once when Start is called.
	RunImmediately bool
}

// CronScheduler implements Repeater on robfig/cron.
type CronScheduler struct {
	cron      *cron.Cron
	config    Config
	ctx       context.Context
	jobs      map[string]*ScheduledJob
	jobsMutex sync.RWMutex
	wg        sync.WaitGroup
}

var _ Repeater = (*CronScheduler)(nil)

func NewCronScheduler(cfg Config) *CronScheduler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &CronScheduler{
		cron: cron.New(
			cron.WithLocation(cfg.Location),
			cron.WithSeconds(),
			cron.WithLogger(cronLogger{}),
		),
		config: cfg,
		ctx:    context.Background(),
		jobs:   make(map[string]*ScheduledJob),
	}
}

// Every registers job under name, converting interval to a cron spec.
func (s *CronScheduler) Every(name string, interval time.Duration, job Job) (*ScheduledJob, error) {
	spec, err := cronSpec(interval)
	if err != nil {
		return nil, err
	}

	sj := &ScheduledJob{
		ID:       uuid.New().String(),
		Name:     name,
		Cron:     spec,
		Interval: interval,
		Status:   JobStatusScheduled,
	}
	sj.job = s.wrap(sj, job)

	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	entryID, err := s.cron.AddJob(spec, sj.job)
	if err != nil {
		return nil, fmt.Errorf("failed to add cron job: %w", err)
	}
	sj.EntryID = entryID
	sj.NextRun = s.cron.Entry(entryID).Next

	s.jobs[sj.ID] = sj

	logger.Info("Added scheduled job",
		zap.String("job_id", sj.ID),
		zap.String("job_name", name),
		zap.String("cron", spec),
		zap.String("location", s.config.Location.String()))

	cp := *sj
	return &cp, nil
}

// Start starts the cron loop and blocks until ctx is cancelled.
func (s *CronScheduler) Start(ctx context.Context) error {
	logger.Info("Starting task scheduler", zap.String("location", s.config.Location.String()))

	s.jobsMutex.Lock()
	s.ctx = ctx
	var immediate []cron.Job
	if s.config.RunImmediately {
		for _, sj := range s.jobs {
			immediate = append(immediate, sj.job)
		}
	}
	s.jobsMutex.Unlock()

	s.cron.Start()

	// Same wrapped job as the cron entry, so overlap protection covers it.
	for _, j := range immediate {
		s.wg.Add(1)
		go func(j cron.Job) {
			defer s.wg.Done()
			j.Run()
		}(j)
	}

	s.logScheduledJobs()

	<-ctx.Done()
	logger.Info("Task scheduler context cancelled")
	return nil
}

// Shutdown gracefully shuts down the task scheduler
func (s *CronScheduler) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down task scheduler")

	cronCtx := s.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-cronCtx.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("All scheduled jobs completed")
		return nil
	case <-ctx.Done():
		logger.Warn("Scheduler shutdown timeout, some jobs may still be running")
		return ctx.Err()
	}
}

// Jobs returns copies of all scheduled jobs with fresh next-run times.
func (s *CronScheduler) Jobs() []ScheduledJob {
	s.jobsMutex.RLock()
	defer s.jobsMutex.RUnlock()

	jobs := make([]ScheduledJob, 0, len(s.jobs))
	for _, sj := range s.jobs {
		cp := *sj
		if entry := s.cron.Entry(sj.EntryID); entry.Valid() {
			cp.NextRun = entry.Next
		}
		cp.job = nil
		jobs = append(jobs, cp)
	}
	return jobs
}

// RemoveJob removes a scheduled job
func (s *CronScheduler) RemoveJob(jobID string) error {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	sj, exists := s.jobs[jobID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	s.cron.Remove(sj.EntryID)
	delete(s.jobs, jobID)

	logger.Info("Removed scheduled job", zap.String("job_id", jobID), zap.String("job_name", sj.Name))
	return nil
}

func (s *CronScheduler) wrap(sj *ScheduledJob, job Job) cron.Job {
	run := cron.FuncJob(func() {
		s.jobsMutex.Lock()
		sj.Status = JobStatusRunning
		sj.LastRun = time.Now().In(s.config.Location)
		ctx := s.ctx
		s.jobsMutex.Unlock()

		ctx = logger.WithJob(ctx, sj.Name)
		logger.FromContext(ctx).Debug("Executing scheduled job", zap.String("job_id", sj.ID))

		err := callJob(ctx, job)

		s.jobsMutex.Lock()
		sj.Runs++
		if err != nil {
			sj.Status = JobStatusFailed
			sj.Failures++
		} else {
			sj.Status = JobStatusCompleted
		}
		s.jobsMutex.Unlock()

		if err != nil {
			logger.FromContext(ctx).Error("Scheduled job failed", zap.Error(err))
		}
	})

	// SkipIfStillRunning must stay outermost: it only returns its token when
	// the inner job returns, so a panic has to be stopped inside it.
	var wrappers []cron.JobWrapper
	if !s.config.AllowOverlap {
		wrappers = append(wrappers, cron.SkipIfStillRunning(cronLogger{}))
	}
	wrappers = append(wrappers, cron.Recover(cronLogger{}))
	return cron.NewChain(wrappers...).Then(run)
}

// callJob turns a panic into an error so the run is counted as failed.
func callJob(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrJobPanicked, r)
		}
	}()
	return job(ctx)
}

func (s *CronScheduler) logScheduledJobs() {
	for _, sj := range s.Jobs() {
		logger.Info("Scheduled job",
			zap.String("job_name", sj.Name),
			zap.String("cron", sj.Cron),
			zap.Time("next_run", sj.NextRun),
			zap.String("status", sj.Status))
	}
}

// cronSpec turns an interval into a six-field spec aligned to the wall
// clock when the interval divides the next larger unit evenly; otherwise
// it falls back to @every, which counts from Start.
func cronSpec(interval time.Duration) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}

	switch {
	case interval%time.Hour == 0 && 24%int(interval/time.Hour) == 0:
		return fmt.Sprintf("0 0 */%d * * *", interval/time.Hour), nil
	case interval%time.Minute == 0 && interval < time.Hour && 60%int(interval/time.Minute) == 0:
		return fmt.Sprintf("0 */%d * * * *", interval/time.Minute), nil
	case interval%time.Second == 0 && interval < time.Minute && 60%int(interval/time.Second) == 0:
		return fmt.Sprintf("*/%d * * * * *", interval/time.Second), nil
	}
	return "@every " + interval.String(), nil
}

// RunOnce runs job a single time. On success it waits linger so the final
// progress line can render before the process exits.
func RunOnce(ctx context.Context, job Job, linger time.Duration) error {
	if err := job(ctx); err != nil {
		return err
	}
	if linger <= 0 {
		return nil
	}

	timer := time.NewTimer(linger)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
	return nil
}

// cronLogger routes robfig/cron's logging into zap.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Sugar.Debugw("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Sugar.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
