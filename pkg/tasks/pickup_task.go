package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pickupwatch/pkg/apple"
	"pickupwatch/pkg/logger"
	"pickupwatch/pkg/metrics"
	"pickupwatch/pkg/notifier"
	"pickupwatch/pkg/progress"
)

// PickupTask checks one selection and notifies when stock is found. Each
// Run is independent: nothing carries over between runs.
type PickupTask struct {
	selection apple.Selection
	checker   Checker
	notifier  notifier.Notifier
	reporter  Reporter
	metrics   *metrics.Collectors
	status    *StatusStore
	now       func() time.Time
}

type TaskOption func(*PickupTask)

// WithProgress sends progress states to r.
func WithProgress(r Reporter) TaskOption {
	return func(t *PickupTask) { t.reporter = r }
}

func WithMetrics(m *metrics.Collectors) TaskOption {
	return func(t *PickupTask) { t.metrics = m }
}

// WithStatus records every run in s.
func WithStatus(s *StatusStore) TaskOption {
	return func(t *PickupTask) { t.status = s }
}

func NewPickupTask(sel apple.Selection, checker Checker, n notifier.Notifier, opts ...TaskOption) *PickupTask {
	t := &PickupTask{
		selection: sel,
		checker:   checker,
		notifier:  n,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *PickupTask) Selection() apple.Selection {
	return t.selection
}

// Run performs one check. The returned Outcome is never nil; the error is
// set when the check or the primary notification failed.
func (t *PickupTask) Run(ctx context.Context) (*Outcome, error) {
	runID := uuid.New().String()
	ctx = logger.WithRunID(ctx, runID)
	log := logger.FromContext(ctx)

	outcome := &Outcome{
		RunID:     runID,
		Status:    TaskStatusRunning,
		StartTime: t.now(),
	}
	t.status.begin(outcome)

	t.render(progress.Checking())
	t.render(progress.Searching())

	result, err := t.checker.Check(ctx, t.selection)
	if err != nil {
		log.Error("Availability check failed", zap.Error(err))
		return t.finish(outcome, metrics.OutcomeError, progress.Failed(err), fmt.Errorf("%w: %w", ErrCheckFailed, err))
	}
	outcome.Result = result

	if !result.Found() {
		log.Info("No store has the selection", zap.Int("stores_seen", result.StoresSeen))
		outcome.Status = TaskStatusNotFound
		return t.finish(outcome, metrics.OutcomeNotFound, progress.NoneAvailable(result.CheckedAt), nil)
	}

	log.Info("Selection available",
		zap.Int("stores", len(result.Available)),
		zap.String("notifier", t.notifier.Name()))

	t.persist()
	if err := t.notifier.Notify(ctx, t.selection, result.Available); err != nil {
		log.Error("Notification failed", zap.Error(err))
		return t.finish(outcome, metrics.OutcomeFound, progress.Failed(err), fmt.Errorf("%w: %w", ErrNotificationFailed, err))
	}

	outcome.Status = TaskStatusFound
	outcome.Notified = true
	return t.finish(outcome, metrics.OutcomeFound, progress.Found(), nil)
}

func (t *PickupTask) finish(outcome *Outcome, metricOutcome string, state progress.State, err error) (*Outcome, error) {
	outcome.EndTime = t.now()
	outcome.Duration = outcome.EndTime.Sub(outcome.StartTime)
	outcome.State = state
	if err != nil {
		outcome.Status = TaskStatusFailed
		outcome.Error = err.Error()
	}

	stores := 0
	if outcome.Result != nil {
		stores = len(outcome.Result.Available)
	}
	t.metrics.ObserveCheck(metricOutcome, outcome.Duration, stores)
	t.status.record(outcome)
	t.render(state)
	return outcome, err
}

func (t *PickupTask) render(s progress.State) {
	if t.reporter != nil {
		t.reporter.Render(s)
	}
}

func (t *PickupTask) persist() {
	if t.reporter != nil {
		t.reporter.Persist()
	}
}
