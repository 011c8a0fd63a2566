package tasks

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pickupwatch/pkg/apple"
	"pickupwatch/pkg/metrics"
	"pickupwatch/pkg/notifier"
	"pickupwatch/pkg/progress"
)

type stubChecker struct {
	result *apple.CheckResult
	err    error
	calls  int
}

func (s *stubChecker) Check(ctx context.Context, sel apple.Selection) (*apple.CheckResult, error) {
	s.calls++
	return s.result, s.err
}

type stubNotifier struct {
	err    error
	stores [][]apple.StoreAvailability
}

func (s *stubNotifier) Name() string { return "stub" }

func (s *stubNotifier) Notify(ctx context.Context, sel apple.Selection, stores []apple.StoreAvailability) error {
	s.stores = append(s.stores, stores)
	return s.err
}

type recorder struct {
	states   []progress.State
	persists int
}

func (r *recorder) Render(s progress.State) { r.states = append(r.states, s) }

func (r *recorder) Persist() { r.persists++ }

var checkedAt = time.Date(2016, 9, 16, 8, 0, 0, 0, time.UTC)

func selection() apple.Selection {
	return apple.Selection{Model: apple.ModelSeven, Color: apple.ColorRose, Capacity: 32, Carrier: "sprint", Zip: "60601"}
}

func foundResult() *apple.CheckResult {
	return &apple.CheckResult{
		CheckedAt:  checkedAt,
		StoresSeen: 2,
		Available:  []apple.StoreAvailability{{StoreName: "Michigan Avenue", ReservationURL: "http://reserve/R669"}},
	}
}

func TestPickupTaskFound(t *testing.T) {
	n := &stubNotifier{}
	rec := &recorder{}
	status := NewStatusStore(5)
	m := metrics.New(prometheus.NewRegistry())

	task := NewPickupTask(selection(), &stubChecker{result: foundResult()}, n,
		WithProgress(rec), WithStatus(status), WithMetrics(m))

	outcome, err := task.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, TaskStatusFound, outcome.Status)
	assert.True(t, outcome.Notified)
	assert.NotEmpty(t, outcome.RunID)
	assert.Equal(t, progress.Found(), outcome.State)
	require.Len(t, n.stores, 1)
	assert.Equal(t, "Michigan Avenue", n.stores[0][0].StoreName)

	require.NotEmpty(t, rec.states)
	assert.Equal(t, progress.Checking(), rec.states[0])
	assert.Equal(t, progress.Searching(), rec.states[1])
	assert.Equal(t, progress.Found(), rec.states[len(rec.states)-1])
	assert.Equal(t, 1, rec.persists)

	snap := status.Snapshot()
	assert.Equal(t, 1, snap.Runs)
	assert.Equal(t, 1, snap.Found)
	assert.Equal(t, 0, snap.Running)
	require.NotNil(t, snap.Last)
	assert.Equal(t, outcome.RunID, snap.Last.RunID)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChecksTotal.WithLabelValues(metrics.OutcomeFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AvailableStores))
}

func TestPickupTaskNotFound(t *testing.T) {
	n := &stubNotifier{}
	result := &apple.CheckResult{CheckedAt: checkedAt, StoresSeen: 4}

	outcome, err := NewPickupTask(selection(), &stubChecker{result: result}, n).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, TaskStatusNotFound, outcome.Status)
	assert.False(t, outcome.Notified)
	assert.Empty(t, n.stores)
	assert.Equal(t, progress.NoneAvailable(checkedAt), outcome.State)
}

func TestPickupTaskCheckError(t *testing.T) {
	n := &stubNotifier{}
	status := NewStatusStore(5)
	cause := &apple.HTTPStatusError{StatusCode: 503}

	outcome, err := NewPickupTask(selection(), &stubChecker{err: cause}, n, WithStatus(status)).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCheckFailed)

	var statusErr *apple.HTTPStatusError
	assert.True(t, errors.As(err, &statusErr))

	assert.Equal(t, TaskStatusFailed, outcome.Status)
	assert.NotEmpty(t, outcome.Error)
	assert.Empty(t, n.stores)
	assert.Equal(t, 1, status.Snapshot().Failures)
}

func TestPickupTaskNotificationError(t *testing.T) {
	n := &stubNotifier{err: errors.New("twilio down")}

	outcome, err := NewPickupTask(selection(), &stubChecker{result: foundResult()}, n).Run(context.Background())
	assert.ErrorIs(t, err, ErrNotificationFailed)
	assert.Equal(t, TaskStatusFailed, outcome.Status)
	assert.False(t, outcome.Notified)
	assert.Contains(t, outcome.Error, "twilio down")
}

func TestPickupTaskRunsAreIndependent(t *testing.T) {
	n := &stubNotifier{}
	checker := &stubChecker{result: foundResult()}
	task := NewPickupTask(selection(), checker, n)

	first, err := task.Run(context.Background())
	require.NoError(t, err)
	second, err := task.Run(context.Background())
	require.NoError(t, err)

	// no de-duplication: every run that finds stock notifies
	assert.Len(t, n.stores, 2)
	assert.Equal(t, 2, checker.calls)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestStatusStoreKeepsRecentHistory(t *testing.T) {
	s := NewStatusStore(2)
	for i := 0; i < 3; i++ {
		o := &Outcome{RunID: string(rune('a' + i)), Status: TaskStatusNotFound}
		s.begin(o)
		s.record(o)
	}

	snap := s.Snapshot()
	assert.Equal(t, 3, snap.Runs)
	require.Len(t, snap.History, 2)
	assert.Equal(t, "b", snap.History[0].RunID)
	assert.Equal(t, "c", snap.Last.RunID)

	var nilStore *StatusStore
	assert.Equal(t, 0, nilStore.Snapshot().Runs)
}

func TestConsoleOutputSharesStdoutWithProgress(t *testing.T) {
	var buf bytes.Buffer
	task := NewPickupTask(selection(), &stubChecker{result: foundResult()}, notifier.NewConsoleNotifier(&buf),
		WithProgress(progress.NewSpinner(&buf, false)))

	_, err := task.Run(context.Background())
	require.NoError(t, err)

	out := buf.String()
	assert.NotContains(t, out, "\r")
	assert.NotContains(t, out, "\x1b")

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Greater(t, len(lines), 3, out)
	assert.Equal(t, progress.Checking().Text, lines[0])
	assert.Equal(t, progress.Searching().Text, lines[1])
	assert.Equal(t, "✔︎ "+selection().String(), lines[2])
	assert.Equal(t, progress.Found().Text, lines[len(lines)-1])
}
