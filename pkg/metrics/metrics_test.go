package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveCheck(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ObserveCheck(OutcomeFound, 150*time.Millisecond, 3)
	c.ObserveCheck(OutcomeError, time.Second, 0)
	c.ObserveCheck(OutcomeNotFound, 100*time.Millisecond, 0)
	c.ObserveCheck(OutcomeError, time.Second, 9)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.ChecksTotal.WithLabelValues(OutcomeFound)))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.ChecksTotal.WithLabelValues(OutcomeError)))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.AvailableStores))

	count, err := testutil.GatherAndCount(reg, "pickup_check_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestObserveNotification(t *testing.T) {
	c := New(nil)

	c.ObserveNotification("sms", nil)
	c.ObserveNotification("sms", nil)
	c.ObserveNotification("telegram", errors.New("down"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.NotificationsTotal.WithLabelValues("sms", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.NotificationsTotal.WithLabelValues("telegram", "failure")))
}

func TestNilCollectorsAreNoop(t *testing.T) {
	var c *Collectors
	c.ObserveCheck(OutcomeFound, time.Second, 1)
	c.ObserveNotification("sms", nil)
}
