package updatemetrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"updatectl/internal/autoupdater"
)

func TestObserveCountsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)
	m.now = func() time.Time { return time.Unix(1692078308, 0) }

	ch := autoupdater.NewChannel()
	stop := m.Observe(ch)
	ch.Publish(autoupdater.CheckingForUpdateEvent{})
	ch.Publish(autoupdater.UpdateAvailableEvent{})
	ch.Publish(autoupdater.UpdateDownloadedEvent{Path: "/tmp/a.deb"})
	ch.Publish(autoupdater.CheckingForUpdateEvent{})
	ch.Publish(autoupdater.ErrorEvent{Err: errors.New("boom")})
	stop()
	ch.Publish(autoupdater.CheckingForUpdateEvent{})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues("checking-for-update")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("update-available")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("update-downloaded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("error")))
	assert.Equal(t, 1692078308.0, testutil.ToFloat64(m.lastDownloaded))
}

func TestNewRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}
