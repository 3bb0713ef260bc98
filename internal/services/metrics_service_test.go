package services

import (
	"io"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsService_ServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_events_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Add(3)

	m := NewMetricsService("127.0.0.1:0", "/metrics", reg, zerolog.Nop())
	require.NoError(t, m.Start())

	assert.EqualError(t, m.Start(), "metrics service is already running")

	resp, err := http.Get("http://" + m.Addr().String() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "test_events_total 3")

	require.NoError(t, m.Stop())
	assert.Nil(t, m.Addr())
	assert.EqualError(t, m.Stop(), "metrics service is not running")
}

func TestMetricsService_BindFailure(t *testing.T) {
	m := NewMetricsService("127.0.0.1:-1", "/metrics", prometheus.NewRegistry(), zerolog.Nop())
	assert.Error(t, m.Start())
}
