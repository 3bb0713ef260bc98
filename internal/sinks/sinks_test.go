package sinks

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/benmeehan/gps-receiver/internal/constants"
	"github.com/benmeehan/gps-receiver/internal/mocks"
	"github.com/benmeehan/gps-receiver/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func fixEvent(listener string) models.Event {
	return models.Event{
		Type:      constants.EventFixReceived,
		SessionID: "session-1",
		Listener:  listener,
		Port:      12345,
		Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Fix:       &models.FixPayload{Latitude: 48.1173, Longitude: 11.5167, Altitude: 545.4, Format: "nmea"},
	}
}

func connectivityEvent(listener string, connected bool) models.Event {
	return models.Event{Type: constants.EventConnectivityChanged, Listener: listener, Port: 12345, Connected: &connected}
}

func TestMultiSink_FansOut(t *testing.T) {
	var a, b []string
	multi := MultiSink{
		SinkFunc(func(e models.Event) { a = append(a, e.Type) }),
		nil,
		SinkFunc(func(e models.Event) { b = append(b, e.Type) }),
	}

	multi.Publish(fixEvent("gps"))
	assert.Equal(t, []string{constants.EventFixReceived}, a)
	assert.Equal(t, []string{constants.EventFixReceived}, b)
}

func TestLogSink_Levels(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(zerolog.New(&buf).Level(zerolog.InfoLevel))

	sink.Publish(fixEvent("gps"))
	assert.Empty(t, buf.String(), "fixes are logged at debug")

	sink.Publish(connectivityEvent("gps", true))
	sink.Publish(models.Event{Type: constants.EventParseError, Listener: "gps", Message: constants.ParseErrorMessage})
	sink.Publish(models.Event{Type: constants.EventBindFailed, Listener: "gps", Port: 80, Reason: "permission denied"})

	out := buf.String()
	assert.Contains(t, out, `"connected":true`)
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, constants.ParseErrorMessage)
	assert.Contains(t, out, `"reason":"permission denied"`)
}

func TestMQTTSink_PublishesJSON(t *testing.T) {
	client := new(mocks.MockMQTTClient)
	token := new(mocks.MockToken)
	token.On("WaitTimeout", time.Second).Return(true)
	token.On("Error").Return(nil)

	var payload []byte
	client.On("Publish", "fleet/gps/north/fix_received", byte(1), false, mock.Anything).
		Run(func(args mock.Arguments) { payload = args.Get(3).([]byte) }).
		Return(token)

	sink := NewMQTTSink(client, "fleet/gps/", 1, time.Second, zerolog.Nop())
	sink.Publish(fixEvent("north"))

	client.AssertExpectations(t)
	token.AssertExpectations(t)

	var decoded models.Event
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, constants.EventFixReceived, decoded.Type)
	require.NotNil(t, decoded.Fix)
	assert.Equal(t, 48.1173, decoded.Fix.Latitude)
	assert.Equal(t, "nmea", decoded.Fix.Format)
}

func TestMQTTSink_RetainsConnectivity(t *testing.T) {
	client := new(mocks.MockMQTTClient)
	token := new(mocks.MockToken)
	token.On("WaitTimeout", mock.Anything).Return(true)
	token.On("Error").Return(nil)
	client.On("Publish", "gps/default/connectivity_changed", byte(0), true, mock.Anything).Return(token)

	sink := NewMQTTSink(client, "gps", 0, time.Second, zerolog.Nop())
	sink.Publish(connectivityEvent("", false))

	client.AssertExpectations(t)
}

func TestMQTTSink_TimeoutAndErrorDoNotPanic(t *testing.T) {
	client := new(mocks.MockMQTTClient)
	slow := new(mocks.MockToken)
	slow.On("WaitTimeout", mock.Anything).Return(false)
	failing := new(mocks.MockToken)
	failing.On("WaitTimeout", mock.Anything).Return(true)
	failing.On("Error").Return(errors.New("not connected"))

	client.On("Publish", "gps/a/fix_received", mock.Anything, mock.Anything, mock.Anything).Return(slow).Once()
	client.On("Publish", "gps/a/fix_received", mock.Anything, mock.Anything, mock.Anything).Return(failing).Once()

	sink := NewMQTTSink(client, "gps", 0, 10*time.Millisecond, zerolog.Nop())
	sink.Publish(fixEvent("a"))
	sink.Publish(fixEvent("a"))

	client.AssertExpectations(t)
	slow.AssertNotCalled(t, "Error")
	failing.AssertExpectations(t)
}

func TestMetricsSink_CountsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewMetricsSink(reg)
	require.NoError(t, err)

	sink.Publish(fixEvent("gps"))
	sink.Publish(fixEvent("gps"))
	sink.Publish(models.Event{Type: constants.EventParseError, Listener: "gps"})
	sink.Publish(models.Event{Type: constants.EventBindFailed, Listener: "gps"})
	sink.Publish(connectivityEvent("gps", true))

	assert.Equal(t, 3.0, testutil.ToFloat64(sink.Datagrams.WithLabelValues("gps")))
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.Fixes.WithLabelValues("gps", "nmea")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.ParseErrors.WithLabelValues("gps")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.BindFailures.WithLabelValues("gps")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.Connected.WithLabelValues("gps")))

	sink.Publish(connectivityEvent("gps", false))
	assert.Equal(t, 0.0, testutil.ToFloat64(sink.Connected.WithLabelValues("gps")))
}

func TestMetricsSink_ReusesExistingCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewMetricsSink(reg)
	require.NoError(t, err)
	second, err := NewMetricsSink(reg)
	require.NoError(t, err)

	assert.Same(t, first.Fixes, second.Fixes)
}
