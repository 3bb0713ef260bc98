package services

import (
	"testing"
	"time"

	"github.com/benmeehan/gps-receiver/internal/constants"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenerService_StartStop(t *testing.T) {
	sink := &recordingSink{}
	l := NewListenerService("primary", 0, SessionConfig{Timeout: time.Second, CheckInterval: time.Hour}, nil, sink, zerolog.Nop())

	require.NoError(t, l.Start())
	assert.True(t, l.Session().IsListening())
	assert.Equal(t, "primary", l.Session().Listener())

	err := l.Start()
	assert.EqualError(t, err, "listener service is already running")

	send(t, l.Session().Port(), "12.5,45.25")
	sink.waitFor(t, constants.EventFixReceived, 1)
	assert.Equal(t, "primary", sink.ofType(constants.EventFixReceived)[0].Listener)

	require.NoError(t, l.Stop())
	assert.False(t, l.Session().IsListening())

	err = l.Stop()
	assert.EqualError(t, err, "listener service is not running")
}
