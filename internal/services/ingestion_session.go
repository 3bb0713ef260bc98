package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/benmeehan/gps-receiver/internal/constants"
	"github.com/benmeehan/gps-receiver/internal/models"
	"github.com/benmeehan/gps-receiver/internal/sinks"
	"github.com/benmeehan/gps-receiver/pkg/location"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BindError is returned by Start when the listening socket cannot be bound.
type BindError struct {
	Port uint16
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to bind to port %d: %v", e.Port, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// SessionConfig holds the liveness settings of an IngestionSession.
type SessionConfig struct {
	Listener      string        // Name attached to every emitted event
	Timeout       time.Duration // Silence after which the source is reported disconnected
	CheckInterval time.Duration // Interval between liveness checks
}

type listenFunc func(port uint16) (net.PacketConn, error)

func listenUDP(port uint16) (net.PacketConn, error) {
	return net.ListenUDP("udp", &net.UDPAddr{Port: int(port)})
}

// IngestionSession receives GPS datagrams on a single UDP endpoint, decodes them and
// tracks whether a live source is present. All decoding, state changes and event
// emission happen under one lock, so the read loop and the liveness check never interleave.
type IngestionSession struct {
	// Configuration fields
	id       string
	listener string
	timeout  time.Duration
	interval time.Duration

	// Dependencies
	decoder location.Decoder
	sink    sinks.EventSink
	logger  zerolog.Logger
	now     func() time.Time
	listen  listenFunc

	// Serializes Start and Stop
	lifecycle sync.Mutex

	// Guards everything below
	mu          sync.Mutex
	conn        net.PacketConn
	port        uint16
	generation  uint64
	listening   bool
	connected   bool
	lastSuccess time.Time // zero until the first decoded datagram
	cancel      context.CancelFunc

	wg sync.WaitGroup
}

// NewIngestionSession creates an idle session. Zero durations fall back to the defaults.
func NewIngestionSession(cfg SessionConfig, decoder location.Decoder, sink sinks.EventSink, logger zerolog.Logger) *IngestionSession {
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultConnectionTimeout
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = constants.DefaultLivenessCheckInterval
	}
	if decoder == nil {
		decoder = location.NewFormatDecoder()
	}

	id := uuid.New().String()
	return &IngestionSession{
		id:       id,
		listener: cfg.Listener,
		timeout:  cfg.Timeout,
		interval: cfg.CheckInterval,
		decoder:  decoder,
		sink:     sink,
		logger:   logger.With().Str("session_id", id).Str("listener", cfg.Listener).Logger(),
		now:      time.Now,
		listen:   listenUDP,
	}
}

// Start binds a UDP endpoint on port across all local interfaces. A session that is
// already listening is fully stopped first, so at most one endpoint is bound at a time.
// Port 0 lets the OS pick a free port; Port reports the one actually bound.
func (s *IngestionSession) Start(port uint16) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.shutdown()

	conn, err := s.listen(port)
	if err != nil {
		s.logger.Error().Err(err).Uint16("port", port).Msg("Failed to bind UDP socket")
		s.mu.Lock()
		s.emitLocked(models.Event{Type: constants.EventBindFailed, Port: port, Reason: err.Error()})
		s.mu.Unlock()
		return &BindError{Port: port, Err: err}
	}

	bound := port
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		bound = uint16(addr.Port)
	}

	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.conn = conn
	s.port = bound
	s.listening = true
	s.connected = false
	s.lastSuccess = time.Time{}
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(2)
	go s.readLoop(ctx, conn, gen)
	go s.livenessLoop(ctx, gen)

	s.logger.Info().
		Uint16("port", bound).
		Dur("timeout", s.timeout).
		Dur("check_interval", s.interval).
		Msg("UDP receiver started")
	return nil
}

// Stop closes the endpoint and reports the source as disconnected if it was connected.
// Once Stop returns no further events are emitted for the closed endpoint. Calling Stop
// on an idle session does nothing.
func (s *IngestionSession) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.shutdown()
}

// shutdown tears down the current endpoint, if any, and waits for its goroutines.
// The caller must hold the lifecycle lock.
func (s *IngestionSession) shutdown() {
	s.mu.Lock()
	if !s.listening {
		s.mu.Unlock()
		return
	}

	wasConnected := s.connected
	s.generation++
	s.listening = false
	s.connected = false
	s.cancel()
	if err := s.conn.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to close UDP socket")
	}
	if wasConnected {
		s.emitConnectivityLocked(false)
	}
	port := s.port
	s.conn = nil
	s.port = 0
	s.cancel = nil
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info().Uint16("port", port).Msg("UDP receiver stopped")
}

// ID returns the unique identifier of this session.
func (s *IngestionSession) ID() string {
	return s.id
}

// Listener returns the listener name attached to events.
func (s *IngestionSession) Listener() string {
	return s.listener
}

// IsListening reports whether an endpoint is bound.
func (s *IngestionSession) IsListening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listening
}

// IsConnected reports whether a valid datagram arrived within the timeout window.
func (s *IngestionSession) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Port returns the bound port, or 0 when idle.
func (s *IngestionSession) Port() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

func (s *IngestionSession) readLoop(ctx context.Context, conn net.PacketConn, gen uint64) {
	defer s.wg.Done()

	buf := make([]byte, constants.MaxDatagramSize)
	for {
		n, sender, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn().Err(err).Msg("Failed to read UDP datagram")
			continue
		}

		s.handleDatagram(gen, models.Datagram{
			Payload:    buf[:n],
			Sender:     sender,
			ReceivedAt: s.now(),
		})
	}
}

// handleDatagram decodes one datagram. Datagrams read for an endpoint that has since
// been stopped are dropped.
func (s *IngestionSession) handleDatagram(gen uint64, dg models.Datagram) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || !s.listening {
		return
	}

	fix, format, err := s.decoder.Decode(dg.Payload)
	if err != nil {
		s.logger.Debug().
			Str("sender", addrString(dg.Sender)).
			Bytes("data", dg.Payload).
			Msg("Failed to parse GPS data")
		s.emitLocked(models.Event{Type: constants.EventParseError, Message: constants.ParseErrorMessage})
		return
	}

	s.lastSuccess = dg.ReceivedAt
	if !s.connected {
		s.connected = true
		s.emitConnectivityLocked(true)
	}

	s.emitLocked(models.Event{
		Type: constants.EventFixReceived,
		Fix: &models.FixPayload{
			Latitude:  fix.Latitude(),
			Longitude: fix.Longitude(),
			Altitude:  fix.Altitude(),
			Format:    string(format),
		},
	})
}

func (s *IngestionSession) livenessLoop(ctx context.Context, gen uint64) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.checkLiveness(gen)
		case <-ctx.Done():
			return
		}
	}
}

// checkLiveness flips the session to disconnected once the last good datagram is older than the timeout.
func (s *IngestionSession) checkLiveness(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || !s.listening || !s.connected || s.lastSuccess.IsZero() {
		return
	}

	silence := s.now().Sub(s.lastSuccess)
	if silence <= s.timeout {
		return
	}

	s.connected = false
	s.logger.Info().Dur("silence", silence).Dur("timeout", s.timeout).Msg("Connection timeout, no GPS data received")
	s.emitConnectivityLocked(false)
}

func (s *IngestionSession) emitConnectivityLocked(connected bool) {
	s.emitLocked(models.Event{Type: constants.EventConnectivityChanged, Connected: &connected})
}

func (s *IngestionSession) emitLocked(event models.Event) {
	if s.sink == nil {
		return
	}
	event.SessionID = s.id
	event.Listener = s.listener
	if event.Port == 0 {
		event.Port = s.port
	}
	event.Timestamp = s.now()
	s.sink.Publish(event)
}

func addrString(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	return addr.String()
}
