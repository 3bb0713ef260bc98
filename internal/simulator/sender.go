package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/benmeehan/gps-receiver/pkg/location"
	"github.com/rs/zerolog"
)

// Sender writes simulated fixes to a UDP destination at a fixed interval.
type Sender struct {
	conn      io.WriteCloser
	format    location.Format
	interval  time.Duration
	moving    bool
	simulator *GPSSimulator
	logger    zerolog.Logger
	now       func() time.Time
}

// ErrInvalidInterval is returned for a send interval that is not positive.
var ErrInvalidInterval = errors.New("send interval must be positive")

// NewSender dials the UDP destination host:port.
func NewSender(dest string, format location.Format, interval time.Duration, moving bool, logger zerolog.Logger) (*Sender, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w, got %s", ErrInvalidInterval, interval)
	}

	addr, err := net.ResolveUDPAddr("udp", dest)
	if err != nil {
		return nil, fmt.Errorf("resolve dest: %w", err)
	}

	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial udp: %w", err)
	}

	return newSender(conn, format, interval, moving, logger), nil
}

func newSender(conn io.WriteCloser, format location.Format, interval time.Duration, moving bool, logger zerolog.Logger) *Sender {
	return &Sender{
		conn:      conn,
		format:    format,
		interval:  interval,
		moving:    moving,
		simulator: NewGPSSimulator(),
		logger:    logger,
		now:       time.Now,
	}
}

// Payload renders the next simulated position in the configured format.
func (s *Sender) Payload() ([]byte, location.Fix, error) {
	now := s.now()
	lat, lon, alt := s.simulator.Position(s.moving, now)
	fix, err := location.NewFix(lat, lon, alt)
	if err != nil {
		return nil, location.Fix{}, err
	}

	if s.format == location.FormatJSON {
		accuracy, speed, heading := 3.5, 0.0, 0.0
		payload, err := location.EncodeJSON(location.Report{
			Latitude:  fix.Latitude(),
			Longitude: fix.Longitude(),
			Altitude:  fix.Altitude(),
			Timestamp: &now,
			Accuracy:  &accuracy,
			Speed:     &speed,
			Heading:   &heading,
		})
		return payload, fix, err
	}

	payload, err := location.Encode(fix, s.format, now)
	return payload, fix, err
}

// SendOnce sends a single datagram.
func (s *Sender) SendOnce() error {
	payload, fix, err := s.Payload()
	if err != nil {
		return err
	}
	if _, err := s.conn.Write(payload); err != nil {
		return fmt.Errorf("write datagram: %w", err)
	}

	s.logger.Info().
		Float64("latitude", fix.Latitude()).
		Float64("longitude", fix.Longitude()).
		Float64("altitude", fix.Altitude()).
		Str("format", string(s.format)).
		Msg("Sent")
	return nil
}

// Run sends a datagram every interval until ctx is done or count datagrams
// have been sent. A count of 0 sends until cancelled.
func (s *Sender) Run(ctx context.Context, count int) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for sent := 0; count == 0 || sent < count; sent++ {
		if err := s.SendOnce(); err != nil {
			return err
		}
		if count != 0 && sent+1 == count {
			return nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}

// Close closes the underlying socket.
func (s *Sender) Close() error {
	return s.conn.Close()
}
