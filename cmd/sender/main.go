package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/benmeehan/gps-receiver/internal/simulator"
	"github.com/benmeehan/gps-receiver/pkg/location"
	"github.com/rs/zerolog"
)

func main() {
	host := flag.String("host", "localhost", "target host")
	port := flag.Int("port", 12345, "target UDP port")
	formatName := flag.String("format", "json", "data format: json, csv or nmea")
	interval := flag.Duration("interval", time.Second, "send interval")
	simulate := flag.Bool("simulate", false, "move on a circle instead of jittering in place")
	count := flag.Int("count", 0, "number of datagrams to send, 0 for unlimited")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}).With().Timestamp().Logger()

	if *interval <= 0 {
		logger.Fatal().Dur("interval", *interval).Msg("Send interval must be positive")
	}

	format, err := location.ParseFormat(*formatName)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid format")
	}

	dest := net.JoinHostPort(*host, strconv.Itoa(*port))
	sender, err := simulator.NewSender(dest, format, *interval, *simulate, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("dest", dest).Msg("Failed to create sender")
	}
	defer sender.Close()

	logger.Info().
		Str("dest", dest).
		Str("format", string(format)).
		Dur("interval", *interval).
		Bool("simulate", *simulate).
		Msg("Starting GPS UDP sender, press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sender.Run(ctx, *count); err != nil {
		logger.Error().Err(err).Msg("Sender stopped")
		return
	}
	logger.Info().Msg("Stopping GPS sender")
}
