package constants

import "time"

const (
	// DefaultConnectionTimeout is how long a source may stay silent before it is reported disconnected
	DefaultConnectionTimeout = 5 * time.Second
	// DefaultLivenessCheckInterval is how often the liveness check runs
	DefaultLivenessCheckInterval = 1 * time.Second
	// MaxDatagramSize is the largest UDP payload that can be received
	MaxDatagramSize = 65535
	// MinListenPort and MaxListenPort bound the ports a listener may be configured with
	MinListenPort = 1024
	MaxListenPort = 65535
)
