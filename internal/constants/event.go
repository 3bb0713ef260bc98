package constants

// Event types emitted by an ingestion session
const (
	// EventFixReceived is emitted for every successfully decoded datagram
	EventFixReceived = "fix_received"
	// EventConnectivityChanged is emitted when the data source appears or goes silent
	EventConnectivityChanged = "connectivity_changed"
	// EventParseError is emitted when a datagram matches no supported format
	EventParseError = "parse_error"
	// EventBindFailed is emitted when the listening socket cannot be bound
	EventBindFailed = "bind_failed"
)

// ParseErrorMessage is the message carried by parse error events.
const ParseErrorMessage = "Failed to parse GPS data"
