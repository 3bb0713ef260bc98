package models

import (
	"net"
	"time"
)

// Datagram is a single payload read from the listening socket.
type Datagram struct {
	Payload    []byte
	Sender     net.Addr
	ReceivedAt time.Time
}
