package location

// Decoder turns a raw datagram payload into a Fix.
type Decoder interface {
	Decode(data []byte) (Fix, Format, error)
}
