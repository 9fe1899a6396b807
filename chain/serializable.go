package chain

import "encoding"

// Serializable is implemented by types that round-trip through the framed
// wire encoding (see wire.go). The hash preimage of a Hashable is a
// different, non-self-delimiting encoding and never round-trips.
type Serializable interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}
