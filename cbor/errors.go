package cbor

import "errors"

// Error taxonomy for the CBOR layer. Callers should use errors.Is against
// these sentinels rather than matching on message text.
var (
	// ErrTrailingData is returned when Decode is given more bytes than one
	// well-formed CBOR item consumes.
	ErrTrailingData = errors.New("cbor: trailing data after item")
	// ErrUnsupportedMajorType is returned by custom decoders that encounter
	// a wire shape they don't recognize (e.g. a tagged union with an unknown
	// discriminant).
	ErrUnsupportedMajorType = errors.New("cbor: unsupported or unrecognized CBOR shape")
	// ErrIndefiniteLength is returned when code that explicitly rejects
	// indefinite-length items (for deterministic re-emission) encounters one.
	ErrIndefiniteLength = errors.New("cbor: indefinite-length item not allowed here")
)
