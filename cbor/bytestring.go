package cbor

// ByteString is a comparable wrapper around a byte slice, usable as a map
// key (CBOR map keys and Go map keys both need equality/ordering, and a raw
// []byte can't be a map key). Native asset names and similar opaque byte
// identifiers are carried as ByteString throughout the ledger packages.
type ByteString struct {
	value string
}

// NewByteString wraps b as a ByteString. The bytes are copied defensively
// only by value semantics of the Go string conversion (immutable once wrapped).
func NewByteString(b []byte) ByteString {
	return ByteString{value: string(b)}
}

// Bytes returns the wrapped bytes.
func (b ByteString) Bytes() []byte {
	return []byte(b.value)
}

// String returns the raw bytes reinterpreted as a string (not hex).
func (b ByteString) String() string {
	return b.value
}

// MarshalCBOR encodes the wrapped bytes as a CBOR byte string (major type 2).
func (b ByteString) MarshalCBOR() ([]byte, error) {
	return Encode([]byte(b.value))
}

// UnmarshalCBOR decodes a CBOR byte string into b.
func (b *ByteString) UnmarshalCBOR(data []byte) error {
	var raw []byte
	if err := Decode(data, &raw); err != nil {
		return err
	}
	b.value = string(raw)
	return nil
}
