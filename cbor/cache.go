package cbor

// DecodeStoreCbor is embedded in wire types whose original encoded bytes
// must be preserved and re-emitted verbatim on re-encode, rather than
// re-derived from the decoded Go value. This matters wherever CBOR
// determinism can't be guaranteed to survive a decode/re-encode round trip
// for data this library didn't produce (a counterparty's transaction body,
// a datum that used indefinite-length encoding) but whose hash must stay
// stable. Call SetCbor during a custom UnmarshalCBOR; the embedding type's
// MarshalCBOR should return Cbor() when it is set, and only fall back to
// re-deriving bytes from fields after a caller explicitly clears the cache
// (because a field changed).
type DecodeStoreCbor struct {
	cborData []byte
}

// Cbor returns the cached original bytes, or nil if none are cached (the
// value was constructed in Go, not decoded from the wire).
func (d *DecodeStoreCbor) Cbor() []byte {
	if d == nil || d.cborData == nil {
		return nil
	}
	out := make([]byte, len(d.cborData))
	copy(out, d.cborData)
	return out
}

// SetCbor stores a defensive copy of data as the cached original encoding.
func (d *DecodeStoreCbor) SetCbor(data []byte) {
	d.cborData = make([]byte, len(data))
	copy(d.cborData, data)
}

// ClearCbor drops the cached bytes, forcing the next MarshalCBOR to
// re-derive the encoding from the current field values.
func (d *DecodeStoreCbor) ClearCbor() {
	d.cborData = nil
}

// HasCbor reports whether original bytes are cached.
func (d *DecodeStoreCbor) HasCbor() bool {
	return d != nil && d.cborData != nil
}
