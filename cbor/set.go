package cbor

import "github.com/fxamacker/cbor/v2"

// setTagNumber is the CBOR tag the Conway ledger uses to mark a "non-empty
// set" (as opposed to a plain list) when CDDL calls for `set<a>`.
const setTagNumber = 258

// Set is a CBOR set: a list of items that may be wire-tagged 258 to signal
// set semantics. Constructed via NewSetType, which records whether the
// original item wanted the tag (the conway ledger CDDL uses untagged lists
// in some contexts and tag-258 sets in others, both decoding to a Go slice).
type Set[T any] struct {
	items  []T
	tagged bool
}

// NewSetType wraps items as a Set. tagged controls whether MarshalCBOR emits
// the items as tag(258, [...]) (true) or a plain array (false).
func NewSetType[T any](items []T, tagged bool) *Set[T] {
	return &Set[T]{items: items, tagged: tagged}
}

// Items returns the underlying slice.
func (s *Set[T]) Items() []T {
	if s == nil {
		return nil
	}
	return s.items
}

// Len returns the number of items, 0 for a nil Set.
func (s *Set[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// MarshalCBOR encodes the set as tag(258, [...]) when tagged, or a bare
// array otherwise.
func (s *Set[T]) MarshalCBOR() ([]byte, error) {
	if s == nil || len(s.items) == 0 {
		return Encode([]T{})
	}
	if s.tagged {
		return Encode(cbor.Tag{Number: setTagNumber, Content: s.items})
	}
	return Encode(s.items)
}

// UnmarshalCBOR decodes either a tag-258 set or a bare array into s.
func (s *Set[T]) UnmarshalCBOR(data []byte) error {
	var raw cbor.RawTag
	if err := decMode.Unmarshal(data, &raw); err == nil && raw.Number == setTagNumber {
		var items []T
		if err := decMode.Unmarshal(raw.Content, &items); err != nil {
			return err
		}
		s.items = items
		s.tagged = true
		return nil
	}
	var items []T
	if err := decMode.Unmarshal(data, &items); err != nil {
		return err
	}
	s.items = items
	s.tagged = false
	return nil
}
