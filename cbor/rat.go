package cbor

import (
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// ratTagNumber is the CBOR tag for "decimal fraction expressed as
// numerator/denominator pair of bignums", used by the ledger for rational
// protocol parameters (pool margins, unit intervals).
const ratTagNumber = 30

// Rat wraps math/big.Rat with CBOR tag-30 [numerator, denominator] encoding.
type Rat struct {
	big.Rat
}

// NewRat builds a Rat from an integer numerator and denominator.
func NewRat(num, denom int64) *Rat {
	r := &Rat{}
	r.SetFrac64(num, denom)
	return r
}

// MarshalCBOR encodes the rational as tag(30, [num, denom]).
func (r Rat) MarshalCBOR() ([]byte, error) {
	num := r.Num()
	denom := r.Denom()
	content := []*big.Int{num, denom}
	return Encode(cbor.Tag{Number: ratTagNumber, Content: content})
}

// UnmarshalCBOR decodes a tag-30 rational into r.
func (r *Rat) UnmarshalCBOR(data []byte) error {
	var raw cbor.RawTag
	if err := decMode.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("cbor: decode rat: %w", err)
	}
	if raw.Number != ratTagNumber {
		return fmt.Errorf("%w: expected tag %d, got %d", ErrUnsupportedMajorType, ratTagNumber, raw.Number)
	}
	var pair [2]*big.Int
	if err := decMode.Unmarshal(raw.Content, &pair); err != nil {
		return fmt.Errorf("cbor: decode rat content: %w", err)
	}
	if pair[1] == nil || pair[1].Sign() == 0 {
		return fmt.Errorf("cbor: rat denominator is zero")
	}
	r.SetFrac(pair[0], pair[1])
	return nil
}

// Float64 returns the rational as a float64 approximation.
func (r *Rat) Float64() float64 {
	f, _ := r.Rat.Float64()
	return f
}
