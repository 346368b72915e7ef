package common

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/blinklabs-io/plutigo/data"

	"github.com/go-cardano/ctxbuilder/cbor"
)

func TestDatumIntegerRoundTrip(t *testing.T) {
	d := NewDatum(data.NewInteger(big.NewInt(42)))
	raw, err := cbor.Encode(d)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var decoded Datum
	if err := cbor.Decode(raw, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, ok := decoded.Value.(*data.Integer)
	if !ok {
		t.Fatalf("expected *data.Integer, got %T", decoded.Value)
	}
	if got.Inner.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("expected 42, got %v", got.Inner)
	}
}

func TestDatumByteStringChunking(t *testing.T) {
	long := bytes.Repeat([]byte{0xab}, 130)
	d := NewDatum(data.NewByteString(long))
	raw, err := cbor.Encode(d)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if raw[0] != 0x5f {
		t.Fatalf("expected indefinite-length byte string header 0x5f, got %#x", raw[0])
	}

	var decoded Datum
	if err := cbor.Decode(raw, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	bs, ok := decoded.Value.(*data.ByteString)
	if !ok {
		t.Fatalf("expected *data.ByteString, got %T", decoded.Value)
	}
	if !bytes.Equal(bs.Inner, long) {
		t.Fatalf("byte string did not round-trip")
	}
}

func TestDatumConstrRoundTrip(t *testing.T) {
	constr := data.NewConstr(0, data.NewInteger(big.NewInt(1)), data.NewByteString([]byte("hi")))
	d := NewDatum(constr)
	raw, err := cbor.Encode(d)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var decoded Datum
	if err := cbor.Decode(raw, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, ok := decoded.Value.(*data.Constr)
	if !ok {
		t.Fatalf("expected *data.Constr, got %T", decoded.Value)
	}
	if got.Tag != 0 {
		t.Fatalf("expected tag 0, got %d", got.Tag)
	}
	if len(got.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(got.Fields))
	}
}

func TestDatumPreservesOriginalBytesOnReencode(t *testing.T) {
	// A non-canonical (but valid) 2-byte-length-form encoding of the
	// integer 1 (definite-length tiny uint normally encodes in 1 byte).
	nonCanonical := []byte{0x18, 0x01}

	var decoded Datum
	if err := cbor.Decode(nonCanonical, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	reencoded, err := cbor.Encode(&decoded)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(reencoded, nonCanonical) {
		t.Fatalf("expected byte-preserving re-encode, got %x want %x", reencoded, nonCanonical)
	}
}

func TestDatumHashIsDeterministic(t *testing.T) {
	d := NewDatum(data.NewInteger(big.NewInt(7)))
	h1, err := d.Hash()
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	h2, err := d.Hash()
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("hash not deterministic")
	}
}
