package cbor

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	type inner struct {
		StructAsArray
		A uint64
		B []byte
	}
	in := inner{A: 7, B: []byte{1, 2, 3}}
	data, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var out inner
	if err := Decode(data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.A != in.A || !bytes.Equal(out.B, in.B) {
		t.Fatalf("round trip mismatch: got %+v", out)
	}
}

func TestDecodeRejectsTrailingData(t *testing.T) {
	data, err := Encode(uint64(5))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	data = append(data, 0xFF)
	var out uint64
	if err := Decode(data, &out); err == nil {
		t.Fatal("expected trailing-data error")
	}
}

func TestByteStringRoundTrip(t *testing.T) {
	bs := NewByteString([]byte("asset-name"))
	data, err := Encode(bs)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var out ByteString
	if err := Decode(data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.String() != bs.String() {
		t.Fatalf("got %q want %q", out.String(), bs.String())
	}
}

func TestRatRoundTrip(t *testing.T) {
	r := NewRat(3, 5)
	data, err := Encode(r)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var out Rat
	if err := Decode(data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Float64() != r.Float64() {
		t.Fatalf("got %v want %v", out.Float64(), r.Float64())
	}
}

func TestSetRoundTripTagged(t *testing.T) {
	s := NewSetType([]uint64{1, 2, 3}, true)
	data, err := Encode(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var out Set[uint64]
	if err := Decode(data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Items()) != 3 || !out.tagged {
		t.Fatalf("got %+v", out)
	}
}

func TestDecodeStoreCborPreservesOriginalBytes(t *testing.T) {
	var d DecodeStoreCbor
	if d.HasCbor() {
		t.Fatal("expected no cached bytes initially")
	}
	original := []byte{0x01, 0x02, 0x03}
	d.SetCbor(original)
	if !bytes.Equal(d.Cbor(), original) {
		t.Fatalf("got %x want %x", d.Cbor(), original)
	}
	d.ClearCbor()
	if d.HasCbor() {
		t.Fatal("expected cache cleared")
	}
}
