package apollo

import (
	"bytes"
	"testing"
)

func TestAddInputAddressFromBech32(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)

	a, err := a.AddInputAddressFromBech32(validTestAddrBech32)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.inputAddresses) != 1 {
		t.Fatalf("expected 1 input address, got %d", len(a.inputAddresses))
	}
}

func TestAddInputAddressFromBech32Invalid(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)

	if _, err := a.AddInputAddressFromBech32("not-a-valid-address"); err == nil {
		t.Error("expected error for invalid bech32")
	}
}

func TestPayToAddressBech32(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)

	a, err := a.PayToAddressBech32(validTestAddrBech32, 2_000_000)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(a.payments))
	}
}

func TestPayToAddressBech32WithUnits(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	unit := NewAssetUnit("a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4", "746f6b656e", 50)

	a, err := a.PayToAddressBech32(validTestAddrBech32, 3_000_000, unit)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(a.payments))
	}
	p, ok := a.payments[0].(*OutputRequest)
	if !ok {
		t.Fatal("expected *OutputRequest type")
	}
	if len(p.Assets) != 1 {
		t.Errorf("expected 1 asset unit, got %d", len(p.Assets))
	}
}

func TestPayToAddressBech32Invalid(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)

	if _, err := a.PayToAddressBech32("invalid", 1_000_000); err == nil {
		t.Error("expected error for invalid bech32")
	}
}

func TestSetChangeAddressBech32(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)

	a, err := a.SetChangeAddressBech32(validTestAddrBech32)
	if err != nil {
		t.Fatal(err)
	}
	if a.changeAddress == nil {
		t.Fatal("expected change address to be set")
	}
}

func TestSetChangeAddressBech32Invalid(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)

	if _, err := a.SetChangeAddressBech32("bad-address"); err == nil {
		t.Error("expected error for invalid bech32")
	}
}

func TestPayToContractAsHash(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	datumHash := make([]byte, 32)
	datumHash[0] = 0xAA

	a.PayToContractAsHash(addr, datumHash, 5_000_000)
	if len(a.payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(a.payments))
	}
	p, ok := a.payments[0].(*OutputRequest)
	if !ok {
		t.Fatal("expected *OutputRequest type")
	}
	if !bytes.Equal(p.DatumHash, datumHash) {
		t.Error("datum hash mismatch")
	}
	// The hash-only variant never adds the datum itself to the witness set.
	if len(a.datums) != 0 {
		t.Errorf("expected 0 datums in witness set, got %d", len(a.datums))
	}
}

func TestPayToContractAsHashWithUnits(t *testing.T) {
	cc := setupFixedContext()
	a := New(cc)
	addr := testAddress(t)
	datumHash := make([]byte, 32)
	datumHash[0] = 0xBB
	unit := NewAssetUnit("a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4", "746f6b656e", 10)

	a.PayToContractAsHash(addr, datumHash, 3_000_000, unit)
	if len(a.payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(a.payments))
	}
	p, ok := a.payments[0].(*OutputRequest)
	if !ok {
		t.Fatal("expected *OutputRequest type")
	}
	if len(p.Assets) != 1 {
		t.Errorf("expected 1 unit, got %d", len(p.Assets))
	}
	if p.Coin != 3_000_000 {
		t.Errorf("expected 3000000 lovelace, got %d", p.Coin)
	}
}
