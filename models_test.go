package apollo

import "testing"

func TestAssetUnitLovelaceRoundTrip(t *testing.T) {
	u := NewAssetUnit("lovelace", "", 5_000_000)
	v, err := u.ToValue()
	if err != nil {
		t.Fatal(err)
	}
	if v.Coin != 5_000_000 {
		t.Errorf("expected 5000000 lovelace, got %d", v.Coin)
	}
	if v.HasAssets() {
		t.Error("a lovelace unit should carry no native assets")
	}
}

func TestAssetUnitEmptyPolicyTreatedAsLovelace(t *testing.T) {
	u := NewAssetUnit("", "", 1_000_000)
	v, err := u.ToValue()
	if err != nil {
		t.Fatal(err)
	}
	if v.Coin != 1_000_000 {
		t.Errorf("expected 1000000 lovelace, got %d", v.Coin)
	}
}

func TestAssetUnitNativeAsset(t *testing.T) {
	policyHex := "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4"
	nameHex := "746f6b656e" // "token"
	u := NewAssetUnit(policyHex, nameHex, 42)
	v, err := u.ToValue()
	if err != nil {
		t.Fatal(err)
	}
	if v.Coin != 0 {
		t.Errorf("expected 0 lovelace on an asset-only unit, got %d", v.Coin)
	}
	if !v.HasAssets() {
		t.Error("expected assets for a non-lovelace unit")
	}
}

func TestAssetUnitRejectsMalformedPolicy(t *testing.T) {
	u := NewAssetUnit("not-hex!", "token", 100)
	if _, err := u.ToValue(); err == nil {
		t.Error("expected an error for a non-hex policy id")
	}
}

func TestAssetUnitRejectsWrongLengthPolicy(t *testing.T) {
	u := NewAssetUnit("abcd", "746f6b656e", 1)
	if _, err := u.ToValue(); err == nil {
		t.Error("expected an error for a policy id shorter than 28 bytes")
	}
}

func TestAssetUnitRejectsNegativeLovelace(t *testing.T) {
	u := NewAssetUnit("lovelace", "", -1)
	if _, err := u.ToValue(); err == nil {
		t.Error("expected an error for a negative lovelace amount")
	}
}

func TestAssetUnitsOfRoundTripsThroughValue(t *testing.T) {
	policyHex := "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4"
	nameHex := "746f6b656e"
	u := NewAssetUnit(policyHex, nameHex, 7)
	v, err := u.ToValue()
	if err != nil {
		t.Fatal(err)
	}
	units := assetUnitsOf(v.Assets)
	if len(units) != 1 {
		t.Fatalf("expected 1 unit, got %d", len(units))
	}
	if units[0].PolicyHex != policyHex || units[0].NameHex != nameHex || units[0].Amount != 7 {
		t.Errorf("round trip mismatch: %+v", units[0])
	}
}

func TestAssetUnitsOfNilAssets(t *testing.T) {
	if units := assetUnitsOf(nil); units != nil {
		t.Errorf("expected nil for a nil MultiAsset, got %v", units)
	}
}

func TestNewOutputRequest(t *testing.T) {
	o, err := NewOutputRequest(validTestAddrBech32, 2_000_000, nil)
	if err != nil {
		t.Fatal(err)
	}
	if o.Coin != 2_000_000 {
		t.Errorf("expected 2000000, got %d", o.Coin)
	}
	if o.Address.String() == "" {
		t.Error("expected a valid address")
	}
}

func TestNewOutputRequestInvalidReceiver(t *testing.T) {
	if _, err := NewOutputRequest("not-an-address", 1_000_000, nil); err == nil {
		t.Error("expected an error for an invalid receiver")
	}
}

func TestOutputRequestToValue(t *testing.T) {
	o := &OutputRequest{Coin: 5_000_000}
	v, err := o.ToValue()
	if err != nil {
		t.Fatal(err)
	}
	if v.Coin != 5_000_000 {
		t.Errorf("expected 5000000, got %d", v.Coin)
	}
}

func TestOutputRequestToValueWithAssets(t *testing.T) {
	policyHex := "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4"
	o := &OutputRequest{
		Coin:   2_000_000,
		Assets: []AssetUnit{NewAssetUnit(policyHex, "746f6b656e", 5)},
	}
	v, err := o.ToValue()
	if err != nil {
		t.Fatal(err)
	}
	if v.Coin != 2_000_000 || !v.HasAssets() {
		t.Errorf("expected 2000000 lovelace plus assets, got coin=%d hasAssets=%v", v.Coin, v.HasAssets())
	}
}

func TestOutputRequestToValueRejectsNegativeAsset(t *testing.T) {
	policyHex := "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4"
	o := &OutputRequest{
		Coin:   2_000_000,
		Assets: []AssetUnit{NewAssetUnit(policyHex, "746f6b656e", -5)},
	}
	if _, err := o.ToValue(); err == nil {
		t.Error("expected an error for a negative asset amount")
	}
}

func TestOutputRequestToTxOut(t *testing.T) {
	addr := testAddress(t)
	o := &OutputRequest{Address: addr, Coin: 3_000_000}
	txOut, err := o.ToTxOut()
	if err != nil {
		t.Fatal(err)
	}
	if txOut.OutputAmount.Amount != 3_000_000 {
		t.Errorf("expected 3000000, got %d", txOut.OutputAmount.Amount)
	}
}

func TestOutputRequestFromTxOut(t *testing.T) {
	addr := testAddress(t)
	output := NewBabbageOutputSimple(addr, 7_000_000)
	o := OutputRequestFromTxOut(&output)
	if o.Coin != 7_000_000 {
		t.Errorf("expected 7000000, got %d", o.Coin)
	}
	if len(o.Assets) != 0 {
		t.Errorf("expected no assets, got %d", len(o.Assets))
	}
}

func TestNewOutputRequestFromValue(t *testing.T) {
	addr := testAddress(t)
	v := NewSimpleValue(4_000_000)
	o := NewOutputRequestFromValue(addr, v)
	if o.Coin != 4_000_000 {
		t.Errorf("expected 4000000, got %d", o.Coin)
	}
	if len(o.Assets) != 0 {
		t.Errorf("expected no assets for a coin-only value, got %d", len(o.Assets))
	}
}

func TestOutputRequestEnsureMinUTXORaisesShortfall(t *testing.T) {
	cc := setupFixedContext()
	addr := testAddress(t)
	o := &OutputRequest{Address: addr, Coin: 1}
	if err := o.EnsureMinUTXO(cc); err != nil {
		t.Fatal(err)
	}
	if o.Coin <= 1 {
		t.Errorf("expected EnsureMinUTXO to raise the coin amount, still %d", o.Coin)
	}
}

func TestOutputRequestEnsureMinUTXOLeavesSufficientOutputAlone(t *testing.T) {
	cc := setupFixedContext()
	addr := testAddress(t)
	o := &OutputRequest{Address: addr, Coin: 100_000_000}
	if err := o.EnsureMinUTXO(cc); err != nil {
		t.Fatal(err)
	}
	if o.Coin != 100_000_000 {
		t.Errorf("expected coin to stay at 100000000, got %d", o.Coin)
	}
}
