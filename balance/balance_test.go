package balance

import "testing"

func TestMinUtxoLovelace(t *testing.T) {
	got := MinUtxoLovelace(150, 4310)
	want := int64(4310 * (150 + 160))
	if got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestMinFee(t *testing.T) {
	got := MinFee(300, 44, 155381)
	want := int64(300*44 + 155381)
	if got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestScriptExecutionFee(t *testing.T) {
	got := ScriptExecutionFee(1_000_000_000, 5_000_000_000, 0.0000721, 0.0000000577)
	want := int64(72_100 + 289)
	if got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestReferenceScriptFeeWithinFirstSlab(t *testing.T) {
	got := ReferenceScriptFee(1_000, 15)
	want := int64(1_000 * 15)
	if got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestReferenceScriptFeeAcrossSlabs(t *testing.T) {
	got := ReferenceScriptFee(ReferenceScriptSlabBytes+100, 10)
	firstSlab := int64(ReferenceScriptSlabBytes * 10)
	secondSlab := int64(100 * 10 * 12 / 10)
	if got != firstSlab+secondSlab {
		t.Errorf("got %d, want %d", got, firstSlab+secondSlab)
	}
}

func TestReferenceScriptFeeZeroBytes(t *testing.T) {
	if got := ReferenceScriptFee(0, 10); got != 0 {
		t.Errorf("expected 0 fee for 0 bytes, got %d", got)
	}
}

func TestReconcileChangeFoldsSmallAdaOnlyResidualIntoFee(t *testing.T) {
	change, fold, negative := ReconcileChange(1_000_500, 1_000_000, false, 1_000)
	if negative {
		t.Fatal("unexpected negative residual")
	}
	if !fold {
		t.Errorf("expected a residual below min-utxo to fold into fee, got change=%d fold=%v", change, fold)
	}
}

func TestReconcileChangeKeepsResidualWithAssets(t *testing.T) {
	change, fold, negative := ReconcileChange(1_000_500, 1_000_000, true, 1_000)
	if negative || fold {
		t.Errorf("expected asset-bearing residual to be kept rather than folded, got change=%d fold=%v negative=%v", change, fold, negative)
	}
	if change != 500 {
		t.Errorf("expected change 500, got %d", change)
	}
}

func TestReconcileChangeNegativeSignalsReselect(t *testing.T) {
	_, _, negative := ReconcileChange(900_000, 1_000_000, false, 1_000)
	if !negative {
		t.Error("expected negative residual to signal the caller to select more coins")
	}
}
