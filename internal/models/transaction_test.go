package models

import (
	"testing"
	"time"
)

func TestNormalizeAssetType(t *testing.T) {
	tests := []struct {
		input string
		want  AssetType
	}{
		{"stock", AssetTypeStock},
		{"etf", AssetTypeETF},
		{"crypto", AssetTypeCrypto},
		{"eth", AssetTypeCrypto},
		{"ETF", AssetTypeETF},
		{"  Stock  ", AssetTypeStock},
		{"bond", AssetTypeOther},
		{"", AssetTypeOther},
	}
	for _, tt := range tests {
		got := NormalizeAssetType(tt.input)
		if got != tt.want {
			t.Errorf("NormalizeAssetType(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidAssetType(t *testing.T) {
	for _, valid := range []AssetType{AssetTypeStock, AssetTypeETF, AssetTypeCrypto, AssetTypeOther} {
		if !ValidAssetType(valid) {
			t.Errorf("ValidAssetType(%q) = false, want true", valid)
		}
	}
	if ValidAssetType("bond") {
		t.Error("ValidAssetType(\"bond\") = true, want false")
	}
}

func TestTransaction_CostValue(t *testing.T) {
	tx := Transaction{Amount: 2.5, Price: 100}
	if got := tx.CostValue(); got != 250 {
		t.Errorf("CostValue() = %v, want 250", got)
	}
}

func TestNewID_Distinct(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Nanosecond)
	if NewID(t1) == NewID(t2) {
		t.Error("expected distinct ids for distinct timestamps")
	}
}
