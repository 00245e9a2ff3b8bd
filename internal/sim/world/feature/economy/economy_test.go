package economy

import (
	"math/big"
	"testing"
)

func TestContractFee(t *testing.T) {
	tests := []struct {
		name                string
		qty, bid, tier, tax int64
		want                int64
	}{
		{"plain", 10, 1, 1, 0, 10},
		{"tax rounds up", 10, 1, 1, 500, 11},
		{"tier", 10, 1, 3, 0, 11},
		{"bid premium", 10, 3, 1, 0, 12},
		{"all", 7, 2, 2, 1200, 9},
	}
	for _, tc := range tests {
		got := ContractFee(tc.qty, tc.bid, tc.tier, tc.tax)
		if got.Cmp(big.NewInt(tc.want)) != 0 {
			t.Fatalf("%s: fee=%s want %d", tc.name, got, tc.want)
		}
	}
}

func TestEffectiveTaxBpsFloorsAtZero(t *testing.T) {
	if got := EffectiveTaxBps(500, 300, 100); got != 100 {
		t.Fatalf("got %d", got)
	}
	if got := EffectiveTaxBps(500, 400, 500); got != 0 {
		t.Fatalf("got %d", got)
	}
}

func TestHireCount(t *testing.T) {
	if got := HireCount(5, 3, big.NewInt(100), 10); got != 3 {
		t.Fatalf("berth bound: %d", got)
	}
	if got := HireCount(5, 10, big.NewInt(25), 10); got != 2 {
		t.Fatalf("gold bound: %d", got)
	}
	if got := HireCount(0, 10, big.NewInt(25), 10); got != 0 {
		t.Fatalf("zero request: %d", got)
	}
}

func TestTieredCost(t *testing.T) {
	costs := []int64{150, 400}
	if c, ok := TieredCost(costs, 1); !ok || c != 400 {
		t.Fatalf("level 1: %d %v", c, ok)
	}
	if _, ok := TieredCost(costs, 2); ok {
		t.Fatalf("max level should have no cost")
	}
}
