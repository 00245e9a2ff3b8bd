package ids

import "testing"

func TestContractIDRoundTrip(t *testing.T) {
	id := ContractID(12)
	if id != "c_12" {
		t.Fatalf("ContractID(12)=%q", id)
	}
	n, ok := ParseUintAfterPrefix(ContractPrefix, id)
	if !ok || n != 12 {
		t.Fatalf("parse %q: n=%d ok=%v", id, n, ok)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []string{"", "c_", "s_1", "c_x", "c_-1"}
	for _, id := range tests {
		if _, ok := ParseUintAfterPrefix(ContractPrefix, id); ok {
			t.Fatalf("expected %q to be rejected", id)
		}
	}
}
