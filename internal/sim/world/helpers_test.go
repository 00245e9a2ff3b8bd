package world

import (
	"testing"

	"portsim/internal/sim/catalogs"
	"portsim/internal/sim/tuning"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	tun, err := tuning.Load("../../../configs/tuning.yaml")
	if err != nil {
		t.Fatalf("load tuning: %v", err)
	}
	e, err := New(Config{Tuning: tun, Checks: ChecksStrict}, cats)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return e
}

// started returns a private, freshly started session the test may edit.
func started(t *testing.T, e *Engine) *State {
	t.Helper()
	s := e.Apply(NewState(), StartGame{Seed: 42})
	if s.Mode != ModeSession {
		t.Fatalf("start_game did not enter session")
	}
	return s.Clone()
}

func grant(s *State, unlocks ...string) {
	for _, u := range unlocks {
		if !s.HasUnlock(u) {
			s.Unlocks = append(s.Unlocks, u)
		}
	}
}

func stock(s *State, island string, c catalogs.CommodityID, n int64) {
	s.Warehouses[island].add(c, n)
}

func mustDigestEqual(t *testing.T, what string, a, b *State) {
	t.Helper()
	if da, db := Digest(a), Digest(b); da != db {
		t.Fatalf("%s: digest mismatch %s vs %s", what, da, db)
	}
}
