package main

import (
	"path/filepath"
	"strings"
	"testing"

	"portsim/internal/persistence/snapshot"
	"portsim/internal/sim/catalogs"
	"portsim/internal/sim/tuning"
	"portsim/internal/sim/world"
)

func TestSummary(t *testing.T) {
	cats, err := catalogs.Load("../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	tun, err := tuning.Load("../../configs/tuning.yaml")
	if err != nil {
		t.Fatalf("load tuning: %v", err)
	}
	e, err := world.New(world.Config{Tuning: tun, Checks: world.ChecksStrict}, cats)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	s := e.Apply(world.NewState(), world.StartGame{Seed: 12})
	s = e.Advance(s, 2_500)

	path := filepath.Join(t.TempDir(), "2500.save.zst")
	if _, err := snapshot.WriteFile(path, s, snapshot.Client{WallClockMs: 1, JournalSeq: 4}); err != nil {
		t.Fatalf("write: %v", err)
	}
	h, raw, err := snapshot.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	p, err := snapshot.Decode(raw, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	out := summary(h, p)
	for _, want := range []string{"sim_now_ms:     2500", "journal_seq:    4", "mode:           session", "seed:           12", "gold:           " + s.Gold.String()} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}
