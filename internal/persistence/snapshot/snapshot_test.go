package snapshot

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"portsim/internal/sim/catalogs"
	"portsim/internal/sim/tuning"
	"portsim/internal/sim/world"
)

func testEngine(t *testing.T) *world.Engine {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	tun, err := tuning.Load("../../../configs/tuning.yaml")
	if err != nil {
		t.Fatalf("load tuning: %v", err)
	}
	e, err := world.New(world.Config{Tuning: tun, Checks: world.ChecksStrict}, cats)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return e
}

// playedState runs a short session that ends with a voyage in flight and a
// collected contract.
func playedState(t *testing.T, e *world.Engine) *world.State {
	t.Helper()
	s := e.Apply(world.NewState(), world.StartGame{Seed: 1234})
	for _, step := range []struct {
		cmd world.Command
		dt  int64
	}{
		{world.DockWork{}, 5_000},
		{world.DockWork{}, 5_000},
		{world.DockWork{}, 5_000},
		{world.DockWork{}, 5_000},
		{world.DockWork{}, 5_000},
		{world.DockWork{}, 5_000},
		{world.DockWork{}, 5_000},
		{world.DockWork{}, 5_000},
		{world.DockWork{}, 5_000},
		{world.BuyDockAutomation{}, 30_000},
		{world.PlaceContract{PortID: "port_royal", CommodityID: catalogs.Rum, Qty: 5, BidPrice: 1}, 45_000},
		{world.CollectContract{ContractID: "c_1"}, 0},
		{world.VoyagePrepare{RouteID: "pr_tortuga"}, 0},
		{world.VoyageStart{RouteID: "pr_tortuga"}, 12_345},
	} {
		next := e.Apply(s, step.cmd)
		if next == s {
			t.Fatalf("%s was rejected", step.cmd.Kind())
		}
		s = e.Advance(next, step.dt)
	}
	return s
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	e := testEngine(t)
	s := playedState(t, e)
	if s.Ship.Voyage.Status != world.VoyageRunning {
		t.Fatalf("voyage should be running in the fixture, got %s", s.Ship.Voyage.Status)
	}

	raw, err := Encode(s, Client{WallClockMs: 1_700_000_000_000, JournalSeq: 17})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	p, err := Decode(raw, e)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Client.WallClockMs != 1_700_000_000_000 || p.Client.JournalSeq != 17 {
		t.Fatalf("client=%+v", p.Client)
	}
	if world.Digest(p.State) != world.Digest(s) {
		t.Fatalf("digest changed across save/load")
	}

	// The decoded state must keep evolving exactly like the original.
	a := e.Advance(s, 90_000)
	b := e.Advance(p.State, 90_000)
	if !world.Equal(a, b) {
		t.Fatalf("loaded state diverged after advance")
	}
}

func TestGoldTravelsAsDecimalString(t *testing.T) {
	e := testEngine(t)
	s := e.Apply(world.NewState(), world.StartGame{Seed: 5}).Clone()
	huge, _ := world.ParseAmount("98765432109876543210987654321")
	s.Gold = huge

	raw, err := Encode(s, Client{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(raw), `"gold":"98765432109876543210987654321"`) {
		t.Fatalf("gold not encoded as a string: %s", raw)
	}
	p, err := Decode(raw, e)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !p.State.Gold.Equal(huge) {
		t.Fatalf("gold=%s", p.State.Gold)
	}
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	_, err := Decode([]byte(`{"version":2,"client":{"wall_clock_ms":0},"rng":1,"state":{}}`), nil)
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestValidateRejectsMalformedPayloads(t *testing.T) {
	e := testEngine(t)
	s := e.Apply(world.NewState(), world.StartGame{Seed: 9})
	raw, err := Encode(s, Client{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := Validate(raw); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}

	mutate := func(edit func(m map[string]any)) []byte {
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		edit(m)
		b, _ := json.Marshal(m)
		return b
	}
	cases := map[string][]byte{
		"numeric gold":  mutate(func(m map[string]any) { m["state"].(map[string]any)["gold"] = 20 }),
		"negative gold": mutate(func(m map[string]any) { m["state"].(map[string]any)["gold"] = "-20" }),
		"unknown field": mutate(func(m map[string]any) { m["state"].(map[string]any)["cheat"] = true }),
		"missing state": mutate(func(m map[string]any) { delete(m, "state") }),
	}
	for name, b := range cases {
		if err := Validate(b); err == nil {
			t.Fatalf("%s: expected a schema error", name)
		}
		if _, err := Decode(b, e); err == nil {
			t.Fatalf("%s: decode should fail", name)
		}
	}
}

func TestDecodeRunsInvariantChecker(t *testing.T) {
	e := testEngine(t)
	s := e.Apply(world.NewState(), world.StartGame{Seed: 9}).Clone()
	s.Ship.Crew = 99
	raw, err := Encode(s, Client{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(raw, nil); err != nil {
		t.Fatalf("decode without checks: %v", err)
	}
	_, err = Decode(raw, e)
	var v *world.ViolationError
	if !errors.As(err, &v) {
		t.Fatalf("expected a violation, got %v", err)
	}
}

func TestWriteReadFileCodecs(t *testing.T) {
	e := testEngine(t)
	s := playedState(t, e)
	dir := t.TempDir()

	for _, name := range []string{"game.save.zst", "game.save.lz4", "game.save.json"} {
		path := filepath.Join(dir, name)
		h, err := WriteFile(path, s, Client{WallClockMs: 42})
		if err != nil {
			t.Fatalf("%s: write: %v", name, err)
		}
		if h.SimNowMs != s.SimNowMs || h.Digest != world.Digest(s) {
			t.Fatalf("%s: header=%+v", name, h)
		}
		if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
			t.Fatalf("%s: temp file left behind", name)
		}

		h2, p, err := LoadFile(path, e)
		if err != nil {
			t.Fatalf("%s: load: %v", name, err)
		}
		if h2 != h || !world.Equal(p.State, s) || p.Client.WallClockMs != 42 {
			t.Fatalf("%s: round trip mismatch", name)
		}
	}
}

func TestLoadFileDetectsDigestMismatch(t *testing.T) {
	e := testEngine(t)
	s := e.Apply(world.NewState(), world.StartGame{Seed: 3})
	path := filepath.Join(t.TempDir(), "bad.save.json")

	body, err := Encode(s, Client{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	hb, _ := json.Marshal(Header{Version: Version, SimNowMs: 0, Digest: "00"})
	if err := os.WriteFile(path, append(append(hb, '\n'), body...), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := LoadFile(path, e); err == nil || !strings.Contains(err.Error(), "digest mismatch") {
		t.Fatalf("expected digest mismatch, got %v", err)
	}
}
