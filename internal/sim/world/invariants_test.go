package world

import (
	"errors"
	"strings"
	"testing"

	"portsim/internal/sim/catalogs"
	"portsim/internal/sim/tuning"
)

func TestCheckAcceptsFreshSession(t *testing.T) {
	e := newTestEngine(t)
	s := started(t, e)
	if err := e.Check(nil, s, CheckContext{}); err != nil {
		t.Fatalf("check: %v", err)
	}
	if err := e.Check(NewState(), s, CheckContext{Reset: true}); err != nil {
		t.Fatalf("check reset: %v", err)
	}
}

func TestCheckReportsViolations(t *testing.T) {
	e := newTestEngine(t)
	cases := []struct {
		name string
		edit func(s *State)
		want string
	}{
		{"negative gold", func(s *State) { s.Gold = NewAmount(-1) }, "gold negative"},
		{"warehouse over capacity", func(s *State) { stock(s, "nassau", catalogs.Timber, 101) }, "over capacity"},
		{"crew over berths", func(s *State) { s.Ship.Crew = 7 }, "berths"},
		{"duplicate unlock", func(s *State) { s.Unlocks = append(s.Unlocks, UnlockDock) }, "duplicate unlock"},
		{"accumulator", func(s *State) { s.AccMs = 100 }, "acc_ms"},
		{"contract overfilled", func(s *State) {
			s.Contracts = append(s.Contracts, Contract{ID: "c_1", Qty: 2, FilledQty: 3, Status: ContractOpen})
		}, "quantities"},
		{"expired buff kept", func(s *State) {
			s.Buffs = []Buff{{ID: BuffSpeed, RemainingMs: 0, DurationMs: 10}}
		}, "buff speed"},
		{"conquest stage", func(s *State) { s.Conquest.Stage = 3 }, "conquest stage"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := started(t, e)
			c.edit(s)
			err := e.Check(nil, s, CheckContext{})
			var v *ViolationError
			if !errors.As(err, &v) {
				t.Fatalf("expected a violation, got %v", err)
			}
			if !strings.Contains(err.Error(), c.want) {
				t.Fatalf("error %q does not mention %q", err, c.want)
			}
		})
	}
}

func TestCheckTransitionRules(t *testing.T) {
	e := newTestEngine(t)
	prev := started(t, e)
	grant(prev, UnlockEconomy)

	next := prev.Clone()
	next.Unlocks = next.Unlocks[:1]
	if err := e.Check(prev, next, CheckContext{}); err == nil || !strings.Contains(err.Error(), "removed") {
		t.Fatalf("unlock removal not reported: %v", err)
	}
	if err := e.Check(prev, next, CheckContext{Reset: true}); err != nil {
		t.Fatalf("reset may drop unlocks: %v", err)
	}

	next = prev.Clone()
	prev.SimNowMs = 500
	if err := e.Check(prev, next, CheckContext{}); err == nil || !strings.Contains(err.Error(), "went back") {
		t.Fatalf("time travel not reported: %v", err)
	}
}

func TestCheckBuffRegrowthNeedsGrant(t *testing.T) {
	e := newTestEngine(t)
	prev := started(t, e)
	prev.NextGrantSeq = 2
	prev.Buffs = []Buff{{ID: BuffCombat, RemainingMs: 400, DurationMs: 1000, GrantSeq: 1}}
	prev.Politics.Perks = map[string]Buff{"port_royal": {ID: CampaignTaxRelief, RemainingMs: 400, DurationMs: 1000, GrantSeq: 2}}

	next := prev.Clone()
	next.Buffs[0].RemainingMs = 900
	if err := e.Check(prev, next, CheckContext{}); err == nil || !strings.Contains(err.Error(), "buff combat countdown went up") {
		t.Fatalf("silent buff regrowth not reported: %v", err)
	}
	next.NextGrantSeq = 3
	next.Buffs[0].GrantSeq = 3
	if err := e.Check(prev, next, CheckContext{}); err != nil {
		t.Fatalf("re-granted buff rejected: %v", err)
	}

	next = prev.Clone()
	p := next.Politics.Perks["port_royal"]
	p.RemainingMs = 1000
	next.Politics.Perks["port_royal"] = p
	if err := e.Check(prev, next, CheckContext{}); err == nil || !strings.Contains(err.Error(), "perk at port_royal") {
		t.Fatalf("silent perk regrowth not reported: %v", err)
	}
	next.NextGrantSeq = 3
	p.GrantSeq = 3
	next.Politics.Perks["port_royal"] = p
	if err := e.Check(prev, next, CheckContext{}); err != nil {
		t.Fatalf("re-granted perk rejected: %v", err)
	}
}

func TestBuffGrantsStampSequence(t *testing.T) {
	e := newTestEngine(t)
	s := started(t, e)
	s.grantBuff(BuffSpeed, 100, 5_000)
	s = e.Advance(s, 3_000)
	prev := s
	s = s.Clone()
	s.grantBuff(BuffSpeed, 100, 5_000)
	b, ok := s.buff(BuffSpeed)
	if !ok || b.GrantSeq != 2 || b.RemainingMs != 5_000 || s.NextGrantSeq != 2 {
		t.Fatalf("buff=%+v next=%d", b, s.NextGrantSeq)
	}
	if err := e.Check(prev, s, CheckContext{}); err != nil {
		t.Fatalf("re-grant rejected: %v", err)
	}

	// Expired then granted fresh: still a newer stamp than before.
	s = e.Advance(s, 6_000)
	if _, ok := s.buff(BuffSpeed); ok {
		t.Fatalf("buff should have expired")
	}
	fresh := s.Clone()
	fresh.grantBuff(BuffSpeed, 100, 5_000)
	if b, _ := fresh.buff(BuffSpeed); b.GrantSeq != 3 {
		t.Fatalf("fresh buff=%+v", b)
	}
	if err := e.Check(prev, fresh, CheckContext{}); err != nil {
		t.Fatalf("fresh grant rejected: %v", err)
	}
}

func TestStrictModePanics(t *testing.T) {
	e := newTestEngine(t)
	s := started(t, e)
	s.Ship.Crew = 9

	defer func() {
		r := recover()
		if _, ok := r.(*ViolationError); !ok {
			t.Fatalf("expected a *ViolationError panic, got %v", r)
		}
	}()
	e.Apply(s, DockWork{})
}

func TestReportModeCallsHook(t *testing.T) {
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	var got []error
	e, err := New(Config{
		Tuning:      tuning.Defaults(),
		Checks:      ChecksReport,
		OnViolation: func(err error) { got = append(got, err) },
	}, cats)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	s := e.Apply(NewState(), StartGame{Seed: 3}).Clone()
	s.Ship.Crew = 9
	next := e.Apply(s, DockWork{})
	if next == s || len(got) != 1 {
		t.Fatalf("report mode should keep going and report once, got %d reports", len(got))
	}
}

func TestNewRejectsBadTuning(t *testing.T) {
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	cases := map[string]func(*tuning.Tuning){
		"start island": func(t *tuning.Tuning) { t.StartIslandID = "atlantis" },
		"start ship":   func(t *tuning.Tuning) { t.StartShipID = "galleon" },
		"start crew":   func(t *tuning.Tuning) { t.StartCrew = 50 },
	}
	for name, edit := range cases {
		tun := tuning.Defaults()
		edit(&tun)
		if _, err := New(Config{Tuning: tun}, cats); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
	if _, err := New(Config{Tuning: tuning.Defaults()}, nil); err == nil {
		t.Fatalf("nil catalogs should be rejected")
	}
}
