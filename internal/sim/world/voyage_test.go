package world

import (
	"testing"

	"portsim/internal/sim/catalogs"
)

func TestVoyageLifecycle(t *testing.T) {
	e := newTestEngine(t)
	s := started(t, e)
	stock(s, "port_royal", catalogs.Rum, 10)
	stock(s, "port_royal", catalogs.Cannonballs, 5)

	preview, ok := e.VoyagePreview(s, "", "pr_tortuga")
	if !ok || preview.DurationMs != 60_000 || preview.RumRequired != 5 || preview.CannonballsRequired != 2 {
		t.Fatalf("preview=%+v", preview)
	}

	s = e.Apply(s, VoyagePrepare{RouteID: "pr_tortuga"})
	if s.Ship.Hold.Count(catalogs.Rum) != 5 || s.Ship.Hold.Count(catalogs.Cannonballs) != 2 {
		t.Fatalf("hold after prepare=%v", s.Ship.Hold.Inventory)
	}
	if !s.HasUnlock(UnlockVoyage) {
		t.Fatalf("voyage should be unlocked once rum is around")
	}
	if got := e.Apply(s, VoyagePrepare{RouteID: "pr_tortuga"}); got != s {
		t.Fatalf("preparing a full hold should be a no-op")
	}

	s = e.Apply(s, VoyageStart{RouteID: "pr_tortuga"})
	v := s.Ship.Voyage
	if v.Status != VoyageRunning || v.DurationMs != 60_000 || v.Index != 0 || s.NextVoyageIndex != 1 {
		t.Fatalf("voyage=%+v", v)
	}
	if s.Ship.Hold.Count(catalogs.Rum) != 3 {
		t.Fatalf("fare not paid: rum=%d", s.Ship.Hold.Count(catalogs.Rum))
	}
	if len(v.Encounters) != 1 || v.Encounters[0].AtMs != preview.Encounters[0].AtMs {
		t.Fatalf("encounters %+v differ from preview %+v", v.Encounters, preview.Encounters)
	}
	if at := v.Encounters[0].AtMs; at < 22_500 || at > 37_500 {
		t.Fatalf("encounter at %d outside its slot", at)
	}

	for _, cmd := range []Command{
		VoyageStart{RouteID: "pr_tortuga"},
		VoyagePrepare{RouteID: "pr_tortuga"},
		VoyageCollect{},
		LoadCargo{CommodityID: catalogs.Rum, Qty: 1},
		HireCrew{Qty: 1},
		BuyShip{ClassID: "brigantine"},
	} {
		if got := e.Apply(s, cmd); got != s {
			t.Fatalf("%T during a voyage should be a no-op", cmd)
		}
	}

	s = e.Advance(s, 30_000)
	if rum := s.Ship.Hold.Count(catalogs.Rum); rum != 2 {
		t.Fatalf("half-way rum=%d want 2", rum)
	}

	s = e.Advance(s, 30_000)
	v = s.Ship.Voyage
	if v.Status != VoyageCompleted || s.Ship.Location != "tortuga" {
		t.Fatalf("voyage=%+v location=%s", v, s.Ship.Location)
	}
	if s.Ship.Hold.Count(catalogs.Rum) != 0 || s.Ship.Hold.Count(catalogs.Cannonballs) != 0 {
		t.Fatalf("hold after voyage=%v", s.Ship.Hold.Inventory)
	}
	if v.PendingGold.CmpInt(40) != 0 || v.Encounters[0].Status != EncounterSuccess {
		t.Fatalf("pending=%s encounter=%s", v.PendingGold, v.Encounters[0].Status)
	}
	if s.Stats.VoyagesCompleted != 1 || s.Stats.EncountersWon != 1 || !s.HasUnlock(UnlockMinigames) {
		t.Fatalf("stats=%+v unlocks=%v", s.Stats, s.Unlocks)
	}
	// Two sailors cost two gold over the minute.
	if s.Gold.CmpInt(18) != 0 {
		t.Fatalf("gold=%s want 18", s.Gold)
	}

	s = e.Apply(s, VoyageCollect{})
	if s.Gold.CmpInt(58) != 0 || s.Ship.Voyage.Status != VoyageIdle {
		t.Fatalf("gold=%s voyage=%+v", s.Gold, s.Ship.Voyage)
	}
}

func TestEncounterFailure(t *testing.T) {
	e := newTestEngine(t)
	s := started(t, e)
	stock(s, "port_royal", catalogs.Rum, 10)
	s = e.Apply(s, VoyagePrepare{RouteID: "pr_tortuga"})
	s = e.Apply(s, VoyageStart{RouteID: "pr_tortuga"})
	s = e.Advance(s, 60_000)

	if s.Ship.Condition != 90 || s.Stats.EncountersLost != 1 {
		t.Fatalf("condition=%d lost=%d", s.Ship.Condition, s.Stats.EncountersLost)
	}
	if s.Ship.Voyage.PendingGold.CmpInt(30) != 0 {
		t.Fatalf("reward after one failure=%s want 30", s.Ship.Voyage.PendingGold)
	}
}

func TestVoyageStartRequirements(t *testing.T) {
	e := newTestEngine(t)
	s := started(t, e)
	grant(s, UnlockVoyage)
	stock(s, "port_royal", catalogs.Rum, 20)
	s = e.Apply(s, LoadCargo{CommodityID: catalogs.Rum, Qty: 4})

	if got := e.Apply(s, VoyageStart{RouteID: "pr_tortuga"}); got != s {
		t.Fatalf("four rum does not cover fare and burn")
	}
	if got := e.Apply(s, VoyageStart{RouteID: "tortuga_pr"}); got != s {
		t.Fatalf("route from another island should be rejected")
	}
	s = e.Apply(s, LoadCargo{CommodityID: catalogs.Rum, Qty: 4})
	if got := e.Apply(s, VoyageStart{RouteID: "pr_nassau"}); got != s {
		t.Fatalf("charted route without the chart should be rejected")
	}

	s = s.Clone()
	s.Ship.Crew = 1
	if got := e.Apply(s, VoyageStart{RouteID: "pr_tortuga"}); got != s {
		t.Fatalf("undermanned ship should not sail")
	}
	s.Ship.Crew = 2
	s.Ship.Condition = 0
	if got := e.Apply(s, VoyageStart{RouteID: "pr_tortuga"}); got != s {
		t.Fatalf("wrecked ship should not sail")
	}
	s.Ship.Condition = 100
	s = e.Apply(s, VoyageStart{RouteID: "pr_tortuga"})
	if s.Ship.Voyage.Status != VoyageRunning {
		t.Fatalf("voyage did not start")
	}
}

func TestVoyageBonusSoftcap(t *testing.T) {
	e := newTestEngine(t)
	s := started(t, e)
	grant(s, UnlockFleet, UnlockPolitics)
	s.Buffs = []Buff{{ID: BuffCombat, RemainingMs: 1000, DurationMs: 1000, PowerBps: 4000}}

	if got := e.VoyageBonusBps(s); got != 4500 {
		t.Fatalf("bonus=%d want 4500", got)
	}
	grant(s, UnlockAdmiralty)
	if got := e.VoyageBonusBps(s); got != 5750 {
		t.Fatalf("bonus=%d want 5750", got)
	}
}

func TestWageShortfallCostsCrew(t *testing.T) {
	e := newTestEngine(t)
	s := started(t, e)
	s.Gold = NewAmount(0)

	s = e.Advance(s, 30_000)
	if s.Ship.Crew != 1 || !s.Gold.IsZero() {
		t.Fatalf("crew=%d gold=%s", s.Ship.Crew, s.Gold)
	}
}

func TestAutomationSailsReturnLeg(t *testing.T) {
	e := newTestEngine(t)
	s := started(t, e)
	grant(s, UnlockVoyage, UnlockAutomation)
	s.Ship.Location = "tortuga"
	stock(s, "tortuga", catalogs.Rum, 10)
	stock(s, "tortuga", catalogs.Cannonballs, 5)

	if got := e.Apply(s, SetAutomation{Enabled: true}); got != s {
		t.Fatalf("automation without a route should be rejected")
	}
	s = e.Apply(s, SetAutomation{Enabled: true, AutoCollect: true, RouteID: "pr_tortuga"})
	s = e.Advance(s, 100)
	if v := s.Ship.Voyage; v.Status != VoyageRunning || v.RouteID != "tortuga_pr" {
		t.Fatalf("voyage=%+v", v)
	}

	s = e.Advance(s, 60_000)
	if s.Ship.Location != "port_royal" || s.Ship.Voyage.Status != VoyageIdle {
		t.Fatalf("location=%s voyage=%+v", s.Ship.Location, s.Ship.Voyage)
	}
	// Auto-collected 40, paid two minutes of wages for two sailors.
	if s.Gold.CmpInt(58) != 0 || s.Stats.VoyagesCompleted != 1 {
		t.Fatalf("gold=%s voyages=%d", s.Gold, s.Stats.VoyagesCompleted)
	}
}

func TestAutomationLeavesGoodsWhenShortOfRum(t *testing.T) {
	e := newTestEngine(t)
	s := started(t, e)
	grant(s, UnlockVoyage, UnlockAutomation)
	stock(s, "port_royal", catalogs.Rum, 3)
	stock(s, "port_royal", catalogs.Cannonballs, 4)
	need, _ := e.RumRequirement(s, "pr_tortuga")
	if need <= 3 {
		t.Fatalf("rum requirement %d too low for this setup", need)
	}

	s = e.Apply(s, SetAutomation{Enabled: true, RouteID: "pr_tortuga"})
	s = e.Advance(s, 100)
	w := s.Warehouses["port_royal"]
	if s.Ship.Voyage.Status != VoyageIdle {
		t.Fatalf("voyage=%+v", s.Ship.Voyage)
	}
	if w.Count(catalogs.Rum) != 3 || w.Count(catalogs.Cannonballs) != 4 || s.Ship.Hold.Used() != 0 {
		t.Fatalf("warehouse rum=%d balls=%d hold used=%d", w.Count(catalogs.Rum), w.Count(catalogs.Cannonballs), s.Ship.Hold.Used())
	}

	s = s.Clone()
	stock(s, "port_royal", catalogs.Rum, need-3)
	s = e.Advance(s, 100)
	if v := s.Ship.Voyage; v.Status != VoyageRunning || v.RouteID != "pr_tortuga" {
		t.Fatalf("topped-up automation did not sail: %+v", v)
	}
}

func TestFleetShipsSailIndependently(t *testing.T) {
	e := newTestEngine(t)
	s := started(t, e)
	grant(s, UnlockEconomy, UnlockFleet, UnlockVoyage)
	s.ShipyardLevel = 1
	s.Gold = NewAmount(1000)
	s = e.Apply(s, BuyFleetShip{ClassID: "sloop"})
	s = e.Apply(s, HireCrew{ShipID: "s_2", Qty: 2})

	s = s.Clone()
	stock(s, "port_royal", catalogs.Rum, 20)
	s = e.Apply(s, VoyagePrepare{RouteID: "pr_tortuga"})
	s = e.Apply(s, VoyagePrepare{ShipID: "s_2", RouteID: "pr_tortuga"})
	s = e.Apply(s, VoyageStart{RouteID: "pr_tortuga"})
	s = e.Advance(s, 1_000)
	s = e.Apply(s, VoyageStart{ShipID: "s_2", RouteID: "pr_tortuga"})

	if s.Ship.Voyage.Index != 0 || s.Fleet[0].Voyage.Index != 1 {
		t.Fatalf("indices %d %d", s.Ship.Voyage.Index, s.Fleet[0].Voyage.Index)
	}
	s = e.Advance(s, 59_000)
	if s.Ship.Voyage.Status != VoyageCompleted || s.Fleet[0].Voyage.Status != VoyageRunning {
		t.Fatalf("active=%s fleet=%s", s.Ship.Voyage.Status, s.Fleet[0].Voyage.Status)
	}
	s = e.Advance(s, 1_000)
	if s.Fleet[0].Voyage.Status != VoyageCompleted || s.Stats.VoyagesCompleted != 2 {
		t.Fatalf("fleet voyage=%+v", s.Fleet[0].Voyage)
	}
}
