package world

import (
	"encoding/json"
	"testing"

	"portsim/internal/sim/catalogs"
)

func sampleCommands() []Command {
	huge, _ := ParseAmount("123456789012345678901234567890")
	return []Command{
		StartGame{Seed: 42},
		ResetGame{},
		DockWork{},
		BuyDockAutomation{},
		UpgradeWarehouse{IslandID: "tortuga"},
		UpgradeShipyard{},
		UpgradeShip{ShipID: "s_2"},
		BuyChart{ChartID: "gulf_chart"},
		PlaceContract{PortID: "havana", CommodityID: catalogs.Cloth, Qty: 12, BidPrice: 4},
		CollectContract{ContractID: "c_3"},
		CancelContract{ContractID: "c_4"},
		LoadCargo{CommodityID: catalogs.Iron, Qty: 3},
		UnloadCargo{ShipID: "s_1", CommodityID: catalogs.Timber, Qty: 9},
		HireCrew{Qty: 2},
		FireCrew{ShipID: "s_3", Qty: 1},
		SetProduction{RecipeID: "smelt_shot", Enabled: true},
		VoyagePrepare{RouteID: "pr_nassau"},
		VoyageStart{ShipID: "s_2", RouteID: "nassau_pr"},
		VoyageCollect{ShipID: "s_2"},
		BuyShip{ClassID: "frigate"},
		RepairShip{},
		BuyFleetShip{ClassID: "brigantine"},
		SetActiveShip{ShipID: "s_2"},
		SetAutomation{ShipID: "s_2", Enabled: true, AutoCollect: true, RouteID: "tortuga_havana"},
		ConquestStart{IslandID: "havana"},
		ConquestAbort{},
		SetAffiliation{FlagID: "armada"},
		Donate{Gold: huge},
		CampaignStart{Campaign: CampaignTaxRelief, PortID: "havana"},
		CampaignAbort{},
		MinigameStart{Game: GameRigging},
		CannonFire{},
		RiggingTug{},
		BuyVanity{ItemID: "figurehead_mermaid"},
	}
}

func TestCommandKindsCoverFactories(t *testing.T) {
	kinds := CommandKinds()
	cmds := sampleCommands()
	if len(kinds) != 34 || len(cmds) != len(kinds) {
		t.Fatalf("kinds=%d samples=%d", len(kinds), len(cmds))
	}
	seen := map[string]bool{}
	for _, c := range cmds {
		seen[c.Kind()] = true
	}
	for _, k := range kinds {
		if !seen[k] {
			t.Fatalf("no sample for %s", k)
		}
	}
}

func TestCommandEnvelopeRoundTrip(t *testing.T) {
	for _, c := range sampleCommands() {
		raw, err := EncodeCommand(c)
		if err != nil {
			t.Fatalf("encode %s: %v", c.Kind(), err)
		}
		got := DecodeCommand(raw)
		if got == nil {
			t.Fatalf("decode %s: nil from %s", c.Kind(), raw)
		}
		a, _ := json.Marshal(c)
		b, _ := json.Marshal(got)
		if got.Kind() != c.Kind() || string(a) != string(b) {
			t.Fatalf("round trip %s: %s != %s", c.Kind(), a, b)
		}
	}
}

func TestDecodeCommandWireForms(t *testing.T) {
	if c, ok := DecodeCommand([]byte(`{"kind":"dock_work"}`)).(DockWork); !ok || c.Kind() != "dock_work" {
		t.Fatalf("bare kind should decode")
	}
	if c, ok := DecodeCommand([]byte(`{"kind":"dock_work","payload":null}`)).(DockWork); !ok || c.Kind() != "dock_work" {
		t.Fatalf("null payload should decode")
	}
	d, ok := DecodeCommand([]byte(`{"kind":"donate","payload":{"gold":"99999999999999999999"}}`)).(Donate)
	if !ok || d.Gold.String() != "99999999999999999999" {
		t.Fatalf("donate=%+v", d)
	}
	for _, raw := range []string{
		`not json`,
		`{"kind":""}`,
		`{"kind":"teleport"}`,
		`{"kind":"hire_crew","payload":{"qty":"three"}}`,
		`{"kind":"donate","payload":{"gold":"-5"}}`,
	} {
		if got := DecodeCommand([]byte(raw)); got != nil {
			t.Fatalf("%s decoded to %#v", raw, got)
		}
	}
}

func TestPointerCommandsApply(t *testing.T) {
	e := newTestEngine(t)
	s := started(t, e)
	next := e.Apply(s, &DockWork{})
	if next == s || !next.Dock.Working {
		t.Fatalf("pointer command was not applied")
	}
}

func TestTypedNilCommandIsNoOp(t *testing.T) {
	e := newTestEngine(t)
	s := started(t, e)
	for _, c := range []Command{(*DockWork)(nil), (*HireCrew)(nil), (*StartGame)(nil)} {
		if got := e.Apply(s, c); got != s {
			t.Fatalf("%T nil changed the state", c)
		}
	}
}

func TestCampaignStartWireKind(t *testing.T) {
	c, ok := DecodeCommand([]byte(`{"kind":"campaign_start","payload":{"kind":"tax_relief","port_id":"havana"}}`)).(CampaignStart)
	if !ok || c.Campaign != CampaignTaxRelief || c.PortID != "havana" || c.Kind() != "campaign_start" {
		t.Fatalf("campaign_start=%+v", c)
	}
	raw, err := json.Marshal(CampaignStart{Campaign: CampaignInfluenceDrive, PortID: "nassau"})
	if err != nil || string(raw) != `{"kind":"influence_drive","port_id":"nassau"}` {
		t.Fatalf("payload=%s err=%v", raw, err)
	}
}
