package world

import (
	"portsim/internal/sim/catalogs"
	"portsim/internal/sim/rng"
	"portsim/internal/sim/world/feature/economy"
	"portsim/internal/sim/world/feature/politics"
	"portsim/internal/sim/world/feature/voyage"
)

// Queries are read-only and recomputed on every call. The reducer and the
// tick engine use the same functions, so a preview always matches what a
// command or step will do.

func (e *Engine) EffectiveTaxBps(s *State, islandID string) int64 {
	is, ok := e.cats.Islands.Get(islandID)
	if !ok {
		return 0
	}
	var discount int64
	if aff := s.Politics.Affiliation; aff != "" && aff == s.controller(islandID) {
		p := e.tun.Politics
		discount = politics.InfluenceDiscountBps(s.influence(aff), p.InfluencePerDiscountStep, p.DiscountStepBps)
	}
	var perk int64
	if b, ok := s.Politics.Perks[islandID]; ok {
		perk = b.PowerBps
	}
	return economy.EffectiveTaxBps(is.BaseTaxBps, discount, perk)
}

func (e *Engine) ContractFee(s *State, portID string, qty, bid int64) Amount {
	is, ok := e.cats.Islands.Get(portID)
	if !ok {
		return Amount{}
	}
	return AmountFromBig(economy.ContractFee(qty, bid, is.MarketTier, e.EffectiveTaxBps(s, portID)))
}

func (e *Engine) Standing(s *State, islandID string) politics.Standing {
	p := e.tun.Politics
	ctrl := s.controller(islandID)
	v := politics.StandingValue(s.influence(ctrl), s.Politics.Affiliation, ctrl, p.AffiliationPenalty)
	return politics.Classify(v, p.HostileThreshold, p.FriendlyThreshold)
}

func (e *Engine) shipClass(sh *Ship) catalogs.ShipClassDef {
	c, _ := e.cats.Ships.Get(sh.ClassID)
	return c
}

func (e *Engine) holdCapacity(classID string, level int) int64 {
	c, _ := e.cats.Ships.Get(classID)
	return c.HoldCapacity + int64(level)*e.tun.Ship.HoldPerLevel
}

func (e *Engine) shipSpeedPct(s *State, sh *Ship) int64 {
	base := e.shipClass(sh).SpeedPct + int64(sh.Level)*e.tun.Ship.SpeedPctPerLevel
	return voyage.BoostedSpeedPct(base, s.buffPower(BuffSpeed))
}

func (e *Engine) VoyageDurationMs(s *State, shipID, routeID string) (int64, bool) {
	sh := s.shipByID(shipID)
	r, ok := e.cats.Routes.Get(routeID)
	if sh == nil || !ok {
		return 0, false
	}
	return voyage.DurationMs(r.BaseDurationMs, e.shipSpeedPct(s, sh)), true
}

func (e *Engine) effectiveBurn(s *State, r catalogs.RouteDef) int64 {
	return voyage.EffectiveBurn(r.RumBurn, s.buffPower(BuffEfficiency))
}

// RumRequirement is the fare plus the buff-adjusted burn for routeID.
func (e *Engine) RumRequirement(s *State, routeID string) (int64, bool) {
	r, ok := e.cats.Routes.Get(routeID)
	if !ok {
		return 0, false
	}
	return r.RumFare + e.effectiveBurn(s, r), true
}

func (e *Engine) CannonballRequirement(routeID string) (int64, bool) {
	r, ok := e.cats.Routes.Get(routeID)
	if !ok {
		return 0, false
	}
	return int64(r.Encounters) * r.CannonballsPerEncounter, true
}

type VoyagePreview struct {
	RouteID             string      `json:"route_id"`
	Index               uint64      `json:"index"`
	DurationMs          int64       `json:"duration_ms"`
	RumRequired         int64       `json:"rum_required"`
	CannonballsRequired int64       `json:"cannonballs_required"`
	Encounters          []Encounter `json:"encounters"`
}

// VoyagePreview describes the voyage a start on routeID would launch next,
// encounters included.
func (e *Engine) VoyagePreview(s *State, shipID, routeID string) (VoyagePreview, bool) {
	r, ok := e.cats.Routes.Get(routeID)
	if !ok {
		return VoyagePreview{}, false
	}
	dur, ok := e.VoyageDurationMs(s, shipID, routeID)
	if !ok {
		return VoyagePreview{}, false
	}
	rum, _ := e.RumRequirement(s, routeID)
	balls, _ := e.CannonballRequirement(routeID)
	return VoyagePreview{
		RouteID:             routeID,
		Index:               s.NextVoyageIndex,
		DurationMs:          dur,
		RumRequired:         rum,
		CannonballsRequired: balls,
		Encounters:          e.encounters(s.Seed, r, s.NextVoyageIndex, dur),
	}, true
}

func (e *Engine) encounters(seed uint32, r catalogs.RouteDef, index uint64, durationMs int64) []Encounter {
	gen := voyage.GenerateEncounters(rng.VoyageSeed(seed, r.ID, index), r.Encounters, durationMs, r.CannonballsPerEncounter)
	if len(gen) == 0 {
		return nil
	}
	out := make([]Encounter, len(gen))
	for i, g := range gen {
		out[i] = Encounter{AtMs: g.AtMs, CannonballsCost: g.CannonballsCost, Status: EncounterPending}
	}
	return out
}

func (e *Engine) HireCount(s *State, shipID string, requested int64) int64 {
	sh := s.shipByID(shipID)
	if sh == nil {
		return 0
	}
	free := e.shipClass(sh).Berths - sh.Crew
	return economy.HireCount(requested, free, s.Gold.big(), e.tun.Crew.HireCost)
}

func (e *Engine) DockAutomationCost(s *State) (Amount, bool) {
	d := e.tun.Dock
	if s.Dock.AutomationLevel >= d.AutomationMaxLevel {
		return Amount{}, false
	}
	return NewAmount(economy.LinearCost(d.AutomationBaseCost, d.AutomationCostStep, s.Dock.AutomationLevel)), true
}

func (e *Engine) WarehouseUpgradeCost(s *State, islandID string) (Amount, bool) {
	w, ok := s.Warehouses[islandID]
	if !ok || w.Level >= e.tun.Warehouse.MaxLevel {
		return Amount{}, false
	}
	t := e.tun.Warehouse
	return NewAmount(economy.LinearCost(t.UpgradeBaseCost, t.UpgradeCostStep, w.Level)), true
}

func (e *Engine) ShipyardUpgradeCost(s *State) (Amount, bool) {
	c, ok := economy.TieredCost(e.tun.Shipyard.UpgradeCosts, s.ShipyardLevel)
	if !ok {
		return Amount{}, false
	}
	return NewAmount(c), true
}

func (e *Engine) ShipUpgradeCost(s *State, shipID string) (Amount, bool) {
	sh := s.shipByID(shipID)
	if sh == nil || sh.Level >= e.tun.Ship.MaxLevel {
		return Amount{}, false
	}
	t := e.tun.Ship
	return NewAmount(economy.LinearCost(t.UpgradeBaseCost, t.UpgradeCostStep, sh.Level)), true
}

// RepairCost prices a full repair of the ship.
func (e *Engine) RepairCost(s *State, shipID string) Amount {
	sh := s.shipByID(shipID)
	if sh == nil {
		return Amount{}
	}
	missing := e.shipClass(sh).MaxCondition - sh.Condition
	if missing <= 0 {
		return Amount{}
	}
	return NewAmount(missing * e.tun.Ship.RepairGoldPerPoint)
}

// VoyageBonusBps is the reward bonus a voyage completing now would get, after
// the softcap.
func (e *Engine) VoyageBonusBps(s *State) int64 {
	raw := s.buffPower(BuffCombat)
	for _, u := range s.Unlocks {
		raw += e.tun.Voyage.UnlockBonusBps[u]
	}
	v := e.tun.Voyage
	return voyage.EffectiveBonusBps(raw, v.SoftcapThresholdBps, v.SoftcapDivisor)
}

func (e *Engine) ConquestChanceBps(s *State, islandID string) int64 {
	c := e.tun.Conquest
	infl := s.influence(s.Politics.Affiliation) - c.InfluenceCost
	if s.Conquest.Status == ConquestRunning && s.Conquest.TargetIslandID == islandID {
		return s.Conquest.ChanceBps
	}
	return politics.ConquestChanceBps(c.BaseChanceBps, c.PerInfluenceBps, infl, c.PerShipBps, int64(1+len(s.Fleet)), c.MaxChanceBps)
}

func (e *Engine) WarehouseFree(s *State, islandID string) int64 {
	w, ok := s.Warehouses[islandID]
	if !ok {
		return 0
	}
	return w.Free()
}

func (e *Engine) HoldFree(s *State, shipID string) int64 {
	sh := s.shipByID(shipID)
	if sh == nil {
		return 0
	}
	return sh.Hold.Free()
}

func (e *Engine) routeUnlocked(s *State, r catalogs.RouteDef) bool {
	return r.ChartID == "" || s.ownsChart(r.ChartID)
}
