package world

import (
	"portsim/internal/sim/catalogs"
	"portsim/internal/sim/world/logic/ids"
)

func (e *Engine) hireCrew(n *State, shipID string, qty int64) bool {
	sh := e.dockedShip(n, shipID)
	if sh == nil {
		return false
	}
	count := e.HireCount(n, sh.ID, qty)
	if count <= 0 || !n.spend(NewAmount(count*e.tun.Crew.HireCost)) {
		return false
	}
	sh.Crew += count
	return true
}

func (e *Engine) fireCrew(n *State, shipID string, qty int64) bool {
	sh := e.dockedShip(n, shipID)
	if sh == nil || qty <= 0 || qty > sh.Crew {
		return false
	}
	sh.Crew -= qty
	return true
}

// departable checks everything a start needs except the rum in the hold.
func (e *Engine) departable(n *State, sh *Ship, routeID string) (catalogs.RouteDef, bool) {
	r, ok := e.cats.Routes.Get(routeID)
	if !ok || sh == nil || !n.HasUnlock(UnlockVoyage) {
		return r, false
	}
	if sh.Voyage.Status != VoyageIdle || r.FromIslandID != sh.Location || !e.routeUnlocked(n, r) {
		return r, false
	}
	if sh.Crew < e.shipClass(sh).MinCrew || sh.Condition <= 0 {
		return r, false
	}
	return r, true
}

// prepareVoyage tops the hold up with the rum and cannonballs routeID still
// needs, taken from the local warehouse as far as stock and hold space allow.
func (e *Engine) prepareVoyage(n *State, sh *Ship, routeID string) bool {
	if sh == nil || sh.Voyage.Status != VoyageIdle {
		return false
	}
	r, ok := e.cats.Routes.Get(routeID)
	if !ok || r.FromIslandID != sh.Location {
		return false
	}
	w, ok := n.Warehouses[sh.Location]
	if !ok {
		return false
	}
	rum, _ := e.RumRequirement(n, routeID)
	balls, _ := e.CannonballRequirement(routeID)
	var moved int64
	if miss := rum - sh.Hold.Count(catalogs.Rum); miss > 0 {
		moved += moveGoods(&w.Storage, &sh.Hold, catalogs.Rum, miss)
	}
	if miss := balls - sh.Hold.Count(catalogs.Cannonballs); miss > 0 {
		moved += moveGoods(&w.Storage, &sh.Hold, catalogs.Cannonballs, miss)
	}
	return moved > 0
}

func (e *Engine) startVoyage(n *State, sh *Ship, routeID string) bool {
	r, ok := e.departable(n, sh, routeID)
	if !ok {
		return false
	}
	burn := e.effectiveBurn(n, r)
	if sh.Hold.Count(catalogs.Rum) < r.RumFare+burn {
		return false
	}
	dur, _ := e.VoyageDurationMs(n, sh.ID, routeID)
	index := n.NextVoyageIndex
	n.NextVoyageIndex++
	sh.Hold.remove(catalogs.Rum, r.RumFare)
	sh.Voyage = Voyage{
		Status:      VoyageRunning,
		RouteID:     routeID,
		Index:       index,
		RemainingMs: dur,
		DurationMs:  dur,
		RumBurn:     burn,
		Encounters:  e.encounters(n.Seed, r, index, dur),
	}
	return true
}

func (e *Engine) collectVoyage(n *State, sh *Ship) bool {
	if sh == nil || sh.Voyage.Status != VoyageCompleted {
		return false
	}
	n.earn(sh.Voyage.PendingGold)
	if aff := n.Politics.Affiliation; aff != "" && sh.Voyage.PendingInfluence > 0 {
		n.addInfluence(aff, sh.Voyage.PendingInfluence)
	}
	sh.Voyage = Voyage{Status: VoyageIdle}
	return true
}

func (e *Engine) buyShip(n *State, classID string) bool {
	if !n.HasUnlock(UnlockEconomy) {
		return false
	}
	sh := &n.Ship
	cls, ok := e.cats.Ships.Get(classID)
	if !ok || classID == sh.ClassID || sh.Voyage.Status != VoyageIdle {
		return false
	}
	if n.ShipyardLevel < cls.ShipyardLevel || cls.Berths < sh.Crew || cls.HoldCapacity < sh.Hold.Used() {
		return false
	}
	if !n.spend(NewAmount(cls.PriceGold)) {
		return false
	}
	sh.ClassID = classID
	sh.Level = 0
	sh.Condition = cls.MaxCondition
	sh.Hold.Capacity = cls.HoldCapacity
	return true
}

// repairShip restores as many condition points as the player can pay for.
func (e *Engine) repairShip(n *State, shipID string) bool {
	sh := e.dockedShip(n, shipID)
	if sh == nil {
		return false
	}
	missing := e.shipClass(sh).MaxCondition - sh.Condition
	if missing <= 0 {
		return false
	}
	per := e.tun.Ship.RepairGoldPerPoint
	points := missing
	if per > 0 {
		points = n.Gold.QuoCapped(per, missing)
	}
	if points <= 0 || !n.spend(NewAmount(points*per)) {
		return false
	}
	sh.Condition += points
	return true
}

func (e *Engine) buyFleetShip(n *State, classID string) bool {
	if !n.HasUnlock(UnlockFleet) || 1+len(n.Fleet) >= e.tun.Shipyard.MaxFleet {
		return false
	}
	cls, ok := e.cats.Ships.Get(classID)
	if !ok || n.ShipyardLevel < cls.ShipyardLevel {
		return false
	}
	if !n.spend(NewAmount(cls.PriceGold)) {
		return false
	}
	n.NextShipSeq++
	n.Fleet = append(n.Fleet, e.newShip(ids.ShipID(n.NextShipSeq), classID, e.tun.StartIslandID))
	return true
}

// setActiveShip swaps the chosen fleet ship into the active slot; the old
// active ship takes its place in the fleet.
func (e *Engine) setActiveShip(n *State, shipID string) bool {
	for i := range n.Fleet {
		if n.Fleet[i].ID == shipID {
			n.Ship, n.Fleet[i] = n.Fleet[i], n.Ship
			return true
		}
	}
	return false
}

func (e *Engine) setAutomation(n *State, c SetAutomation) bool {
	if !n.HasUnlock(UnlockAutomation) {
		return false
	}
	sh := n.shipByID(c.ShipID)
	if sh == nil {
		return false
	}
	if c.RouteID != "" {
		if _, ok := e.cats.Routes.Get(c.RouteID); !ok {
			return false
		}
	} else if c.Enabled {
		return false
	}
	next := Automation{Enabled: c.Enabled, AutoCollect: c.AutoCollect, RouteID: c.RouteID}
	if next == sh.Automation {
		return false
	}
	sh.Automation = next
	return true
}

func (n *State) addInfluence(flagID string, v int64) {
	if v == 0 {
		return
	}
	if n.Politics.Influence == nil {
		n.Politics.Influence = map[string]int64{}
	}
	n.Politics.Influence[flagID] += v
}
