package world

import (
	"sort"

	"portsim/internal/sim/catalogs"
	"portsim/internal/sim/rng"
	"portsim/internal/sim/world/logic/ids"
)

// Apply returns the state after cmd. When a precondition fails, or cmd is nil
// or unknown, the very same pointer is returned. s is never modified.
func (e *Engine) Apply(s *State, cmd Command) *State {
	if s == nil || cmd == nil {
		return s
	}
	if cmd = deref(cmd); cmd == nil {
		return s
	}

	var next *State
	var ctx CheckContext
	switch c := cmd.(type) {
	case StartGame:
		next = e.newSession(c.Seed)
		ctx.Reset = true
	case ResetGame:
		if s.Mode != ModeSession {
			return s
		}
		next = NewState()
		ctx.Reset = true
	default:
		if s.Mode != ModeSession {
			return s
		}
		next = s.Clone()
		if !e.reduce(next, cmd) {
			return s
		}
		e.evaluateUnlocks(next)
	}
	e.verify(s, next, ctx)
	return next
}

// reduce mutates n, a private clone. Returning false discards n.
func (e *Engine) reduce(n *State, cmd Command) bool {
	switch c := cmd.(type) {
	case DockWork:
		return e.dockWork(n)
	case BuyDockAutomation:
		return e.buyDockAutomation(n)
	case UpgradeWarehouse:
		return e.upgradeWarehouse(n, c.IslandID)
	case UpgradeShipyard:
		return e.upgradeShipyard(n)
	case UpgradeShip:
		return e.upgradeShip(n, c.ShipID)
	case BuyChart:
		return e.buyChart(n, c.ChartID)
	case BuyVanity:
		return e.buyVanity(n, c.ItemID)
	case PlaceContract:
		return e.placeContract(n, c)
	case CollectContract:
		return e.collectContract(n, c.ContractID) > 0
	case CancelContract:
		return e.cancelContract(n, c.ContractID)
	case LoadCargo:
		return e.loadCargo(n, c.ShipID, c.CommodityID, c.Qty)
	case UnloadCargo:
		return e.unloadCargo(n, c.ShipID, c.CommodityID, c.Qty)
	case SetProduction:
		return e.setProduction(n, c.RecipeID, c.Enabled)
	case HireCrew:
		return e.hireCrew(n, c.ShipID, c.Qty)
	case FireCrew:
		return e.fireCrew(n, c.ShipID, c.Qty)
	case VoyagePrepare:
		return e.prepareVoyage(n, n.shipByID(c.ShipID), c.RouteID)
	case VoyageStart:
		return e.startVoyage(n, n.shipByID(c.ShipID), c.RouteID)
	case VoyageCollect:
		return e.collectVoyage(n, n.shipByID(c.ShipID))
	case BuyShip:
		return e.buyShip(n, c.ClassID)
	case RepairShip:
		return e.repairShip(n, c.ShipID)
	case BuyFleetShip:
		return e.buyFleetShip(n, c.ClassID)
	case SetActiveShip:
		return e.setActiveShip(n, c.ShipID)
	case SetAutomation:
		return e.setAutomation(n, c)
	case SetAffiliation:
		return e.setAffiliation(n, c.FlagID)
	case Donate:
		return e.donate(n, c.Gold)
	case CampaignStart:
		return e.startCampaign(n, c.Campaign, c.PortID)
	case CampaignAbort:
		return e.abortCampaign(n)
	case ConquestStart:
		return e.startConquest(n, c.IslandID)
	case ConquestAbort:
		return e.abortConquest(n)
	case MinigameStart:
		return e.startMinigame(n, c.Game)
	case CannonFire:
		return e.fireCannon(n)
	case RiggingTug:
		return e.tugRigging(n)
	}
	return false
}

func (e *Engine) newSession(seed uint32) *State {
	t := e.tun
	s := NewState()
	s.Mode = ModeSession
	s.Seed = seed
	s.Rng = rng.Seed(seed)
	s.Gold = NewAmount(t.StartGold)

	s.Warehouses = make(map[string]*Warehouse, len(e.cats.Islands.IDs))
	s.Politics.Controllers = make(map[string]string, len(e.cats.Islands.IDs))
	for _, id := range e.cats.Islands.IDs {
		s.Warehouses[id] = &Warehouse{Storage: Storage{Capacity: t.Warehouse.BaseCapacity}}
		s.Politics.Controllers[id] = e.cats.Islands.ByID[id].ControllerFlagID
	}

	s.NextShipSeq = 1
	s.Ship = e.newShip(ids.ShipID(s.NextShipSeq), t.StartShipID, t.StartIslandID)
	s.Ship.Crew = t.StartCrew

	e.evaluateUnlocks(s)
	return s
}

func (e *Engine) newShip(id, classID, location string) Ship {
	cls, _ := e.cats.Ships.Get(classID)
	return Ship{
		ID:        id,
		ClassID:   classID,
		Location:  location,
		Condition: cls.MaxCondition,
		Hold:      Storage{Capacity: cls.HoldCapacity},
		Voyage:    Voyage{Status: VoyageIdle},
	}
}

func (n *State) spend(cost Amount) bool {
	if cost.Sign() < 0 || !n.Gold.Covers(cost) {
		return false
	}
	n.Gold = n.Gold.Sub(cost)
	return true
}

func (n *State) earn(v Amount) {
	if v.Sign() <= 0 {
		return
	}
	n.Gold = n.Gold.Add(v)
	n.Stats.GoldEarned = n.Stats.GoldEarned.Add(v)
}

func (e *Engine) dockWork(n *State) bool {
	if !n.HasUnlock(UnlockDock) || n.Dock.Working {
		return false
	}
	n.Dock.Working = true
	n.Dock.WorkDurationMs = e.tun.Dock.WorkDurationMs
	n.Dock.WorkRemainingMs = e.tun.Dock.WorkDurationMs
	return true
}

func (e *Engine) buyDockAutomation(n *State) bool {
	cost, ok := e.DockAutomationCost(n)
	if !ok || !n.spend(cost) {
		return false
	}
	n.Dock.AutomationLevel++
	return true
}

func (e *Engine) upgradeWarehouse(n *State, islandID string) bool {
	if !n.HasUnlock(UnlockEconomy) {
		return false
	}
	cost, ok := e.WarehouseUpgradeCost(n, islandID)
	if !ok || !n.spend(cost) {
		return false
	}
	w := n.Warehouses[islandID]
	w.Level++
	w.Capacity += e.tun.Warehouse.CapacityPerLevel
	return true
}

func (e *Engine) upgradeShipyard(n *State) bool {
	if !n.HasUnlock(UnlockEconomy) {
		return false
	}
	cost, ok := e.ShipyardUpgradeCost(n)
	if !ok || !n.spend(cost) {
		return false
	}
	n.ShipyardLevel++
	return true
}

func (e *Engine) upgradeShip(n *State, shipID string) bool {
	if !n.HasUnlock(UnlockEconomy) {
		return false
	}
	sh := n.shipByID(shipID)
	if sh == nil {
		return false
	}
	cost, ok := e.ShipUpgradeCost(n, shipID)
	if !ok || !n.spend(cost) {
		return false
	}
	sh.Level++
	sh.Hold.Capacity += e.tun.Ship.HoldPerLevel
	return true
}

func (e *Engine) buyChart(n *State, chartID string) bool {
	ch, ok := e.cats.Charts.Get(chartID)
	if !ok || !n.HasUnlock(UnlockVoyage) || n.ownsChart(chartID) {
		return false
	}
	if !n.spend(NewAmount(ch.PriceGold)) {
		return false
	}
	n.Charts = insertSorted(n.Charts, chartID)
	return true
}

func (e *Engine) buyVanity(n *State, itemID string) bool {
	it, ok := e.cats.Vanity.Get(itemID)
	if !ok || containsString(n.Vanity, itemID) {
		return false
	}
	if !n.spend(NewAmount(it.PriceGold)) {
		return false
	}
	n.Vanity = insertSorted(n.Vanity, itemID)
	return true
}

func insertSorted(list []string, v string) []string {
	list = append(list, v)
	sort.Strings(list)
	return list
}

func validQty(c catalogs.CommodityID, qty int64) bool {
	return c.Valid() && qty > 0
}
