package world

import (
	"portsim/internal/sim/catalogs"
	"portsim/internal/sim/world/feature/voyage"
	"portsim/internal/sim/world/logic/mathx"
)

func (e *Engine) tickVoyages(n *State, dt int64) {
	for _, sh := range n.ships() {
		if sh.Voyage.Status == VoyageRunning {
			e.advanceVoyage(n, sh, dt)
		}
	}
}

// advanceVoyage works on elapsed time before and after the step, so rum burn
// and encounter triggers do not depend on step size.
func (e *Engine) advanceVoyage(n *State, sh *Ship, dt int64) {
	v := &sh.Voyage
	before := v.DurationMs - v.RemainingMs
	d := mathx.Min64(dt, v.RemainingMs)
	v.RemainingMs -= d
	after := before + d

	burn := mathx.Accrued(after, v.RumBurn, v.DurationMs) - mathx.Accrued(before, v.RumBurn, v.DurationMs)
	if burn > 0 {
		sh.Hold.remove(catalogs.Rum, mathx.Min64(burn, sh.Hold.Count(catalogs.Rum)))
	}

	for i := range v.Encounters {
		enc := &v.Encounters[i]
		if enc.Status != EncounterPending || enc.AtMs <= before || enc.AtMs > after {
			continue
		}
		if sh.Hold.Count(catalogs.Cannonballs) >= enc.CannonballsCost {
			sh.Hold.remove(catalogs.Cannonballs, enc.CannonballsCost)
			enc.Status = EncounterSuccess
			n.Stats.EncountersWon++
			continue
		}
		enc.Status = EncounterFail
		n.Stats.EncountersLost++
		sh.Condition = mathx.Max64(sh.Condition-e.tun.Voyage.EncounterConditionDamage, 0)
		sh.Hold.remove(catalogs.Cannonballs, sh.Hold.Count(catalogs.Cannonballs))
	}

	if v.RemainingMs == 0 {
		e.completeVoyage(n, sh)
	}
}

func (e *Engine) completeVoyage(n *State, sh *Ship) {
	v := &sh.Voyage
	r, _ := e.cats.Routes.Get(v.RouteID)
	var fails int64
	for _, enc := range v.Encounters {
		if enc.Status == EncounterFail {
			fails++
		}
	}
	t := e.tun.Voyage
	penalty := voyage.FailPenaltyBps(fails, t.EncounterFailPenaltyBps, t.MaxFailPenaltyBps)
	v.PendingGold = AmountFromBig(voyage.Reward(r.BaseGoldReward, e.VoyageBonusBps(n), penalty))
	v.PendingInfluence = r.InfluenceReward
	v.Status = VoyageCompleted
	sh.Location = r.ToIslandID
	n.Stats.VoyagesCompleted++
}

// tickAutomation acts for ships with automation set: collect a finished
// voyage, then sail the configured route or, from its far end, the return
// leg. A ship that cannot depart is left alone.
func (e *Engine) tickAutomation(n *State) {
	for _, sh := range n.ships() {
		a := sh.Automation
		if a.AutoCollect && sh.Voyage.Status == VoyageCompleted {
			e.collectVoyage(n, sh)
		}
		if !a.Enabled || sh.Voyage.Status != VoyageIdle {
			continue
		}
		routeID, ok := e.automationRoute(n, sh)
		if !ok {
			continue
		}
		if _, ok := e.departable(n, sh, routeID); !ok || !e.rumAfterPrepare(n, sh, routeID) {
			continue
		}
		e.prepareVoyage(n, sh, routeID)
		e.startVoyage(n, sh, routeID)
	}
}

// rumAfterPrepare reports whether topping the hold up from the local
// warehouse would cover the route's rum requirement.
func (e *Engine) rumAfterPrepare(n *State, sh *Ship, routeID string) bool {
	need, ok := e.RumRequirement(n, routeID)
	if !ok {
		return false
	}
	have := sh.Hold.Count(catalogs.Rum)
	if have >= need {
		return true
	}
	w, ok := n.Warehouses[sh.Location]
	if !ok {
		return false
	}
	add := w.Count(catalogs.Rum)
	if free := sh.Hold.Free(); add > free {
		add = free
	}
	return have+add >= need
}

func (e *Engine) automationRoute(n *State, sh *Ship) (string, bool) {
	r, ok := e.cats.Routes.Get(sh.Automation.RouteID)
	if !ok {
		return "", false
	}
	if r.FromIslandID == sh.Location && e.routeUnlocked(n, r) {
		return r.ID, true
	}
	if ret, ok := e.cats.ReturnRoute(r.ID); ok && ret.FromIslandID == sh.Location && e.routeUnlocked(n, ret) {
		return ret.ID, true
	}
	return "", false
}
