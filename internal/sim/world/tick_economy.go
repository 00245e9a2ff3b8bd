package world

import (
	"sort"

	"portsim/internal/sim/catalogs"
)

// supplyPair is one (island, commodity) market with a positive rate, in the
// fixed order the contract tick visits them.
type supplyPair struct {
	island    string
	commodity catalogs.CommodityID
	perMin    int64
	key       string
}

func supplyKey(island string, c catalogs.CommodityID) string {
	return island + "/" + string(c)
}

func buildSupply(cats *catalogs.Catalogs) []supplyPair {
	var out []supplyPair
	for _, id := range cats.Islands.IDs {
		is := cats.Islands.ByID[id]
		for _, c := range catalogs.Commodities {
			if r := is.SupplyPerMin[c]; r > 0 {
				out = append(out, supplyPair{island: id, commodity: c, perMin: r, key: supplyKey(id, c)})
			}
		}
	}
	return out
}

func (e *Engine) tickDockWork(n *State, dt int64) {
	d := &n.Dock
	if !d.Working {
		return
	}
	d.WorkRemainingMs -= dt
	if d.WorkRemainingMs > 0 {
		return
	}
	d.WorkRemainingMs = 0
	d.Working = false
	n.Stats.DockShifts++
	n.earn(NewAmount(e.tun.Dock.WorkGold))
}

func (e *Engine) tickDockIncome(n *State, dt int64) {
	lvl := int64(n.Dock.AutomationLevel)
	if lvl <= 0 {
		return
	}
	n.Dock.IncomeAccrue += dt * lvl * e.tun.Dock.IncomePerMinPerLvl
	if pay := n.Dock.IncomeAccrue / msPerMinute; pay > 0 {
		n.Dock.IncomeAccrue %= msPerMinute
		n.earn(NewAmount(pay))
	}
}

// tickWages charges each ship's payroll. If the purse cannot cover a payment
// it is emptied and one sailor deserts that ship.
func (e *Engine) tickWages(n *State, dt int64) {
	wage := e.tun.Crew.WagePerMin
	if wage <= 0 {
		return
	}
	for _, sh := range n.ships() {
		if sh.Crew <= 0 {
			continue
		}
		sh.WageAccrue += dt * sh.Crew * wage
		due := sh.WageAccrue / msPerMinute
		if due <= 0 {
			continue
		}
		sh.WageAccrue %= msPerMinute
		if !n.spend(NewAmount(due)) {
			n.Gold = Amount{}
			sh.Crew--
		}
	}
}

func (e *Engine) tickContracts(n *State, dt int64) {
	for _, p := range e.supply {
		rem := n.SupplyRemainders[p.key] + dt*p.perMin
		units := rem / msPerMinute
		rem %= msPerMinute
		if rem == 0 {
			delete(n.SupplyRemainders, p.key)
		} else {
			if n.SupplyRemainders == nil {
				n.SupplyRemainders = map[string]int64{}
			}
			n.SupplyRemainders[p.key] = rem
		}
		if units > 0 {
			e.fillContracts(n, p.island, p.commodity, units)
		}
	}
	if n.Dock.AutomationLevel >= e.tun.Dock.AutoCollectAtLevel {
		for i := range n.Contracts {
			c := &n.Contracts[i]
			if c.FilledQty > c.CollectedQty {
				e.collectContract(n, c.ID)
			}
		}
	}
}

// fillContracts hands units to open contracts for the pair, highest bid
// first, ties by id. Units nobody wants are lost to the market.
func (e *Engine) fillContracts(n *State, island string, c catalogs.CommodityID, units int64) {
	var open []int
	for i := range n.Contracts {
		k := &n.Contracts[i]
		if k.Status == ContractOpen && k.PortID == island && k.CommodityID == c {
			open = append(open, i)
		}
	}
	if len(open) == 0 {
		return
	}
	sort.Slice(open, func(a, b int) bool {
		ka, kb := &n.Contracts[open[a]], &n.Contracts[open[b]]
		if ka.BidPrice != kb.BidPrice {
			return ka.BidPrice > kb.BidPrice
		}
		return ka.ID < kb.ID
	})
	for _, i := range open {
		if units <= 0 {
			return
		}
		k := &n.Contracts[i]
		take := k.Qty - k.FilledQty
		if take > units {
			take = units
		}
		k.FilledQty += take
		units -= take
		if k.FilledQty == k.Qty {
			k.Status = ContractFilled
			n.Stats.ContractsFilled++
		}
	}
}

// tickProduction converts whole batches at each recipe's interval. A job
// blocked on input or space keeps at most one interval of progress.
func (e *Engine) tickProduction(n *State, dt int64) {
	for _, id := range e.cats.Recipes.IDs {
		job := n.Production[id]
		if job == nil || !job.Enabled {
			continue
		}
		r := e.cats.Recipes.ByID[id]
		w, ok := n.Warehouses[r.IslandID]
		if !ok {
			continue
		}
		job.RemainderMs += dt
		batches := job.RemainderMs / r.IntervalMs
		if batches > 0 {
			batches = productionBatches(&w.Storage, r, batches)
		}
		if batches > 0 {
			for c, q := range r.Inputs {
				w.remove(c, q*batches)
			}
			for c, q := range r.Outputs {
				w.add(c, q*batches)
			}
			job.RemainderMs -= batches * r.IntervalMs
		}
		if job.RemainderMs > r.IntervalMs {
			job.RemainderMs = r.IntervalMs
		}
	}
}

// productionBatches caps want by input stock and by free space per net unit.
func productionBatches(st *Storage, r catalogs.RecipeDef, want int64) int64 {
	var in, out int64
	for c, q := range r.Inputs {
		in += q
		if have := st.Count(c) / q; have < want {
			want = have
		}
	}
	for _, q := range r.Outputs {
		out += q
	}
	if net := out - in; net > 0 {
		if fit := st.Free() / net; fit < want {
			want = fit
		}
	}
	if want < 0 {
		return 0
	}
	return want
}
