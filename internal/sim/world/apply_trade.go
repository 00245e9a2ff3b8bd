package world

import (
	"portsim/internal/sim/catalogs"
	"portsim/internal/sim/world/feature/politics"
	"portsim/internal/sim/world/logic/ids"
)

func (n *State) openContracts() int {
	c := 0
	for i := range n.Contracts {
		if n.Contracts[i].Status == ContractOpen {
			c++
		}
	}
	return c
}

func (e *Engine) placeContract(n *State, c PlaceContract) bool {
	t := e.tun.Contracts
	if !n.HasUnlock(UnlockContracts) {
		return false
	}
	is, ok := e.cats.Islands.Get(c.PortID)
	if !ok || !validQty(c.CommodityID, c.Qty) || is.SupplyPerMin[c.CommodityID] <= 0 {
		return false
	}
	if c.Qty > t.MaxQty || c.BidPrice < 1 || c.BidPrice > t.MaxBid {
		return false
	}
	if n.openContracts() >= t.MaxOpen || e.Standing(n, c.PortID) == politics.Hostile {
		return false
	}
	fee := e.ContractFee(n, c.PortID, c.Qty, c.BidPrice)
	if !n.spend(fee) {
		return false
	}
	n.NextContractSeq++
	n.Contracts = append(n.Contracts, Contract{
		ID:          ids.ContractID(n.NextContractSeq),
		PortID:      c.PortID,
		CommodityID: c.CommodityID,
		Qty:         c.Qty,
		BidPrice:    c.BidPrice,
		FeePaid:     fee,
		Status:      ContractOpen,
	})
	return true
}

// collectContract moves filled-but-uncollected goods into the port warehouse,
// as many as fit, and returns the number moved.
func (e *Engine) collectContract(n *State, id string) int64 {
	c := n.contractByID(id)
	if c == nil {
		return 0
	}
	w, ok := n.Warehouses[c.PortID]
	if !ok {
		return 0
	}
	moved := c.FilledQty - c.CollectedQty
	if free := w.Free(); moved > free {
		moved = free
	}
	if moved <= 0 {
		return 0
	}
	w.add(c.CommodityID, moved)
	c.CollectedQty += moved
	if c.Status == ContractFilled && c.CollectedQty == c.Qty {
		c.Status = ContractCollected
	}
	return moved
}

// cancelContract freezes fills. The fee is not refunded; goods already filled
// can still be collected.
func (e *Engine) cancelContract(n *State, id string) bool {
	c := n.contractByID(id)
	if c == nil || c.Status != ContractOpen {
		return false
	}
	c.Status = ContractCanceled
	return true
}

func (e *Engine) dockedShip(n *State, shipID string) *Ship {
	sh := n.shipByID(shipID)
	if sh == nil || sh.Voyage.Status == VoyageRunning {
		return nil
	}
	return sh
}

func (e *Engine) loadCargo(n *State, shipID string, c catalogs.CommodityID, qty int64) bool {
	sh := e.dockedShip(n, shipID)
	if sh == nil || !validQty(c, qty) {
		return false
	}
	w, ok := n.Warehouses[sh.Location]
	if !ok || w.Count(c) < qty || sh.Hold.Free() < qty {
		return false
	}
	return moveGoods(&w.Storage, &sh.Hold, c, qty) == qty
}

func (e *Engine) unloadCargo(n *State, shipID string, c catalogs.CommodityID, qty int64) bool {
	sh := e.dockedShip(n, shipID)
	if sh == nil || !validQty(c, qty) {
		return false
	}
	w, ok := n.Warehouses[sh.Location]
	if !ok || sh.Hold.Count(c) < qty || w.Free() < qty {
		return false
	}
	return moveGoods(&sh.Hold, &w.Storage, c, qty) == qty
}

func (e *Engine) setProduction(n *State, recipeID string, enabled bool) bool {
	if !n.HasUnlock(UnlockProduction) {
		return false
	}
	if _, ok := e.cats.Recipes.Get(recipeID); !ok {
		return false
	}
	job := n.Production[recipeID]
	if job == nil {
		if !enabled {
			return false
		}
		if n.Production == nil {
			n.Production = map[string]*ProductionJob{}
		}
		job = &ProductionJob{}
		n.Production[recipeID] = job
	}
	if job.Enabled == enabled {
		return false
	}
	job.Enabled = enabled
	if !enabled {
		job.RemainderMs = 0
	}
	return true
}
