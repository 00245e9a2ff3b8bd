package world

import "portsim/internal/sim/catalogs"

// Clone deep-copies s. Amount values are immutable and are shared.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.Unlocks = cloneStrings(s.Unlocks)
	c.Vanity = cloneStrings(s.Vanity)
	c.Charts = cloneStrings(s.Charts)

	if s.Warehouses != nil {
		c.Warehouses = make(map[string]*Warehouse, len(s.Warehouses))
		for id, w := range s.Warehouses {
			cw := *w
			cw.Storage = w.Storage.clone()
			c.Warehouses[id] = &cw
		}
	}
	c.Ship = s.Ship.clone()
	if s.Fleet != nil {
		c.Fleet = make([]Ship, len(s.Fleet))
		for i := range s.Fleet {
			c.Fleet[i] = s.Fleet[i].clone()
		}
	}
	if s.Contracts != nil {
		c.Contracts = append([]Contract(nil), s.Contracts...)
	}
	if s.SupplyRemainders != nil {
		c.SupplyRemainders = make(map[string]int64, len(s.SupplyRemainders))
		for k, v := range s.SupplyRemainders {
			c.SupplyRemainders[k] = v
		}
	}
	if s.Production != nil {
		c.Production = make(map[string]*ProductionJob, len(s.Production))
		for k, j := range s.Production {
			cj := *j
			c.Production[k] = &cj
		}
	}
	if s.Buffs != nil {
		c.Buffs = append([]Buff(nil), s.Buffs...)
	}
	c.Politics = s.Politics.clone()
	return &c
}

func (st Storage) clone() Storage {
	out := Storage{Capacity: st.Capacity}
	if st.Inventory != nil {
		out.Inventory = make(map[catalogs.CommodityID]int64, len(st.Inventory))
		for k, v := range st.Inventory {
			out.Inventory[k] = v
		}
	}
	return out
}

func (sh Ship) clone() Ship {
	out := sh
	out.Hold = sh.Hold.clone()
	if sh.Voyage.Encounters != nil {
		out.Voyage.Encounters = append([]Encounter(nil), sh.Voyage.Encounters...)
	}
	return out
}

func (p Politics) clone() Politics {
	out := p
	if p.Influence != nil {
		out.Influence = make(map[string]int64, len(p.Influence))
		for k, v := range p.Influence {
			out.Influence[k] = v
		}
	}
	if p.Perks != nil {
		out.Perks = make(map[string]Buff, len(p.Perks))
		for k, v := range p.Perks {
			out.Perks[k] = v
		}
	}
	if p.Controllers != nil {
		out.Controllers = make(map[string]string, len(p.Controllers))
		for k, v := range p.Controllers {
			out.Controllers[k] = v
		}
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
