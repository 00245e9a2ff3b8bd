package main

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"portsim/internal/protocol"
	"portsim/internal/sim/catalogs"
	"portsim/internal/sim/world"
)

// generator produces a reproducible command stream for a seed. Roughly
// invalidPct percent of the commands are deliberately broken.
type generator struct {
	r          *rand.Rand
	cats       *catalogs.Catalogs
	invalidPct int
	seq        int
}

func newGenerator(seed uint64, cats *catalogs.Catalogs, invalidPct int) *generator {
	return &generator{
		r:          rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		cats:       cats,
		invalidPct: invalidPct,
	}
}

func (g *generator) pick(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return ids[g.r.IntN(len(ids))]
}

func (g *generator) commodity() catalogs.CommodityID {
	return catalogs.CommodityID(g.pick(g.cats.Commodities.IDs))
}

func (g *generator) next() protocol.CommandMsg {
	g.seq++
	m := protocol.CommandMsg{
		Type:            protocol.TypeCommand,
		ProtocolVersion: protocol.Version,
		ReqID:           fmt.Sprintf("b%d", g.seq),
	}
	if g.r.IntN(100) < g.invalidPct {
		switch g.r.IntN(3) {
		case 0:
			m.Kind = "sink_ship"
		case 1:
			m.Kind = "hire_crew"
			m.Payload = json.RawMessage(`{"qty":"lots"}`)
		default:
			m.Kind = "place_contract"
			m.Payload = json.RawMessage(`[1,2,3]`)
		}
		return m
	}

	cmd := g.command()
	raw, err := world.EncodeCommand(cmd)
	if err != nil {
		m.Kind = cmd.Kind()
		return m
	}
	var env world.CommandEnvelope
	_ = json.Unmarshal(raw, &env)
	m.Kind = env.Kind
	m.Payload = env.Payload
	return m
}

// command favours the early-game loop so a run makes progress.
func (g *generator) command() world.Command {
	switch n := g.r.IntN(20); {
	case n < 6:
		return world.DockWork{}
	case n < 8:
		return world.HireCrew{Qty: int64(1 + g.r.IntN(3))}
	case n < 10:
		return world.PlaceContract{
			PortID:      g.pick(g.cats.Islands.IDs),
			CommodityID: g.commodity(),
			Qty:         int64(1 + g.r.IntN(20)),
			BidPrice:    int64(1 + g.r.IntN(5)),
		}
	case n < 11:
		return world.LoadCargo{CommodityID: g.commodity(), Qty: int64(1 + g.r.IntN(10))}
	case n < 12:
		return world.UnloadCargo{CommodityID: g.commodity(), Qty: int64(1 + g.r.IntN(10))}
	case n < 13:
		return world.VoyageStart{RouteID: g.pick(g.cats.Routes.IDs)}
	case n < 14:
		return world.VoyageCollect{}
	case n < 15:
		return world.UpgradeWarehouse{IslandID: g.pick(g.cats.Islands.IDs)}
	case n < 16:
		return world.RepairShip{}
	case n < 17:
		return world.MinigameStart{Game: []string{world.GameCannon, world.GameRigging}[g.r.IntN(2)]}
	case n < 18:
		if g.r.IntN(2) == 0 {
			return world.CannonFire{}
		}
		return world.RiggingTug{}
	case n < 19:
		return world.BuyDockAutomation{}
	default:
		return world.BuyChart{ChartID: g.pick(g.cats.Charts.IDs)}
	}
}
