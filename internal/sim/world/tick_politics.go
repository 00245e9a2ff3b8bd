package world

import (
	"sort"

	"portsim/internal/sim/rng"
	"portsim/internal/sim/world/feature/politics"
)

func (e *Engine) tickBuffs(n *State, dt int64) {
	if len(n.Buffs) == 0 {
		return
	}
	kept := n.Buffs[:0]
	for _, b := range n.Buffs {
		b.RemainingMs -= dt
		if b.RemainingMs > 0 {
			kept = append(kept, b)
		}
	}
	if len(kept) == 0 {
		n.Buffs = nil
		return
	}
	n.Buffs = kept
}

func (e *Engine) tickPerks(n *State, dt int64) {
	for port, p := range n.Politics.Perks {
		p.RemainingMs -= dt
		if p.RemainingMs <= 0 {
			delete(n.Politics.Perks, port)
			continue
		}
		n.Politics.Perks[port] = p
	}
	if len(n.Politics.Perks) == 0 {
		n.Politics.Perks = nil
	}
}

// mergeBuff folds a new grant into an existing one: the longer remaining
// time and the stronger power win.
func mergeBuff(old Buff, powerBps, durationMs int64, seq uint64) Buff {
	if durationMs > old.RemainingMs {
		old.RemainingMs = durationMs
	}
	if durationMs > old.DurationMs {
		old.DurationMs = durationMs
	}
	if powerBps > old.PowerBps {
		old.PowerBps = powerBps
	}
	old.GrantSeq = seq
	return old
}

func (n *State) grantBuff(id string, powerBps, durationMs int64) {
	if durationMs <= 0 {
		return
	}
	for i := range n.Buffs {
		if n.Buffs[i].ID == id {
			n.Buffs[i] = mergeBuff(n.Buffs[i], powerBps, durationMs, n.nextGrant())
			return
		}
	}
	n.Buffs = append(n.Buffs, Buff{ID: id, RemainingMs: durationMs, DurationMs: durationMs, PowerBps: powerBps, GrantSeq: n.nextGrant()})
	sort.Slice(n.Buffs, func(i, j int) bool { return n.Buffs[i].ID < n.Buffs[j].ID })
}

func (n *State) grantPerk(portID, kind string, powerBps, durationMs int64) {
	if durationMs <= 0 {
		return
	}
	if n.Politics.Perks == nil {
		n.Politics.Perks = map[string]Buff{}
	}
	old, ok := n.Politics.Perks[portID]
	if !ok {
		old = Buff{ID: kind}
	}
	n.Politics.Perks[portID] = mergeBuff(old, powerBps, durationMs, n.nextGrant())
}

func (n *State) nextGrant() uint64 {
	n.NextGrantSeq++
	return n.NextGrantSeq
}

func (e *Engine) tickCampaign(n *State, dt int64) {
	c := &n.Politics.Campaign
	if c.Status != CampaignRunning {
		return
	}
	c.RemainingMs -= dt
	if c.RemainingMs > 0 {
		return
	}
	ck := e.tun.Politics.Campaigns[c.Kind]
	switch c.Kind {
	case CampaignTaxRelief:
		n.grantPerk(c.PortID, c.Kind, ck.PerkPowerBps, ck.PerkDurationMs)
	case CampaignInfluenceDrive:
		n.addInfluence(c.ControllerFlagID, ck.InfluenceReward)
	}
	*c = Campaign{Status: CampaignIdle}
}

// tickConquest rolls the outcome from the snapshot RNG when the siege ends.
func (e *Engine) tickConquest(n *State, dt int64) {
	c := &n.Conquest
	if c.Status != ConquestRunning {
		return
	}
	c.RemainingMs -= dt
	if c.RemainingMs < 0 {
		c.RemainingMs = 0
	}
	c.Stage = politics.ConquestStage(c.DurationMs-c.RemainingMs, c.DurationMs)
	if c.RemainingMs > 0 {
		return
	}
	var roll int
	roll, n.Rng = rng.Intn(n.Rng, 10000)
	if int64(roll) < c.ChanceBps {
		c.Status = ConquestSuccess
		if n.Politics.Controllers == nil {
			n.Politics.Controllers = map[string]string{}
		}
		n.Politics.Controllers[c.TargetIslandID] = c.AttackerFlagID
		n.Stats.ConquestsWon++
		return
	}
	c.Status = ConquestFail
}
