package world

import "portsim/internal/sim/world/logic/mathx"

func (e *Engine) setAffiliation(n *State, flagID string) bool {
	if !n.HasUnlock(UnlockPolitics) || flagID == n.Politics.Affiliation {
		return false
	}
	if flagID != "" {
		if _, ok := e.cats.Flags.Get(flagID); !ok {
			return false
		}
	}
	if n.Politics.Campaign.Status == CampaignRunning || n.Conquest.Status == ConquestRunning {
		return false
	}
	n.Politics.Affiliation = flagID
	return true
}

// donate converts whole multiples of gold_per_influence into influence with
// the affiliated flag; any remainder stays in the purse.
func (e *Engine) donate(n *State, gold Amount) bool {
	aff := n.Politics.Affiliation
	if !n.HasUnlock(UnlockPolitics) || aff == "" || gold.Sign() <= 0 || !n.Gold.Covers(gold) {
		return false
	}
	per := e.tun.Politics.GoldPerInfluence
	infl := gold.QuoCapped(per, 1<<40)
	if infl <= 0 || !n.spend(NewAmount(infl*per)) {
		return false
	}
	n.addInfluence(aff, infl)
	return true
}

func (e *Engine) startCampaign(n *State, kind, portID string) bool {
	aff := n.Politics.Affiliation
	if !n.HasUnlock(UnlockPolitics) || aff == "" || n.Politics.Campaign.Status == CampaignRunning {
		return false
	}
	ck, ok := e.tun.Politics.Campaigns[kind]
	if !ok {
		return false
	}
	if _, ok := e.cats.Islands.Get(portID); !ok {
		return false
	}
	if ck.RequiresControl && n.controller(portID) != aff {
		return false
	}
	if n.influence(aff) < ck.InfluenceCost || !n.spend(NewAmount(ck.GoldCost)) {
		return false
	}
	n.addInfluence(aff, -ck.InfluenceCost)
	n.Politics.Campaign = Campaign{
		Status:           CampaignRunning,
		Kind:             kind,
		PortID:           portID,
		ControllerFlagID: aff,
		RemainingMs:      ck.DurationMs,
		DurationMs:       ck.DurationMs,
		GoldPaid:         NewAmount(ck.GoldCost),
		InfluenceSpent:   ck.InfluenceCost,
	}
	return true
}

// abortCampaign forfeits everything paid.
func (e *Engine) abortCampaign(n *State) bool {
	if n.Politics.Campaign.Status != CampaignRunning {
		return false
	}
	n.Politics.Campaign = Campaign{Status: CampaignIdle}
	return true
}

func (e *Engine) startConquest(n *State, islandID string) bool {
	aff := n.Politics.Affiliation
	c := e.tun.Conquest
	if !n.HasUnlock(UnlockConquest) || aff == "" || n.Conquest.Status == ConquestRunning {
		return false
	}
	if _, ok := e.cats.Islands.Get(islandID); !ok || n.controller(islandID) == aff {
		return false
	}
	if n.influence(aff) < c.InfluenceCost {
		return false
	}
	chance := e.ConquestChanceBps(n, islandID)
	if !n.spend(NewAmount(c.GoldCost)) {
		return false
	}
	n.addInfluence(aff, -c.InfluenceCost)
	n.Conquest = Conquest{
		Status:         ConquestRunning,
		TargetIslandID: islandID,
		AttackerFlagID: aff,
		RemainingMs:    c.DurationMs,
		DurationMs:     c.DurationMs,
		ChanceBps:      chance,
	}
	return true
}

func (e *Engine) abortConquest(n *State) bool {
	if n.Conquest.Status != ConquestRunning {
		return false
	}
	n.Conquest = Conquest{Status: ConquestIdle}
	return true
}

func (e *Engine) startMinigame(n *State, game string) bool {
	if !n.HasUnlock(UnlockMinigames) {
		return false
	}
	switch game {
	case GameCannon:
		if n.Cannon.Status == MinigameRunning {
			return false
		}
		n.Cannon = CannonGame{Status: MinigameRunning, DurationMs: e.tun.Minigames.Cannon.DurationMs}
	case GameRigging:
		if n.Rigging.Status == MinigameRunning {
			return false
		}
		n.Rigging = RiggingGame{Status: MinigameRunning, DurationMs: e.tun.Minigames.Rigging.DurationMs}
	default:
		return false
	}
	return true
}

// cannonHit reports whether elapsedMs falls in the sweet spot centred on the
// middle of each period.
func cannonHit(elapsedMs, periodMs, windowMs int64) bool {
	phase := elapsedMs % periodMs
	d := phase - periodMs/2
	if d < 0 {
		d = -d
	}
	return d <= windowMs/2
}

func (e *Engine) fireCannon(n *State) bool {
	t := e.tun.Minigames.Cannon
	g := &n.Cannon
	if g.Status != MinigameRunning || g.Shots >= t.MaxShots {
		return false
	}
	g.Shots++
	if cannonHit(g.ElapsedMs, t.PeriodMs, t.WindowMs) {
		g.Hits++
	}
	return true
}

func (e *Engine) tugRigging(n *State) bool {
	t := e.tun.Minigames.Rigging
	g := &n.Rigging
	if g.Status != MinigameRunning || g.Tension >= t.MaxTension {
		return false
	}
	g.Tension = mathx.Min64(g.Tension+t.TugTension, t.MaxTension)
	return true
}
