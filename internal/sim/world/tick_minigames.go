package world

func (e *Engine) tickCannon(n *State, dt int64) {
	g := &n.Cannon
	if g.Status != MinigameRunning {
		return
	}
	g.ElapsedMs += dt
	if g.ElapsedMs < g.DurationMs {
		return
	}
	g.ElapsedMs = g.DurationMs
	g.Status = MinigameFinished
	t := e.tun.Minigames.Cannon
	if g.Hits > 0 {
		n.grantBuff(BuffCombat, g.Hits*t.PowerPerHitBps, t.BuffDurationMs)
	}
}

// tickRigging samples tension before decay; time spent inside the band earns
// the speed buff, near-perfect handling the efficiency buff as well.
func (e *Engine) tickRigging(n *State, dt int64) {
	g := &n.Rigging
	if g.Status != MinigameRunning {
		return
	}
	t := e.tun.Minigames.Rigging
	d := dt
	if g.ElapsedMs+d > g.DurationMs {
		d = g.DurationMs - g.ElapsedMs
	}
	g.ElapsedMs += d
	if g.Tension >= t.BandMin && g.Tension <= t.BandMax {
		g.InBandMs += d
	}
	g.Tension -= t.DecayPerStep
	if g.Tension < 0 {
		g.Tension = 0
	}
	if g.ElapsedMs < g.DurationMs {
		return
	}
	g.Status = MinigameFinished
	if g.InBandMs*2 >= g.DurationMs {
		n.grantBuff(BuffSpeed, t.SpeedPowerBps, t.BuffDurationMs)
	}
	if g.InBandMs*10 >= g.DurationMs*9 {
		n.grantBuff(BuffEfficiency, t.EfficiencyPowerBps, t.BuffDurationMs)
	}
}
