package world

import "portsim/internal/sim/world/logic/mathx"

// Advance moves simulated time forward by deltaMs, clamped to
// [0, MaxAdvanceMs]. Time is consumed in whole fixed steps; the leftover
// stays in AccMs, so splitting a span across calls gives the same result as
// one call. Outside a session Advance is a no-op.
func (e *Engine) Advance(s *State, deltaMs int64) *State {
	if s == nil || s.Mode != ModeSession {
		return s
	}
	delta := mathx.Clamp64(deltaMs, 0, e.tun.MaxAdvanceMs)
	if delta == 0 {
		return s
	}
	next := s.Clone()
	next.AccMs += delta
	step := e.tun.StepMs
	for next.AccMs >= step {
		next.AccMs -= step
		next.SimNowMs += step
		e.step(next, step)
	}
	e.verify(s, next, CheckContext{})
	return next
}

// step runs one fixed step in place. The order is part of the rules.
func (e *Engine) step(n *State, dt int64) {
	e.tickBuffs(n, dt)
	e.tickPerks(n, dt)
	e.tickCampaign(n, dt)
	e.tickDockWork(n, dt)
	e.tickDockIncome(n, dt)
	e.tickWages(n, dt)
	e.tickContracts(n, dt)
	e.tickProduction(n, dt)
	e.tickCannon(n, dt)
	e.tickRigging(n, dt)
	e.tickVoyages(n, dt)
	e.tickAutomation(n)
	e.tickConquest(n, dt)
	e.evaluateUnlocks(n)
}

const msPerMinute = 60_000
