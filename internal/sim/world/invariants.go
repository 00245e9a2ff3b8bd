package world

import (
	"fmt"
	"strings"
)

type CheckContext struct {
	// Reset marks a new-game transition, the one place unlocks may vanish.
	Reset bool
}

// ViolationError lists every rule a transition broke.
type ViolationError struct {
	Violations []string
}

func (v *ViolationError) Error() string {
	return fmt.Sprintf("invariant violations (%d): %s", len(v.Violations), strings.Join(v.Violations, "; "))
}

type checker struct {
	out []string
}

func (c *checker) failf(format string, args ...any) {
	c.out = append(c.out, fmt.Sprintf(format, args...))
}

func (c *checker) nonNeg(name string, v int64) {
	if v < 0 {
		c.failf("%s negative: %d", name, v)
	}
}

func (c *checker) countdown(name string, remaining, duration int64) {
	if remaining < 0 || duration < 0 || remaining > duration {
		c.failf("%s countdown out of range: %d/%d", name, remaining, duration)
	}
}

// Check validates next on its own and, when prev is non-nil, the transition
// from prev. It only observes; it never repairs state.
func (e *Engine) Check(prev, next *State, ctx CheckContext) error {
	if next == nil {
		return &ViolationError{Violations: []string{"nil state"}}
	}
	c := &checker{}
	e.checkState(c, next)
	if prev != nil {
		e.checkTransition(c, prev, next, ctx)
	}
	if len(c.out) == 0 {
		return nil
	}
	return &ViolationError{Violations: c.out}
}

func (e *Engine) checkState(c *checker, s *State) {
	if s.Gold.Sign() < 0 {
		c.failf("gold negative: %s", s.Gold)
	}
	if s.Stats.GoldEarned.Sign() < 0 {
		c.failf("gold_earned negative")
	}
	c.nonNeg("sim_now_ms", s.SimNowMs)
	if s.AccMs < 0 || s.AccMs >= e.tun.StepMs {
		c.failf("acc_ms out of range: %d", s.AccMs)
	}

	seen := map[string]bool{}
	for _, u := range s.Unlocks {
		if seen[u] {
			c.failf("duplicate unlock %q", u)
		}
		seen[u] = true
	}

	for id, w := range s.Warehouses {
		checkStorage(c, "warehouse "+id, &w.Storage)
		c.nonNeg("warehouse level "+id, int64(w.Level))
	}
	for _, sh := range s.ships() {
		e.checkShip(c, sh)
	}

	for _, k := range s.Contracts {
		if k.Qty <= 0 || k.FilledQty < 0 || k.CollectedQty < 0 || k.CollectedQty > k.FilledQty || k.FilledQty > k.Qty {
			c.failf("contract %s quantities: qty=%d filled=%d collected=%d", k.ID, k.Qty, k.FilledQty, k.CollectedQty)
		}
		switch k.Status {
		case ContractOpen:
			if k.FilledQty == k.Qty {
				c.failf("contract %s open but full", k.ID)
			}
		case ContractFilled:
			if k.FilledQty != k.Qty {
				c.failf("contract %s filled at %d/%d", k.ID, k.FilledQty, k.Qty)
			}
		case ContractCollected:
			if k.CollectedQty != k.Qty {
				c.failf("contract %s collected at %d/%d", k.ID, k.CollectedQty, k.Qty)
			}
		case ContractCanceled:
		default:
			c.failf("contract %s status %q", k.ID, k.Status)
		}
	}

	for k, v := range s.SupplyRemainders {
		if v < 0 || v >= msPerMinute {
			c.failf("supply remainder %s out of range: %d", k, v)
		}
	}
	for id, j := range s.Production {
		r, ok := e.cats.Recipes.Get(id)
		if !ok {
			c.failf("production job for unknown recipe %q", id)
			continue
		}
		if j.RemainderMs < 0 || j.RemainderMs > r.IntervalMs {
			c.failf("production %s remainder %d", id, j.RemainderMs)
		}
	}
	for _, b := range s.Buffs {
		if b.RemainingMs <= 0 || b.RemainingMs > b.DurationMs {
			c.failf("buff %s remaining %d/%d", b.ID, b.RemainingMs, b.DurationMs)
		}
		c.nonNeg("buff power "+b.ID, b.PowerBps)
	}
	for port, p := range s.Politics.Perks {
		if p.RemainingMs <= 0 || p.RemainingMs > p.DurationMs {
			c.failf("perk at %s remaining %d/%d", port, p.RemainingMs, p.DurationMs)
		}
	}
	for flag, v := range s.Politics.Influence {
		c.nonNeg("influence "+flag, v)
	}

	d := s.Dock
	c.nonNeg("dock level", int64(d.AutomationLevel))
	if d.Working {
		c.countdown("dock work", d.WorkRemainingMs, d.WorkDurationMs)
	}
	if d.IncomeAccrue < 0 || d.IncomeAccrue >= msPerMinute {
		c.failf("dock income accrual %d", d.IncomeAccrue)
	}

	camp := s.Politics.Campaign
	if camp.Status == CampaignRunning {
		c.countdown("campaign", camp.RemainingMs, camp.DurationMs)
	}
	if camp.GoldPaid.Sign() < 0 {
		c.failf("campaign gold negative")
	}
	c.nonNeg("campaign influence", camp.InfluenceSpent)

	q := s.Conquest
	c.countdown("conquest", q.RemainingMs, q.DurationMs)
	if q.Stage < 0 || q.Stage >= 3 {
		c.failf("conquest stage %d", q.Stage)
	}

	c.countdown("cannon", s.Cannon.DurationMs-s.Cannon.ElapsedMs, s.Cannon.DurationMs)
	c.nonNeg("cannon shots", s.Cannon.Shots)
	if s.Cannon.Hits < 0 || s.Cannon.Hits > s.Cannon.Shots {
		c.failf("cannon hits %d of %d shots", s.Cannon.Hits, s.Cannon.Shots)
	}
	c.countdown("rigging", s.Rigging.DurationMs-s.Rigging.ElapsedMs, s.Rigging.DurationMs)
	if s.Rigging.InBandMs < 0 || s.Rigging.InBandMs > s.Rigging.ElapsedMs {
		c.failf("rigging in-band %d of %d", s.Rigging.InBandMs, s.Rigging.ElapsedMs)
	}
	c.nonNeg("rigging tension", s.Rigging.Tension)
	c.nonNeg("tutorial stage", int64(s.TutorialStage))
}

func checkStorage(c *checker, name string, st *Storage) {
	c.nonNeg(name+" capacity", st.Capacity)
	for cid, q := range st.Inventory {
		if !cid.Valid() {
			c.failf("%s holds unknown commodity %q", name, cid)
		}
		c.nonNeg(fmt.Sprintf("%s %s", name, cid), q)
	}
	if used := st.Used(); used > st.Capacity {
		c.failf("%s over capacity: %d > %d", name, used, st.Capacity)
	}
}

func (e *Engine) checkShip(c *checker, sh *Ship) {
	name := "ship " + sh.ID
	checkStorage(c, name+" hold", &sh.Hold)
	c.nonNeg(name+" crew", sh.Crew)
	c.nonNeg(name+" condition", sh.Condition)
	if sh.WageAccrue < 0 || sh.WageAccrue >= msPerMinute {
		c.failf("%s wage accrual %d", name, sh.WageAccrue)
	}
	if cls, ok := e.cats.Ships.Get(sh.ClassID); ok {
		if sh.Crew > cls.Berths {
			c.failf("%s crew %d exceeds %d berths", name, sh.Crew, cls.Berths)
		}
		if sh.Condition > cls.MaxCondition {
			c.failf("%s condition %d exceeds %d", name, sh.Condition, cls.MaxCondition)
		}
	}
	v := sh.Voyage
	c.countdown(name+" voyage", v.RemainingMs, v.DurationMs)
	c.nonNeg(name+" pending influence", v.PendingInfluence)
	if v.PendingGold.Sign() < 0 {
		c.failf("%s pending gold negative", name)
	}
	if v.Status == VoyageCompleted && v.RemainingMs != 0 {
		c.failf("%s voyage completed with %dms left", name, v.RemainingMs)
	}
}

func (e *Engine) checkTransition(c *checker, prev, next *State, ctx CheckContext) {
	if ctx.Reset {
		return
	}
	for _, u := range prev.Unlocks {
		if !next.HasUnlock(u) {
			c.failf("unlock %q removed", u)
		}
	}
	if next.SimNowMs < prev.SimNowMs {
		c.failf("sim_now_ms went back: %d -> %d", prev.SimNowMs, next.SimNowMs)
	}
	if next.TutorialStage < prev.TutorialStage {
		c.failf("tutorial stage went back: %d -> %d", prev.TutorialStage, next.TutorialStage)
	}

	prevShips := map[string]*Ship{}
	for _, sh := range prev.ships() {
		prevShips[sh.ID] = sh
	}
	for _, sh := range next.ships() {
		p, ok := prevShips[sh.ID]
		if !ok || p.Voyage.Status != VoyageRunning || sh.Voyage.Status != VoyageRunning || p.Voyage.Index != sh.Voyage.Index {
			continue
		}
		if sh.Voyage.RemainingMs > p.Voyage.RemainingMs {
			c.failf("ship %s voyage countdown went up", sh.ID)
		}
	}

	pc, nc := prev.Politics.Campaign, next.Politics.Campaign
	if pc.Status == CampaignRunning && nc.Status == CampaignRunning && nc.RemainingMs > pc.RemainingMs {
		c.failf("campaign countdown went up")
	}
	pq, nq := prev.Conquest, next.Conquest
	if pq.Status == ConquestRunning && nq.Status == ConquestRunning && nq.RemainingMs > pq.RemainingMs {
		c.failf("conquest countdown went up")
	}
	if prev.Dock.Working && next.Dock.Working && next.Dock.WorkRemainingMs > prev.Dock.WorkRemainingMs {
		c.failf("dock work countdown went up")
	}
	if prev.Cannon.Status == MinigameRunning && next.Cannon.Status == MinigameRunning && next.Cannon.ElapsedMs < prev.Cannon.ElapsedMs {
		c.failf("cannon elapsed went back")
	}
	if prev.Rigging.Status == MinigameRunning && next.Rigging.Status == MinigameRunning && next.Rigging.ElapsedMs < prev.Rigging.ElapsedMs {
		c.failf("rigging elapsed went back")
	}

	// A buff countdown may only grow back through a re-grant.
	for _, nb := range next.Buffs {
		if pb, ok := prev.buff(nb.ID); ok && regrowsWithoutGrant(pb, nb) {
			c.failf("buff %s countdown went up without a grant", nb.ID)
		}
	}
	for port, np := range next.Politics.Perks {
		if pp, ok := prev.Politics.Perks[port]; ok && regrowsWithoutGrant(pp, np) {
			c.failf("perk at %s countdown went up without a grant", port)
		}
	}
}

func regrowsWithoutGrant(prev, next Buff) bool {
	return next.RemainingMs > prev.RemainingMs && next.GrantSeq <= prev.GrantSeq
}
