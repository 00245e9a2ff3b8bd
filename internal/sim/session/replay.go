package session

import (
	"fmt"

	"portsim/internal/sim/world"
)

// Replay re-applies journal entries with seq greater than afterSeq on top of
// start and checks every recorded digest. It returns the final state and the
// number of entries verified.
func Replay(e *world.Engine, start *world.State, afterSeq uint64, entries []world.JournalEntry) (*world.State, int, error) {
	s := start
	next := afterSeq + 1
	checked := 0
	for _, en := range entries {
		if en.Seq <= afterSeq {
			continue
		}
		if en.Seq != next {
			return s, checked, fmt.Errorf("journal gap: want seq %d, got %d", next, en.Seq)
		}
		next++
		switch en.Kind {
		case world.JournalCommand:
			s = e.Apply(s, world.DecodeCommand(en.Command))
		case world.JournalAdvance:
			s = e.Advance(s, en.DeltaMs)
		default:
			return s, checked, fmt.Errorf("seq %d: unknown entry kind %q", en.Seq, en.Kind)
		}
		if s.SimNowMs != en.SimNowMs {
			return s, checked, fmt.Errorf("seq %d: sim time %d, journal says %d", en.Seq, s.SimNowMs, en.SimNowMs)
		}
		if got := world.Digest(s); got != en.Digest {
			return s, checked, fmt.Errorf("seq %d: digest mismatch: got=%s want=%s", en.Seq, got, en.Digest)
		}
		checked++
	}
	return s, checked, nil
}

// Linearize keeps the timeline the host ended up on. A restart from an older
// save rewinds seq; entries from the abandoned run are dropped.
func Linearize(entries []world.JournalEntry) []world.JournalEntry {
	out := make([]world.JournalEntry, 0, len(entries))
	for _, en := range entries {
		for len(out) > 0 && out[len(out)-1].Seq >= en.Seq {
			out = out[:len(out)-1]
		}
		out = append(out, en)
	}
	return out
}
