package world

import (
	"encoding/hex"
	"encoding/json"

	"lukechampine.com/blake3"

	"portsim/internal/sim/rng"
)

type digestInput struct {
	State *State    `json:"state"`
	Rng   rng.State `json:"rng"`
}

// Digest is a blake3 hash of the canonical JSON encoding of s and its RNG.
// encoding/json sorts map keys, so equal states hash equally.
func Digest(s *State) string {
	b, err := json.Marshal(digestInput{State: s, Rng: s.Rng})
	if err != nil {
		// Every State field marshals; this is unreachable short of memory loss.
		panic(err)
	}
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Equal reports whether a and b are the same snapshot, RNG included.
func Equal(a, b *State) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return Digest(a) == Digest(b)
}

// JournalEntry records one input the host fed to the engine and the digest of
// the state it produced. Replaying entries in order against the starting
// save reproduces every digest.
type JournalEntry struct {
	Seq      uint64          `json:"seq"`
	SimNowMs int64           `json:"sim_now_ms"`
	Kind     string          `json:"kind"`
	Command  json.RawMessage `json:"command,omitempty"`
	DeltaMs  int64           `json:"delta_ms,omitempty"`
	NoOp     bool            `json:"no_op,omitempty"`
	Digest   string          `json:"digest"`
}

// Journal entry kinds.
const (
	JournalCommand = "command"
	JournalAdvance = "advance"
)
