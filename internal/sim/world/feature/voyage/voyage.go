package voyage

import (
	"math/big"

	"portsim/internal/sim/rng"
	"portsim/internal/sim/world/logic/mathx"
)

// Encounter is one scheduled hazard on a route, AtMs measured from departure.
type Encounter struct {
	AtMs            int64
	CannonballsCost int64
}

// GenerateEncounters spaces count encounters evenly over the voyage and
// jitters each by up to a quarter slot either way. The result depends only on
// the arguments.
func GenerateEncounters(seed rng.State, count int, durationMs, cannonballs int64) []Encounter {
	if count <= 0 || durationMs <= 0 {
		return nil
	}
	slot := durationMs / int64(count+1)
	span := slot / 2
	st := seed
	out := make([]Encounter, 0, count)
	for i := 0; i < count; i++ {
		at := slot * int64(i+1)
		if span > 0 {
			var j int
			j, st = rng.Intn(st, int(span)+1)
			at += int64(j) - span/2
		}
		out = append(out, Encounter{
			AtMs:            mathx.Clamp64(at, 1, durationMs),
			CannonballsCost: cannonballs,
		})
	}
	return out
}

// BoostedSpeedPct applies a speed buff to a ship's speed percent.
func BoostedSpeedPct(speedPct, powerBps int64) int64 {
	return speedPct * (10000 + powerBps) / 10000
}

// DurationMs scales a route's base duration by speed percent, rounding up.
func DurationMs(baseMs, speedPct int64) int64 {
	if speedPct <= 0 {
		speedPct = 1
	}
	return mathx.CeilDiv(baseMs*100, speedPct)
}

// EffectiveBurn reduces a route's baseline rum burn by an efficiency buff.
func EffectiveBurn(burn, effPowerBps int64) int64 {
	p := mathx.Clamp64(effPowerBps, 0, 10000)
	return mathx.CeilDiv(burn*(10000-p), 10000)
}

// EffectiveBonusBps attenuates the part of raw above threshold by divisor.
func EffectiveBonusBps(raw, threshold, divisor int64) int64 {
	if raw <= threshold {
		return raw
	}
	return threshold + (raw-threshold)/divisor
}

func FailPenaltyBps(failures, perFailBps, maxBps int64) int64 {
	return mathx.Min64(failures*perFailBps, maxBps)
}

// Reward is floor(base*(10000+bonus)*(10000-penalty)/1e8).
func Reward(base, bonusBps, penaltyBps int64) *big.Int {
	p := mathx.Clamp64(penaltyBps, 0, 10000)
	v := big.NewInt(base)
	v.Mul(v, big.NewInt(10000+bonusBps))
	v.Mul(v, big.NewInt(10000-p))
	return v.Quo(v, big.NewInt(100_000_000))
}
