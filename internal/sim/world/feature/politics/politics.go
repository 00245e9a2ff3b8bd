package politics

import "portsim/internal/sim/world/logic/mathx"

type Standing string

const (
	Hostile  Standing = "hostile"
	Neutral  Standing = "neutral"
	Friendly Standing = "friendly"
)

// StandingValue is influence with the port's controller, less a penalty when
// the player is affiliated with some other flag.
func StandingValue(influence int64, affiliation, controller string, penalty int64) int64 {
	if affiliation != "" && affiliation != controller {
		return influence - penalty
	}
	return influence
}

func Classify(value, hostileBelow, friendlyAt int64) Standing {
	switch {
	case value < hostileBelow:
		return Hostile
	case value >= friendlyAt:
		return Friendly
	default:
		return Neutral
	}
}

// InfluenceDiscountBps is floor(influence/perStep)*stepBps.
func InfluenceDiscountBps(influence, perStep, stepBps int64) int64 {
	if influence <= 0 || perStep <= 0 {
		return 0
	}
	return influence / perStep * stepBps
}

func ConquestChanceBps(base, perInfluence, influence, perShip, ships, max int64) int64 {
	c := base + perInfluence*mathx.Max64(influence, 0) + perShip*ships
	return mathx.Clamp64(c, 0, max)
}

// ConquestStage maps progress to stage 0..2.
func ConquestStage(elapsed, duration int64) int {
	if duration <= 0 {
		return 2
	}
	st := elapsed * 3 / duration
	if st > 2 {
		st = 2
	}
	if st < 0 {
		st = 0
	}
	return int(st)
}
