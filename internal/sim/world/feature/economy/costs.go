package economy

import "math/big"

func LinearCost(base, step int64, level int) int64 {
	return base + step*int64(level)
}

// TieredCost is costs[level], the price of the next level.
func TieredCost(costs []int64, level int) (int64, bool) {
	if level < 0 || level >= len(costs) {
		return 0, false
	}
	return costs[level], true
}

// HireCount is min(requested, freeBerths, floor(gold/hireCost)).
func HireCount(requested, freeBerths int64, gold *big.Int, hireCost int64) int64 {
	n := requested
	if freeBerths < n {
		n = freeBerths
	}
	if n <= 0 || hireCost <= 0 {
		return 0
	}
	afford := new(big.Int).Quo(gold, big.NewInt(hireCost))
	if afford.Cmp(big.NewInt(n)) < 0 {
		n = afford.Int64()
	}
	return n
}
