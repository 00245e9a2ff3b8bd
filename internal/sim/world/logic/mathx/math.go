package mathx

import "math/big"

func FloorDiv(a, b int64) int64 {
	// b > 0
	q := a / b
	r := a % b
	if r < 0 {
		q--
	}
	return q
}

func CeilDiv(a, b int64) int64 {
	// b > 0
	return -FloorDiv(-a, b)
}

func Min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func Max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func Clamp64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Accrued is the integral floor(elapsed*total/duration). Per-step amounts are
// Accrued(after)-Accrued(before), so any split of the same span sums to the
// same total.
func Accrued(elapsed, total, duration int64) int64 {
	if duration <= 0 || elapsed <= 0 || total <= 0 {
		return 0
	}
	if elapsed >= duration {
		return total
	}
	return elapsed * total / duration
}

// BigCeilDiv returns ceil(a/b) for a >= 0, b > 0.
func BigCeilDiv(a, b *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(a, b, new(big.Int))
	if r.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

// BigMulBpsCeil returns ceil(v*bps/10000).
func BigMulBpsCeil(v *big.Int, bps int64) *big.Int {
	return BigCeilDiv(new(big.Int).Mul(v, big.NewInt(bps)), big.NewInt(10000))
}
