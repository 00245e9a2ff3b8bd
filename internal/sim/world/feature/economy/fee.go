package economy

import (
	"math/big"

	"portsim/internal/sim/world/logic/mathx"
)

func TierBps(tier int64) int64 {
	if tier < 1 {
		tier = 1
	}
	return 10000 + 500*(tier-1)
}

func BidPremium(qty, bid int64) int64 {
	if bid <= 1 {
		return 0
	}
	return qty * (bid - 1) / 10
}

// ContractFee charges ceil(ceil((qty+premium)*tierBps/10000)*(10000+tax)/10000).
// Both roundings go up.
func ContractFee(qty, bid, tier, taxBps int64) *big.Int {
	base := new(big.Int).Add(big.NewInt(qty), big.NewInt(BidPremium(qty, bid)))
	tiered := mathx.BigMulBpsCeil(base, TierBps(tier))
	return mathx.BigMulBpsCeil(tiered, 10000+taxBps)
}
