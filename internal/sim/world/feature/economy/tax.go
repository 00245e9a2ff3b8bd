package economy

// EffectiveTaxBps is the port tax after the affiliation discount and an active
// tax-relief perk, floored at zero.
func EffectiveTaxBps(baseBps, discountBps, perkBps int64) int64 {
	t := baseBps - discountBps - perkBps
	if t < 0 {
		return 0
	}
	return t
}
