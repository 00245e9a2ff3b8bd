package ids

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	ContractPrefix = "c_"
	ShipPrefix     = "s_"
)

func ContractID(n uint64) string {
	return fmt.Sprintf("%s%d", ContractPrefix, n)
}

func ShipID(n uint64) string {
	return fmt.Sprintf("%s%d", ShipPrefix, n)
}

func ParseUintAfterPrefix(prefix, id string) (uint64, bool) {
	if !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	n, err := strconv.ParseUint(id[len(prefix):], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func MaxU64(a, b uint64) uint64 {
	if a >= b {
		return a
	}
	return b
}
