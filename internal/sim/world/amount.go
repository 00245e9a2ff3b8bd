package world

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
)

// Amount is an exact, immutable integer quantity of gold. Every operation
// returns a new value; the zero Amount is 0. Amounts marshal as base-10
// strings so they survive any JSON consumer.
type Amount struct {
	v *big.Int
}

func NewAmount(n int64) Amount {
	return Amount{v: big.NewInt(n)}
}

func AmountFromBig(b *big.Int) Amount {
	if b == nil {
		return Amount{}
	}
	return Amount{v: new(big.Int).Set(b)}
}

func ParseAmount(s string) (Amount, error) {
	if s == "" {
		return Amount{}, fmt.Errorf("empty amount")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return Amount{}, fmt.Errorf("invalid amount %q", s)
		}
	}
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("invalid amount %q", s)
	}
	return Amount{v: b}, nil
}

func (a Amount) big() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return a.v
}

// Big returns a copy of the value.
func (a Amount) Big() *big.Int { return new(big.Int).Set(a.big()) }

func (a Amount) Add(b Amount) Amount {
	return Amount{v: new(big.Int).Add(a.big(), b.big())}
}

func (a Amount) Sub(b Amount) Amount {
	return Amount{v: new(big.Int).Sub(a.big(), b.big())}
}

func (a Amount) AddInt(n int64) Amount {
	return Amount{v: new(big.Int).Add(a.big(), big.NewInt(n))}
}

func (a Amount) SubInt(n int64) Amount {
	return Amount{v: new(big.Int).Sub(a.big(), big.NewInt(n))}
}

func (a Amount) Cmp(b Amount) int { return a.big().Cmp(b.big()) }

func (a Amount) CmpInt(n int64) int { return a.big().Cmp(big.NewInt(n)) }

func (a Amount) Sign() int { return a.big().Sign() }

func (a Amount) IsZero() bool { return a.Sign() == 0 }

// Covers reports a >= cost.
func (a Amount) Covers(cost Amount) bool { return a.Cmp(cost) >= 0 }

// QuoCapped returns floor(a/n) capped at limit; n > 0.
func (a Amount) QuoCapped(n, limit int64) int64 {
	q := new(big.Int).Quo(a.big(), big.NewInt(n))
	if q.Cmp(big.NewInt(limit)) >= 0 {
		return limit
	}
	return q.Int64()
}

func (a Amount) String() string { return a.big().String() }

func (a Amount) Equal(b Amount) bool { return a.Cmp(b) == 0 }

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts a decimal string or a plain JSON integer.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = Amount{}
		return nil
	}
	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		s = string(b)
	}
	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
