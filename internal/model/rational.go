package model

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Rational is an arbitrary-precision token amount. On-chain integer
// amounts are scaled down by the token's decimals before any math runs
// on them; 256-bit values and decimal scales from 6 to 24 stay exact.
type Rational struct {
	*big.Rat
}

// NewRational wraps an existing big.Rat.
func NewRational(r *big.Rat) Rational {
	if r == nil {
		r = new(big.Rat)
	}
	return Rational{r}
}

// RationalFromInt scales an integer token amount by 10^decimals.
func RationalFromInt(amount *big.Int, decimals uint8) Rational {
	if amount == nil {
		amount = new(big.Int)
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return Rational{new(big.Rat).SetFrac(new(big.Int).Set(amount), scale)}
}

// IsZero reports whether the amount is zero or unset.
func (r Rational) IsZero() bool {
	return r.Rat == nil || r.Rat.Sign() == 0
}

// MarshalJSON encodes the amount as a "numerator/denominator" string.
func (r Rational) MarshalJSON() ([]byte, error) {
	if r.Rat == nil {
		return []byte(`"0"`), nil
	}
	return []byte(strconv.Quote(r.Rat.RatString())), nil
}

// UnmarshalJSON decodes a "numerator/denominator" or decimal string.
func (r *Rational) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		s = strings.TrimSpace(string(data))
	}
	rat, ok := new(big.Rat).SetString(s)
	if !ok {
		return fmt.Errorf("invalid rational: %s", s)
	}
	r.Rat = rat
	return nil
}
