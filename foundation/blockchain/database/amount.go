package database

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MinorUnits is the number of minor units in one ISS coin.
const MinorUnits = 100

// Amount represents money in minor units. All balance arithmetic is done
// with integers so splitting fees never drifts.
type Amount uint64

// Coins converts a whole number of coins into an amount.
func Coins(n uint64) Amount {
	return Amount(n * MinorUnits)
}

// ParseAmount converts a decimal string like "12", "12.5" or "12.05" into
// an amount. More than two decimal places is an error.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	whole, frac, hasFrac := strings.Cut(s, ".")

	w, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", s, err)
	}

	var f uint64
	if hasFrac {
		switch len(frac) {
		case 1:
			frac += "0"
		case 2:
		default:
			return 0, fmt.Errorf("parsing amount %q: too many decimal places", s)
		}

		if f, err = strconv.ParseUint(frac, 10, 64); err != nil {
			return 0, fmt.Errorf("parsing amount %q: %w", s, err)
		}
	}

	if w > (math.MaxUint64-f)/MinorUnits {
		return 0, fmt.Errorf("parsing amount %q: out of range", s)
	}

	return Amount(w*MinorUnits + f), nil
}

// String implements the fmt.Stringer interface.
func (a Amount) String() string {
	return fmt.Sprintf("%d.%02d", uint64(a)/MinorUnits, uint64(a)%MinorUnits)
}
