package finance

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidNumericInput covers non-numeric currency strings and a zero
// holding period reaching a division. Callers are expected to reject these
// before any metric is derived.
var ErrInvalidNumericInput = errors.New("invalid numeric input")

// ParseCurrency converts a currency-formatted string ("$1,234.56") to its
// numeric value. All stored and derived financial fields are plain float64;
// formatted strings exist only at the presentation boundary and must be
// coerced here before entering any computation.
func ParseCurrency(s string) (float64, error) {
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, fmt.Errorf("%w: empty currency value", ErrInvalidNumericInput)
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a currency amount", ErrInvalidNumericInput, s)
	}
	return v, nil
}

// Round rounds v to the given number of decimal places, half away from zero.
func Round(v float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(v*shift) / shift
}
