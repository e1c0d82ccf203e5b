package format

import (
	"math"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"
)

// exactDigits is enough fractional digits to spell out any float64 exactly.
const exactDigits = 1074

// Fixed formats x with digits fractional digits the way a browser's Number.prototype.toFixed does:
// the exact binary value is rounded, ties go away from zero, and negative values keep their sign
// even when they round to zero.
func Fixed(x float64, digits int) string {
	switch {
	case math.IsNaN(x):
		return "NaN"
	case math.IsInf(x, 1):
		return "Infinity"
	case math.IsInf(x, -1):
		return "-Infinity"
	}
	if digits < 0 {
		digits = 0
	}
	if math.Abs(x) >= 1e21 {
		return strconv.FormatFloat(x, 'g', -1, 64)
	}

	sign := ""
	if x < 0 {
		sign = "-"
		x = -x
	}

	exact := new(big.Float).SetFloat64(x).Text('f', exactDigits)
	d, err := decimal.NewFromString(exact)
	if err != nil {
		return sign + strconv.FormatFloat(x, 'f', digits, 64)
	}
	return sign + d.StringFixed(int32(digits))
}
