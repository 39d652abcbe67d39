package perf

import (
	"fmt"
	"math"
	"strings"

	"nfwa/internal"
)

// formatClock renders seconds in the machine form used throughout the
// store: ss.cc, m:ss.cc, h:mm:ss.cc. A zero fraction is dropped so
// whole-second road times stay whole.
func formatClock(seconds float64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	scale := int64(math.Pow10(precision))
	total := int64(math.Round(math.Max(0, seconds) * float64(scale)))

	whole := total / scale
	frac := total % scale

	hours := whole / 3600
	rem := whole % 3600
	minutes := rem / 60
	sec := rem % 60

	out := ""
	switch {
	case hours > 0:
		out = fmt.Sprintf("%d:%02d:%02d", hours, minutes, sec)
	case minutes > 0:
		out = fmt.Sprintf("%d:%02d", minutes, sec)
	default:
		out = fmt.Sprintf("%d", sec)
	}
	if precision > 0 && frac > 0 {
		out += "." + zeroPad(frac, precision)
	}
	return out
}

// FormatValue renders a canonical value for display in the Norwegian
// statistics style: comma decimals, comma-separated time segments.
func FormatValue(value float64, orientation internal.Orientation, decimals int) string {
	if orientation == internal.OrientLower {
		return FormatTime(value, decimals)
	}
	return FormatDecimal(value, decimals)
}

// FormatDecimal renders 7.48 as "7,48".
func FormatDecimal(value float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	if decimals == 0 {
		return fmt.Sprintf("%d", int64(math.Round(value)))
	}
	text := fmt.Sprintf("%.*f", decimals, value)
	return strings.ReplaceAll(text, ".", ",")
}

// FormatTime renders seconds in the national-list style:
// ss,cc below a minute, m,ss,cc below an hour, h,mm,ss,cc above.
func FormatTime(seconds float64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	scale := int64(math.Pow10(precision))
	total := int64(math.Round(math.Max(0, seconds) * float64(scale)))

	whole := total / scale
	frac := total % scale

	hours := whole / 3600
	rem := whole % 3600
	minutes := rem / 60
	sec := rem % 60

	if precision > 0 {
		fracS := zeroPad(frac, precision)
		if hours > 0 {
			return fmt.Sprintf("%d,%02d,%02d,%s", hours, minutes, sec, fracS)
		}
		if minutes > 0 {
			return fmt.Sprintf("%d,%02d,%s", minutes, sec, fracS)
		}
		return fmt.Sprintf("%d,%s", sec, fracS)
	}
	if hours > 0 {
		return fmt.Sprintf("%d,%02d,%02d", hours, minutes, sec)
	}
	if minutes > 0 {
		return fmt.Sprintf("%d,%02d", minutes, sec)
	}
	return fmt.Sprintf("%d", sec)
}

func zeroPad(n int64, width int) string {
	return fmt.Sprintf("%0*d", width, n)
}
