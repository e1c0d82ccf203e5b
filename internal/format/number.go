package format

import (
	"strings"
	"time"
)

// NotAvailable is shown for a change whose baseline is zero.
const NotAvailable = "n/a"

// CompactNumber renders a USD amount as $X.XB / $X.XM / $X.XK / $X.
func CompactNumber(num float64) string {
	switch {
	case num >= 1e9:
		return "$" + Fixed(num/1e9, 1) + "B"
	case num >= 1e6:
		return "$" + Fixed(num/1e6, 1) + "M"
	case num >= 1e3:
		return "$" + Fixed(num/1e3, 1) + "K"
	default:
		return "$" + Fixed(num, 0)
	}
}

// CompactAPR renders an APR percentage: X.XK% above 1000, whole percent above 100, two decimals otherwise.
func CompactAPR(apr float64) string {
	switch {
	case apr >= 1000:
		return Fixed(apr/1000, 1) + "K%"
	case apr >= 100:
		return Fixed(apr, 0) + "%"
	default:
		return Fixed(apr, 2) + "%"
	}
}

// Change returns (value-baseline)/baseline*100. ok is false when the baseline is zero.
func Change(value, baseline float64) (float64, bool) {
	if baseline == 0 {
		return 0, false
	}
	return (value - baseline) / baseline * 100, true
}

// Percentage renders the change from baseline to value as a sign-prefixed percentage, e.g. "+12.34%".
func Percentage(value, baseline float64) string {
	change, ok := Change(value, baseline)
	if !ok {
		return NotAvailable
	}
	sign := ""
	if change >= 0 {
		sign = "+"
	}
	return sign + Fixed(change, 2) + "%"
}

// InvalidDate is returned for timestamps that cannot be parsed.
const InvalidDate = "Invalid Date"

const timestampLayout = "Jan 2, 03:04 PM"

// localLayouts carry no zone and are read as wall time in the display location.
var localLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// Timestamp renders a backend timestamp as "Jan 2, 03:04 PM" in loc.
// RFC3339 is preferred; zone-less date-times are taken as loc wall time and
// a bare date as UTC midnight.
func Timestamp(ts string, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	ts = strings.TrimSpace(ts)
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		parsed, err = parseFallback(ts, loc)
		if err != nil {
			return InvalidDate
		}
	}
	return parsed.In(loc).Format(timestampLayout)
}

func parseFallback(ts string, loc *time.Location) (time.Time, error) {
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, ts, loc); err == nil {
			return t, nil
		}
	}
	return time.Parse(time.DateOnly, ts)
}
