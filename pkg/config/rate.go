package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Rate is a fixed-window request budget.
type Rate struct {
	Limit  int
	Window time.Duration
}

var rateUnits = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
}

// ParseRate parses "N/period" where period is s, m or h with an optional
// multiplier, e.g. "5/h" or "10/15m".
func ParseRate(raw string) (Rate, error) {
	raw = strings.TrimSpace(raw)
	count, period, ok := strings.Cut(raw, "/")
	if !ok {
		return Rate{}, fmt.Errorf("invalid rate %q: expected N/period", raw)
	}
	limit, err := strconv.Atoi(strings.TrimSpace(count))
	if err != nil || limit <= 0 {
		return Rate{}, fmt.Errorf("invalid rate %q: count must be a positive integer", raw)
	}

	period = strings.ToLower(strings.TrimSpace(period))
	if period == "" {
		return Rate{}, fmt.Errorf("invalid rate %q: missing period", raw)
	}
	unit, ok := rateUnits[period[len(period)-1]]
	if !ok {
		return Rate{}, fmt.Errorf("invalid rate %q: unknown unit", raw)
	}
	multiplier := 1
	if prefix := period[:len(period)-1]; prefix != "" {
		multiplier, err = strconv.Atoi(prefix)
		if err != nil || multiplier <= 0 {
			return Rate{}, fmt.Errorf("invalid rate %q: bad period multiplier", raw)
		}
	}

	return Rate{Limit: limit, Window: time.Duration(multiplier) * unit}, nil
}

func (r Rate) String() string {
	return fmt.Sprintf("%d/%s", r.Limit, r.Window)
}
