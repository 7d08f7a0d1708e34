// Package timespec parses the --since and --until values accepted by
// `arena results`.
package timespec

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Parse converts a time specification into Unix milliseconds relative to now.
// Accepted forms:
//   - Go durations, meaning "that long ago": "90s", "1h30m"
//   - whole days ago: "2d"
//   - RFC3339 timestamps: "2025-10-29T13:00:00Z"
//   - calendar dates in UTC: "2025-10-29"
func Parse(spec string, now time.Time) (int64, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0, fmt.Errorf("empty time specification")
	}

	if t, err := time.Parse(time.RFC3339, spec); err == nil {
		return t.UnixMilli(), nil
	}
	if t, err := time.Parse(time.DateOnly, spec); err == nil {
		return t.UnixMilli(), nil
	}
	if days, ok := strings.CutSuffix(spec, "d"); ok {
		if n, err := strconv.Atoi(days); err == nil && n >= 0 {
			return now.Add(-time.Duration(n) * 24 * time.Hour).UnixMilli(), nil
		}
	}
	if d, err := time.ParseDuration(spec); err == nil && d >= 0 {
		return now.Add(-d).UnixMilli(), nil
	}

	return 0, fmt.Errorf("invalid time specification: %s (use a duration like '1h30m' or '2d', a date like '2025-10-29', or RFC3339)", spec)
}

// ParseRange parses --since and --until together. A zero bound means the
// flag was not given. since must be strictly before until.
func ParseRange(since, until string, now time.Time) (int64, int64, error) {
	var sinceMS, untilMS int64
	var err error

	if since != "" {
		if sinceMS, err = Parse(since, now); err != nil {
			return 0, 0, fmt.Errorf("invalid --since: %w", err)
		}
	}
	if until != "" {
		if untilMS, err = Parse(until, now); err != nil {
			return 0, 0, fmt.Errorf("invalid --until: %w", err)
		}
	}

	if sinceMS > 0 && untilMS > 0 && sinceMS >= untilMS {
		return 0, 0, fmt.Errorf("--since must be before --until")
	}
	return sinceMS, untilMS, nil
}
