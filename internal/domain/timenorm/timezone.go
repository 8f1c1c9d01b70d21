package timenorm

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var offsetPattern = regexp.MustCompile(`^(?i)(UTC|GMT)(?:([+-])(\d{1,2})(?::?(\d{2}))?)?$`)

// ParseTimezone accepts an IANA name ("Asia/Jakarta") or a fixed offset in
// the UTC/GMT form ("GMT+7", "UTC-03:30", "UTC").
func ParseTimezone(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return nil, fmt.Errorf("empty timezone")
	}

	if m := offsetPattern.FindStringSubmatch(tz); m != nil {
		if m[2] == "" {
			return time.UTC, nil
		}
		hours, _ := strconv.Atoi(m[3])
		minutes := 0
		if m[4] != "" {
			minutes, _ = strconv.Atoi(m[4])
		}
		if hours > 14 || minutes > 59 {
			return nil, fmt.Errorf("timezone offset out of range: %s", tz)
		}
		offset := hours*3600 + minutes*60
		if m[2] == "-" {
			offset = -offset
		}
		return time.FixedZone(strings.ToUpper(tz), offset), nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", tz, err)
	}
	return loc, nil
}

// OfflineResolver resolves only expressions that already carry an absolute
// instant: RFC 3339 with any offset, or a "2006-01-02 15:04" wall-clock
// time read in the request timezone. Everything else is unresolvable.
type OfflineResolver struct{}

// Compile-time check that OfflineResolver implements Resolver.
var _ Resolver = OfflineResolver{}

// ResolveTime implements Resolver.
func (OfflineResolver) ResolveTime(_ context.Context, expression string, _ time.Time, timezone string) (string, error) {
	expr := strings.TrimSpace(expression)
	if t, err := time.Parse(time.RFC3339, expr); err == nil {
		return t.UTC().Format(Layout), nil
	}

	loc := time.UTC
	if timezone != "" {
		l, err := ParseTimezone(timezone)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnresolvable, err)
		}
		loc = l
	}
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02 15:04:05", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, expr, loc); err == nil {
			return t.UTC().Format(Layout), nil
		}
	}
	return Sentinel, nil
}
