package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CronSpec is a parsed five-field minute/hour/day/month/weekday
// expression, evaluated in a caller-supplied timezone. No cron library
// appears anywhere in the example pack (every repo surveyed either has
// no scheduling need or rolls its own timer loop), so this evaluator is
// hand-written rather than adopting a third-party dependency with no
// precedent in the corpus.
type CronSpec struct {
	minute  fieldSet
	hour    fieldSet
	dom     fieldSet
	month   fieldSet
	weekday fieldSet
	domStar bool
	dowStar bool
}

type fieldSet map[int]bool

// searchLimit bounds how far into the future Next will look before
// giving up on an unsatisfiable expression (e.g. day=31 in February).
const searchLimit = 4 * 366 * 24 * 60 // ~4 years of minutes

// ParseCron parses a five-field "minute hour day month weekday"
// expression. Each field accepts "*", "*/step", a number, "a-b", a
// comma-separated list, or combinations thereof (e.g. "0,30", "1-5").
func ParseCron(expr string) (*CronSpec, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("cron: expected 5 fields, got %d in %q", len(fields), expr)
	}

	minute, err := parseField(fields[0], 0, 59)
	if err != nil {
		return nil, fmt.Errorf("cron: minute field: %w", err)
	}
	hour, err := parseField(fields[1], 0, 23)
	if err != nil {
		return nil, fmt.Errorf("cron: hour field: %w", err)
	}
	dom, err := parseField(fields[2], 1, 31)
	if err != nil {
		return nil, fmt.Errorf("cron: day field: %w", err)
	}
	month, err := parseField(fields[3], 1, 12)
	if err != nil {
		return nil, fmt.Errorf("cron: month field: %w", err)
	}
	weekday, err := parseField(fields[4], 0, 6)
	if err != nil {
		return nil, fmt.Errorf("cron: weekday field: %w", err)
	}

	return &CronSpec{
		minute: minute, hour: hour, dom: dom, month: month, weekday: weekday,
		domStar: fields[2] == "*", dowStar: fields[4] == "*",
	}, nil
}

func parseField(raw string, min, max int) (fieldSet, error) {
	set := make(fieldSet)
	for _, part := range strings.Split(raw, ",") {
		if err := parsePart(part, min, max, set); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func parsePart(part string, min, max int, set fieldSet) error {
	step := 1
	rangeExpr := part
	if idx := strings.IndexByte(part, '/'); idx >= 0 {
		rangeExpr = part[:idx]
		s, err := strconv.Atoi(part[idx+1:])
		if err != nil || s <= 0 {
			return fmt.Errorf("invalid step in %q", part)
		}
		step = s
	}

	lo, hi := min, max
	switch {
	case rangeExpr == "*":
		// lo/hi already span the full field range.
	case strings.Contains(rangeExpr, "-"):
		bounds := strings.SplitN(rangeExpr, "-", 2)
		a, err1 := strconv.Atoi(bounds[0])
		b, err2 := strconv.Atoi(bounds[1])
		if err1 != nil || err2 != nil || a > b {
			return fmt.Errorf("invalid range %q", rangeExpr)
		}
		lo, hi = a, b
	default:
		v, err := strconv.Atoi(rangeExpr)
		if err != nil {
			return fmt.Errorf("invalid value %q", rangeExpr)
		}
		lo, hi = v, v
	}

	if lo < min || hi > max {
		return fmt.Errorf("value out of range [%d,%d] in %q", min, max, part)
	}
	for v := lo; v <= hi; v += step {
		set[v] = true
	}
	return nil
}

// Next returns the first matching instant strictly after `after`, in
// the given location, truncated to the minute. Missed fires are never
// replayed by this method — callers always pass the current wall clock
// as `after`.
func (c *CronSpec) Next(after time.Time, loc *time.Location) (time.Time, error) {
	t := after.In(loc).Truncate(time.Minute).Add(time.Minute)
	for i := 0; i < searchLimit; i++ {
		if c.matches(t) {
			return t, nil
		}
		t = t.Add(time.Minute)
	}
	return time.Time{}, fmt.Errorf("cron: no matching time found within search horizon")
}

func (c *CronSpec) matches(t time.Time) bool {
	if !c.minute[t.Minute()] || !c.hour[t.Hour()] || !c.month[int(t.Month())] {
		return false
	}
	domMatch := c.dom[t.Day()]
	dowMatch := c.weekday[int(t.Weekday())]
	switch {
	case c.domStar && c.dowStar:
		return true
	case c.domStar:
		return dowMatch
	case c.dowStar:
		return domMatch
	default:
		// Standard cron OR semantics when both day-of-month and
		// day-of-week are restricted.
		return domMatch || dowMatch
	}
}
