package dataprocessing

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type freqUnit int

const (
	unitNano freqUnit = iota
	unitMicro
	unitMilli
	unitSecond
	unitMinute
	unitHour
	unitDay
	unitWeek
	unitMonthStart
	unitMonthEnd
	unitYearStart
	unitYearEnd
)

// fixed-duration units, largest first, with the alias they are written as
var fixedUnits = []struct {
	unit  freqUnit
	step  time.Duration
	alias string
}{
	{unitDay, 24 * time.Hour, "D"},
	{unitHour, time.Hour, "H"},
	{unitMinute, time.Minute, "T"},
	{unitSecond, time.Second, "S"},
	{unitMilli, time.Millisecond, "L"},
	{unitMicro, time.Microsecond, "U"},
	{unitNano, time.Nanosecond, "N"},
}

var aliasUnits = map[string]freqUnit{
	"N": unitNano, "ns": unitNano,
	"U": unitMicro, "us": unitMicro,
	"L": unitMilli, "ms": unitMilli,
	"S": unitSecond, "s": unitSecond,
	"T": unitMinute, "min": unitMinute,
	"H": unitHour, "h": unitHour,
	"D": unitDay, "d": unitDay,
	"W": unitWeek,
	"MS": unitMonthStart,
	"M":  unitMonthEnd, "ME": unitMonthEnd,
	"AS": unitYearStart, "YS": unitYearStart,
	"A": unitYearEnd, "Y": unitYearEnd, "YE": unitYearEnd,
}

var unitAliases = map[freqUnit]string{
	unitWeek:       "W",
	unitMonthStart: "MS",
	unitMonthEnd:   "M",
	unitYearStart:  "AS",
	unitYearEnd:    "A",
}

// Frequency is a regular sampling step: a multiple of a fixed duration or of
// a calendar period (week, month start/end, year start/end).
type Frequency struct {
	n     int
	unit  freqUnit
	label string
}

// ParseFrequency parses a frequency alias such as "H", "15min", "15T", "D",
// "MS" or "A". Both the older single-letter and the newer lower-case
// spellings are accepted; anchored forms like "W-SUN" or "AS-JAN" keep their
// label but step by their period.
func ParseFrequency(alias string) (Frequency, error) {
	s := strings.TrimSpace(alias)
	if s == "" {
		return Frequency{}, fmt.Errorf("empty frequency alias")
	}

	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	n := 1
	if i > 0 {
		v, err := strconv.Atoi(s[:i])
		if err != nil || v <= 0 {
			return Frequency{}, fmt.Errorf("invalid frequency multiple in %q", alias)
		}
		n = v
	}

	base := s[i:]
	if dash := strings.IndexByte(base, '-'); dash > 0 {
		base = base[:dash]
	}
	unit, ok := aliasUnits[base]
	if !ok {
		return Frequency{}, fmt.Errorf("unknown frequency alias %q", alias)
	}
	return Frequency{n: n, unit: unit, label: s}, nil
}

// String returns the alias the frequency was parsed from, or its canonical
// alias when it was inferred.
func (f Frequency) String() string {
	if f.label != "" {
		return f.label
	}
	alias, ok := unitAliases[f.unit]
	if !ok {
		for _, fu := range fixedUnits {
			if fu.unit == f.unit {
				alias = fu.alias
				break
			}
		}
	}
	if f.n > 1 {
		return strconv.Itoa(f.n) + alias
	}
	return alias
}

// IsZero reports whether f is the zero Frequency.
func (f Frequency) IsZero() bool { return f.n == 0 }

func (f Frequency) fixedStep() (time.Duration, bool) {
	if f.unit == unitWeek {
		return time.Duration(f.n) * 7 * 24 * time.Hour, true
	}
	for _, fu := range fixedUnits {
		if fu.unit == f.unit {
			return time.Duration(f.n) * fu.step, true
		}
	}
	return 0, false
}

// Next returns the timestamp one step after t.
func (f Frequency) Next(t time.Time) time.Time {
	if step, ok := f.fixedStep(); ok {
		return t.Add(step)
	}
	switch f.unit {
	case unitMonthStart:
		return t.AddDate(0, f.n, 0)
	case unitMonthEnd:
		return monthEnd(t, f.n)
	case unitYearStart:
		return t.AddDate(f.n, 0, 0)
	case unitYearEnd:
		return monthEnd(t, 12*f.n)
	}
	return t
}

// monthEnd returns the last day of the month k months after t's month,
// keeping t's clock.
func monthEnd(t time.Time, k int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(k)+1, 1,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	return first.AddDate(0, 0, -1)
}

// onAnchor reports whether t sits on the calendar anchor of f.
func (f Frequency) onAnchor(t time.Time) bool {
	switch f.unit {
	case unitMonthStart:
		return t.Day() == 1
	case unitMonthEnd:
		return t.AddDate(0, 0, 1).Day() == 1
	case unitYearStart:
		return t.Month() == time.January && t.Day() == 1
	case unitYearEnd:
		return t.Month() == time.December && t.Day() == 31
	}
	return true
}

// rollForward moves t to the first anchor of f at or after t.
func (f Frequency) rollForward(t time.Time) time.Time {
	if f.onAnchor(t) {
		return t
	}
	switch f.unit {
	case unitMonthStart:
		return time.Date(t.Year(), t.Month()+1, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	case unitMonthEnd:
		return monthEnd(t, 0)
	case unitYearStart:
		return time.Date(t.Year()+1, time.January, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	case unitYearEnd:
		return time.Date(t.Year(), time.December, 31, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	}
	return t
}

// Range returns every timestamp of f from start through stop, both
// inclusive. Calendar frequencies start at the first anchor at or after
// start.
func (f Frequency) Range(start, stop time.Time) []time.Time {
	if f.IsZero() || stop.Before(start) {
		return nil
	}
	var out []time.Time
	for t := f.rollForward(start); !t.After(stop); t = f.Next(t) {
		out = append(out, t)
	}
	return out
}

// Conforms reports whether index is exactly the sequence f generates from
// its first element.
func (f Frequency) Conforms(index []time.Time) bool {
	if f.IsZero() || len(index) == 0 || !f.onAnchor(index[0]) {
		return false
	}
	for i := 1; i < len(index); i++ {
		if !index[i].Equal(f.Next(index[i-1])) {
			return false
		}
	}
	return true
}

// InferFrequency determines the single fixed frequency of index. It needs at
// least three timestamps; it reports false for irregular indexes. Calendar
// periods win over fixed steps, so three consecutive January firsts are
// "AS" even when no leap day lies between them.
func InferFrequency(index []time.Time) (Frequency, bool) {
	if len(index) < 3 {
		return Frequency{}, false
	}

	// years before months, so a yearly index is not reported as "12MS"
	months := monthsBetween(index[0], index[1])
	for _, unit := range []freqUnit{unitYearStart, unitYearEnd, unitMonthStart, unitMonthEnd} {
		n := months
		if unit == unitYearStart || unit == unitYearEnd {
			if n%12 != 0 {
				continue
			}
			n /= 12
		}
		if n <= 0 {
			continue
		}
		if f := (Frequency{n: n, unit: unit}); f.Conforms(index) {
			return f, true
		}
	}

	step := index[1].Sub(index[0])
	if step <= 0 {
		return Frequency{}, false
	}
	for i := 2; i < len(index); i++ {
		if index[i].Sub(index[i-1]) != step {
			return Frequency{}, false
		}
	}
	if week := 7 * 24 * time.Hour; step%week == 0 {
		return weekly(int(step/week), index[0].Weekday()), true
	}
	for _, fu := range fixedUnits {
		if step%fu.step == 0 {
			return Frequency{n: int(step / fu.step), unit: fu.unit}, true
		}
	}
	return Frequency{}, false
}

// weekly returns the n-week frequency anchored on day, labelled the way
// pandas names it: "W-SUN", "2W-MON".
func weekly(n int, day time.Weekday) Frequency {
	label := "W-" + strings.ToUpper(day.String()[:3])
	if n > 1 {
		label = strconv.Itoa(n) + label
	}
	return Frequency{n: n, unit: unitWeek, label: label}
}

func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
