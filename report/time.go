/*
Package report implements the attendance reporting and aggregation engine.

PURPOSE:
  Given raw attendance rows, time-bounded policy assignments, and scoped
  holiday definitions, this package computes per-employee attendance
  statistics and rolls them up into group summaries. It answers: "how did
  each employee perform against their assigned attendance policy over a
  date range, accounting for policy changes over time and holidays."

KEY CONCEPTS IN THIS FILE (time.go):
  - Date: A calendar day (midnight UTC, day granularity)
  - Period: An inclusive [Start, End] date range (the report window)
  - ClockTime: A time of day, used for work start/end comparisons
  - WeekdaySet: A policy's designated working weekdays

DESIGN PRINCIPLES:
  1. Day granularity everywhere: attendance is a per-day business
  2. Pure classification: working-day checks have no side effects
  3. Explicit validation: an unparseable window is an error, never an
     undefined range that propagates downstream

SEE ALSO:
  - policy.go: Policy snapshots and coverage resolution
  - aggregate.go: The three-pass aggregation over these types
*/
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// =============================================================================
// DATE - Calendar day, midnight UTC
// =============================================================================

type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDateRange, s)
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return d.Before(other) || d.Equal(other) }
func (d Date) AfterOrEqual(other Date) bool  { return d.After(other) || d.Equal(other) }

// Arithmetic and properties
func (d Date) AddDays(n int) Date      { return DateOf(d.Time.AddDate(0, 0, n)) }
func (d Date) AddYears(n int) Date     { return DateOf(d.Time.AddDate(n, 0, 0)) }
func (d Date) Weekday() time.Weekday   { return d.Time.Weekday() }
func (d Date) Year() int               { return d.Time.Year() }
func (d Date) IsZero() bool            { return d.Time.IsZero() }
func (d Date) String() string          { return d.Time.Format("2006-01-02") }

// =============================================================================
// PERIOD - The report window [Start, End], both inclusive
// =============================================================================

type Period struct {
	Start Date
	End   Date
}

// Validate rejects empty or inverted windows. Upstream callers must not
// let an undefined window reach the engine.
func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return ErrInvalidDateRange
	}
	if p.End.Before(p.Start) {
		return fmt.Errorf("%w: end %s before start %s", ErrInvalidDateRange, p.End, p.Start)
	}
	return nil
}

func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days returns every calendar date in the window, ascending.
func (p Period) Days() []Date {
	var days []Date
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// CLOCK TIME - Time of day for lateness/overtime comparisons
// =============================================================================

// ClockTime is an offset from midnight. Second precision matters: a
// clock-in one second past the grace boundary is late.
type ClockTime time.Duration

// ParseClockTime parses an HH:MM time-of-day string.
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return ClockTime(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute), nil
}

// ClockTimeOf extracts the time-of-day component of a timestamp.
func ClockTimeOf(t time.Time) ClockTime {
	return ClockTime(time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second)
}

func (c ClockTime) AddMinutes(n int) ClockTime {
	return c + ClockTime(time.Duration(n)*time.Minute)
}

func (c ClockTime) After(other ClockTime) bool { return c > other }

// Sub returns the signed distance between two times of day.
func (c ClockTime) Sub(other ClockTime) time.Duration {
	return time.Duration(c - other)
}

func (c ClockTime) String() string {
	d := time.Duration(c)
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

// =============================================================================
// WEEKDAYS - Name table and working-day classification
// =============================================================================

// weekdayByName maps weekday names to time.Weekday (Sunday=0..Saturday=6).
// Stateless constant table; lookups are case-insensitive.
var weekdayByName = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// WeekdaySet is the set of weekdays a policy designates as working days.
type WeekdaySet map[time.Weekday]bool

// ParseWeekdays builds a WeekdaySet from weekday names.
func ParseWeekdays(names []string) (WeekdaySet, error) {
	set := make(WeekdaySet, len(names))
	for _, name := range names {
		wd, ok := weekdayByName[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownWeekday, name)
		}
		set[wd] = true
	}
	return set, nil
}

// Names returns the set's weekday names in Sunday..Saturday order.
func (ws WeekdaySet) Names() []string {
	var names []string
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if ws[wd] {
			names = append(names, wd.String())
		}
	}
	return names
}

// IsWorkingDay reports whether a calendar date falls on one of the
// policy's designated weekdays. Pure and deterministic.
func IsWorkingDay(d Date, workingDays WeekdaySet) bool {
	return workingDays[d.Weekday()]
}

// =============================================================================
// DATE SET HELPERS
// =============================================================================

func sortDates(dates []Date) {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
}
