// Package schedule decides whether a proposed appointment is admissible:
// the window must sit inside one operating day's business hours and must
// not overlap another appointment of the same doctor.
package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Clock is a time of day in the clinic's zone.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM".
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return Clock{}, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c Clock) minutes() int {
	return c.Hour*60 + c.Minute
}

// on returns the instant at clock c on day's calendar date, in day's zone.
func (c Clock) on(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, day.Location())
}

// ParseWeekday accepts English day names ("sunday", "Sun").
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || (len(name) == 3 && strings.HasPrefix(full, name)) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("invalid weekday %q", s)
}

// Policy holds the clinic's operating rules.
type Policy struct {
	Location *time.Location
	OpensAt  Clock
	ClosesAt Clock
	ClosedOn time.Weekday
}

// NewPolicy builds a policy from configuration strings. The zone is looked
// up in the IANA database.
func NewPolicy(timezone, opensAt, closesAt, closedOn string) (Policy, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}
	opens, err := ParseClock(opensAt)
	if err != nil {
		return Policy{}, err
	}
	closes, err := ParseClock(closesAt)
	if err != nil {
		return Policy{}, err
	}
	if opens.minutes() >= closes.minutes() {
		return Policy{}, fmt.Errorf("opening time %s must be before closing time %s", opens, closes)
	}
	closed, err := ParseWeekday(closedOn)
	if err != nil {
		return Policy{}, err
	}
	return Policy{Location: loc, OpensAt: opens, ClosesAt: closes, ClosedOn: closed}, nil
}

// Localize reads naive's wall clock as UTC and returns it in the clinic zone.
func (p Policy) Localize(naive time.Time) time.Time {
	utc := time.Date(naive.Year(), naive.Month(), naive.Day(),
		naive.Hour(), naive.Minute(), naive.Second(), naive.Nanosecond(), time.UTC)
	return utc.In(p.Location)
}

// ValidateWindow checks a naive start/end pair. The checks run in a fixed
// order and the first failure is returned:
//
//  1. start and end fall on the same local weekday
//  2. the end's local weekday is not the closed day
//  3. start is not after end
//  4. start and end lie within business hours of the end's local date,
//     both boundaries inclusive
func (p Policy) ValidateWindow(start, end time.Time) error {
	localStart := p.Localize(start)
	localEnd := p.Localize(end)

	if localStart.Weekday() != localEnd.Weekday() {
		return &Error{Kind: KindCrossDay, Message: "appointment must start and end on the same day"}
	}

	if localEnd.Weekday() == p.ClosedOn {
		return &Error{
			Kind:    KindNonOperatingDay,
			Message: fmt.Sprintf("clinic does not accept appointments on %ss", p.ClosedOn),
		}
	}

	if localStart.After(localEnd) {
		return &Error{Kind: KindInvertedWindow, Message: "appointment start must not be after its end"}
	}

	opens := p.OpensAt.on(localEnd)
	closes := p.ClosesAt.on(localEnd)
	if !within(localStart, opens, closes) || !within(localEnd, opens, closes) {
		return &Error{
			Kind: KindOutsideBusinessHours,
			Message: fmt.Sprintf("appointments are only accepted between %s and %s (%s)",
				p.OpensAt, p.ClosesAt, p.Location),
		}
	}

	return nil
}

func within(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}
