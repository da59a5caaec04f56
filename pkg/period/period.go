// Package period resolves Spanish natural-language time expressions into
// exact, inclusive date ranges.
package period

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Layout is the ISO date layout used on the wire.
const Layout = "2006-01-02"

var (
	// ErrUnrecognized is returned when no rule matches the phrase.
	ErrUnrecognized = errors.New("unrecognized period expression")
	// ErrInvalidRange is returned when start falls after end or a date does not exist.
	ErrInvalidRange = errors.New("invalid period range")
)

// Period is an inclusive calendar date range. Start and End are midnight UTC.
type Period struct {
	Start time.Time
	End   time.Time
	Label string
}

// New builds a Period, enforcing start <= end.
func New(start, end time.Time, label string) (Period, error) {
	start, end = DateOf(start), DateOf(end)
	if start.After(end) {
		return Period{}, fmt.Errorf("%w: %s after %s", ErrInvalidRange, start.Format(Layout), end.Format(Layout))
	}
	return Period{Start: start, End: end, Label: label}, nil
}

// FromISO builds a Period from two YYYY-MM-DD strings.
func FromISO(start, end, label string) (Period, error) {
	s, err := time.Parse(Layout, start)
	if err != nil {
		return Period{}, fmt.Errorf("%w: start %q: %v", ErrInvalidRange, start, err)
	}
	e, err := time.Parse(Layout, end)
	if err != nil {
		return Period{}, fmt.Errorf("%w: end %q: %v", ErrInvalidRange, end, err)
	}
	if label == "" {
		label = start + " a " + end
	}
	return New(s, e, label)
}

// DateOf truncates t to its calendar date, expressed as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StartISO returns the start date as YYYY-MM-DD.
func (p Period) StartISO() string { return p.Start.Format(Layout) }

// EndISO returns the end date as YYYY-MM-DD.
func (p Period) EndISO() string { return p.End.Format(Layout) }

// IsZero reports whether p is the zero Period.
func (p Period) IsZero() bool { return p.Start.IsZero() && p.End.IsZero() }

// Days returns the number of calendar days covered, inclusive.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}

// Contains reports whether t's calendar date lies within p.
func (p Period) Contains(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(p.Start) && !d.After(p.End)
}

func (p Period) String() string {
	return p.StartISO() + ".." + p.EndISO()
}

// Previous returns the comparison period immediately before p. Ranges made
// of whole calendar months shift by the same number of months; any other
// range shifts by its day count.
func (p Period) Previous() Period {
	if p.Start.Day() == 1 && isMonthEnd(p.End) {
		months := (p.End.Year()-p.Start.Year())*12 + int(p.End.Month()-p.Start.Month()) + 1
		return Period{
			Start: p.Start.AddDate(0, -months, 0),
			End:   p.Start.AddDate(0, 0, -1),
			Label: "periodo anterior",
		}
	}
	end := p.Start.AddDate(0, 0, -1)
	return Period{
		Start: end.AddDate(0, 0, -(p.Days() - 1)),
		End:   end,
		Label: "periodo anterior",
	}
}

// MarshalJSON renders the period with ISO date strings.
func (p Period) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start string `json:"start"`
		End   string `json:"end"`
		Label string `json:"label,omitempty"`
	}{
		Start: p.StartISO(),
		End:   p.EndISO(),
		Label: p.Label,
	})
}

func isMonthEnd(t time.Time) bool {
	return t.AddDate(0, 0, 1).Day() == 1
}

func monthRange(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}

// date builds a calendar date, rejecting values time.Date would normalise.
func date(year int, month time.Month, day int) (time.Time, error) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d does not exist", ErrInvalidRange, year, month, day)
	}
	return t, nil
}

// AmbiguousError reports a phrase with more than one plausible reading.
type AmbiguousError struct {
	Phrase     string
	Candidates []Period
}

func (e *AmbiguousError) Error() string {
	msg := fmt.Sprintf("ambiguous period %q", e.Phrase)
	for i, c := range e.Candidates {
		if i == 0 {
			msg += ": "
		} else {
			msg += " or "
		}
		msg += c.String()
	}
	return msg
}
