// Package period computes the report windows used to filter sales: days,
// weeks, months, quarters and years of the market calendar (UTC).
package period

import (
	"fmt"
	"strings"
	"time"
)

type Period int

const (
	Daily Period = iota
	Weekly
	Monthly
	Quarterly
	Yearly
)

func (p Period) String() string {
	switch p {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Quarterly:
		return "quarterly"
	case Yearly:
		return "yearly"
	default:
		panic(fmt.Sprintf("unknown period %d", int(p)))
	}
}

func ParsePeriod(p string) (Period, error) {
	p = strings.ToLower(p)
	switch p {
	case "daily", "day":
		return Daily, nil
	case "weekly", "week":
		return Weekly, nil
	case "monthly", "month":
		return Monthly, nil
	case "quarterly", "quarter":
		return Quarterly, nil
	case "yearly", "year":
		return Yearly, nil
	default:
		return Daily, fmt.Errorf("unknown period %s", p)
	}
}

// Day returns midnight UTC of the day of t.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StartOf returns midnight UTC of the first day of the period containing t.
// Weeks start on Monday.
func StartOf(t time.Time, p Period) time.Time {
	d := Day(t)
	switch p {
	case Daily:
		return d
	case Weekly:
		offset := (int(d.Weekday()) + 6) % 7 // days since Monday
		return d.AddDate(0, 0, -offset)
	case Monthly:
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	case Quarterly:
		quarter := (d.Month() - 1) / 3
		return time.Date(d.Year(), quarter*3+1, 1, 0, 0, 0, 0, time.UTC)
	case Yearly:
		return time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		panic("unknown period")
	}
}

// next returns the start of the period following the one starting on start.
func next(start time.Time, p Period) time.Time {
	switch p {
	case Daily:
		return start.AddDate(0, 0, 1)
	case Weekly:
		return start.AddDate(0, 0, 7)
	case Monthly:
		return start.AddDate(0, 1, 0)
	case Quarterly:
		return start.AddDate(0, 3, 0)
	case Yearly:
		return start.AddDate(1, 0, 0)
	default:
		panic("unknown period")
	}
}

// Window is a closed interval of time.
type Window struct{ From, To time.Time }

// NewWindow returns the period p containing t.
func NewWindow(t time.Time, p Period) Window {
	from := StartOf(t, p)
	return Window{From: from, To: next(from, p).Add(-time.Nanosecond)}
}

// Since returns the window from the start of the day of from to the end of the day of to.
func Since(from, to time.Time) Window {
	return Window{From: Day(from), To: Day(to).AddDate(0, 0, 1).Add(-time.Nanosecond)}
}

// Contains reports whether t is within the window, boundaries included.
func (w Window) Contains(t time.Time) bool { return !t.Before(w.From) && !t.After(w.To) }

// Period returns the period of this window if it's a standard one.
func (w Window) Period() (p Period, ok bool) {
	for _, p := range []Period{Daily, Weekly, Monthly, Quarterly, Yearly} {
		if std := NewWindow(w.From, p); std.From.Equal(w.From) && std.To.Equal(w.To) {
			return p, true
		}
	}
	return Daily, false
}

// Name names the period of the window.
func (w Window) Name() string {
	p, ok := w.Period()
	if ok {
		return p.String()
	}
	return "special"
}

// Identifier computes a unique identifier for the window, short for standard periods.
func (w Window) Identifier() string {
	p, ok := w.Period()
	if !ok {
		return fmt.Sprintf("%s_%s", w.From.Format(time.DateOnly), w.To.Format(time.DateOnly))
	}

	switch p {
	case Daily:
		return w.From.Format(time.DateOnly)
	case Weekly:
		year, week := w.From.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case Monthly:
		return w.From.Format("2006-01")
	case Quarterly:
		return fmt.Sprintf("%d-Q%d", w.From.Year(), (w.From.Month()-1)/3+1)
	case Yearly:
		return w.From.Format("2006")
	default:
		panic("unknown period")
	}
}

func (w Window) String() string {
	return fmt.Sprintf("%s to %s", w.From.Format(time.DateOnly), w.To.Format(time.DateOnly))
}
