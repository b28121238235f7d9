package activity

import (
	"time"

	"github.com/pkg/errors"
)

// Granularity is the length of a tracking period.
type Granularity string

const (
	Daily   Granularity = "daily"
	Monthly Granularity = "monthly"
)

// Layouts used to build period labels, e.g. daily-20140101 or monthly-201401.
var periodLayouts = map[Granularity]string{
	Daily:   "20060102",
	Monthly: "200601",
}

// ParseGranularity converts a string such as "daily" into a Granularity.
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(s)
	if err := g.Validate(); err != nil {
		return "", err
	}
	return g, nil
}

func (g Granularity) Validate() error {
	if _, ok := periodLayouts[g]; !ok {
		return errors.WithStack(&ErrInvalidArgument{
			Name:    "granularity",
			Value:   string(g),
			Message: "must be one of daily or monthly",
		})
	}
	return nil
}

// Label returns the canonical label of the period containing date.
// Two dates are in the same period iff their labels are equal.
func (g Granularity) Label(date time.Time) (string, error) {
	layout, ok := periodLayouts[g]
	if !ok {
		return "", g.Validate()
	}
	return string(g) + "-" + date.Format(layout), nil
}

// Start returns the first day of the period containing date.
func (g Granularity) Start(date time.Time) time.Time {
	date = Date(date)
	if g == Monthly {
		y, m, _ := date.Date()
		return time.Date(y, m, 1, 0, 0, 0, 0, date.Location())
	}
	return date
}

// Date truncates t to midnight in its own location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Period is a single step of a PeriodCursor.
type Period struct {
	// The day the cursor had reached when the label changed, i.e. the last day of the period.
	Date  time.Time
	Label string
}

// PeriodCursor walks backward from a start date one day at a time, yielding each period
// that precedes the period of the start date. It never terminates by itself; callers stop
// calling Next once they've seen enough.
type PeriodCursor struct {
	granularity Granularity
	layout      string
	date        time.Time
	lastLabel   string
}

func NewPeriodCursor(g Granularity, start time.Time) (*PeriodCursor, error) {
	label, err := g.Label(start)
	if err != nil {
		return nil, err
	}
	return &PeriodCursor{
		granularity: g,
		layout:      periodLayouts[g],
		date:        Date(start),
		lastLabel:   label,
	}, nil
}

// Next returns the next older period.
func (c *PeriodCursor) Next() Period {
	for {
		c.date = c.date.AddDate(0, 0, -1)
		label := string(c.granularity) + "-" + c.date.Format(c.layout)
		if label != c.lastLabel {
			c.lastLabel = label
			return Period{Date: c.date, Label: label}
		}
	}
}
