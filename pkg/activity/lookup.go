package activity

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// LookupPlan is the set of collapsed keys covering a lookup, together with the result
// they fill in.
type LookupPlan struct {
	// Entries in ascending date order, with every count preset to zero.
	Entries []LookupEntry
	// Keys to fetch. Keys[i] holds the count of bucket Buckets[i] for Entries[slots[i]].
	Keys    []string
	Buckets []string
	slots   []int
}

// NewLookupPlan walks backward from end and keeps every period whose first day isn't before
// start. The period containing end is never included. Period dates are in end's location, so
// start is read as a calendar date in that location too.
func NewLookupPlan(ctx context.Context, g Granularity, start, end time.Time, buckets []string) (*LookupPlan, error) {
	cursor, err := NewPeriodCursor(g, end)
	if err != nil {
		return nil, err
	}
	if len(buckets) == 0 {
		buckets = []string{NoBucket}
	}
	y, m, d := start.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, end.Location())

	var periods []Period
	for {
		if err := ctx.Err(); err != nil {
			return nil, errors.WithStack(err)
		}
		period := cursor.Next()
		period.Date = g.Start(period.Date)
		if period.Date.Before(start) {
			break
		}
		periods = append(periods, period)
	}

	plan := &LookupPlan{
		Entries: make([]LookupEntry, len(periods)),
		Keys:    make([]string, 0, len(periods)*len(buckets)),
		Buckets: make([]string, 0, len(periods)*len(buckets)),
		slots:   make([]int, 0, len(periods)*len(buckets)),
	}
	for i, period := range periods {
		// periods were collected newest first
		slot := len(periods) - 1 - i
		counts := make(map[string]int64, len(buckets))
		for _, bucket := range buckets {
			counts[bucket] = 0
			plan.Keys = append(plan.Keys, CollapsedKey(period.Label, bucket))
			plan.Buckets = append(plan.Buckets, bucket)
			plan.slots = append(plan.slots, slot)
		}
		plan.Entries[slot] = LookupEntry{Date: period.Date, Counts: counts}
	}
	return plan, nil
}

// PlanLookup resolves the default range of req and builds its plan.
func PlanLookup(ctx context.Context, clock Clock, g Granularity, req LookupRequest) (*LookupPlan, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	end := DateOrToday(clock, req.End)
	start := req.Start
	if start.IsZero() {
		start = end.AddDate(0, 0, -365)
	}
	return NewLookupPlan(ctx, g, start, end, req.Buckets)
}

// Set records the count fetched for Keys[i].
func (p *LookupPlan) Set(i int, count int64) {
	p.Entries[p.slots[i]].Counts[p.Buckets[i]] = count
}
