package activity

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// CollapsedFunc reports whether the collapsed key exists in the store.
type CollapsedFunc func(ctx context.Context, collapsedKey string) (bool, error)

// PendingPeriods walks backward from date and returns the labels of the periods that still
// need collapsing, oldest first. The walk stops at the first period whose collapsed key for
// probe already exists: periods are collapsed in chronological order, so that period and
// every older one are already done. At most maxPeriods labels are returned.
func PendingPeriods(ctx context.Context, g Granularity, date time.Time, maxPeriods int, probe string, collapsed CollapsedFunc) ([]string, error) {
	cursor, err := NewPeriodCursor(g, date)
	if err != nil {
		return nil, err
	}
	if maxPeriods < 1 {
		maxPeriods = 1
	}
	queue := make([]string, 0, maxPeriods)
	for len(queue) < maxPeriods {
		if err := ctx.Err(); err != nil {
			return nil, errors.WithStack(err)
		}
		period := cursor.Next()
		done, err := collapsed(ctx, CollapsedKey(period.Label, probe))
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
		queue = append(queue, period.Label)
	}
	// Collected newest first.
	for i, j := 0, len(queue)-1; i < j; i, j = i+1, j-1 {
		queue[i], queue[j] = queue[j], queue[i]
	}
	return queue, nil
}

// CountSource is one count to compute when collapsing a period: the size of the union of
// the raw sets in Sources, written to OutKey.
type CountSource struct {
	OutKey  string
	Sources []string
}

// CollapsePlan lists, for a single period, every count to write and every raw key to delete.
type CollapsePlan struct {
	Label  string
	Counts []CountSource
	// Raw keys to delete, each listed once.
	Remove []string
}

// NewCollapsePlan builds the plan for collapsing the labelled period. Plain buckets count
// their own raw set, aggregate buckets the union of their sources.
func NewCollapsePlan(label string, buckets []string, aggregates []AggregateBucket) *CollapsePlan {
	plan := &CollapsePlan{Label: label}
	seen := make(map[string]bool)
	remove := func(key string) {
		if !seen[key] {
			seen[key] = true
			plan.Remove = append(plan.Remove, key)
		}
	}
	for _, bucket := range buckets {
		in := RawKey(label, bucket)
		plan.Counts = append(plan.Counts, CountSource{OutKey: CollapsedKey(label, bucket), Sources: []string{in}})
		remove(in)
	}
	for _, agg := range aggregates {
		sources := make([]string, len(agg.Sources))
		for i, source := range agg.Sources {
			sources[i] = RawKey(label, source)
			remove(sources[i])
		}
		plan.Counts = append(plan.Counts, CountSource{OutKey: CollapsedKey(label, agg.Name), Sources: sources})
	}
	return plan
}

// PlanCollapse resolves the defaults of req, finds the pending periods and returns a plan for
// each, oldest first. It returns no plans when req names no buckets at all.
func PlanCollapse(ctx context.Context, clock Clock, g Granularity, req CollapseRequest, collapsed CollapsedFunc) ([]*CollapsePlan, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	probe, ok := req.ProbeBucket()
	if !ok {
		return nil, nil
	}
	for _, agg := range req.AggregateBuckets {
		if len(agg.Sources) == 0 {
			return nil, errors.WithStack(&ErrInvalidArgument{
				Name:    "AggregateBuckets",
				Value:   agg.Name,
				Message: "aggregate bucket must have at least one source",
			})
		}
	}
	labels, err := PendingPeriods(ctx, g, DateOrToday(clock, req.Date), req.maxPeriods(), probe, collapsed)
	if err != nil {
		return nil, err
	}
	plans := make([]*CollapsePlan, len(labels))
	for i, label := range labels {
		plans[i] = NewCollapsePlan(label, req.Buckets, req.AggregateBuckets)
	}
	return plans, nil
}
