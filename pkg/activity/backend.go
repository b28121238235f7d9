package activity

import (
	"context"
	"time"
)

// Backend stores activity data. Implementations must be safe for use by concurrent callers,
// but a single call may block on the underlying store.
type Backend interface {
	// Track records, moves or removes an entity in the raw set of one period.
	Track(ctx context.Context, g Granularity, req TrackRequest) error
	// Collapse converts the raw sets of not-yet-collapsed periods into counts.
	Collapse(ctx context.Context, g Granularity, req CollapseRequest) error
	// Lookup returns collapsed counts for each period of a date range.
	Lookup(ctx context.Context, g Granularity, req LookupRequest) ([]LookupEntry, error)
}

// TrackRequest describes a single piece of activity.
// Empty strings mean "not given": an empty ID records nothing, an empty Bucket addresses
// the whole population.
type TrackRequest struct {
	// Shard selects the dataset; empty for the default one.
	Shard string
	// Id of the active entity.
	ID     string
	Bucket string
	// If the entity's id and/or bucket changed, the id and bucket to remove it from.
	// Supplying both ID and OldID moves the entity in a single atomic batch.
	OldID     string
	OldBucket string
	// Day on which the activity happened. Defaults to today.
	Date time.Time
}

// AggregateBucket is a bucket whose count is the size of the union of its sources' raw sets.
type AggregateBucket struct {
	Name    string
	Sources []string
}

type CollapseRequest struct {
	Shard string
	// A date after the period(s) to collapse. Defaults to today, so the current period,
	// which is still being written to, is never collapsed.
	Date time.Time
	// Maximum number of periods to collapse in this call. Values below 1 mean 1.
	MaxPeriods int
	// Buckets used in the corresponding Track calls.
	Buckets          []string
	AggregateBuckets []AggregateBucket
	// ScratchToken is mixed into the names of temporary keys. Backends generate a random token
	// per call when empty.
	ScratchToken string
}

// ProbeBucket returns the bucket whose collapsed key is used to decide whether a period has
// already been collapsed. ok is false when there are no buckets at all, in which case
// there is nothing to collapse.
func (r CollapseRequest) ProbeBucket() (bucket string, ok bool) {
	if len(r.Buckets) > 0 {
		return r.Buckets[0], true
	}
	if len(r.AggregateBuckets) > 0 {
		return r.AggregateBuckets[0].Name, true
	}
	return "", false
}

func (r CollapseRequest) maxPeriods() int {
	if r.MaxPeriods < 1 {
		return 1
	}
	return r.MaxPeriods
}

type LookupRequest struct {
	Shard string
	// A date in the first period to return. Defaults to 365 days before End.
	Start time.Time
	// A date after the last period to return. Defaults to today.
	End     time.Time
	Buckets []string
}

// LookupEntry holds the counts of one period.
type LookupEntry struct {
	// First day of the period.
	Date time.Time
	// Count per requested bucket. NoBucket is used as the key when no buckets were requested.
	Counts map[string]int64
}
