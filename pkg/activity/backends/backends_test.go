package backends

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/activitytracker/pkg/activity"
	"github.com/armadaproject/activitytracker/pkg/activity/backends/membackend"
	"github.com/armadaproject/activitytracker/pkg/activity/backends/redisbackend"
)

func TestNewRegistry(t *testing.T) {
	assert.Equal(t, []string{"memory", "redis"}, NewRegistry().Kinds())
}

func TestNewTracker(t *testing.T) {
	tracker, err := NewTracker(activity.TrackerConfig{
		Periods:     []activity.Granularity{activity.Daily},
		BackendKind: string(Memory),
	})
	require.NoError(t, err)
	assert.IsType(t, &membackend.Backend{}, tracker.Backend())

	mr := miniredis.RunT(t)
	tracker, err = NewTracker(activity.TrackerConfig{
		Periods:        []activity.Granularity{activity.Daily},
		BackendKind:    string(Redis),
		BackendOptions: map[string]interface{}{"redis": map[string]interface{}{"addrs": mr.Addr()}},
	})
	require.NoError(t, err)
	defer tracker.Close()
	assert.IsType(t, &redisbackend.Backend{}, tracker.Backend())
}

// Both backends must agree on every count for the same sequence of calls.
func TestBackendsAgree(t *testing.T) {
	mr := miniredis.RunT(t)
	memTracker, err := NewTracker(activity.TrackerConfig{
		Periods:     []activity.Granularity{activity.Daily, activity.Monthly},
		BackendKind: string(Memory),
	})
	require.NoError(t, err)
	redisTracker, err := NewTracker(activity.TrackerConfig{
		Periods:        []activity.Granularity{activity.Daily, activity.Monthly},
		BackendKind:    string(Redis),
		BackendOptions: map[string]interface{}{"redis": map[string]interface{}{"addrs": mr.Addr()}},
	})
	require.NoError(t, err)
	defer redisTracker.Close()

	ctx := context.Background()
	start := time.Date(2014, 1, 25, 0, 0, 0, 0, time.UTC)
	buckets := []string{"anon", "staff"}
	collapse := activity.CollapseRequest{
		MaxPeriods:       60,
		Buckets:          append([]string{activity.NoBucket}, buckets...),
		AggregateBuckets: []activity.AggregateBucket{{Name: "everyone", Sources: buckets}},
	}
	for _, tracker := range []*activity.Tracker{memTracker, redisTracker} {
		for day := 0; day < 14; day++ {
			date := start.AddDate(0, 0, day)
			for id := 0; id < 10; id++ {
				if (id+day)%3 == 0 {
					continue
				}
				bucket := buckets[(id*day)%2]
				idString := string(rune('a' + id))
				require.NoError(t, tracker.Track(ctx, nil, activity.TrackRequest{ID: idString, Bucket: bucket, Date: date}))
				require.NoError(t, tracker.Track(ctx, nil, activity.TrackRequest{ID: idString, Date: date}))
			}
			if day%5 == 4 {
				require.NoError(t, tracker.Track(ctx, nil, activity.TrackRequest{
					ID: "z", Bucket: "staff", OldID: "b", OldBucket: "anon", Date: date,
				}))
			}
		}
		collapse.Date = start.AddDate(0, 0, 14)
		require.NoError(t, tracker.Collapse(ctx, nil, collapse))
	}

	lookup := activity.LookupRequest{
		Start:   start.AddDate(0, -1, 0),
		End:     start.AddDate(0, 0, 15),
		Buckets: append([]string{activity.NoBucket, "everyone"}, buckets...),
	}
	for _, g := range []activity.Granularity{activity.Daily, activity.Monthly} {
		expected, err := memTracker.Lookup(ctx, g, lookup)
		require.NoError(t, err)
		actual, err := redisTracker.Lookup(ctx, g, lookup)
		require.NoError(t, err)
		assert.Equal(t, expected, actual, g)
		assert.NotEmpty(t, expected)
	}
}
