package activityctl

import (
	"fmt"

	"github.com/armadaproject/activitytracker/internal/common/atcontext"
	"github.com/armadaproject/activitytracker/pkg/activity"
)

// Track records req for each of periods, or for the configured periods if none are given.
func (a *App) Track(ctx *atcontext.Context, periods []activity.Granularity, req activity.TrackRequest) error {
	tracker, err := a.Tracker()
	if err != nil {
		return err
	}
	if err := tracker.Track(ctx, periods, req); err != nil {
		return err
	}
	switch {
	case req.ID != "" && req.OldID != "":
		fmt.Fprintf(a.Out, "Moved %s from %s to %s\n", req.OldID, bucketName(req.OldBucket), describe(req.ID, req.Bucket))
	case req.ID != "":
		fmt.Fprintf(a.Out, "Tracked %s\n", describe(req.ID, req.Bucket))
	case req.OldID != "":
		fmt.Fprintf(a.Out, "Removed %s\n", describe(req.OldID, req.OldBucket))
	default:
		fmt.Fprintf(a.Out, "Nothing to track\n")
	}
	return nil
}

func describe(id string, bucket string) string {
	if bucket == activity.NoBucket {
		return id
	}
	return fmt.Sprintf("%s in bucket %s", id, bucket)
}

// bucketName is how buckets are shown to users. NoBucket stands for the whole population.
func bucketName(bucket string) string {
	if bucket == activity.NoBucket {
		return "(all)"
	}
	return bucket
}
