package activityctl

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/armadaproject/activitytracker/internal/common/atcontext"
	"github.com/armadaproject/activitytracker/internal/common/logging"
	"github.com/armadaproject/activitytracker/pkg/activity"
)

// Collapse converts the raw activity of finished periods into counts.
func (a *App) Collapse(ctx *atcontext.Context, periods []activity.Granularity, req activity.CollapseRequest) error {
	tracker, err := a.Tracker()
	if err != nil {
		return err
	}
	if _, ok := req.ProbeBucket(); !ok {
		fmt.Fprintf(a.Out, "No buckets given, nothing to collapse\n")
		return nil
	}
	if len(periods) == 0 {
		periods = a.Params.Periods
	}
	for _, g := range periods {
		ctx := atcontext.WithLogFields(ctx, logrus.Fields{"granularity": g, "shard": req.Shard})
		if err := tracker.Collapse(ctx, []activity.Granularity{g}, req); err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "Collapsed %s activity\n", g)
	}
	return nil
}

// CollapseEvery collapses immediately and then once per interval until ctx is cancelled.
// Each run is bounded by the configured timeout. A failed run is logged and retried at the
// next tick. req.Date must be unset so every run collapses up to that day.
func (a *App) CollapseEvery(ctx *atcontext.Context, interval time.Duration, periods []activity.Granularity, req activity.CollapseRequest) error {
	if interval <= 0 {
		return errors.WithStack(&activity.ErrInvalidArgument{
			Name:    "interval",
			Value:   interval,
			Message: "must be positive",
		})
	}
	if !req.Date.IsZero() {
		return errors.WithStack(&activity.ErrInvalidArgument{
			Name:    "date",
			Value:   req.Date,
			Message: "can't be set when collapsing periodically",
		})
	}
	if _, err := a.Tracker(); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for run := 1; ; run++ {
		runCtx, cancel := a.withTimeout(atcontext.WithLogField(ctx, "run", run))
		err := a.Collapse(runCtx, periods, req)
		cancel()
		if err != nil && ctx.Err() == nil {
			logging.WithStacktrace(runCtx.Log, err).Error("Collapse failed")
		}
		select {
		case <-ctx.Done():
			ctx.Log.Info("Stopped collapsing")
			return nil
		case <-ticker.C:
		}
	}
}
