package activityctl

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"

	"github.com/armadaproject/activitytracker/internal/activityctl/build"
	"github.com/armadaproject/activitytracker/internal/common/atcontext"
	"github.com/armadaproject/activitytracker/internal/common/config"
	"github.com/armadaproject/activitytracker/pkg/activity"
	"github.com/armadaproject/activitytracker/pkg/activity/backends"
)

// DateLayout is the layout of dates given on the command line and printed by lookup.
const DateLayout = "2006-01-02"

type App struct {
	// Parameters passed to the CLI by the user.
	Params *Params
	// Out is used to write the output. Defaults to standard out,
	// but can be overridden in tests to make assertions on the applications's output.
	Out io.Writer

	tracker *activity.Tracker
}

// Params holds everything loaded from the config file, the environment and global flags.
type Params struct {
	// Granularities tracked and collapsed when a command doesn't name any.
	Periods []activity.Granularity `validate:"required"`
	Backend BackendConfig
	// Deadline of every command.
	Timeout  time.Duration `validate:"gte=0"`
	LogLevel string
}

type BackendConfig struct {
	// One of the kinds in the backends package, e.g. "redis".
	Kind string `validate:"required"`
	// Backend specific options, e.g. the redis addresses.
	Options map[string]interface{}
}

// New instantiates an App with default parameters, including standard output.
func New() *App {
	return &App{
		Params: &Params{},
		Out:    os.Stdout,
	}
}

func (a *App) validateParams() error {
	if err := config.Validate(a.Params); err != nil {
		config.LogValidationErrors(err)
		return errors.WithStack(&activity.ErrInvalidConfig{Field: "Params", Message: err.Error()})
	}
	return nil
}

// Tracker returns the tracker described by a.Params, building it on first use.
func (a *App) Tracker() (*activity.Tracker, error) {
	if a.tracker != nil {
		return a.tracker, nil
	}
	if err := a.validateParams(); err != nil {
		return nil, err
	}
	tracker, err := backends.NewTracker(activity.TrackerConfig{
		Periods:        a.Params.Periods,
		BackendKind:    a.Params.Backend.Kind,
		BackendOptions: a.Params.Backend.Options,
	})
	if err != nil {
		return nil, err
	}
	a.tracker = tracker
	return tracker, nil
}

// Close releases the tracker, if one was built.
func (a *App) Close() error {
	if a.tracker == nil {
		return nil
	}
	err := a.tracker.Close()
	a.tracker = nil
	return err
}

// Context returns the context commands run in. It is cancelled on SIGINT or SIGTERM and
// bounded by the configured timeout.
func (a *App) Context() (*atcontext.Context, func()) {
	ctx, cancel := InterruptContext()
	runCtx, cancelRun := a.withTimeout(ctx)
	return runCtx, func() {
		cancelRun()
		cancel()
	}
}

func (a *App) withTimeout(ctx *atcontext.Context) (*atcontext.Context, context.CancelFunc) {
	if a.Params.Timeout <= 0 {
		return atcontext.WithCancel(ctx)
	}
	return atcontext.WithTimeout(ctx, a.Params.Timeout)
}

// InterruptContext returns a context that is cancelled on SIGINT or SIGTERM.
func InterruptContext() (*atcontext.Context, context.CancelFunc) {
	ctx, cancel := atcontext.WithCancel(atcontext.Background())
	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(stopSignal)
		select {
		case <-ctx.Done():
		case sig := <-stopSignal:
			ctx.Log.Infof("Received %s, stopping", sig)
			cancel()
		}
	}()
	return ctx, cancel
}

// Version prints build information (e.g., current git commit) to the app output.
func (a *App) Version() error {
	w := tabwriter.NewWriter(a.Out, 1, 1, 1, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "Version:\t%s\n", build.ReleaseVersion)
	fmt.Fprintf(w, "Commit:\t%s\n", build.GitCommit)
	fmt.Fprintf(w, "Go version:\t%s\n", build.GoVersion)
	fmt.Fprintf(w, "Built:\t%s\n", build.BuildTime)
	return nil
}

// ParseDate parses a DateLayout date in the local time zone, the zone of the default clock.
// The empty string yields the zero time, which the tracker replaces with today.
func ParseDate(name string, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(DateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, errors.WithStack(&activity.ErrInvalidArgument{
			Name:    name,
			Value:   value,
			Message: fmt.Sprintf("expected a date of the form %s", DateLayout),
		})
	}
	return t, nil
}

// ParseGranularities parses period names such as "daily".
func ParseGranularities(values []string) ([]activity.Granularity, error) {
	periods := make([]activity.Granularity, 0, len(values))
	for _, value := range values {
		g, err := activity.ParseGranularity(strings.TrimSpace(value))
		if err != nil {
			return nil, err
		}
		periods = append(periods, g)
	}
	return periods, nil
}

// ParseAggregate parses an aggregate bucket given as name=source1,source2.
func ParseAggregate(value string) (activity.AggregateBucket, error) {
	name, sources, ok := strings.Cut(value, "=")
	if !ok || name == "" || sources == "" {
		return activity.AggregateBucket{}, errors.WithStack(&activity.ErrInvalidArgument{
			Name:    "aggregate",
			Value:   value,
			Message: "expected name=bucket[,bucket...]",
		})
	}
	aggregate := activity.AggregateBucket{Name: name}
	for _, source := range strings.Split(sources, ",") {
		if source = strings.TrimSpace(source); source != "" {
			aggregate.Sources = append(aggregate.Sources, source)
		}
	}
	return aggregate, nil
}
