package activity

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

// TrackerConfig configures a Tracker. Exactly one of Backend or BackendKind must be set;
// BackendOptions may only accompany BackendKind.
type TrackerConfig struct {
	// Granularities used by Track and Collapse when the caller doesn't name any. Required.
	Periods []Granularity
	// A ready-made backend.
	Backend Backend
	// Kind of backend to build through the registry, e.g. "redis".
	BackendKind    string
	BackendOptions map[string]interface{}
}

// Tracker records and reports unique-entity activity over one or more period granularities.
type Tracker struct {
	periods []Granularity
	backend Backend
}

// NewTracker builds a Tracker, resolving the backend through registry if cfg names a kind
// rather than supplying an instance. All configuration problems are reported here, before
// the store is used.
func NewTracker(cfg TrackerConfig, registry *Registry) (*Tracker, error) {
	if len(cfg.Periods) == 0 {
		return nil, errors.WithStack(&ErrInvalidConfig{Field: "Periods", Message: "at least one default period is required"})
	}
	for _, g := range cfg.Periods {
		if err := g.Validate(); err != nil {
			return nil, errors.WithStack(&ErrInvalidConfig{Field: "Periods", Message: err.Error()})
		}
	}
	backend := cfg.Backend
	switch {
	case backend != nil && (cfg.BackendKind != "" || len(cfg.BackendOptions) > 0):
		return nil, errors.WithStack(&ErrInvalidConfig{
			Field:   "Backend",
			Message: "a backend instance can't be combined with BackendKind or BackendOptions",
		})
	case backend == nil && cfg.BackendKind == "":
		return nil, errors.WithStack(&ErrInvalidConfig{Field: "Backend", Message: "no backend supplied"})
	case backend == nil:
		if registry == nil {
			return nil, errors.WithStack(&ErrInvalidConfig{Field: "BackendKind", Message: "no registry to resolve backend from"})
		}
		var err error
		backend, err = registry.New(cfg.BackendKind, cfg.BackendOptions)
		if err != nil {
			return nil, err
		}
	}
	return &Tracker{
		periods: append([]Granularity(nil), cfg.Periods...),
		backend: backend,
	}, nil
}

func (t *Tracker) Backend() Backend {
	return t.backend
}

// Close releases the backend's resources, if it holds any.
func (t *Tracker) Close() error {
	if closer, ok := t.backend.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (t *Tracker) granularities(periods []Granularity) []Granularity {
	if len(periods) == 0 {
		return t.periods
	}
	return periods
}

// Track records activity for each of periods, or for the configured periods if none are given.
func (t *Tracker) Track(ctx context.Context, periods []Granularity, req TrackRequest) error {
	for _, g := range t.granularities(periods) {
		if err := t.backend.Track(ctx, g, req); err != nil {
			return errors.WithMessagef(err, "error tracking %s activity", g)
		}
	}
	return nil
}

func (t *Tracker) TrackDaily(ctx context.Context, req TrackRequest) error {
	return t.Track(ctx, []Granularity{Daily}, req)
}

func (t *Tracker) TrackMonthly(ctx context.Context, req TrackRequest) error {
	return t.Track(ctx, []Granularity{Monthly}, req)
}

// Collapse converts raw activity into counts for each of periods, or for the configured
// periods if none are given.
func (t *Tracker) Collapse(ctx context.Context, periods []Granularity, req CollapseRequest) error {
	for _, g := range t.granularities(periods) {
		if err := t.backend.Collapse(ctx, g, req); err != nil {
			return errors.WithMessagef(err, "error collapsing %s activity", g)
		}
	}
	return nil
}

func (t *Tracker) CollapseDaily(ctx context.Context, req CollapseRequest) error {
	return t.Collapse(ctx, []Granularity{Daily}, req)
}

func (t *Tracker) CollapseMonthly(ctx context.Context, req CollapseRequest) error {
	return t.Collapse(ctx, []Granularity{Monthly}, req)
}

// Lookup returns the counts of each g period in [req.Start, req.End).
func (t *Tracker) Lookup(ctx context.Context, g Granularity, req LookupRequest) ([]LookupEntry, error) {
	return t.backend.Lookup(ctx, g, req)
}

func (t *Tracker) LookupDaily(ctx context.Context, req LookupRequest) ([]LookupEntry, error) {
	return t.Lookup(ctx, Daily, req)
}

func (t *Tracker) LookupMonthly(ctx context.Context, req LookupRequest) ([]LookupEntry, error) {
	return t.Lookup(ctx, Monthly, req)
}
