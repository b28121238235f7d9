package activity

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Factory constructs a backend from free-form options, e.g. the BackendOptions of a
// TrackerConfig or a section of a config file.
type Factory func(options map[string]interface{}) (Backend, error)

// Registry maps backend kinds to the factories that build them.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for kind. Registering the same kind twice is an error.
func (r *Registry) Register(kind string, factory Factory) error {
	if kind == "" || factory == nil {
		return errors.WithStack(&ErrInvalidConfig{Field: "kind", Message: "kind and factory must be non-empty"})
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[kind]; ok {
		return errors.WithStack(&ErrInvalidConfig{Field: "kind", Message: fmt.Sprintf("backend %q is already registered", kind)})
	}
	r.factories[kind] = factory
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(kind string, factory Factory) {
	if err := r.Register(kind, factory); err != nil {
		panic(err)
	}
}

// New builds a backend of the given kind.
func (r *Registry) New(kind string, options map[string]interface{}) (Backend, error) {
	r.mu.RLock()
	factory, ok := r.factories[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.WithStack(&ErrInvalidConfig{
			Field:   "BackendKind",
			Message: fmt.Sprintf("unknown backend %q; registered backends are %v", kind, r.Kinds()),
		})
	}
	backend, err := factory(options)
	if err != nil {
		return nil, err
	}
	return backend, nil
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := maps.Keys(r.factories)
	slices.Sort(kinds)
	return kinds
}

// DecodeOptions decodes free-form factory options into target, a pointer to a config struct.
// Unknown options are rejected.
func DecodeOptions(options map[string]interface{}, target interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			GranularityDecodeHook(),
		),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return errors.WithStack(err)
	}
	if err := decoder.Decode(options); err != nil {
		return errors.WithStack(&ErrInvalidConfig{Field: "BackendOptions", Message: err.Error()})
	}
	return nil
}

// GranularityDecodeHook converts strings into validated Granularity values.
func GranularityDecodeHook() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(Daily) {
			return data, nil
		}
		return ParseGranularity(reflect.ValueOf(data).String())
	}
}
