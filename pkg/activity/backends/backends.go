// Package backends lists the backend kinds shipped with the tracker.
package backends

import (
	"github.com/armadaproject/activitytracker/pkg/activity"
	"github.com/armadaproject/activitytracker/pkg/activity/backends/membackend"
	"github.com/armadaproject/activitytracker/pkg/activity/backends/redisbackend"
)

type Kind string

const (
	Redis  Kind = "redis"
	Memory Kind = "memory"
)

var factories = map[Kind]activity.Factory{
	Redis:  redisbackend.Factory,
	Memory: membackend.Factory,
}

// NewRegistry returns a registry holding every built-in kind. Custom backends may be added
// with Register.
func NewRegistry() *activity.Registry {
	registry := activity.NewRegistry()
	for kind, factory := range factories {
		registry.MustRegister(string(kind), factory)
	}
	return registry
}

// NewTracker is activity.NewTracker using the built-in registry.
func NewTracker(cfg activity.TrackerConfig) (*activity.Tracker, error) {
	return activity.NewTracker(cfg, NewRegistry())
}
