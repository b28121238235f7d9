package activity

import (
	"fmt"
)

// ErrInvalidArgument is returned when a caller supplies a value the tracker can't act on,
// e.g., an unknown period granularity.
// Message is optional and is omitted from the error message if not provided.
type ErrInvalidArgument struct {
	Name    string      // Name of the argument referred to, e.g., "granularity"
	Value   interface{} // The invalid value that was provided
	Message string      // An optional message explaining why the value is invalid
}

func (err *ErrInvalidArgument) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("value %q is invalid for argument %q", fmt.Sprint(err.Value), err.Name)
	} else {
		return fmt.Sprintf("value %q is invalid for argument %q; %s", fmt.Sprint(err.Value), err.Name, err.Message)
	}
}

// ErrNotFound is returned whenever some named resource, e.g., a shard, isn't known.
// Type and Message are optional and are omitted from the error message if not provided.
type ErrNotFound struct {
	Type    string
	Value   string
	Message string
}

func (err *ErrNotFound) Error() (s string) {
	if err.Type != "" {
		s = fmt.Sprintf("resource %q of type %q does not exist", err.Value, err.Type)
	} else {
		s = fmt.Sprintf("resource %q does not exist", err.Value)
	}
	if err.Message != "" {
		return s + fmt.Sprintf("; %s", err.Message)
	} else {
		return s
	}
}

// ErrInvalidConfig is returned when a tracker or backend can't be constructed from the supplied
// configuration. It is always returned before any call to the store is made.
type ErrInvalidConfig struct {
	Field   string // Configuration field at fault, e.g., "BackendKind"
	Message string
}

func (err *ErrInvalidConfig) Error() string {
	if err.Field == "" {
		return fmt.Sprintf("invalid configuration: %s", err.Message)
	}
	return fmt.Sprintf("invalid configuration for %s: %s", err.Field, err.Message)
}
