package activity

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry()
	factory := func(map[string]interface{}) (Backend, error) { return &recordingBackend{}, nil }

	require.NoError(t, registry.Register("b", factory))
	require.NoError(t, registry.Register("a", factory))
	assert.Equal(t, []string{"a", "b"}, registry.Kinds())

	var e *ErrInvalidConfig
	assert.True(t, errors.As(registry.Register("a", factory), &e))
	assert.True(t, errors.As(registry.Register("", factory), &e))
	assert.True(t, errors.As(registry.Register("c", nil), &e))
	assert.Panics(t, func() { registry.MustRegister("a", factory) })
}

func TestRegistry_NewPropagatesFactoryErrors(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister("failing", func(map[string]interface{}) (Backend, error) {
		return nil, errors.New("no such host")
	})
	_, err := registry.New("failing", nil)
	assert.EqualError(t, err, "no such host")
}

type testOptions struct {
	Host    string
	Port    int
	Timeout time.Duration
	Periods []Granularity
}

func TestDecodeOptions(t *testing.T) {
	var opts testOptions
	err := DecodeOptions(map[string]interface{}{
		"host":    "redis.local",
		"port":    "6380",
		"timeout": "5s",
		"periods": "daily,monthly",
	}, &opts)
	require.NoError(t, err)
	assert.Equal(t, testOptions{
		Host:    "redis.local",
		Port:    6380,
		Timeout: 5 * time.Second,
		Periods: []Granularity{Daily, Monthly},
	}, opts)
}

func TestDecodeOptions_Errors(t *testing.T) {
	tests := map[string]map[string]interface{}{
		"unknown option":  {"hostname": "redis.local"},
		"wrong type":      {"port": "not-a-port"},
		"bad granularity": {"periods": []string{"weekly"}},
	}
	for name, options := range tests {
		t.Run(name, func(t *testing.T) {
			var opts testOptions
			err := DecodeOptions(options, &opts)
			var e *ErrInvalidConfig
			assert.True(t, errors.As(err, &e), "expected ErrInvalidConfig, got %v", err)
		})
	}
}
