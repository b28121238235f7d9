package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/activitytracker/pkg/activity"
)

type testConfig struct {
	Periods []activity.Granularity `validate:"required"`
	Timeout time.Duration
	Addrs   []string `validate:"required,dive,hostname_port"`
	Name    string
}

func writeFile(t *testing.T, path string, contents string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.yaml"), "periods: [daily]\ntimeout: 10s\naddrs: localhost:6379,localhost:6380\nname: default\n")
	override := filepath.Join(dir, "override", "activity.yaml")
	writeFile(t, override, "name: override\n")
	t.Setenv("ACTIVITY_TRACKER_TIMEOUT", "1m")

	var config testConfig
	require.NoError(t, LoadConfig(viper.New(), &config, dir, override, ""))
	assert.Equal(t, testConfig{
		Periods: []activity.Granularity{activity.Daily},
		Timeout: time.Minute,
		Addrs:   []string{"localhost:6379", "localhost:6380"},
		Name:    "override",
	}, config)
	assert.NoError(t, Validate(config))
}

func TestLoadConfig_MissingDefaultIsFine(t *testing.T) {
	v := viper.New()
	v.SetDefault("periods", []string{"monthly"})
	var config testConfig
	require.NoError(t, LoadConfig(v, &config, t.TempDir()))
	assert.Equal(t, []activity.Granularity{activity.Monthly}, config.Periods)
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()
	var config testConfig
	assert.Error(t, LoadConfig(viper.New(), &config, dir, filepath.Join(dir, "missing.yaml")))

	writeFile(t, filepath.Join(dir, "config.yaml"), "periods: [weekly]\n")
	assert.Error(t, LoadConfig(viper.New(), &config, dir))
}

func TestValidate(t *testing.T) {
	err := Validate(testConfig{Addrs: []string{"not an address"}})
	require.Error(t, err)
	LogValidationErrors(err)
}
