package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/activitytracker/internal/activityctl"
)

// run executes the CLI with a config pointing at mr and returns its output.
func run(t *testing.T, mr *miniredis.Miniredis, args ...string) (string, error) {
	home := t.TempDir()
	homedir.DisableCache = true
	t.Setenv("HOME", home)

	configFile := filepath.Join(home, "activityctl.yaml")
	contents := fmt.Sprintf("backend:\n  kind: redis\n  options:\n    redis:\n      addrs: [\"%s\"]\n", mr.Addr())
	require.NoError(t, os.WriteFile(configFile, []byte(contents), 0o600))

	buf := new(bytes.Buffer)
	app := activityctl.New()
	app.Out = buf
	cmd := rootCmdWithApp(app)
	cmd.SetArgs(append(args, "--config", configFile))
	cmd.SetOut(buf)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTrackCollapseLookup(t *testing.T) {
	mr := miniredis.RunT(t)

	out, err := run(t, mr, "track", "1", "--bucket", "anon", "--date", "2014-01-01")
	require.NoError(t, err)
	assert.Equal(t, "Tracked 1 in bucket anon\n", out)
	_, err = run(t, mr, "track", "2", "--bucket", "staff", "--date", "2014-01-01", "--period", "daily")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"active:daily-20140101:raw:anon",
		"active:daily-20140101:raw:staff",
		"active:monthly-201401:raw:anon",
	}, mr.Keys())

	out, err = run(t, mr, "collapse",
		"--bucket", "anon,staff",
		"--aggregate", "everyone=anon,staff",
		"--date", "2014-01-02",
		"--period", "daily",
	)
	require.NoError(t, err)
	assert.Equal(t, "Collapsed daily activity\n", out)

	out, err = run(t, mr, "lookup",
		"--bucket", "anon,staff,everyone",
		"--start", "2014-01-01",
		"--end", "2014-01-02",
		"-o", "csv",
	)
	require.NoError(t, err)
	assert.Equal(t, "date,anon,staff,everyone\n2014-01-01,1,1,2\n", strings.ToLower(out))
}

func TestCollapse_DefaultPeriodsFromConfig(t *testing.T) {
	mr := miniredis.RunT(t)
	_, err := mr.SetAdd("active:monthly-201312:raw", "1", "2")
	require.NoError(t, err)

	out, err := run(t, mr, "collapse", "--all", "--date", "2014-01-02")
	require.NoError(t, err)
	assert.Equal(t, "Collapsed daily activity\nCollapsed monthly activity\n", out)
	value, err := mr.Get("active:monthly-201312")
	require.NoError(t, err)
	assert.Equal(t, "2", value)
}

func TestInvalidArguments(t *testing.T) {
	mr := miniredis.RunT(t)
	tests := map[string][]string{
		"bad date":       {"track", "1", "--date", "01/01/2014"},
		"bad period":     {"track", "1", "--period", "weekly"},
		"bad aggregate":  {"collapse", "--aggregate", "everyone"},
		"bad output":     {"lookup", "-o", "xml"},
		"too many ids":   {"track", "1", "2"},
		"every and date": {"collapse", "--bucket", "anon", "--every", "1h", "--date", "2014-01-02"},
		"no keys":        {"key"},
		"bad key":        {"key", "temp:union:abc"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := run(t, mr, args...)
			assert.Error(t, err)
		})
	}
	assert.Empty(t, mr.Keys())
}

func TestVersion(t *testing.T) {
	out, err := run(t, miniredis.RunT(t), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:")
}

func TestKey(t *testing.T) {
	out, err := run(t, miniredis.RunT(t), "key", "active:daily-20140101:raw:anon", "active:monthly-201401")
	require.NoError(t, err)
	assert.Contains(t, out, "daily-20140101")
	assert.Contains(t, out, "anon")
	assert.Contains(t, out, "monthly-201401")
	assert.Contains(t, out, "count")
}
