package atcontext

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var defaultLogger = logrus.WithField("foo", "bar")

func TestNew(t *testing.T) {
	ctx := New(context.Background(), defaultLogger)
	require.Equal(t, defaultLogger, ctx.Log)
	require.Equal(t, context.Background(), ctx.Context)
}

func TestBackground(t *testing.T) {
	ctx := Background()
	require.Equal(t, ctx.Context, context.Background())
	require.NotNil(t, ctx.Log)
}

func TestWithLogField(t *testing.T) {
	ctx := WithLogField(Background(), "fish", "chips")
	require.Equal(t, context.Background(), ctx.Context)
	require.Equal(t, logrus.Fields{"fish": "chips"}, ctx.Log.Data)
}

func TestWithLogFields(t *testing.T) {
	ctx := WithLogFields(Background(), logrus.Fields{"fish": "chips", "salt": "pepper"})
	require.Equal(t, context.Background(), ctx.Context)
	require.Equal(t, logrus.Fields{"fish": "chips", "salt": "pepper"}, ctx.Log.Data)
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(Background(), 100*time.Millisecond)
	defer cancel()
	select {
	case <-time.After(5 * time.Second):
		t.Fatalf("context not timed out")
	case <-ctx.Done():
	}
	require.Equal(t, context.DeadlineExceeded, ctx.Err())
}

func TestWithCancel(t *testing.T) {
	ctx, cancel := WithCancel(Background())
	cancel()
	<-ctx.Done()
	require.Equal(t, context.Canceled, ctx.Err())
}

func TestLogger(t *testing.T) {
	ctx := New(context.Background(), defaultLogger)
	require.Equal(t, defaultLogger, Logger(ctx))

	// Plain contexts fall back to the standard logger.
	entry := Logger(context.Background())
	require.Equal(t, logrus.StandardLogger(), entry.Logger)
}
