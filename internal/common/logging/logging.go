package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/weaveworks/promrus"
)

var prometheusHookOnce sync.Once

// ConfigureLogging sets up logging suitable for a long-running process embedding the tracker.
// Log lines are also counted per level in the log_messages prometheus metric.
func ConfigureLogging() {
	log.SetFormatter(&log.TextFormatter{ForceColors: true, FullTimestamp: true})
	log.SetOutput(os.Stdout)
	prometheusHookOnce.Do(func() {
		log.AddHook(promrus.MustNewPrometheusHook())
	})
}

// ConfigureCommandLineLogging sets up logging suitable for a command line tool: no
// timestamps, and output on stderr so command output on stdout stays clean.
func ConfigureCommandLineLogging() {
	ConfigureCommandLineLoggingTo(os.Stderr)
}

func ConfigureCommandLineLoggingTo(out io.Writer) {
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	log.SetOutput(out)
}

// SetLevel sets the level of the standard logger from a string such as "debug" or "INFO".
func SetLevel(level string) error {
	if level == "" {
		return nil
	}
	l, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return errors.WithStack(err)
	}
	log.SetLevel(l)
	return nil
}

// WithStacktrace returns an entry with the error and, if available, its stack trace attached.
func WithStacktrace(logger *log.Entry, err error) *log.Entry {
	logger = logger.WithError(err)
	if stackErr, ok := err.(stackTracer); ok {
		return logger.WithField("stacktrace", stackErr.StackTrace())
	}
	return logger
}

// Unexported but considered part of the stable interface of pkg/errors.
type stackTracer interface {
	StackTrace() errors.StackTrace
}
