package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/armadaproject/activitytracker/cmd/activityctl/cmd"
	"github.com/armadaproject/activitytracker/internal/common/logging"
)

func main() {
	logging.ConfigureCommandLineLogging()
	if err := cmd.RootCmd().Execute(); err != nil {
		// Cobra has already printed the error.
		logging.WithStacktrace(log.NewEntry(log.StandardLogger()), err).Debug("Command failed")
		os.Exit(1)
	}
}
