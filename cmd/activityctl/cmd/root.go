package cmd

import (
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/armadaproject/activitytracker/internal/activityctl"
	"github.com/armadaproject/activitytracker/internal/common/config"
	"github.com/armadaproject/activitytracker/internal/common/logging"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	return rootCmdWithApp(activityctl.New())
}

func rootCmdWithApp(a *activityctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activityctl",
		Short: "activityctl records and reports unique-user activity stored in redis.",
		Long: `activityctl records and reports unique-user activity stored in redis.

Persistent config can be saved in a config file so it doesn't have to be specified every command.

Example structure:
periods: [daily, monthly]
backend:
  kind: redis
  options:
    redis:
      addrs: [localhost:6379]
      poolSize: 10

The location of this file can be passed in using the --config argument.
If not provided, $HOME/.activityctl/config.yaml is used. Any value can also be set with an
ACTIVITY_TRACKER_ prefixed environment variable, e.g. ACTIVITY_TRACKER_BACKEND_KIND.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "Config file to merge on top of the default one.")
	cmd.PersistentFlags().String("log-level", "", "Log level, e.g. debug or warn.")

	cmd.AddCommand(
		trackCmdWithApp(a),
		collapseCmdWithApp(a),
		lookupCmdWithApp(a),
		keyCmdWithApp(a),
		versionCmdWithApp(a),
	)

	return cmd
}

func versionCmdWithApp(a *activityctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Version()
		},
	}
	return cmd
}

func initParams(cmd *cobra.Command, a *activityctl.App) error {
	v := viper.New()
	v.SetDefault("periods", []string{"daily", "monthly"})
	v.SetDefault("backend.kind", "redis")
	v.SetDefault("timeout", "30s")
	if err := v.BindPFlag("logLevel", cmd.Flags().Lookup("log-level")); err != nil {
		return errors.WithStack(err)
	}

	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return errors.WithStack(err)
	}
	home, err := homedir.Dir()
	if err != nil {
		return errors.Wrap(err, "error getting user home directory")
	}
	if err := config.LoadConfig(v, a.Params, filepath.Join(home, ".activityctl"), configFile); err != nil {
		return err
	}
	return logging.SetLevel(a.Params.LogLevel)
}
