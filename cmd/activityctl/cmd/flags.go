package cmd

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/armadaproject/activitytracker/internal/activityctl"
	"github.com/armadaproject/activitytracker/pkg/activity"
)

func addShardFlag(flags *pflag.FlagSet) {
	flags.String("shard", "", "Dataset to use. Defaults to the default shard.")
}

func addPeriodsFlag(flags *pflag.FlagSet) {
	flags.StringSlice("period", nil, "Granularities to use, daily and/or monthly. Defaults to the configured periods.")
}

func addDateFlag(flags *pflag.FlagSet, name string, usage string) {
	flags.String(name, "", usage+" Format YYYY-MM-DD.")
}

func getPeriods(cmd *cobra.Command) ([]activity.Granularity, error) {
	values, err := cmd.Flags().GetStringSlice("period")
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return activityctl.ParseGranularities(values)
}

func getDate(cmd *cobra.Command, name string) (time.Time, error) {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return time.Time{}, errors.WithStack(err)
	}
	return activityctl.ParseDate(name, value)
}
