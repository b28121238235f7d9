package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/armadaproject/activitytracker/internal/activityctl"
	"github.com/armadaproject/activitytracker/pkg/activity"
)

func lookupCmdWithApp(a *activityctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Print collapsed activity counts.",
		Long: `Print collapsed activity counts for every period in [--start, --end).

Periods with no collapsed count are shown as 0. The current period is never included.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, a)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			req := activity.LookupRequest{}
			var err error
			if req.Shard, err = cmd.Flags().GetString("shard"); err != nil {
				return errors.WithStack(err)
			}
			if req.Start, err = getDate(cmd, "start"); err != nil {
				return err
			}
			if req.End, err = getDate(cmd, "end"); err != nil {
				return err
			}
			if req.Buckets, err = cmd.Flags().GetStringSlice("bucket"); err != nil {
				return errors.WithStack(err)
			}
			period, err := cmd.Flags().GetString("period")
			if err != nil {
				return errors.WithStack(err)
			}
			g, err := activity.ParseGranularity(period)
			if err != nil {
				return err
			}
			format, err := cmd.Flags().GetString("output")
			if err != nil {
				return errors.WithStack(err)
			}

			ctx, cancel := a.Context()
			defer cancel()
			defer a.Close()
			return a.Lookup(ctx, g, req, activityctl.OutputFormat(format))
		},
	}
	addShardFlag(cmd.Flags())
	addDateFlag(cmd.Flags(), "start", "A day in the first period to print. Defaults to 365 days before --end.")
	addDateFlag(cmd.Flags(), "end", "A day after the last period to print. Defaults to today.")
	cmd.Flags().String("period", string(activity.Daily), "Granularity to print, daily or monthly.")
	cmd.Flags().StringSlice("bucket", nil, "Buckets to print. Defaults to activity tracked without a bucket.")
	cmd.Flags().StringP("output", "o", string(activityctl.FormatTable), "Output format, table or csv.")
	return cmd
}
