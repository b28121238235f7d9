package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/armadaproject/activitytracker/internal/activityctl"
	"github.com/armadaproject/activitytracker/internal/common/logging"
	"github.com/armadaproject/activitytracker/internal/common/serve"
	"github.com/armadaproject/activitytracker/pkg/activity"
)

func collapseCmdWithApp(a *activityctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collapse",
		Short: "Convert raw activity of finished periods into counts.",
		Long: `Convert raw activity of finished periods into counts.

Periods are collapsed walking back from the one before --date until an already collapsed
period is found, or --max-periods have been collapsed. Run it regularly, e.g. from cron, or
pass --every to keep collapsing in a long-running process:

  activityctl collapse --bucket anon,staff --every 1h --metrics-port 9001`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, a)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			req := activity.CollapseRequest{}
			var err error
			if req.Shard, err = cmd.Flags().GetString("shard"); err != nil {
				return errors.WithStack(err)
			}
			if req.Date, err = getDate(cmd, "date"); err != nil {
				return err
			}
			if req.MaxPeriods, err = cmd.Flags().GetInt("max-periods"); err != nil {
				return errors.WithStack(err)
			}
			if req.Buckets, err = cmd.Flags().GetStringSlice("bucket"); err != nil {
				return errors.WithStack(err)
			}
			if all, _ := cmd.Flags().GetBool("all"); all {
				req.Buckets = append([]string{activity.NoBucket}, req.Buckets...)
			}
			aggregates, err := cmd.Flags().GetStringArray("aggregate")
			if err != nil {
				return errors.WithStack(err)
			}
			for _, value := range aggregates {
				aggregate, err := activityctl.ParseAggregate(value)
				if err != nil {
					return err
				}
				req.AggregateBuckets = append(req.AggregateBuckets, aggregate)
			}
			periods, err := getPeriods(cmd)
			if err != nil {
				return err
			}

			every, err := cmd.Flags().GetDuration("every")
			if err != nil {
				return errors.WithStack(err)
			}
			defer a.Close()
			if every == 0 {
				ctx, cancel := a.Context()
				defer cancel()
				return a.Collapse(ctx, periods, req)
			}

			logging.ConfigureLogging()
			if err := logging.SetLevel(a.Params.LogLevel); err != nil {
				return err
			}
			metricsPort, err := cmd.Flags().GetUint16("metrics-port")
			if err != nil {
				return errors.WithStack(err)
			}
			if metricsPort > 0 {
				shutdown, err := serve.ServeMetrics(metricsPort)
				if err != nil {
					return err
				}
				defer shutdown()
			}
			ctx, cancel := activityctl.InterruptContext()
			defer cancel()
			return a.CollapseEvery(ctx, every, periods, req)
		},
	}
	addShardFlag(cmd.Flags())
	addPeriodsFlag(cmd.Flags())
	addDateFlag(cmd.Flags(), "date", "A day after the periods to collapse. Defaults to today.")
	cmd.Flags().Int("max-periods", 1, "Maximum number of periods to collapse.")
	cmd.Flags().StringSlice("bucket", nil, "Buckets used when tracking.")
	cmd.Flags().Bool("all", false, "Also collapse activity tracked without a bucket.")
	cmd.Flags().StringArray("aggregate", nil, "Aggregate bucket counting the union of other buckets, as name=bucket1,bucket2. Repeatable.")
	cmd.Flags().Duration("every", 0, "Keep running and collapse again at this interval, e.g. 1h. Can't be combined with --date.")
	cmd.Flags().Uint16("metrics-port", 0, "With --every, serve prometheus metrics on this port.")
	return cmd
}
