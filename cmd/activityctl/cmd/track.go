package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/armadaproject/activitytracker/internal/activityctl"
	"github.com/armadaproject/activitytracker/pkg/activity"
)

func trackCmdWithApp(a *activityctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track [id]",
		Short: "Record activity of an entity.",
		Long: `Record activity of an entity in the current (or given) period.

Passing --old-id removes the entity from its old id and bucket, in the same batch as the
new id is added when one is given.`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, a)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			req := activity.TrackRequest{}
			if len(args) > 0 {
				req.ID = args[0]
			}
			var err error
			if req.Shard, err = cmd.Flags().GetString("shard"); err != nil {
				return errors.WithStack(err)
			}
			if req.Bucket, err = cmd.Flags().GetString("bucket"); err != nil {
				return errors.WithStack(err)
			}
			if req.OldID, err = cmd.Flags().GetString("old-id"); err != nil {
				return errors.WithStack(err)
			}
			if req.OldBucket, err = cmd.Flags().GetString("old-bucket"); err != nil {
				return errors.WithStack(err)
			}
			if req.Date, err = getDate(cmd, "date"); err != nil {
				return err
			}
			periods, err := getPeriods(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := a.Context()
			defer cancel()
			defer a.Close()
			return a.Track(ctx, periods, req)
		},
	}
	addShardFlag(cmd.Flags())
	addPeriodsFlag(cmd.Flags())
	addDateFlag(cmd.Flags(), "date", "Day of the activity. Defaults to today.")
	cmd.Flags().String("bucket", "", "Bucket the entity is active in, e.g. anon.")
	cmd.Flags().String("old-id", "", "Previous id of the entity, to remove.")
	cmd.Flags().String("old-bucket", "", "Bucket to remove the previous id from.")
	return cmd
}
