package cmd

import (
	"github.com/spf13/cobra"

	"github.com/armadaproject/activitytracker/internal/activityctl"
)

func keyCmdWithApp(a *activityctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key KEY...",
		Short: "Describe store keys.",
		Long: `Describe store keys, e.g. ones found with redis-cli --scan --pattern 'active:*'.

Prints the period label, whether the key holds raw ids or a collapsed count, and the bucket.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.DescribeKeys(args)
		},
	}
	return cmd
}
