package activityctl

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/armadaproject/activitytracker/pkg/activity"
)

// DescribeKeys prints the period, type and bucket encoded in each store key.
func (a *App) DescribeKeys(keys []string) error {
	tableWriter := table.NewWriter()
	tableWriter.SetStyle(table.StyleLight)
	tableWriter.AppendHeader(table.Row{"Key", "Period", "Type", "Bucket"})
	for _, value := range keys {
		key, err := activity.ParseKey(value)
		if err != nil {
			return err
		}
		kind := "count"
		if key.Raw {
			kind = "raw"
		}
		tableWriter.AppendRow(table.Row{value, key.Label, kind, bucketName(key.Bucket)})
	}
	fmt.Fprintln(a.Out, tableWriter.Render())
	return nil
}
