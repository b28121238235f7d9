package activityctl

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"

	"github.com/armadaproject/activitytracker/internal/common/atcontext"
	"github.com/armadaproject/activitytracker/pkg/activity"
)

type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatCSV   OutputFormat = "csv"
)

// Lookup prints the counts of every g period in the requested range, oldest first.
func (a *App) Lookup(ctx *atcontext.Context, g activity.Granularity, req activity.LookupRequest, format OutputFormat) error {
	if format != FormatTable && format != FormatCSV {
		return errors.WithStack(&activity.ErrInvalidArgument{
			Name:    "format",
			Value:   format,
			Message: fmt.Sprintf("must be %s or %s", FormatTable, FormatCSV),
		})
	}
	tracker, err := a.Tracker()
	if err != nil {
		return err
	}
	entries, err := tracker.Lookup(ctx, g, req)
	if err != nil {
		return err
	}

	buckets := req.Buckets
	if len(buckets) == 0 {
		buckets = []string{activity.NoBucket}
	}
	tableWriter := table.NewWriter()
	tableWriter.SetStyle(table.StyleLight)
	header := table.Row{"Date"}
	for _, bucket := range buckets {
		header = append(header, bucketName(bucket))
	}
	tableWriter.AppendHeader(header)
	for _, entry := range entries {
		row := table.Row{entry.Date.Format(DateLayout)}
		for _, bucket := range buckets {
			row = append(row, entry.Counts[bucket])
		}
		tableWriter.AppendRow(row)
	}

	switch format {
	case FormatCSV:
		fmt.Fprintln(a.Out, tableWriter.RenderCSV())
	default:
		fmt.Fprintln(a.Out, tableWriter.Render())
	}
	return nil
}
