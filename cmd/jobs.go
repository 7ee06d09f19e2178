package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/bidlens/bidlens-cli/api/schemas"
	"github.com/bidlens/bidlens-cli/internal/client"
	"github.com/bidlens/bidlens-cli/internal/observability"
)

// newJobsCmd creates the `jobs` command, listing the service's recent jobs.
func newJobsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "Lists recent analysis jobs on the service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := client.New(client.Config{
				BaseURL:      cfg.Service.BaseURL,
				Timeout:      cfg.Service.Timeout,
				RateLimitRPS: cfg.Service.RateLimitRPS,
				Headers:      cfg.Service.Headers,
			}, observability.GetLogger().Named("client"))
			if err != nil {
				return fmt.Errorf("failed to initialize service client: %w", err)
			}

			jobs, err := svc.ListJobs(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list jobs: %w", err)
			}
			if len(jobs) == 0 {
				fmt.Println("no jobs found")
				return nil
			}

			table := newListTable([]string{"JOB ID", "STATUS", "SOURCE", "FILENAME", "CREATED"})
			for _, job := range jobs {
				table.Append([]string{
					job.JobID,
					string(schemas.ParseJobStatus(job.Status)),
					job.Source,
					job.Filename,
					formatEpoch(job.CreatedAt),
				})
			}
			table.Render()
			return nil
		},
	}
}

// newListTable configures a borderless table for listing output.
func newListTable(headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers)
	return table
}

func formatEpoch(sec float64) string {
	if sec == 0 {
		return "-"
	}
	return time.Unix(int64(sec), 0).Format("2006-01-02 15:04:05")
}
