// File: internal/reporting/table.go
package reporting

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/bidlens/bidlens-cli/api/schemas"
)

var (
	bold   = color.New(color.Bold).SprintFunc()
	red    = color.New(color.FgHiRed).SprintFunc()
	yellow = color.New(color.FgHiYellow).SprintFunc()
	cyan   = color.New(color.FgHiCyan).SprintFunc()
	green  = color.New(color.FgHiGreen).SprintFunc()
)

// severityColor colors a severity label by its code.
func severityColor(sev schemas.Severity, label string) string {
	switch sev {
	case schemas.SeverityCritical:
		return red(label)
	case schemas.SeverityHigh:
		return yellow(label)
	case schemas.SeverityMedium:
		return cyan(label)
	case schemas.SeverityLow:
		return green(label)
	default:
		return label
	}
}

// tableReporter renders results as human-readable terminal tables, one per
// category, preceded by the summary.
type tableReporter struct {
	writer io.WriteCloser
}

// NewTableReporter creates a table reporter. It takes ownership of the writer.
func NewTableReporter(writer io.WriteCloser) Reporter {
	return &tableReporter{writer: writer}
}

func (r *tableReporter) Write(result *schemas.AnalysisResult) error {
	if result == nil || result.Empty() {
		fmt.Fprintln(r.writer, "未发现任何风险点。")
		return nil
	}

	if result.SummaryText != nil {
		fmt.Fprintf(r.writer, "%s\n%s\n\n", bold("摘要"), *result.SummaryText)
	}

	if len(result.SummaryCounts) > 0 {
		summary := r.newTable([]string{"类别", "条数"})
		// Counts follow category order so the summary lines up with the
		// detail tables below it.
		seen := map[string]bool{}
		for _, cat := range result.Categories {
			if n, ok := result.SummaryCounts[cat.Name]; ok {
				summary.Append([]string{cat.Name, fmt.Sprintf("%d", n)})
				seen[cat.Name] = true
			}
		}
		for name, n := range result.SummaryCounts {
			if !seen[name] {
				summary.Append([]string{name, fmt.Sprintf("%d", n)})
			}
		}
		summary.Render()
		fmt.Fprintln(r.writer)
	}

	for _, cat := range result.Categories {
		fmt.Fprintf(r.writer, "%s (%d)\n", bold(cat.Name), len(cat.Hits))
		table := r.newTable([]string{"级别", "标题", "说明", "依据", "建议"})
		for _, hit := range cat.Hits {
			table.Append([]string{
				severityColor(hit.Severity, hit.SeverityLabel),
				deref(hit.Title),
				deref(hit.Description),
				deref(hit.Evidence),
				deref(hit.Recommendation),
			})
		}
		table.Render()
		fmt.Fprintln(r.writer)
	}
	return nil
}

func (r *tableReporter) Close() error { return r.writer.Close() }

func (r *tableReporter) newTable(headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(r.writer,
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

func deref(p *string) string {
	if p == nil {
		return "-"
	}
	return *p
}
