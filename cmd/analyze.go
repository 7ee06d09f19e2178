package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/bidlens/bidlens-cli/api/schemas"
	"github.com/bidlens/bidlens-cli/internal/client"
	"github.com/bidlens/bidlens-cli/internal/observability"
	"github.com/bidlens/bidlens-cli/internal/reporting"
	"github.com/bidlens/bidlens-cli/internal/rules"
	"github.com/bidlens/bidlens-cli/internal/session"
)

// cliSink collects the single outcome of a submission and reports progress on
// stderr, keeping stdout clean for the rendered result.
type cliSink struct {
	done   chan struct{}
	result *schemas.AnalysisResult
	errMsg string
	failed bool
}

func newCLISink() *cliSink {
	return &cliSink{done: make(chan struct{})}
}

func (s *cliSink) OnProgress(message string) {
	fmt.Fprintln(os.Stderr, message)
}

func (s *cliSink) OnResult(result *schemas.AnalysisResult) {
	s.result = result
	close(s.done)
}

func (s *cliSink) OnError(message string) {
	s.failed = true
	s.errMsg = message
	close(s.done)
}

// newAnalyzeCmd creates and configures the `analyze` command.
func newAnalyzeCmd() *cobra.Command {
	analyzeCmd := &cobra.Command{
		Use:   "analyze [text...]",
		Short: "Submits text or a document for analysis and waits for the result",
		Long: `Submits raw text (as arguments) or a document file (--file) to the
analysis service, polls the job until it resolves and renders the normalized
result.`,
		Args: cobra.ArbitraryArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlag("report.format", cmd.Flags().Lookup("format")); err != nil {
				return err
			}
			if err := viper.BindPFlag("report.output", cmd.Flags().Lookup("output")); err != nil {
				return err
			}
			return viper.BindPFlag("poll.interval", cmd.Flags().Lookup("interval"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			// Re-unmarshal so the flag bindings from PreRunE take effect.
			if err := viper.Unmarshal(&cfg); err != nil {
				return fmt.Errorf("failed to apply flag overrides: %w", err)
			}

			filePath, _ := cmd.Flags().GetString("file")
			input, err := buildInput(args, filePath)
			if err != nil {
				return err
			}

			svc, err := client.New(client.Config{
				BaseURL:      cfg.Service.BaseURL,
				Timeout:      cfg.Service.Timeout,
				RateLimitRPS: cfg.Service.RateLimitRPS,
				Headers:      cfg.Service.Headers,
			}, logger.Named("client"))
			if err != nil {
				return fmt.Errorf("failed to initialize service client: %w", err)
			}

			// The rule catalog only enriches hit descriptions; a failed fetch
			// degrades to no enrichment.
			lookup := rules.NewCatalog(svc, logger.Named("rules")).Lookup(ctx)

			sink := newCLISink()
			controller := session.New(svc, sink, lookup, cfg.Poll.Interval, logger.Named("session"))
			controller.Submit(ctx, input)

			select {
			case <-ctx.Done():
				controller.Cancel()
				return fmt.Errorf("analysis aborted")
			case <-sink.done:
			}

			if sink.failed {
				logger.Error("analysis failed", zap.String("reason", sink.errMsg))
				return fmt.Errorf("%s", sink.errMsg)
			}

			reporter, err := reporting.New(cfg.Report.Format, cfg.Report.Output)
			if err != nil {
				return err
			}
			defer func() {
				if err := reporter.Close(); err != nil {
					logger.Warn("failed to close reporter", zap.Error(err))
				}
			}()
			return reporter.Write(sink.result)
		},
	}

	analyzeCmd.Flags().StringP("file", "F", "", "Path to a document file to analyze instead of raw text.")
	analyzeCmd.Flags().StringP("output", "o", "", "Output file path for the report. Defaults to stdout.")
	analyzeCmd.Flags().StringP("format", "f", "", "Report format ('table' or 'json'). (Overrides config/env)")
	analyzeCmd.Flags().Duration("interval", 0, "Poll interval between status checks. (Overrides config/env)")

	return analyzeCmd
}

// buildInput turns the command line into a submission input. Exactly one of
// text args or --file must be supplied.
func buildInput(args []string, filePath string) (schemas.Input, error) {
	text := strings.TrimSpace(strings.Join(args, " "))
	switch {
	case filePath != "" && text != "":
		return schemas.Input{}, fmt.Errorf("provide either text arguments or --file, not both")
	case filePath != "":
		if _, err := os.Stat(filePath); err != nil {
			return schemas.Input{}, fmt.Errorf("cannot read %s: %w", filePath, err)
		}
		return schemas.Input{FilePath: filePath}, nil
	case text != "":
		return schemas.Input{Text: text}, nil
	default:
		return schemas.Input{}, fmt.Errorf("nothing to analyze: pass text arguments or --file")
	}
}
