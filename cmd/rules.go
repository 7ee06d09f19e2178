package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bidlens/bidlens-cli/api/schemas"
	"github.com/bidlens/bidlens-cli/internal/client"
	"github.com/bidlens/bidlens-cli/internal/observability"
)

// newRulesCmd creates the `rules` command, listing the service's rule catalog.
func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Lists the service's analysis rule catalog",
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

			ruleList, err := svc.Rules(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch rule catalog: %w", err)
			}
			if len(ruleList) == 0 {
				fmt.Println("the service exposes no rules")
				return nil
			}

			table := newListTable([]string{"ID", "CATEGORY", "SEVERITY", "MATCH", "DESCRIPTION"})
			for _, rule := range ruleList {
				cls := schemas.Classify(rule.Severity)
				table.Append([]string{
					rule.ID,
					rule.Category,
					cls.Label,
					rule.MatchType,
					truncate(rule.Description, 60),
				})
			}
			table.Render()
			return nil
		},
	}
}

func truncate(s string, max int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max]) + "…"
}
