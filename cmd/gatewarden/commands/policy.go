package commands

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gatewarden/gatewarden/internal/cli/output"
	"github.com/gatewarden/gatewarden/pkg/authz"
	"github.com/gatewarden/gatewarden/pkg/config"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Print the access rule table",
	Long: `Print the access rule table the server enforces, in evaluation order.

Rules are matched first to last against the request path. Public rules
are listed first because the server always evaluates them ahead of
role-gated ones. Extra public paths from the configuration are included.
Paths matching no rule require authentication but no particular role.`,
	RunE: runPolicy,
}

func runPolicy(cmd *cobra.Command, args []string) error {
	// Secrets are irrelevant to the rule table, so skip validation and
	// print the same rules serve would enforce with this configuration.
	cfg, err := config.LoadUnvalidated(GetConfigFile())
	if err != nil {
		return err
	}

	rules := authz.DefaultRules()
	for _, path := range cfg.PublicPaths {
		rules = append(rules, authz.AccessRule{Pattern: path, Public: true})
	}
	matcher := authz.NewMatcher(rules)

	table := output.NewTableData("PATTERN", "ACCESS", "ROLES")

	for _, rule := range matcher.Rules() {
		access := "role-gated"
		roles := make([]string, 0, len(rule.Required))
		for _, role := range rule.Required {
			roles = append(roles, string(role))
		}
		if rule.Public {
			access = "public"
		}
		table.AddRow(rule.Pattern, access, strings.Join(roles, ", "))
	}
	table.AddRow("(any other)", "authenticated", "")

	return output.PrintTable(os.Stdout, table)
}
