// leadctl is the command-line companion to the lead API: it walks the intake
// form, lists captured leads and manages admin credentials.
//
// Usage:
//
//	leadctl intake [--file brief.yaml] [--landing-url <url>]
//	leadctl login --username admin --password <pw>
//	leadctl leads list [--json]
//	leadctl leads get <id>
//	leadctl token [--subject admin]
//	leadctl hash-password [password]
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hoclconnect/leads/internal/config"
	"github.com/hoclconnect/leads/internal/infra/observability"
)

// version is set at build time via -ldflags.
var version = "dev"

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	apiURL   string
	token    string
	timeout  time.Duration
	logLevel string

	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:           "leadctl",
		Short:         "Submit and review HOCl partner-matching leads",
		Long:          "leadctl drives the five-step intake form against the lead API\nand gives admins read access to captured leads.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(".env"); err != nil {
				return fmt.Errorf("load .env: %w", err)
			}
			g.logger = observability.NewLogger(g.logLevel)
			return nil
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&g.apiURL, "api", envOr("LEADCTL_API_URL", "http://localhost:3001"), "Lead API base URL")
	f.StringVar(&g.token, "token", os.Getenv("LEADCTL_TOKEN"), "Admin bearer token")
	f.DurationVar(&g.timeout, "timeout", 15*time.Second, "Request timeout")
	f.StringVar(&g.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(newIntakeCmd(g))
	root.AddCommand(newLoginCmd(g))
	root.AddCommand(newLeadsCmd(g))
	root.AddCommand(newTokenCmd(g))
	root.AddCommand(newHashPasswordCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
