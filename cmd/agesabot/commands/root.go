// Package commands defines all Cobra CLI commands for the agesabot binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/agesalabs/agesabot-go/internal/audit"
	"github.com/agesalabs/agesabot-go/internal/config"
	"github.com/agesalabs/agesabot-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "agesabot",
		Short: "AgesaBot — AI shopping assistant for the Agesa cosmetics catalog",
		Long: `AgesaBot is a retrieval-augmented assistant for a Turkish cosmetics catalog.

Each query is classified and routed to the best answering strategy: a direct
SQL lookup against the product inventory, a semantic vector search over the
catalog, a general-knowledge answer, or a polite refusal for out-of-scope
topics. Answers are produced in Turkish.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.agesabot/config.yaml).
See 'agesabot --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.agesabot/config.yaml)")

	root.AddCommand(
		NewChatCmd(),
		NewServeCmd(),
		NewIngestCmd(),
		NewVersionCmd(),
	)

	return root
}
