// Package configcmder provides the config command for managing persistent
// arbor configuration stored in the .arbor/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent arbor configuration.

Configuration is stored as config.toml in the .arbor/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  vault.dir,
  buffer.flush_threshold, buffer.similarity_threshold, buffer.history_multiplier,
  search.context_limit, search.node_limit,
  vector_store.provider, vector_store.target, vector_store.host,
  vector_store.port, vector_store.db_path,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  events.enabled, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  arbor config set <key> <value>    Set a configuration value
  arbor config get <key>            Get a configuration value
  arbor config list                 List all configuration values

Examples:
  arbor config set vault.dir ~/vaults/voice
  arbor config set embedding.model nomic-embed-text
  arbor config get vector_store.provider
  arbor config list`

const configShortDesc string = "Manage persistent arbor configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
