// Package recentcmder provides the recent command for listing the most
// recently modified vault nodes.
package recentcmder

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arborhq/arbor/pkg/cliui"
	"github.com/arborhq/arbor/pkg/config"
	"github.com/arborhq/arbor/pkg/logger"
	"github.com/arborhq/arbor/pkg/vault"
)

type recentCommander struct {
	limit    int
	quiet    bool
	vaultDir string

	debug  bool
	logger *zap.Logger
}

const recentLongDesc string = `List the most recently modified vault nodes.

Loads the markdown vault and shows the nodes ordered by modification
time, newest first. Use --quiet to output only node ids, one per line.

Examples:
  arbor recent
  arbor recent --limit 20
  arbor recent --quiet`

const recentShortDesc string = "List recently modified nodes"

func NewRecentCmd() *cobra.Command {
	cmder := &recentCommander{}

	cmd := &cobra.Command{
		Use:   "recent",
		Short: recentShortDesc,
		Long:  recentLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("vault") {
				cmder.vaultDir = cfg.Vault.Dir
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", 10, "Number of nodes to list")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only node ids, one per line (for piping)")
	cmd.Flags().StringVar(&cmder.vaultDir, "vault", defaults.Vault.Dir, "Vault directory to read")

	return cmd
}

func (c *recentCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	store, err := vault.LoadStore(c.vaultDir, c.logger)
	if err != nil {
		return fmt.Errorf("loading vault: %w", err)
	}

	ids := store.Recent(c.limit)
	if len(ids) == 0 {
		if !c.quiet {
			fmt.Println("The vault is empty.")
		}
		return nil
	}

	if c.quiet {
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	}

	fmt.Println()
	for _, id := range ids {
		node, err := store.Get(id)
		if err != nil {
			continue
		}
		fmt.Printf("  %s  %s  %s\n",
			cliui.DimStyle.Render(node.ModifiedAt.Format("2006-01-02 15:04")),
			cliui.TitleStyle.Render(node.Title),
			cliui.DimStyle.Render(fmt.Sprintf("(node %d, %s)", node.ID, node.Filename)),
		)
	}
	fmt.Println()

	return nil
}
