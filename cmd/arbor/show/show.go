// Package showcmder provides the show command for displaying a single
// vault node.
package showcmder

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arborhq/arbor/pkg/cliui"
	"github.com/arborhq/arbor/pkg/config"
	"github.com/arborhq/arbor/pkg/logger"
	"github.com/arborhq/arbor/pkg/tree"
	"github.com/arborhq/arbor/pkg/utils"
	"github.com/arborhq/arbor/pkg/vault"
)

const (
	neighborLimit     = 30
	summaryPreviewLen = 80
)

type showCommander struct {
	id       uint64
	raw      bool
	vaultDir string

	debug  bool
	logger *zap.Logger
}

const showLongDesc string = `Show a single vault node.

Renders the node's markdown artifact for the terminal and lists its
neighbors (parent and children with their relationship labels). Use
--raw to print the artifact bytes unrendered.

Examples:
  arbor show 12
  arbor show 12 --raw`

const showShortDesc string = "Show a vault node"

func NewShowCmd() *cobra.Command {
	cmder := &showCommander{}

	cmd := &cobra.Command{
		Use:   "show <node-id>",
		Short: showShortDesc,
		Long:  showLongDesc,
		Args:  cobra.ExactArgs(1),
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
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid node id %q: %w", args[0], err)
			}
			cmder.id = id

			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print the raw markdown artifact")
	cmd.Flags().StringVar(&cmder.vaultDir, "vault", defaults.Vault.Dir, "Vault directory to read")

	return cmd
}

func (c *showCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	store, err := vault.LoadStore(c.vaultDir, c.logger)
	if err != nil {
		return fmt.Errorf("loading vault: %w", err)
	}

	node, err := store.Get(c.id)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(filepath.Join(c.vaultDir, node.Filename))
	if err != nil {
		return fmt.Errorf("reading artifact %q: %w", node.Filename, err)
	}

	if c.raw {
		fmt.Print(string(data))
		return nil
	}

	rendered, err := cliui.RenderMarkdown(string(data))
	if err != nil {
		// Fall back to the raw artifact when the renderer chokes.
		rendered = string(data)
	}
	fmt.Print(rendered)

	neighbors, err := store.Neighbors(c.id, neighborLimit)
	if err != nil {
		return err
	}
	if len(neighbors) > 0 {
		fmt.Printf("  %s\n", cliui.KeyStyle.Render("Neighbors:"))
		for _, n := range neighbors {
			c.printNeighbor(n)
		}
		fmt.Println()
	}

	return nil
}

func (c *showCommander) printNeighbor(n tree.Neighbor) {
	label := n.Relationship
	if n.IsParent {
		label = "parent, " + label
	}
	fmt.Printf("    %s %s %s\n",
		cliui.TitleStyle.Render(n.Title),
		cliui.DimStyle.Render(fmt.Sprintf("(node %d)", n.ID)),
		cliui.DimStyle.Render("["+label+"]"),
	)
	if n.Summary != "" {
		fmt.Printf("      %s\n", cliui.PreviewStyle.Render(utils.Truncate(n.Summary, summaryPreviewLen)))
	}
}
