// Package rmcmder provides the rm command for removing a node from the
// vault.
package rmcmder

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arborhq/arbor/pkg/cliui"
	"github.com/arborhq/arbor/pkg/config"
	embeddingutils "github.com/arborhq/arbor/pkg/embeddings/utils"
	"github.com/arborhq/arbor/pkg/index"
	"github.com/arborhq/arbor/pkg/logger"
	"github.com/arborhq/arbor/pkg/tree"
	"github.com/arborhq/arbor/pkg/vault"
	vectorutils "github.com/arborhq/arbor/pkg/vector/utils"
)

type rmCommander struct {
	id       uint64
	noIndex  bool
	vaultDir string
	cfg      *config.Config

	debug  bool
	logger *zap.Logger
}

const rmLongDesc string = `Remove a node from the vault.

Detaches the node from its parent, promotes its children to roots,
deletes the markdown artifact and prunes the node's vector from the
index. Children keep their own artifacts.

Use --no-index to skip the vector store for this run.

Examples:
  arbor rm 12
  arbor rm 12 --no-index`

const rmShortDesc string = "Remove a vault node"

func NewRmCmd() *cobra.Command {
	cmder := &rmCommander{}

	cmd := &cobra.Command{
		Use:   "rm <node-id>",
		Short: rmShortDesc,
		Long:  rmLongDesc,
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
			cmder.cfg = cfg

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

			return cmder.run(cmd.Context())
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().BoolVar(&cmder.noIndex, "no-index", false, "Skip vector index cleanup for this run")
	cmd.Flags().StringVar(&cmder.vaultDir, "vault", defaults.Vault.Dir, "Vault directory to remove from")

	return cmd
}

func (c *rmCommander) run(ctx context.Context) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	writer, err := vault.NewWriter(c.vaultDir, c.logger)
	if err != nil {
		return fmt.Errorf("opening vault: %w", err)
	}

	store, err := vault.LoadStore(c.vaultDir, c.logger)
	if err != nil {
		return fmt.Errorf("loading vault: %w", err)
	}

	node, err := store.Get(c.id)
	if err != nil {
		return err
	}

	if !store.Remove(c.id) {
		return &tree.NotFoundError{ID: c.id}
	}
	if err := writer.DeleteNode(node.Filename); err != nil {
		return err
	}
	c.pruneIndex(ctx, store)

	fmt.Printf("\n  %s Removed node %d (%s), %d children promoted to roots\n\n",
		cliui.SuccessMark, c.id, node.Title, len(node.Children))
	return nil
}

// pruneIndex drops the removed node's vector. Index cleanup never
// blocks a removal; failures only warn.
func (c *rmCommander) pruneIndex(ctx context.Context, store *tree.Store) {
	if c.noIndex {
		return
	}

	driver, err := vectorutils.NewVectorDriver(&vectorutils.NewVectorDriverOpts{
		ProviderType: c.cfg.VectorStore.Provider,
		TargetURL:    c.cfg.VectorStore.Target,
		Host:         c.cfg.VectorStore.Host,
		Port:         c.cfg.VectorStore.Port,
		DBPath:       c.cfg.VectorStore.DBPath,
		Dimensions:   c.cfg.Embedding.Dimensions,
		Logger:       c.logger,
	})
	if err != nil {
		c.logger.Warn("vector store unavailable, skipping index cleanup", zap.Error(err))
		return
	}
	defer func() { _ = driver.Close() }()

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: c.cfg.Embedding.Provider,
		TargetURL:    c.cfg.Embedding.Target,
		Model:        c.cfg.Embedding.Model,
	})
	if err != nil {
		c.logger.Warn("embedder unavailable, skipping index cleanup", zap.Error(err))
		return
	}
	defer func() { _ = embedder.Close() }()

	indexer := index.NewManager(index.Config{}, store, driver, embedder, c.logger)
	if err := indexer.Delete(ctx, c.id); err != nil {
		c.logger.Warn("pruning removed node from index failed", zap.Error(err))
	}
}
