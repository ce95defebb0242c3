// Package synccmder provides the sync command for reconciling the
// vector index with the markdown vault.
package synccmder

import (
	"context"
	"fmt"
	"os"

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

type syncCommander struct {
	vaultDir string
	cfg      *config.Config

	debug  bool
	logger *zap.Logger
}

const syncLongDesc string = `Reconcile the vector index with the markdown vault.

The vault on disk is the source of truth. Sync re-embeds every node
artifact into the vector store and removes vectors whose nodes no
longer exist, so externally edited or deleted markdown files are
reflected in search.

Requires a reachable vector store and embedder.

Examples:
  arbor sync
  arbor sync --vault ~/vaults/talks`

const syncShortDesc string = "Reconcile the vector index with the vault"

func NewSyncCmd() *cobra.Command {
	cmder := &syncCommander{}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: syncShortDesc,
		Long:  syncLongDesc,
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
			cmder.cfg = cfg

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

			return cmder.run(cmd.Context())
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVar(&cmder.vaultDir, "vault", defaults.Vault.Dir, "Vault directory to sync")

	return cmd
}

func (c *syncCommander) run(ctx context.Context) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	fmt.Println()

	var store *tree.Store
	if err := cliui.Step(os.Stdout, "Loading vault", func() error {
		var err error
		store, err = vault.LoadStore(c.vaultDir, c.logger)
		return err
	}); err != nil {
		return fmt.Errorf("loading vault: %w", err)
	}

	indexer, closeIndexer, err := c.buildIndexer(store)
	if err != nil {
		return err
	}
	defer closeIndexer()

	if err := cliui.Step(os.Stdout, "Re-embedding vault nodes", func() error {
		return indexer.SyncAll(ctx)
	}); err != nil {
		return fmt.Errorf("re-embedding nodes: %w", err)
	}

	if err := cliui.Step(os.Stdout, "Pruning stale vectors", func() error {
		return indexer.ReconcileStale(ctx)
	}); err != nil {
		return fmt.Errorf("pruning stale vectors: %w", err)
	}

	fmt.Printf("\n  %s Index in step with %d vault nodes\n\n", cliui.SuccessMark, store.Len())
	return nil
}

func (c *syncCommander) buildIndexer(store *tree.Store) (*index.Manager, func(), error) {
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
		return nil, nil, fmt.Errorf("connecting vector store: %w", err)
	}

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: c.cfg.Embedding.Provider,
		TargetURL:    c.cfg.Embedding.Target,
		Model:        c.cfg.Embedding.Model,
	})
	if err != nil {
		_ = driver.Close()
		return nil, nil, fmt.Errorf("connecting embedder: %w", err)
	}

	cleanup := func() {
		_ = embedder.Close()
		_ = driver.Close()
	}
	return index.NewManager(index.Config{}, store, driver, embedder, c.logger), cleanup, nil
}
