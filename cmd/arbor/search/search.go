// Package searchcmder provides the search command for ranking vault
// nodes against a query.
package searchcmder

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arborhq/arbor/pkg/cliui"
	"github.com/arborhq/arbor/pkg/config"
	embeddingutils "github.com/arborhq/arbor/pkg/embeddings/utils"
	"github.com/arborhq/arbor/pkg/index"
	"github.com/arborhq/arbor/pkg/logger"
	"github.com/arborhq/arbor/pkg/search"
	"github.com/arborhq/arbor/pkg/tree"
	"github.com/arborhq/arbor/pkg/utils"
	"github.com/arborhq/arbor/pkg/vault"
	vectorutils "github.com/arborhq/arbor/pkg/vector/utils"
)

const previewLen = 80

type searchCommander struct {
	query string
	limit int
	mode  string
	quiet bool

	vaultDir string
	cfg      *config.Config

	debug  bool
	logger *zap.Logger
}

const searchLongDesc string = `Rank vault nodes against a query.

Loads the markdown vault and scores every node against the query text.
The default hybrid mode blends a recency quota with vector and BM25
rankings fused by reciprocal rank; when the vector store or embedder is
unreachable it degrades to lexical scoring. The tfidf and bm25 modes
rank on a single lexical channel and show per-node scores.

Use --quiet to output only node ids, one per line, for piping.

Examples:
  arbor search "watering schedule"
  arbor search "error handling" --mode bm25 --limit 10
  arbor search "garden" --quiet`

const searchShortDesc string = "Rank vault nodes against a query"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
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
			if !cmd.Flags().Changed("limit") {
				cmder.limit = cfg.Search.NodeLimit
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context())
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().IntVarP(&cmder.limit, "limit", "k", defaults.Search.NodeLimit, "Number of results to return")
	cmd.Flags().StringVarP(&cmder.mode, "mode", "m", "hybrid", "Ranking mode (hybrid, tfidf, bm25)")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only node ids, one per line (for piping)")
	cmd.Flags().StringVar(&cmder.vaultDir, "vault", defaults.Vault.Dir, "Vault directory to search")

	return cmd
}

func (c *searchCommander) run(ctx context.Context) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	store, err := vault.LoadStore(c.vaultDir, c.logger)
	if err != nil {
		return fmt.Errorf("loading vault: %w", err)
	}

	vectors, closeVectors := c.buildVectors(store)
	defer closeVectors()
	engine := search.NewEngine(store, vectors, c.logger)

	switch c.mode {
	case "hybrid":
		ids := engine.SelectRelevantForQuery(ctx, c.query, c.limit)
		return c.printNodes(store, ids)
	case "tfidf":
		return c.printScored(store, engine.RankTFIDF(c.query, c.limit))
	case "bm25":
		return c.printScored(store, engine.RankBM25(c.query, c.limit))
	default:
		return fmt.Errorf("unknown ranking mode %q (available: hybrid, tfidf, bm25)", c.mode)
	}
}

// buildVectors wires the vector channel for hybrid mode. Lexical modes
// never touch the vector store; hybrid degrades without it.
func (c *searchCommander) buildVectors(store *tree.Store) (search.VectorSearcher, func()) {
	noop := func() {}
	if c.mode != "hybrid" {
		return nil, noop
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
		c.logger.Warn("vector store unavailable, ranking lexically", zap.Error(err))
		return nil, noop
	}

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: c.cfg.Embedding.Provider,
		TargetURL:    c.cfg.Embedding.Target,
		Model:        c.cfg.Embedding.Model,
	})
	if err != nil {
		c.logger.Warn("embedder unavailable, ranking lexically", zap.Error(err))
		_ = driver.Close()
		return nil, noop
	}

	cleanup := func() {
		_ = embedder.Close()
		_ = driver.Close()
	}
	return index.NewManager(index.Config{}, store, driver, embedder, c.logger), cleanup
}

func (c *searchCommander) printNodes(store *tree.Store, ids []uint64) error {
	if len(ids) == 0 {
		if !c.quiet {
			fmt.Println("No results found.")
		}
		return nil
	}

	if c.quiet {
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	}

	c.printHeader()
	for i, id := range ids {
		node, err := store.Get(id)
		if err != nil {
			continue
		}
		c.printResult(i+1, node, -1)
	}
	return nil
}

func (c *searchCommander) printScored(store *tree.Store, ranked []search.Scored) error {
	if len(ranked) == 0 {
		if !c.quiet {
			fmt.Println("No results found.")
		}
		return nil
	}

	if c.quiet {
		for _, s := range ranked {
			fmt.Println(s.ID)
		}
		return nil
	}

	c.printHeader()
	for i, s := range ranked {
		node, err := store.Get(s.ID)
		if err != nil {
			continue
		}
		c.printResult(i+1, node, s.Score)
	}
	return nil
}

func (c *searchCommander) printHeader() {
	fmt.Printf("\n%s %s\n\n",
		cliui.KeyStyle.Render("Search Results for:"),
		cliui.TitleStyle.Render(fmt.Sprintf("%q", c.query)),
	)
}

func (c *searchCommander) printResult(rank int, node tree.Node, score float64) {
	meta := fmt.Sprintf("node %d", node.ID)
	if score >= 0 {
		meta = fmt.Sprintf("score: %.4f  %s", score, meta)
	}

	fmt.Printf("  %s  %s  %s\n",
		cliui.RankStyle.Render(fmt.Sprintf("#%d", rank)),
		cliui.TitleStyle.Render(node.Title),
		cliui.ScoreStyle.Render(meta),
	)

	text := node.Summary
	if text == "" {
		text = node.Content
	}
	text = utils.Truncate(strings.ReplaceAll(text, "\n", " "), previewLen)
	if text != "" {
		fmt.Printf("      %s\n", cliui.PreviewStyle.Render(text))
	}
	fmt.Printf("      %s\n\n", cliui.DimStyle.Render(node.Filename))
}
