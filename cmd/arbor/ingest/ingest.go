// Package ingestcmder provides the ingest command: it streams transcript
// text through the processing loop into the markdown vault.
package ingestcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arborhq/arbor/pkg/buffer"
	"github.com/arborhq/arbor/pkg/cliui"
	"github.com/arborhq/arbor/pkg/config"
	"github.com/arborhq/arbor/pkg/dotdir"
	embeddingutils "github.com/arborhq/arbor/pkg/embeddings/utils"
	"github.com/arborhq/arbor/pkg/eventstream"
	"github.com/arborhq/arbor/pkg/eventstream/kafka"
	"github.com/arborhq/arbor/pkg/eventstream/nop"
	"github.com/arborhq/arbor/pkg/index"
	"github.com/arborhq/arbor/pkg/logger"
	"github.com/arborhq/arbor/pkg/pipeline"
	"github.com/arborhq/arbor/pkg/search"
	"github.com/arborhq/arbor/pkg/tree"
	"github.com/arborhq/arbor/pkg/vault"
	vectorutils "github.com/arborhq/arbor/pkg/vector/utils"
)

// ingestFlags is the registry of config-backed flags for this command.
// Effective values resolve through viper: flag > env > config file > default.
var ingestFlags = config.FlagSet{
	config.FlagVaultDir: {
		Name: "vault", ViperKey: "vault.dir",
		Description: "Vault directory to ingest into",
	},
	config.FlagFlushThreshold: {
		Name: "flush-threshold", ViperKey: "buffer.flush_threshold",
		Description: "Buffered characters that trigger a processing cycle",
	},
	config.FlagContextLimit: {
		Name: "context-limit", ViperKey: "search.context_limit",
		Description: "Nodes of forest context handed to the decision stage",
	},
	config.FlagVectorStoreProv: {
		Name: "vector-store-provider", ViperKey: "vector_store.provider",
		Description: "Vector store provider (sqlite, chroma, qdrant)",
	},
	config.FlagVectorStoreTgt: {
		Name: "vector-store-target", ViperKey: "vector_store.target",
		Description: "Vector store target URL",
	},
	config.FlagVectorStoreDB: {
		Name: "vector-store-db", ViperKey: "vector_store.db_path",
		Description: "SQLite vector database path",
	},
	config.FlagEmbeddingProv: {
		Name: "embedding-provider", ViperKey: "embedding.provider",
		Description: "Embedding provider (ollama)",
	},
	config.FlagEmbeddingTgt: {
		Name: "embedding-target", ViperKey: "embedding.target",
		Description: "Embedding provider URL",
	},
	config.FlagEmbeddingModel: {
		Name: "embedding-model", ViperKey: "embedding.model",
		Description: "Embedding model name",
	},
	config.FlagEmbeddingDims: {
		Name: "embedding-dimensions", ViperKey: "embedding.dimensions",
		Description: "Embedding vector dimensions",
	},
}

var ingestFlagKeys = []string{
	config.FlagVaultDir,
	config.FlagFlushThreshold,
	config.FlagContextLimit,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagVectorStoreDB,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
}

type ingestCommander struct {
	file    string
	fresh   bool
	noIndex bool

	vaultDir       string
	flushThreshold int
	similarity     float64
	historyMult    int
	contextLimit   int

	vectorProvider string
	vectorTarget   string
	vectorHost     string
	vectorPort     int
	vectorDBPath   string

	embedProvider string
	embedTarget   string
	embedModel    string
	embedDims     uint

	eventsEnabled bool
	eventBrokers  []string
	eventTopic    string

	configDir string
	debug     bool
	logger    *zap.Logger
}

const ingestLongDesc string = `Ingest transcript text into the knowledge vault.

Reads transcript fragments line by line from a file or stdin and feeds
them through the processing loop: fragments accumulate in the buffer,
ready chunks become node edits, and every applied edit is persisted to
the vault, queued for vector indexing and published as an edit event
when events are enabled.

Buffer state is saved to the .arbor/ directory between runs so an
interrupted stream resumes where it stopped. Use --fresh to discard
any saved state and start a new stream.

Examples:
  arbor ingest --file transcript.txt
  cat transcript.txt | arbor ingest
  arbor ingest --file talk.txt --vault ~/vaults/talks --fresh
  arbor ingest --file talk.txt --no-index`

const ingestShortDesc string = "Ingest transcript text into the vault"

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, ingestFlags, ingestFlagKeys)

			cmder.vaultDir = v.GetString("vault.dir")
			cmder.flushThreshold = v.GetInt("buffer.flush_threshold")
			cmder.similarity = v.GetFloat64("buffer.similarity_threshold")
			cmder.historyMult = v.GetInt("buffer.history_multiplier")
			cmder.contextLimit = v.GetInt("search.context_limit")

			cmder.vectorProvider = v.GetString("vector_store.provider")
			cmder.vectorTarget = v.GetString("vector_store.target")
			cmder.vectorHost = v.GetString("vector_store.host")
			cmder.vectorPort = v.GetInt("vector_store.port")
			cmder.vectorDBPath = v.GetString("vector_store.db_path")

			cmder.embedProvider = v.GetString("embedding.provider")
			cmder.embedTarget = v.GetString("embedding.target")
			cmder.embedModel = v.GetString("embedding.model")
			cmder.embedDims = v.GetUint("embedding.dimensions")

			cmder.eventsEnabled = v.GetBool("events.enabled")
			cmder.eventBrokers = v.GetStringSlice("events.brokers")
			cmder.eventTopic = v.GetString("events.topic")

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

	cmd.Flags().StringVarP(&cmder.file, "file", "f", "", "Transcript file to read (default: stdin)")
	cmd.Flags().BoolVar(&cmder.fresh, "fresh", false, "Discard saved session state and start a new stream")
	cmd.Flags().BoolVar(&cmder.noIndex, "no-index", false, "Skip vector indexing for this run")

	config.AddStringFlag(cmd, ingestFlags, config.FlagVaultDir, &cmder.vaultDir)
	config.AddIntFlag(cmd, ingestFlags, config.FlagFlushThreshold, &cmder.flushThreshold)
	config.AddIntFlag(cmd, ingestFlags, config.FlagContextLimit, &cmder.contextLimit)
	config.AddStringFlag(cmd, ingestFlags, config.FlagVectorStoreProv, &cmder.vectorProvider)
	config.AddStringFlag(cmd, ingestFlags, config.FlagVectorStoreTgt, &cmder.vectorTarget)
	config.AddStringFlag(cmd, ingestFlags, config.FlagVectorStoreDB, &cmder.vectorDBPath)
	config.AddStringFlag(cmd, ingestFlags, config.FlagEmbeddingProv, &cmder.embedProvider)
	config.AddStringFlag(cmd, ingestFlags, config.FlagEmbeddingTgt, &cmder.embedTarget)
	config.AddStringFlag(cmd, ingestFlags, config.FlagEmbeddingModel, &cmder.embedModel)
	config.AddUintFlag(cmd, ingestFlags, config.FlagEmbeddingDims, &cmder.embedDims)

	return cmd
}

func (c *ingestCommander) run(ctx context.Context) error {
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

	buf := buffer.New(buffer.Config{
		FlushThreshold:      c.flushThreshold,
		SimilarityThreshold: c.similarity,
		HistoryMultiplier:   c.historyMult,
	}, c.logger)

	ddm := dotdir.NewManager()
	if c.fresh {
		if err := ddm.ClearSession(c.configDir); err != nil {
			return fmt.Errorf("clearing session state: %w", err)
		}
	} else if err := c.restoreSession(ddm, buf); err != nil {
		return err
	}

	synchronizer := vault.NewSynchronizer(c.vaultDir, store, c.logger)
	watcher, err := vault.NewWatcher(c.vaultDir, c.logger)
	if err != nil {
		c.logger.Warn("vault watch unavailable, external edits absorbed on next run", zap.Error(err))
		watcher = nil
	} else {
		defer func() { _ = watcher.Close() }()
	}

	indexer, closeIndexer := c.buildIndexer(store)
	defer closeIndexer()

	var vectors search.VectorSearcher
	if indexer != nil {
		vectors = indexer
	}
	engine := search.NewEngine(store, vectors, c.logger)

	events, err := c.buildPublisher()
	if err != nil {
		return err
	}
	defer func() { _ = events.Close() }()

	host, _ := os.Hostname()
	deps := pipeline.Deps{
		Buffer:   buf,
		Store:    store,
		Stage:    pipeline.NewChunkStage(),
		Writer:   writer,
		Selector: engine,
		Events:   events,
		Logger:   c.logger,
	}
	if indexer != nil {
		deps.Indexer = indexer
	}

	pipe, err := pipeline.New(pipeline.Config{
		ContextLimit: c.contextLimit,
		Source:       eventstream.EventSource{Vault: c.vaultDir, Host: host},
	}, deps)
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}

	in, closeIn, err := c.openInput()
	if err != nil {
		return err
	}
	defer closeIn()

	fragments := 0
	touched := map[uint64]struct{}{}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fragments++
		c.absorbExternal(ctx, watcher, synchronizer, store, indexer)
		ids, err := pipe.Process(ctx, scanner.Text())
		for _, id := range ids {
			touched[id] = struct{}{}
		}
		if err != nil {
			return fmt.Errorf("processing fragment %d: %w", fragments, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading transcript: %w", err)
	}
	c.absorbExternal(ctx, watcher, synchronizer, store, indexer)

	if err := pipe.Finalize(ctx); err != nil {
		c.logger.Warn("flushing index failed", zap.Error(err))
	}

	if err := c.saveSession(ddm, buf); err != nil {
		return err
	}

	fmt.Printf("\n  %s Ingested %d fragments, touched %d nodes (%d in vault)\n\n",
		cliui.SuccessMark, fragments, len(touched), store.Len())
	return nil
}

// absorbExternal folds filesystem activity in the vault back into the
// store so edits and deletions made alongside a running ingest are not
// overwritten or resurrected. Best effort; failures only warn.
func (c *ingestCommander) absorbExternal(ctx context.Context, watcher *vault.Watcher, synchronizer *vault.Synchronizer, store *tree.Store, indexer *index.Manager) {
	if watcher == nil {
		return
	}
	dirty, removed := watcher.Drain()

	var dirtyIDs []uint64
	for _, name := range dirty {
		if id, ok := store.IDForFilename(name); ok {
			dirtyIDs = append(dirtyIDs, id)
		}
	}
	if len(dirtyIDs) > 0 {
		if _, err := synchronizer.SyncNodes(dirtyIDs...); err != nil {
			c.logger.Warn("absorbing external edits failed", zap.Error(err))
		}
	}

	if len(removed) == 0 {
		return
	}
	removedIDs, err := synchronizer.DetectRemoved()
	if err != nil {
		c.logger.Warn("detecting removed artifacts failed", zap.Error(err))
	}
	if indexer != nil && len(removedIDs) > 0 {
		if err := indexer.Delete(ctx, removedIDs...); err != nil {
			c.logger.Warn("pruning removed nodes from index failed", zap.Error(err))
		}
	}
}

// restoreSession re-feeds saved buffer state so the stream resumes
// where the previous run stopped. State saved for a different vault is
// left alone.
func (c *ingestCommander) restoreSession(ddm *dotdir.Manager, buf *buffer.Buffer) error {
	state, err := ddm.LoadSessionState(c.configDir)
	if err != nil {
		return fmt.Errorf("loading session state: %w", err)
	}
	if state == nil {
		return nil
	}
	if state.VaultDir != "" && state.VaultDir != c.vaultDir {
		c.logger.Warn("saved session belongs to a different vault, ignoring",
			zap.String("session_vault", state.VaultDir),
			zap.String("vault", c.vaultDir))
		return nil
	}

	buf.AddText(state.Buffer)
	buf.SetCarry(state.Carry)
	return nil
}

// saveSession persists leftover buffer text for the next run, or
// clears the session when the stream was fully consumed.
func (c *ingestCommander) saveSession(ddm *dotdir.Manager, buf *buffer.Buffer) error {
	pending := buf.Pending()
	carry := buf.Carry()
	if pending == "" && carry == "" {
		if err := ddm.ClearSession(c.configDir); err != nil {
			return fmt.Errorf("clearing session state: %w", err)
		}
		return nil
	}

	state := &dotdir.SessionState{
		Buffer:   pending,
		Carry:    carry,
		VaultDir: c.vaultDir,
	}
	if err := ddm.SaveSession(state, c.configDir); err != nil {
		return fmt.Errorf("saving session state: %w", err)
	}
	return nil
}

// buildIndexer wires the vector store and embedder into an index
// manager. Indexing is optional: any setup failure logs a warning and
// ingestion proceeds without it.
func (c *ingestCommander) buildIndexer(store *tree.Store) (*index.Manager, func()) {
	noop := func() {}
	if c.noIndex {
		return nil, noop
	}

	driver, err := vectorutils.NewVectorDriver(&vectorutils.NewVectorDriverOpts{
		ProviderType: c.vectorProvider,
		TargetURL:    c.vectorTarget,
		Host:         c.vectorHost,
		Port:         c.vectorPort,
		DBPath:       c.vectorDBPath,
		Dimensions:   c.embedDims,
		Logger:       c.logger,
	})
	if err != nil {
		c.logger.Warn("vector store unavailable, ingesting without index", zap.Error(err))
		return nil, noop
	}

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: c.embedProvider,
		TargetURL:    c.embedTarget,
		Model:        c.embedModel,
	})
	if err != nil {
		c.logger.Warn("embedder unavailable, ingesting without index", zap.Error(err))
		_ = driver.Close()
		return nil, noop
	}

	cleanup := func() {
		_ = embedder.Close()
		_ = driver.Close()
	}
	return index.NewManager(index.Config{}, store, driver, embedder, c.logger), cleanup
}

func (c *ingestCommander) buildPublisher() (eventstream.Publisher, error) {
	if !c.eventsEnabled {
		return nop.NewPublisher(), nil
	}

	pub, err := kafka.NewPublisher(kafka.Config{
		Brokers: c.eventBrokers,
		Topic:   c.eventTopic,
	}, c.logger)
	if err != nil {
		return nil, fmt.Errorf("connecting edit event publisher: %w", err)
	}
	return pub, nil
}

func (c *ingestCommander) openInput() (io.Reader, func(), error) {
	if c.file == "" {
		return os.Stdin, func() {}, nil
	}

	f, err := os.Open(c.file)
	if err != nil {
		return nil, nil, fmt.Errorf("opening transcript file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
