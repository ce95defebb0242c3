package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/arborhq/arbor/pkg/tree"
)

// Load reads every markdown artifact in dir and reconstructs the
// forest in two passes: parse all files, then resolve parent links by
// filename. Unparseable files are logged and skipped rather than
// failing the whole load.
func Load(dir string, logger *zap.Logger) ([]tree.Node, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading vault directory %q: %w", dir, err)
	}

	// Pass one: parse every artifact.
	artifacts := make(map[uint64]*Artifact)
	byFilename := make(map[string]uint64)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable artifact", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stating artifact %q: %w", path, err)
		}
		art, err := Parse(data, info.ModTime())
		if err != nil {
			logger.Warn("skipping malformed artifact", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		if _, dup := artifacts[art.Node.ID]; dup {
			logger.Warn("skipping duplicate node id", zap.Uint64("node_id", art.Node.ID), zap.String("file", entry.Name()))
			continue
		}
		art.Node.Filename = entry.Name()
		artifacts[art.Node.ID] = &art
		byFilename[entry.Name()] = art.Node.ID
	}

	// Pass two: resolve parent links, ascending id so child ordering
	// is deterministic.
	ids := make([]uint64, 0, len(artifacts))
	for id := range artifacts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		art := artifacts[id]
		if art.ParentFilename == "" {
			continue
		}
		parentID, ok := byFilename[art.ParentFilename]
		if !ok {
			logger.Warn("parent artifact missing, keeping node as root",
				zap.Uint64("node_id", id),
				zap.String("parent_file", art.ParentFilename),
			)
			continue
		}
		pid := parentID
		art.Node.ParentID = &pid
		art.Node.Relationships = map[uint64]string{pid: art.ParentRel}
		parent := artifacts[parentID]
		parent.Node.Children = append(parent.Node.Children, id)
	}

	nodes := make([]tree.Node, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, artifacts[id].Node)
	}
	logger.Info("loaded vault", zap.String("dir", dir), zap.Int("nodes", len(nodes)))
	return nodes, nil
}

// LoadStore is a convenience wrapper that loads dir straight into a
// fresh store.
func LoadStore(dir string, logger *zap.Logger) (*tree.Store, error) {
	nodes, err := Load(dir, logger)
	if err != nil {
		return nil, err
	}
	store := tree.NewStore(logger)
	store.Restore(nodes)
	return store, nil
}
