package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/arborhq/arbor/pkg/tree"
)

// Synchronizer pulls external artifact edits back into the store. Only
// content and summary are absorbed; structure lives in the store and
// is not editable from disk.
type Synchronizer struct {
	dir    string
	store  *tree.Store
	logger *zap.Logger
}

func NewSynchronizer(dir string, store *tree.Store, logger *zap.Logger) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{dir: dir, store: store, logger: logger}
}

// SyncNodes reparses the artifacts for the given ids (all ids when
// none are given) and replaces content and summary in place where they
// drifted. Returns the ids that actually changed. Changed nodes are
// deliberately not pushed to the secondary index.
func (s *Synchronizer) SyncNodes(ids ...uint64) ([]uint64, error) {
	if len(ids) == 0 {
		ids = s.store.IDs()
	}

	var changed []uint64
	for _, id := range ids {
		node, err := s.store.Get(id)
		if err != nil {
			var nf *tree.NotFoundError
			if errors.As(err, &nf) {
				continue
			}
			return changed, err
		}

		path := filepath.Join(s.dir, node.Filename)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return changed, fmt.Errorf("reading artifact %q: %w", path, err)
		}
		info, err := os.Stat(path)
		if err != nil {
			return changed, fmt.Errorf("stating artifact %q: %w", path, err)
		}

		art, err := Parse(data, info.ModTime())
		if err != nil {
			s.logger.Warn("skipping malformed artifact during sync",
				zap.String("file", node.Filename), zap.Error(err))
			continue
		}

		if art.Node.Content == node.Content && art.Node.Summary == node.Summary {
			continue
		}
		if err := s.store.SetContentSummary(id, art.Node.Content, art.Node.Summary, info.ModTime()); err != nil {
			return changed, err
		}
		changed = append(changed, id)
		s.logger.Info("absorbed external edit",
			zap.Uint64("node_id", id),
			zap.String("file", node.Filename),
		)
	}
	return changed, nil
}

// DetectRemoved removes every node whose artifact has vanished from
// disk and returns their ids so callers can clean the secondary index.
func (s *Synchronizer) DetectRemoved() ([]uint64, error) {
	var removed []uint64
	for _, id := range s.store.IDs() {
		node, err := s.store.Get(id)
		if err != nil {
			continue
		}
		_, err = os.Stat(filepath.Join(s.dir, node.Filename))
		if errors.Is(err, fs.ErrNotExist) {
			if s.store.Remove(id) {
				removed = append(removed, id)
				s.logger.Info("node artifact deleted externally, removing node",
					zap.Uint64("node_id", id),
					zap.String("file", node.Filename),
				)
			}
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("stating artifact %q: %w", node.Filename, err)
		}
	}
	return removed, nil
}
