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

// Writer owns a vault directory and materializes nodes as markdown
// artifacts inside it.
type Writer struct {
	dir    string
	logger *zap.Logger
}

func NewWriter(dir string, logger *zap.Logger) (*Writer, error) {
	if dir == "" {
		return nil, fmt.Errorf("vault directory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating vault directory %q: %w", dir, err)
	}
	return &Writer{dir: dir, logger: logger}, nil
}

// Dir returns the vault directory path.
func (w *Writer) Dir() string {
	return w.dir
}

// WriteNode renders the node and writes its artifact. parentFilename
// is empty for roots.
func (w *Writer) WriteNode(node tree.Node, parentFilename string) error {
	data, err := Render(node, parentFilename)
	if err != nil {
		return err
	}
	path := filepath.Join(w.dir, node.Filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing artifact %q: %w", path, err)
	}
	w.logger.Debug("wrote artifact",
		zap.Uint64("node_id", node.ID),
		zap.String("file", node.Filename),
	)
	return nil
}

// DeleteNode removes a node's artifact. A file that is already gone is
// logged and treated as success.
func (w *Writer) DeleteNode(filename string) error {
	path := filepath.Join(w.dir, filename)
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		w.logger.Warn("artifact already deleted", zap.String("file", filename))
		return nil
	}
	if err != nil {
		return fmt.Errorf("deleting artifact %q: %w", path, err)
	}
	w.logger.Debug("deleted artifact", zap.String("file", filename))
	return nil
}
