package fsops

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/dirbuilder/internal/logfields"
)

// ErrUnsafeRemove is returned for paths that must never be wiped.
var ErrUnsafeRemove = errors.New("refusing to remove path")

// Remover deletes a directory tree.
type Remover interface {
	RemoveAll(path string) error
}

// OSRemover removes trees from the local filesystem.
type OSRemover struct{}

// RemoveAll deletes path and everything below it. A missing path is not an error.
func (OSRemover) RemoveAll(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", ErrUnsafeRemove)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	if abs == filepath.Dir(abs) {
		return fmt.Errorf("%w: %s is a filesystem root", ErrUnsafeRemove, abs)
	}
	if err := os.RemoveAll(abs); err != nil {
		return fmt.Errorf("remove %s: %w", abs, err)
	}
	slog.Debug("Removed destination tree", logfields.Path(abs))
	return nil
}
