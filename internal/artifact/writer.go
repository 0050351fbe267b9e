// Package artifact persists generated update scripts.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Filename is the fixed name of the generated script in the project root
const Filename = "update.sh"

const scriptMode os.FileMode = 0755

// ErrWriteFailed wraps any filesystem error raised while saving the script
var ErrWriteFailed = errors.New("failed to write update script")

// Artifact is an extracted script and where it goes
type Artifact struct {
	Script string
	Path   string
}

// New returns the artifact for projectRoot
func New(projectRoot, script string) Artifact {
	return Artifact{Script: script, Path: filepath.Join(projectRoot, Filename)}
}

// Writer overwrites update.sh. It never creates missing directories.
type Writer struct {
	logger *zap.Logger
}

// NewWriter creates a writer
func NewWriter(logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{logger: logger.Named("artifact")}
}

// Write replaces the file at a.Path with a.Script and marks it executable
func (w *Writer) Write(a Artifact) error {
	if a.Path == "" {
		return fmt.Errorf("%w: empty path", ErrWriteFailed)
	}

	if err := os.WriteFile(a.Path, []byte(a.Script), scriptMode); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	// WriteFile keeps the old mode of an existing file
	if err := os.Chmod(a.Path, scriptMode); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	w.logger.Info("saved update script", zap.String("path", a.Path), zap.Int("bytes", len(a.Script)))
	return nil
}
