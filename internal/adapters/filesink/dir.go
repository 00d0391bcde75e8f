// Package filesink stores downloaded files on the local filesystem, standing
// in for the browser's "save file" action.
package filesink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/arco-rh/arco-client/internal/ports"
)

var _ ports.FileSink = (*Dir)(nil)

// Dir writes each file into a single directory.
type Dir struct {
	root string
}

// NewDir creates a sink rooted at root. The directory is created on first save.
func NewDir(root string) *Dir {
	if root == "" {
		root = "."
	}
	return &Dir{root: root}
}

// Save copies r into root/name and returns the written path.
// Any directory components in name are discarded.
func (d *Dir) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "" || base == "." || base == ".." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid file name %q", name)
	}

	if err := os.MkdirAll(d.root, 0o750); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	path := filepath.Join(d.root, base)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		closeErr := f.Close()
		removeErr := os.Remove(path)
		return "", errors.Join(fmt.Errorf("write file: %w", err), closeErr, removeErr)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close file: %w", err)
	}
	return path, nil
}
