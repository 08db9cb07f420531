package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/qualityfeed/internal/core"
)

// FileExt is the extension of every feed file.
const FileExt = ".csv"

// Dir reads feed files from a local directory tree.
type Dir struct {
	root string
}

// NewDir creates a directory source rooted at root.
func NewDir(root string) *Dir {
	return &Dir{root: filepath.Clean(root)}
}

// Root returns the cleaned root directory.
func (d *Dir) Root() string {
	return d.root
}

// Path returns where the file for feed and date lives.
func (d *Dir) Path(feed, date string) string {
	return filepath.Join(d.root, feed, date+FileExt)
}

// Locate returns the file path for feed and date.
func (d *Dir) Locate(_ context.Context, feed, date string) (string, error) {
	p := d.Path(feed, date)
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%s %s: %w", feed, date, core.ErrFeedNotFound)
	}
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory: %w", p, core.ErrFeedNotFound)
	}
	return p, nil
}

// Open opens a path returned by Locate. Paths outside the root are refused.
func (d *Dir) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	if !d.contains(ref) {
		return nil, fmt.Errorf("ref %q is outside %s", ref, d.root)
	}
	return openFile(ref)
}

func (d *Dir) contains(p string) bool {
	rel, err := filepath.Rel(d.root, filepath.Clean(p))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, core.ErrFeedNotFound)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}
