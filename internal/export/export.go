// Package export writes snapshots of a materialized finding-aid tree.
//
// Only what has been loaded is exported; nothing is fetched. Text and JSON
// go to any io.Writer, and WriteFile adds SQLite plus durable on-disk writes
// (temp file, sync, rename).
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joshuapare/arctree/tree"
)

const (
	DefaultIndentSize = 2
	DefaultMaxDepth   = 0
)

// Format specifies the output format.
type Format string

const (
	// FormatText outputs an indented, human-readable tree.
	FormatText Format = "text"

	// FormatJSON outputs a nested JSON document.
	FormatJSON Format = "json"

	// FormatSQLite outputs a SQLite database with one row per record.
	FormatSQLite Format = "sqlite"
)

// ParseFormat maps a flag value onto a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatSQLite:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want text|json|sqlite)", s)
	}
}

// Options controls export behavior.
type Options struct {
	// Format specifies output format.
	// Default: FormatText
	Format Format

	// IndentSize is the number of spaces per indent level (text format only).
	// Default: 2
	IndentSize int

	// MaxDepth limits depth below the start node (0 = unlimited).
	MaxDepth int

	// ShowURIs appends each record's URI (text format only).
	ShowURIs bool

	// FullSync requests F_FULLFSYNC on macOS. Ignored elsewhere.
	FullSync bool
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Format:     FormatText,
		IndentSize: DefaultIndentSize,
		MaxDepth:   DefaultMaxDepth,
		ShowURIs:   true,
	}
}

// Write exports the subtree at root to w in text or JSON format.
func Write(w io.Writer, root *tree.Node, opts Options) error {
	if root == nil {
		return fmt.Errorf("export: no tree loaded")
	}
	if opts.IndentSize <= 0 {
		opts.IndentSize = DefaultIndentSize
	}
	switch opts.Format {
	case FormatText, "":
		return writeText(w, root, opts)
	case FormatJSON:
		return writeJSON(w, root, opts)
	default:
		return fmt.Errorf("export: format %q cannot be streamed", opts.Format)
	}
}

// WriteFile exports the subtree at root to path. The file is written to a
// temporary sibling, synced and renamed into place.
func WriteFile(path string, root *tree.Node, opts Options) error {
	if root == nil {
		return fmt.Errorf("export: no tree loaded")
	}
	if opts.Format == FormatSQLite {
		return writeSQLite(path, root, opts)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("export: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if err := Write(tmp, root, opts); err != nil {
		cleanup()
		return err
	}
	if err := syncFile(tmp, opts.FullSync); err != nil {
		cleanup()
		return fmt.Errorf("export: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("export: close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("export: rename: %w", err)
	}
	return nil
}

// within reports whether n is inside the depth limit measured from root.
func within(root, n *tree.Node, maxDepth int) bool {
	return maxDepth <= 0 || n.Depth-root.Depth <= maxDepth
}
