package export

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/joshuapare/arctree/tree"
)

const schema = `
CREATE TABLE records (
	uri          TEXT PRIMARY KEY,
	parent_uri   TEXT,
	position     INTEGER NOT NULL,
	depth        INTEGER NOT NULL,
	title        TEXT NOT NULL,
	identifier   TEXT,
	level        TEXT,
	status_class TEXT,
	status_label TEXT,
	extent       TEXT,
	location     TEXT,
	has_children INTEGER NOT NULL,
	child_count  INTEGER NOT NULL,
	load_state   TEXT NOT NULL
);
CREATE INDEX idx_records_parent ON records(parent_uri, position);
CREATE INDEX idx_records_level ON records(level);
CREATE TABLE export_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// writeSQLite replaces path with a fresh database holding the subtree at root.
func writeSQLite(path string, root *tree.Node, opts Options) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove existing database: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO records
		(uri, parent_uri, position, depth, title, identifier, level, status_class, status_label,
		 extent, location, has_children, child_count, load_state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	var (
		count   int
		walkErr error
	)
	tree.Walk(root, func(n *tree.Node) bool {
		if walkErr != nil || !within(root, n, opts.MaxDepth) {
			return false
		}
		var parent any
		position := 0
		if n != root && n.Parent != nil {
			parent = n.Parent.URI
			position = positionOf(n)
		}
		_, walkErr = stmt.Exec(n.URI, parent, position, n.Depth-root.Depth, n.Title, n.Identifier, n.Level,
			string(n.Status.Class), n.Status.Label, n.Extent, n.Location, n.HasChildren, n.ChildCount,
			n.LoadState().String())
		count++
		return walkErr == nil
	})
	if walkErr != nil {
		return fmt.Errorf("insert records: %w", walkErr)
	}

	meta := map[string]string{
		"root_uri":    root.URI,
		"root_title":  root.Title,
		"records":     fmt.Sprint(count),
		"exported_at": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.Exec(`INSERT INTO export_meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("insert meta: %w", err)
		}
	}
	return tx.Commit()
}

func positionOf(n *tree.Node) int {
	for i, c := range n.Parent.Children {
		if c == n {
			return i
		}
	}
	return -1
}
