package assembly

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/agentic-research/neutralizer/internal/fields"
)

func manifestKind(k Kind) (string, error) {
	switch k {
	case RootAssembly:
		return "root", nil
	case Subassembly:
		return "subassembly", nil
	case Part:
		return "part", nil
	default:
		return "", fmt.Errorf("unknown component kind %v", k)
	}
}

// WriteSQLite stores the tree under root in a new or existing manifest
// database at dbPath, in the layout LoadSQLite reads. A component reached
// from several parents is stored once; its occurrences are stored per parent.
func WriteSQLite(ctx context.Context, dbPath string, root Component) (err error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }()

	// Bulk insert tuning; the file is rebuilt from scratch on failure anyway.
	if _, err := db.ExecContext(ctx, "PRAGMA synchronous = OFF"); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = MEMORY"); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, SQLiteSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	w := &sqliteWriter{ctx: ctx, stored: map[string]bool{}}
	if w.component, err = tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO components (identity, kind, fields, parameters) VALUES (?, ?, ?, ?)`); err != nil {
		return err
	}
	defer func() { _ = w.component.Close() }()
	if w.occurrence, err = tx.PrepareContext(ctx,
		`INSERT INTO occurrences (parent, child, position) VALUES (?, ?, ?)`); err != nil {
		return err
	}
	defer func() { _ = w.occurrence.Close() }()

	if err = w.write(root); err != nil {
		return err
	}
	return tx.Commit()
}

type sqliteWriter struct {
	ctx        context.Context
	component  *sql.Stmt
	occurrence *sql.Stmt
	stored     map[string]bool
}

// write inserts c and, the first time c is seen, its occurrences and
// children.
func (w *sqliteWriter) write(c Component) error {
	id := c.Identity()
	if w.stored[id] {
		return nil
	}
	w.stored[id] = true

	kind, err := manifestKind(c.Kind())
	if err != nil {
		return fmt.Errorf("component %q: %w", id, err)
	}
	var fieldsJSON, params []byte
	if values := fieldValues(c); len(values) > 0 {
		if fieldsJSON, err = json.Marshal(values); err != nil {
			return err
		}
	}
	if p := c.Parameters(); len(p) > 0 {
		if params, err = json.Marshal(p); err != nil {
			return err
		}
	}
	if _, err := w.component.ExecContext(w.ctx, id, kind, nullable(fieldsJSON), nullable(params)); err != nil {
		return fmt.Errorf("insert component %q: %w", id, err)
	}

	position := 0
	children := append(c.Parts(), c.Subassemblies()...)
	for _, child := range children {
		if _, err := w.occurrence.ExecContext(w.ctx, id, child.Identity(), position); err != nil {
			return fmt.Errorf("insert occurrence %q -> %q: %w", id, child.Identity(), err)
		}
		position++
	}
	for _, child := range children {
		if err := w.write(child); err != nil {
			return err
		}
	}
	return nil
}

// fieldValues returns every stored field of a Node, or the registry fields
// of any other Component.
func fieldValues(c Component) map[string]string {
	if n, ok := c.(*Node); ok {
		return n.fields
	}
	values := map[string]string{}
	for _, name := range fields.Names() {
		if v, ok := c.Get(name); ok {
			values[name] = v
		}
	}
	return values
}

func nullable(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
