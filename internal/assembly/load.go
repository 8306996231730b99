package assembly

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ohler55/ojg/jp"
	_ "modernc.org/sqlite"

	"github.com/agentic-research/neutralizer/api"
)

// Load reads a manifest, picking the decoder from the file extension:
// ".db" / ".sqlite" for SQLite, anything else is JSON. selector only
// applies to JSON.
func Load(ctx context.Context, path, selector string) (*Node, error) {
	switch filepath.Ext(path) {
	case ".db", ".sqlite", ".sqlite3":
		return LoadSQLite(ctx, path)
	default:
		return LoadJSON(path, selector)
	}
}

// LoadJSON reads a JSON manifest. A non-empty selector is a JSONPath
// expression locating the root assembly object inside the document.
func LoadJSON(path, selector string) (*Node, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if selector != "" {
		content, err = selectJSON(content, selector)
		if err != nil {
			return nil, fmt.Errorf("manifest %s: %w", path, err)
		}
	}
	var root api.Component
	if err := json.Unmarshal(content, &root); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return FromManifest(root)
}

func selectJSON(content []byte, selector string) ([]byte, error) {
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
	}
	var data any
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("failed to parse json: %w", err)
	}
	results := x.Get(data)
	if len(results) == 0 {
		return nil, fmt.Errorf("jsonpath '%s' matched nothing", selector)
	}
	if _, ok := results[0].(map[string]any); !ok {
		return nil, fmt.Errorf("jsonpath '%s' did not select an object", selector)
	}
	return json.Marshal(results[0])
}

// SQLiteSchema is the layout LoadSQLite expects. Occurrences reference
// components by identity, so a reused component is stored once and linked
// from every parent.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS components (
	identity TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	fields JSON,
	parameters JSON
);
CREATE TABLE IF NOT EXISTS occurrences (
	parent TEXT NOT NULL,
	child TEXT NOT NULL,
	position INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_occurrences_parent ON occurrences(parent, position);
`

// LoadSQLite reads a manifest database laid out as SQLiteSchema. Exactly one
// component must have kind "root".
func LoadSQLite(ctx context.Context, dbPath string) (*Node, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }()
	return ReadSQLite(ctx, db)
}

// ReadSQLite builds the tree from an open manifest database.
func ReadSQLite(ctx context.Context, db *sql.DB) (*Node, error) {
	rows, err := db.QueryContext(ctx, "SELECT identity, kind, fields, parameters FROM components")
	if err != nil {
		return nil, fmt.Errorf("query components: %w", err)
	}
	defer func() { _ = rows.Close() }()

	nodes := make(map[string]*Node)
	var root *Node
	for rows.Next() {
		var (
			id, kindStr        string
			rawFields, rawPars sql.NullString
		)
		if err := rows.Scan(&id, &kindStr, &rawFields, &rawPars); err != nil {
			return nil, fmt.Errorf("scan component: %w", err)
		}
		kind, err := ParseKind(kindStr)
		if err != nil {
			return nil, fmt.Errorf("component %q: %w", id, err)
		}
		var f map[string]string
		if rawFields.Valid && rawFields.String != "" {
			if err := json.Unmarshal([]byte(rawFields.String), &f); err != nil {
				return nil, fmt.Errorf("component %q: parse fields: %w", id, err)
			}
		}
		n := NewNode(kind, id, f)
		if rawPars.Valid && rawPars.String != "" {
			var params []api.Parameter
			if err := json.Unmarshal([]byte(rawPars.String), &params); err != nil {
				return nil, fmt.Errorf("component %q: parse parameters: %w", id, err)
			}
			n.SetParameters(params...)
		}
		if kind == RootAssembly {
			if root != nil {
				return nil, fmt.Errorf("multiple root components: %q and %q", root.identity, id)
			}
			root = n
		}
		nodes[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	_ = rows.Close()
	if root == nil {
		return nil, fmt.Errorf("no root component")
	}

	links, err := db.QueryContext(ctx, "SELECT parent, child FROM occurrences ORDER BY parent, position")
	if err != nil {
		return nil, fmt.Errorf("query occurrences: %w", err)
	}
	defer func() { _ = links.Close() }()

	for links.Next() {
		var parentID, childID string
		if err := links.Scan(&parentID, &childID); err != nil {
			return nil, fmt.Errorf("scan occurrence: %w", err)
		}
		parent, ok := nodes[parentID]
		if !ok {
			return nil, fmt.Errorf("occurrence references unknown parent %q", parentID)
		}
		child, ok := nodes[childID]
		if !ok {
			return nil, fmt.Errorf("occurrence references unknown child %q", childID)
		}
		switch {
		case parent.kind == Part:
			return nil, fmt.Errorf("part %q cannot own children", parentID)
		case child.kind == Part:
			parent.AddPart(child)
		case child.kind == Subassembly:
			parent.AddSubassembly(child)
		default:
			return nil, fmt.Errorf("root %q cannot be a child of %q", childID, parentID)
		}
	}
	if err := links.Err(); err != nil {
		return nil, err
	}
	return root, nil
}
