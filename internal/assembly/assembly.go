// Package assembly models the component tree handed to the exporter: a root
// assembly owning parts and nested subassemblies, each carrying the
// registry metadata fields.
package assembly

import (
	"errors"
	"fmt"

	"github.com/agentic-research/neutralizer/api"
	"github.com/agentic-research/neutralizer/internal/fields"
)

var ErrNoIdentity = errors.New("component has no identity")

// Kind is the closed set of component variants.
type Kind int

const (
	RootAssembly Kind = iota + 1
	Subassembly
	Part
)

func (k Kind) String() string {
	switch k {
	case RootAssembly:
		return "RootAssembly"
	case Subassembly:
		return "Subassembly"
	case Part:
		return "Part"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind accepts the manifest spellings "root", "subassembly" and "part".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "root":
		return RootAssembly, nil
	case "subassembly":
		return Subassembly, nil
	case "part":
		return Part, nil
	default:
		return 0, fmt.Errorf("unknown component kind %q", s)
	}
}

// Component is the read-only view of a tree node that the engine needs.
type Component interface {
	Kind() Kind
	// Identity is the absolute source-file path; the deduplication key.
	Identity() string
	// Get returns a metadata field value. ok is false if the field is unset.
	Get(field string) (value string, ok bool)
	// Parts and Subassemblies are empty for parts.
	Parts() []Component
	Subassemblies() []Component
	Parameters() []api.Parameter
}

// Node is the in-memory Component implementation. The same *Node may be
// attached under several parents to model a reused subtree.
type Node struct {
	kind     Kind
	identity string
	fields   map[string]string
	params   []api.Parameter
	parts    []*Node
	subs     []*Node
}

// NewNode creates a node. fields may be nil.
func NewNode(kind Kind, identity string, fields map[string]string) *Node {
	f := make(map[string]string, len(fields))
	for k, v := range fields {
		f[k] = v
	}
	return &Node{kind: kind, identity: identity, fields: f}
}

// NewRoot, NewSubassembly and NewPart are shorthands for NewNode.
func NewRoot(identity string, fields map[string]string) *Node {
	return NewNode(RootAssembly, identity, fields)
}

func NewSubassembly(identity string, fields map[string]string) *Node {
	return NewNode(Subassembly, identity, fields)
}

func NewPart(identity string, fields map[string]string) *Node {
	return NewNode(Part, identity, fields)
}

// AddPart appends parts in order and returns n.
func (n *Node) AddPart(parts ...*Node) *Node {
	n.parts = append(n.parts, parts...)
	return n
}

// AddSubassembly appends subassemblies in order and returns n.
func (n *Node) AddSubassembly(subs ...*Node) *Node {
	n.subs = append(n.subs, subs...)
	return n
}

// SetParameters replaces the node's parameter table and returns n.
func (n *Node) SetParameters(params ...api.Parameter) *Node {
	n.params = append([]api.Parameter(nil), params...)
	return n
}

func (n *Node) Kind() Kind       { return n.kind }
func (n *Node) Identity() string { return n.identity }

func (n *Node) Get(field string) (string, bool) {
	v, ok := n.fields[field]
	return v, ok
}

func (n *Node) Parts() []Component {
	out := make([]Component, len(n.parts))
	for i, p := range n.parts {
		out[i] = p
	}
	return out
}

func (n *Node) Subassemblies() []Component {
	out := make([]Component, len(n.subs))
	for i, s := range n.subs {
		out[i] = s
	}
	return out
}

func (n *Node) Parameters() []api.Parameter {
	return n.params
}

// FromManifest builds a tree from a decoded manifest. The top-level
// component becomes the root assembly.
func FromManifest(root api.Component) (*Node, error) {
	return fromManifest(root, RootAssembly, "$")
}

func fromManifest(c api.Component, kind Kind, where string) (*Node, error) {
	id := c.Identity
	if id == "" {
		id = c.Fields[fields.FileName]
	}
	if id == "" {
		return nil, fmt.Errorf("%s: %w", where, ErrNoIdentity)
	}
	if kind == Part && (len(c.Parts) > 0 || len(c.Subassemblies) > 0) {
		return nil, fmt.Errorf("%s: part %q cannot own children", where, id)
	}
	n := NewNode(kind, id, c.Fields)
	n.SetParameters(c.Parameters...)
	for i, p := range c.Parts {
		child, err := fromManifest(p, Part, fmt.Sprintf("%s.parts[%d]", where, i))
		if err != nil {
			return nil, err
		}
		n.AddPart(child)
	}
	for i, s := range c.Subassemblies {
		child, err := fromManifest(s, Subassembly, fmt.Sprintf("%s.subassemblies[%d]", where, i))
		if err != nil {
			return nil, err
		}
		n.AddSubassembly(child)
	}
	return n, nil
}
