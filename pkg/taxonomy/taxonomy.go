// Package taxonomy implements the entity type hierarchy: a forest of root
// categories and child subtypes stored flattened for O(1) lookup and
// O(depth) ancestor walks. Unknown keys resolve to the reserved UNKNOWN root
// with a deterministic per-key color so distinct unknown types stay visually
// distinguishable.
package taxonomy

import (
	"errors"
	"fmt"
	"sort"
)

// UnknownKey is the reserved root every taxonomy must define. Lookups of
// unrecognized keys fall back to it.
const UnknownKey = "UNKNOWN"

// ErrMissingUnknown signals a taxonomy seed without the reserved UNKNOWN
// root. This is a configuration error; the engine cannot run without the
// fallback sink.
var ErrMissingUnknown = errors.New("taxonomy: reserved UNKNOWN root is missing")

// Node is the tagged union of taxonomy node variants.
type Node interface {
	NodeKey() string
	NodeLabel() string
}

// Root is a top-level category. It carries the display color inherited by
// its whole subtree.
type Root struct {
	Key          string `json:"key"`
	Label        string `json:"label"`
	Color        string `json:"color"`
	Recognizable bool   `json:"recognizable,omitempty"`
}

func (r Root) NodeKey() string   { return r.Key }
func (r Root) NodeLabel() string { return r.Label }

// Child is a subtype under a parent category. It has no color of its own;
// the effective color comes from the nearest ancestor Root.
type Child struct {
	Key          string `json:"key"`
	Label        string `json:"label"`
	Parent       string `json:"parent"`
	Recognizable bool   `json:"recognizable,omitempty"`
}

func (c Child) NodeKey() string   { return c.Key }
func (c Child) NodeLabel() string { return c.Label }

// SeedNode is one node of the nested seed tree used to build a Taxonomy.
type SeedNode struct {
	Key          string     `json:"key"`
	Label        string     `json:"label"`
	Color        string     `json:"color,omitempty"`
	Recognizable bool       `json:"recognizable,omitempty"`
	Children     []SeedNode `json:"children,omitempty"`
}

// Resolved is a node together with its effective display color.
type Resolved struct {
	Node  Node
	Color string
}

// Taxonomy is the flattened forest. It is not safe for concurrent mutation;
// all edits are serialized through the document reducer.
type Taxonomy struct {
	nodes  map[string]Node
	colors *ColorGenerator
}

// New builds a Taxonomy from a seed forest. The seed must contain the
// reserved UNKNOWN root, otherwise ErrMissingUnknown is returned.
func New(seed []SeedNode) (*Taxonomy, error) {
	t := &Taxonomy{nodes: make(map[string]Node)}
	for _, root := range seed {
		t.flatten(root, "")
	}
	if _, ok := t.nodes[UnknownKey]; !ok {
		return nil, ErrMissingUnknown
	}
	t.colors = NewColorGenerator(t.reservedColors())
	return t, nil
}

func (t *Taxonomy) flatten(node SeedNode, parent string) {
	if parent == "" {
		t.nodes[node.Key] = Root{
			Key:          node.Key,
			Label:        node.Label,
			Color:        node.Color,
			Recognizable: node.Recognizable,
		}
	} else {
		t.nodes[node.Key] = Child{
			Key:          node.Key,
			Label:        node.Label,
			Parent:       parent,
			Recognizable: node.Recognizable,
		}
	}
	for _, child := range node.Children {
		t.flatten(child, node.Key)
	}
}

func (t *Taxonomy) reservedColors() []string {
	var colors []string
	for _, node := range t.nodes {
		if root, ok := node.(Root); ok && root.Color != "" {
			colors = append(colors, root.Color)
		}
	}
	sort.Strings(colors)
	return colors
}

// Keys returns all node keys in sorted order.
func (t *Taxonomy) Keys() []string {
	keys := make([]string, 0, len(t.nodes))
	for key := range t.nodes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether key is a known node.
func (t *Taxonomy) Has(key string) bool {
	_, ok := t.nodes[key]
	return ok
}

// Lookup returns the node for key, falling back to the UNKNOWN root when the
// key is not present. UNKNOWN itself is guaranteed to exist by New.
func (t *Taxonomy) Lookup(key string) Node {
	if node, ok := t.nodes[key]; ok {
		return node
	}
	return t.nodes[UnknownKey]
}

// AncestorRoot walks parent pointers from key up to the owning Root, which
// carries the effective color of the subtree.
func (t *Taxonomy) AncestorRoot(key string) Root {
	node := t.Lookup(key)
	for {
		switch n := node.(type) {
		case Root:
			return n
		case Child:
			node = t.Lookup(n.Parent)
		}
	}
}

// Resolve composes Lookup and AncestorRoot. When key falls through to the
// UNKNOWN root but is not UNKNOWN itself, the color comes from the
// deterministic per-key generator instead of the flat UNKNOWN gray.
func (t *Taxonomy) Resolve(key string) Resolved {
	node := t.Lookup(key)
	root := t.AncestorRoot(node.NodeKey())

	color := root.Color
	if root.Key == UnknownKey && key != UnknownKey {
		color = t.colors.ColorFor(key)
	}
	return Resolved{Node: node, Color: color}
}

// Path returns the root-to-node ancestor chain for key, root first. Unknown
// keys yield the path of the UNKNOWN root.
func (t *Taxonomy) Path(key string) []Node {
	var reversed []Node
	node := t.Lookup(key)
	for {
		reversed = append(reversed, node)
		child, ok := node.(Child)
		if !ok {
			break
		}
		node = t.Lookup(child.Parent)
	}

	path := make([]Node, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		path = append(path, reversed[i])
	}
	return path
}

// InsertUnknown registers rawType as a child of UNKNOWN unless it is already
// a known key. Called once per distinct unseen type when a document's
// annotation sets are loaded, so the taxonomy is always a superset of types
// actually present.
func (t *Taxonomy) InsertUnknown(rawType string) {
	if rawType == "" || t.Has(rawType) {
		return
	}
	t.nodes[rawType] = Child{
		Key:          rawType,
		Label:        Titlecase(rawType),
		Parent:       UnknownKey,
		Recognizable: false,
	}
}

// AddType inserts a new node. Child nodes must reference an existing parent;
// duplicate keys are rejected.
func (t *Taxonomy) AddType(node Node) error {
	key := node.NodeKey()
	if key == "" {
		return errors.New("taxonomy: empty node key")
	}
	if t.Has(key) {
		return fmt.Errorf("taxonomy: key %q already exists", key)
	}
	if child, ok := node.(Child); ok {
		if !t.Has(child.Parent) {
			return fmt.Errorf("taxonomy: parent %q of %q does not exist", child.Parent, key)
		}
	}
	t.nodes[key] = node
	return nil
}

// DeleteType removes key and, transitively, every descendant. The reserved
// UNKNOWN root cannot be deleted. Returns the removed keys so callers can
// cascade (drop annotations and cluster entries referencing them).
// Descendants are collected with an explicit work-list, no recursion.
func (t *Taxonomy) DeleteType(key string) ([]string, error) {
	if key == UnknownKey {
		return nil, errors.New("taxonomy: cannot delete the reserved UNKNOWN root")
	}
	if !t.Has(key) {
		return nil, fmt.Errorf("taxonomy: key %q does not exist", key)
	}

	removed := []string{key}
	worklist := []string{key}
	for len(worklist) > 0 {
		parent := worklist[0]
		worklist = worklist[1:]
		for k, node := range t.nodes {
			child, ok := node.(Child)
			if ok && child.Parent == parent {
				removed = append(removed, k)
				worklist = append(worklist, k)
			}
		}
	}

	// First element is the key itself, already recorded.
	seen := make(map[string]struct{}, len(removed))
	var unique []string
	for _, k := range removed {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, k)
		delete(t.nodes, k)
	}
	sort.Strings(unique[1:])
	return unique, nil
}

// Tree rebuilds the nested seed forest from the flattened map, roots sorted
// by key. Useful for exporting the per-document taxonomy.
func (t *Taxonomy) Tree() []SeedNode {
	childrenOf := make(map[string][]string)
	var rootKeys []string
	for key, node := range t.nodes {
		switch n := node.(type) {
		case Root:
			rootKeys = append(rootKeys, key)
		case Child:
			childrenOf[n.Parent] = append(childrenOf[n.Parent], key)
		}
	}
	sort.Strings(rootKeys)
	for _, keys := range childrenOf {
		sort.Strings(keys)
	}

	var build func(key string) SeedNode
	build = func(key string) SeedNode {
		node := t.nodes[key]
		seed := SeedNode{Key: node.NodeKey(), Label: node.NodeLabel()}
		switch n := node.(type) {
		case Root:
			seed.Color = n.Color
			seed.Recognizable = n.Recognizable
		case Child:
			seed.Recognizable = n.Recognizable
		}
		for _, childKey := range childrenOf[key] {
			seed.Children = append(seed.Children, build(childKey))
		}
		return seed
	}

	out := make([]SeedNode, 0, len(rootKeys))
	for _, key := range rootKeys {
		out = append(out, build(key))
	}
	return out
}

// Titlecase uppercases the first rune of each hyphen/underscore/space
// separated word: "xyz-unmapped" -> "Xyz-Unmapped".
func Titlecase(s string) string {
	runes := []rune(s)
	boundary := true
	for i, r := range runes {
		if boundary && r >= 'a' && r <= 'z' {
			runes[i] = r - ('a' - 'A')
		}
		boundary = r == '-' || r == '_' || r == ' '
	}
	return string(runes)
}
