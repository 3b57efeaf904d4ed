// Package taxonomy maintains a forest of named categories linked by parent
// references. Every node carries a materialized path (root to self) and a
// complete name (ancestor names joined by Separator), and both are kept
// consistent with the parent chain after every mutation.
//
// All mutations validate their preconditions before touching the forest, so
// a call that returns an error leaves the tree exactly as it was.
package taxonomy

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Separator joins ancestor names in a node's complete name.
const Separator = " / "

// root is the pseudo-parent of top-level nodes. Real ids start at 1.
const root uint = 0

var (
	ErrInvalidName   = errors.New("taxonomy: name must not be blank")
	ErrUnknownNode   = errors.New("taxonomy: unknown node")
	ErrUnknownParent = errors.New("taxonomy: unknown parent")
	ErrCycleDetected = errors.New("taxonomy: parent would create a cycle")
	ErrDuplicateID   = errors.New("taxonomy: id is zero or already in use")
	ErrInvalidPath   = errors.New("taxonomy: malformed path")
)

// Node is a read-only snapshot of a category.
type Node struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	ParentID     *uint  `json:"parent_id,omitempty"`
	Path         []uint `json:"path"`
	CompleteName string `json:"complete_name"`
}

type node struct {
	id           uint
	name         string
	parent       uint
	path         []uint
	completeName string
}

// Tree is a category forest. The zero value is not usable; call New or Load.
type Tree struct {
	mu       sync.RWMutex
	nodes    map[uint]*node
	children map[uint]map[uint]struct{}
	retired  map[uint]struct{}
	nextID   uint
}

// New returns an empty tree whose first assigned id is 1.
func New() *Tree {
	return &Tree{
		nodes:    make(map[uint]*node),
		children: make(map[uint]map[uint]struct{}),
		retired:  make(map[uint]struct{}),
		nextID:   1,
	}
}

// Create adds a node under parentID (nil for a root) and returns its id.
func (t *Tree) Create(name string, parentID *uint) (uint, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	name, err := normalizeName(name)
	if err != nil {
		return 0, err
	}
	parent, err := t.resolveParent(parentID)
	if err != nil {
		return 0, err
	}

	id := t.nextID
	t.nextID++
	t.attach(id, name, parent)
	return id, nil
}

// Insert adds a node with a caller-assigned id. It is used when ids come from
// an external sequence such as a database. Ids below the next free id that
// were never used are accepted; ids freed by Delete are not. The counter only
// moves forward.
func (t *Tree) Insert(id uint, name string, parentID *uint) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.nodes[id]; exists || id == root {
		return ErrDuplicateID
	}
	if _, gone := t.retired[id]; gone {
		return ErrDuplicateID
	}
	name, err := normalizeName(name)
	if err != nil {
		return err
	}
	parent, err := t.resolveParent(parentID)
	if err != nil {
		return err
	}

	t.attach(id, name, parent)
	if id >= t.nextID {
		t.nextID = id + 1
	}
	return nil
}

// Rename changes a node's name and returns the node and its descendants with
// their recomputed complete names, node first.
func (t *Tree) Rename(id uint, name string) ([]Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.nodes[id]
	if !ok {
		return nil, ErrUnknownNode
	}
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}

	n.name = name
	return t.propagate(n), nil
}

// Reparent moves a node (with its subtree) under parentID, or to the top
// level when parentID is nil. It returns the moved subtree, node first.
func (t *Tree) Reparent(id uint, parentID *uint) ([]Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.nodes[id]
	if !ok {
		return nil, ErrUnknownNode
	}
	parent, err := t.resolveParent(parentID)
	if err != nil {
		return nil, err
	}
	// The new parent's path lists every ancestor of the new parent, so the
	// move is a cycle exactly when that path runs through the moved node.
	if parent != root && containsID(t.nodes[parent].path, id) {
		return nil, ErrCycleDetected
	}

	t.unlink(n.parent, id)
	n.parent = parent
	t.link(parent, id)
	return t.propagate(n), nil
}

// Delete removes a node and its entire subtree and returns the removed ids,
// node first. Removed ids are never handed out again.
func (t *Tree) Delete(id uint) ([]uint, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.nodes[id]
	if !ok {
		return nil, ErrUnknownNode
	}

	removed := append([]uint{id}, t.descendants(id)...)
	t.unlink(n.parent, id)
	for _, rid := range removed {
		delete(t.nodes, rid)
		delete(t.children, rid)
		t.retired[rid] = struct{}{}
	}
	return removed, nil
}

// Get returns a snapshot of a node.
func (t *Tree) Get(id uint) (Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n, ok := t.nodes[id]
	if !ok {
		return Node{}, ErrUnknownNode
	}
	return n.snapshot(), nil
}

// ChildrenOf returns the direct children of a node in display order.
func (t *Tree) ChildrenOf(id uint) ([]uint, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if _, ok := t.nodes[id]; !ok {
		return nil, ErrUnknownNode
	}
	return t.sortedChildren(id), nil
}

// AncestorsOf returns the ids from the root down to the node's parent.
func (t *Tree) AncestorsOf(id uint) ([]uint, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n, ok := t.nodes[id]
	if !ok {
		return nil, ErrUnknownNode
	}
	ancestors := make([]uint, len(n.path)-1)
	copy(ancestors, n.path[:len(n.path)-1])
	return ancestors, nil
}

// DescendantsOf returns every node below id in breadth-first order.
func (t *Tree) DescendantsOf(id uint) ([]uint, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if _, ok := t.nodes[id]; !ok {
		return nil, ErrUnknownNode
	}
	return t.descendants(id), nil
}

// Roots returns the top-level nodes in display order.
func (t *Tree) Roots() []uint {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.sortedChildren(root)
}

// Len returns the number of nodes in the forest.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.nodes)
}

// List returns every node ordered by complete name, then id.
func (t *Tree) List() []Node {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Node, 0, len(t.nodes))
	for _, n := range t.nodes {
		out = append(out, n.snapshot())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CompleteName != out[j].CompleteName {
			return out[i].CompleteName < out[j].CompleteName
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Clone returns an independent deep copy of the tree.
func (t *Tree) Clone() *Tree {
	t.mu.RLock()
	defer t.mu.RUnlock()

	c := &Tree{
		nodes:    make(map[uint]*node, len(t.nodes)),
		children: make(map[uint]map[uint]struct{}, len(t.children)),
		retired:  make(map[uint]struct{}, len(t.retired)),
		nextID:   t.nextID,
	}
	for id := range t.retired {
		c.retired[id] = struct{}{}
	}
	for id, n := range t.nodes {
		cp := *n
		cp.path = append([]uint(nil), n.path...)
		c.nodes[id] = &cp
	}
	for parent, kids := range t.children {
		set := make(map[uint]struct{}, len(kids))
		for k := range kids {
			set[k] = struct{}{}
		}
		c.children[parent] = set
	}
	return c
}

// Load rebuilds a forest from stored records. Only ID, Name and ParentID are
// read; paths and complete names are recomputed. Records may come in any
// order.
func Load(records []Node) (*Tree, error) {
	t := New()

	byID := make(map[uint]Node, len(records))
	for _, r := range records {
		if _, dup := byID[r.ID]; dup || r.ID == root {
			return nil, ErrDuplicateID
		}
		name, err := normalizeName(r.Name)
		if err != nil {
			return nil, err
		}
		r.Name = name
		byID[r.ID] = r
	}

	pending := make(map[uint][]uint)
	for id, r := range byID {
		parent := root
		if r.ParentID != nil {
			parent = *r.ParentID
			if _, ok := byID[parent]; !ok {
				return nil, ErrUnknownParent
			}
		}
		pending[parent] = append(pending[parent], id)
		if id >= t.nextID {
			t.nextID = id + 1
		}
	}

	// Attach top-down so every parent is derived before its children. Nodes
	// never reached from a root sit on a cycle.
	queue := []uint{root}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		kids := pending[parent]
		sort.Slice(kids, func(i, j int) bool { return kids[i] < kids[j] })
		for _, id := range kids {
			t.attach(id, byID[id].Name, parent)
			queue = append(queue, id)
		}
	}
	if len(t.nodes) != len(byID) {
		return nil, ErrCycleDetected
	}
	return t, nil
}

// FormatPath renders a materialized path as "1/4/9/".
func FormatPath(path []uint) string {
	var b strings.Builder
	for _, id := range path {
		b.WriteString(strconv.FormatUint(uint64(id), 10))
		b.WriteByte('/')
	}
	return b.String()
}

// ParsePath is the inverse of FormatPath.
func ParsePath(s string) ([]uint, error) {
	s = strings.TrimSuffix(s, "/")
	if s == "" {
		return nil, ErrInvalidPath
	}
	parts := strings.Split(s, "/")
	path := make([]uint, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseUint(p, 10, 0)
		if err != nil || id == 0 {
			return nil, ErrInvalidPath
		}
		path = append(path, uint(id))
	}
	return path, nil
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	return name, nil
}

func (t *Tree) resolveParent(parentID *uint) (uint, error) {
	if parentID == nil {
		return root, nil
	}
	if _, ok := t.nodes[*parentID]; !ok {
		return root, ErrUnknownParent
	}
	return *parentID, nil
}

func (t *Tree) attach(id uint, name string, parent uint) {
	n := &node{id: id, name: name, parent: parent}
	t.nodes[id] = n
	t.link(parent, id)
	t.derive(n)
}

func (t *Tree) link(parent, id uint) {
	kids, ok := t.children[parent]
	if !ok {
		kids = make(map[uint]struct{})
		t.children[parent] = kids
	}
	kids[id] = struct{}{}
}

func (t *Tree) unlink(parent, id uint) {
	if kids, ok := t.children[parent]; ok {
		delete(kids, id)
		if len(kids) == 0 {
			delete(t.children, parent)
		}
	}
}

// derive recomputes path and complete name from the parent's current values.
func (t *Tree) derive(n *node) {
	if n.parent == root {
		n.path = []uint{n.id}
		n.completeName = n.name
		return
	}
	p := t.nodes[n.parent]
	path := make([]uint, len(p.path), len(p.path)+1)
	copy(path, p.path)
	n.path = append(path, n.id)
	n.completeName = p.completeName + Separator + n.name
}

// propagate re-derives n and then its descendants breadth-first. Each node
// only reads its parent, which has always been re-derived before it.
func (t *Tree) propagate(n *node) []Node {
	t.derive(n)
	out := []Node{n.snapshot()}
	for _, id := range t.descendants(n.id) {
		d := t.nodes[id]
		t.derive(d)
		out = append(out, d.snapshot())
	}
	return out
}

func (t *Tree) descendants(id uint) []uint {
	var out []uint
	queue := t.sortedChildren(id)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		out = append(out, next)
		queue = append(queue, t.sortedChildren(next)...)
	}
	return out
}

func (t *Tree) sortedChildren(id uint) []uint {
	kids := t.children[id]
	out := make([]uint, 0, len(kids))
	for k := range kids {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := t.nodes[out[i]], t.nodes[out[j]]
		if a.completeName != b.completeName {
			return a.completeName < b.completeName
		}
		return a.id < b.id
	})
	return out
}

func (n *node) snapshot() Node {
	s := Node{
		ID:           n.id,
		Name:         n.name,
		Path:         append([]uint(nil), n.path...),
		CompleteName: n.completeName,
	}
	if n.parent != root {
		parent := n.parent
		s.ParentID = &parent
	}
	return s
}

func containsID(path []uint, id uint) bool {
	for _, p := range path {
		if p == id {
			return true
		}
	}
	return false
}
