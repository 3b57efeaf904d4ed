package taxonomy

import (
	"errors"
	"math/rand"
	"reflect"
	"strings"
	"sync"
	"testing"
)

func ptr(id uint) *uint { return &id }

func mustCreate(t *testing.T, tree *Tree, name string, parent *uint) uint {
	t.Helper()
	id, err := tree.Create(name, parent)
	if err != nil {
		t.Fatalf("Create(%q) failed: %v", name, err)
	}
	return id
}

func mustGet(t *testing.T, tree *Tree, id uint) Node {
	t.Helper()
	n, err := tree.Get(id)
	if err != nil {
		t.Fatalf("Get(%d) failed: %v", id, err)
	}
	return n
}

// assertConsistent checks every node's derived fields against a fresh walk
// of the parent chain.
func assertConsistent(t *testing.T, tree *Tree) {
	t.Helper()
	nodes := tree.List()
	byID := make(map[uint]Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	for _, n := range nodes {
		var names []string
		var path []uint
		cur := n
		for steps := 0; ; steps++ {
			if steps > len(nodes) {
				t.Fatalf("node %d: parent chain does not terminate", n.ID)
			}
			names = append([]string{cur.Name}, names...)
			path = append([]uint{cur.ID}, path...)
			if cur.ParentID == nil {
				break
			}
			parent, ok := byID[*cur.ParentID]
			if !ok {
				t.Fatalf("node %d references missing parent %d", cur.ID, *cur.ParentID)
			}
			cur = parent
		}
		if want := strings.Join(names, Separator); n.CompleteName != want {
			t.Errorf("node %d: complete name %q, want %q", n.ID, n.CompleteName, want)
		}
		if !reflect.DeepEqual(n.Path, path) {
			t.Errorf("node %d: path %v, want %v", n.ID, n.Path, path)
		}
	}
}

func TestTree_Create(t *testing.T) {
	t.Run("assigns sequential ids and derives names", func(t *testing.T) {
		tree := New()
		fiction := mustCreate(t, tree, "Fiction", nil)
		scifi := mustCreate(t, tree, "Science Fiction", &fiction)

		if fiction != 1 || scifi != 2 {
			t.Fatalf("expected ids 1 and 2, got %d and %d", fiction, scifi)
		}
		n := mustGet(t, tree, scifi)
		if n.CompleteName != "Fiction / Science Fiction" {
			t.Errorf("unexpected complete name %q", n.CompleteName)
		}
		if !reflect.DeepEqual(n.Path, []uint{1, 2}) {
			t.Errorf("unexpected path %v", n.Path)
		}
		if n.ParentID == nil || *n.ParentID != fiction {
			t.Errorf("expected parent %d, got %v", fiction, n.ParentID)
		}
	})

	t.Run("trims names", func(t *testing.T) {
		tree := New()
		id := mustCreate(t, tree, "  Poetry ", nil)
		if n := mustGet(t, tree, id); n.Name != "Poetry" || n.CompleteName != "Poetry" {
			t.Errorf("expected trimmed name, got %q / %q", n.Name, n.CompleteName)
		}
	})

	t.Run("rejects blank names", func(t *testing.T) {
		tree := New()
		for _, name := range []string{"", "   ", "\t\n"} {
			if _, err := tree.Create(name, nil); !errors.Is(err, ErrInvalidName) {
				t.Errorf("Create(%q): expected ErrInvalidName, got %v", name, err)
			}
		}
		if tree.Len() != 0 {
			t.Errorf("expected empty tree, got %d nodes", tree.Len())
		}
	})

	t.Run("rejects unknown parent", func(t *testing.T) {
		tree := New()
		if _, err := tree.Create("Orphan", ptr(42)); !errors.Is(err, ErrUnknownParent) {
			t.Fatalf("expected ErrUnknownParent, got %v", err)
		}
		// A failed create must not consume an id.
		if id := mustCreate(t, tree, "First", nil); id != 1 {
			t.Errorf("expected id 1 after failed create, got %d", id)
		}
	})

	t.Run("never reuses deleted ids", func(t *testing.T) {
		tree := New()
		a := mustCreate(t, tree, "A", nil)
		if _, err := tree.Delete(a); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if b := mustCreate(t, tree, "B", nil); b == a {
			t.Errorf("id %d was reused", a)
		}
	})
}

func TestTree_Insert(t *testing.T) {
	tree := New()
	if err := tree.Insert(10, "Fiction", nil); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := tree.Insert(10, "Again", nil); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
	if err := tree.Insert(0, "Zero", nil); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID for id 0, got %v", err)
	}
	if err := tree.Insert(11, "Child", ptr(99)); !errors.Is(err, ErrUnknownParent) {
		t.Errorf("expected ErrUnknownParent, got %v", err)
	}
	if err := tree.Insert(11, "Fantasy", ptr(10)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if id := mustCreate(t, tree, "Next", nil); id != 12 {
		t.Errorf("expected counter to continue at 12, got %d", id)
	}
	if n := mustGet(t, tree, 11); n.CompleteName != "Fiction / Fantasy" {
		t.Errorf("unexpected complete name %q", n.CompleteName)
	}
}

func TestTree_InsertRejectsDeletedIDs(t *testing.T) {
	tree := New()
	fiction := mustCreate(t, tree, "Fiction", nil)
	fantasy := mustCreate(t, tree, "Fantasy", ptr(fiction))
	if _, err := tree.Delete(fiction); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	for _, id := range []uint{fiction, fantasy} {
		if err := tree.Insert(id, "Poetry", nil); !errors.Is(err, ErrDuplicateID) {
			t.Errorf("Insert(%d) after delete: expected ErrDuplicateID, got %v", id, err)
		}
	}

	clone := tree.Clone()
	if err := clone.Insert(fiction, "Poetry", nil); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("clone accepted deleted id %d: %v", fiction, err)
	}
	if tree.Len() != 0 || clone.Len() != 0 {
		t.Errorf("expected empty trees, got %d and %d nodes", tree.Len(), clone.Len())
	}

	// Never-used ids below the counter are still accepted.
	if err := tree.Insert(fantasy+5, "Poetry", nil); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := tree.Insert(fantasy+1, "Drama", nil); err != nil {
		t.Errorf("expected unused id %d to be accepted, got %v", fantasy+1, err)
	}
}

func TestTree_Rename(t *testing.T) {
	t.Run("propagates to descendants", func(t *testing.T) {
		tree := New()
		fiction := mustCreate(t, tree, "Fiction", nil)
		scifi := mustCreate(t, tree, "Science Fiction", &fiction)
		cyber := mustCreate(t, tree, "Cyberpunk", &scifi)
		other := mustCreate(t, tree, "History", nil)

		changed, err := tree.Rename(fiction, "Fantasy & Fiction")
		if err != nil {
			t.Fatalf("Rename failed: %v", err)
		}
		if len(changed) != 3 || changed[0].ID != fiction {
			t.Fatalf("expected 3 changed nodes starting at %d, got %+v", fiction, changed)
		}
		if n := mustGet(t, tree, scifi); n.CompleteName != "Fantasy & Fiction / Science Fiction" {
			t.Errorf("unexpected complete name %q", n.CompleteName)
		}
		if n := mustGet(t, tree, cyber); n.CompleteName != "Fantasy & Fiction / Science Fiction / Cyberpunk" {
			t.Errorf("unexpected complete name %q", n.CompleteName)
		}
		if n := mustGet(t, tree, other); n.CompleteName != "History" {
			t.Errorf("unrelated node changed: %q", n.CompleteName)
		}
	})

	t.Run("errors leave tree unchanged", func(t *testing.T) {
		tree := New()
		id := mustCreate(t, tree, "Fiction", nil)
		before := tree.List()

		if _, err := tree.Rename(id, " "); !errors.Is(err, ErrInvalidName) {
			t.Errorf("expected ErrInvalidName, got %v", err)
		}
		if _, err := tree.Rename(99, "X"); !errors.Is(err, ErrUnknownNode) {
			t.Errorf("expected ErrUnknownNode, got %v", err)
		}
		if !reflect.DeepEqual(before, tree.List()) {
			t.Error("tree changed after failed rename")
		}
	})
}

func TestTree_Reparent(t *testing.T) {
	build := func(t *testing.T) (*Tree, uint, uint, uint, uint) {
		tree := New()
		a := mustCreate(t, tree, "A", nil)
		b := mustCreate(t, tree, "B", &a)
		c := mustCreate(t, tree, "C", &b)
		d := mustCreate(t, tree, "D", nil)
		return tree, a, b, c, d
	}

	t.Run("moves subtree", func(t *testing.T) {
		tree, a, b, c, d := build(t)

		changed, err := tree.Reparent(b, &d)
		if err != nil {
			t.Fatalf("Reparent failed: %v", err)
		}
		if len(changed) != 2 {
			t.Errorf("expected 2 changed nodes, got %d", len(changed))
		}
		if n := mustGet(t, tree, c); n.CompleteName != "D / B / C" || !reflect.DeepEqual(n.Path, []uint{d, b, c}) {
			t.Errorf("unexpected node after move: %+v", n)
		}
		kids, _ := tree.ChildrenOf(a)
		if len(kids) != 0 {
			t.Errorf("expected A to have no children, got %v", kids)
		}
		assertConsistent(t, tree)
	})

	t.Run("moves to top level", func(t *testing.T) {
		tree, _, b, c, _ := build(t)

		if _, err := tree.Reparent(b, nil); err != nil {
			t.Fatalf("Reparent failed: %v", err)
		}
		if n := mustGet(t, tree, c); n.CompleteName != "B / C" {
			t.Errorf("unexpected complete name %q", n.CompleteName)
		}
		if n := mustGet(t, tree, b); n.ParentID != nil {
			t.Errorf("expected no parent, got %v", *n.ParentID)
		}
	})

	t.Run("rejects cycles without partial update", func(t *testing.T) {
		tree, a, b, c, _ := build(t)
		before := tree.List()

		for _, target := range []uint{a, b, c} {
			if _, err := tree.Reparent(a, &target); !errors.Is(err, ErrCycleDetected) {
				t.Errorf("Reparent(A, %d): expected ErrCycleDetected, got %v", target, err)
			}
		}
		if _, err := tree.Reparent(b, &c); !errors.Is(err, ErrCycleDetected) {
			t.Errorf("Reparent(B, C): expected ErrCycleDetected, got %v", err)
		}
		if !reflect.DeepEqual(before, tree.List()) {
			t.Error("tree changed after rejected reparent")
		}
	})

	t.Run("unknown ids", func(t *testing.T) {
		tree, a, _, _, _ := build(t)
		if _, err := tree.Reparent(99, &a); !errors.Is(err, ErrUnknownNode) {
			t.Errorf("expected ErrUnknownNode, got %v", err)
		}
		if _, err := tree.Reparent(a, ptr(99)); !errors.Is(err, ErrUnknownParent) {
			t.Errorf("expected ErrUnknownParent, got %v", err)
		}
	})
}

func TestTree_Delete(t *testing.T) {
	tree := New()
	a := mustCreate(t, tree, "A", nil)
	b := mustCreate(t, tree, "B", &a)
	c := mustCreate(t, tree, "C", &b)
	e := mustCreate(t, tree, "E", &a)
	d := mustCreate(t, tree, "D", nil)

	removed, err := tree.Delete(b)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !reflect.DeepEqual(removed, []uint{b, c}) {
		t.Errorf("expected removed [%d %d], got %v", b, c, removed)
	}
	for _, id := range []uint{b, c} {
		if _, err := tree.Get(id); !errors.Is(err, ErrUnknownNode) {
			t.Errorf("node %d should be gone", id)
		}
	}
	for _, id := range []uint{a, e, d} {
		mustGet(t, tree, id)
	}
	kids, _ := tree.ChildrenOf(a)
	if !reflect.DeepEqual(kids, []uint{e}) {
		t.Errorf("expected A children [%d], got %v", e, kids)
	}
	if _, err := tree.Delete(b); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("expected ErrUnknownNode on second delete, got %v", err)
	}
	assertConsistent(t, tree)
}

func TestTree_Queries(t *testing.T) {
	tree := New()
	fiction := mustCreate(t, tree, "Fiction", nil)
	scifi := mustCreate(t, tree, "Science Fiction", &fiction)
	fantasy := mustCreate(t, tree, "Fantasy", &fiction)
	epic := mustCreate(t, tree, "Epic", &fantasy)
	essays := mustCreate(t, tree, "Essays", nil)

	kids, err := tree.ChildrenOf(fiction)
	if err != nil {
		t.Fatalf("ChildrenOf failed: %v", err)
	}
	if !reflect.DeepEqual(kids, []uint{fantasy, scifi}) {
		t.Errorf("expected children ordered by name, got %v", kids)
	}

	anc, err := tree.AncestorsOf(epic)
	if err != nil {
		t.Fatalf("AncestorsOf failed: %v", err)
	}
	if !reflect.DeepEqual(anc, []uint{fiction, fantasy}) {
		t.Errorf("unexpected ancestors %v", anc)
	}
	if anc, _ := tree.AncestorsOf(fiction); len(anc) != 0 {
		t.Errorf("root should have no ancestors, got %v", anc)
	}

	desc, _ := tree.DescendantsOf(fiction)
	if !reflect.DeepEqual(desc, []uint{fantasy, scifi, epic}) {
		t.Errorf("unexpected descendants %v", desc)
	}

	if roots := tree.Roots(); !reflect.DeepEqual(roots, []uint{essays, fiction}) {
		t.Errorf("unexpected roots %v", roots)
	}

	var names []string
	for _, n := range tree.List() {
		names = append(names, n.CompleteName)
	}
	want := []string{"Essays", "Fiction", "Fiction / Fantasy", "Fiction / Fantasy / Epic", "Fiction / Science Fiction"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("List order %v, want %v", names, want)
	}

	if _, err := tree.ChildrenOf(99); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("expected ErrUnknownNode, got %v", err)
	}
	if _, err := tree.AncestorsOf(99); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("expected ErrUnknownNode, got %v", err)
	}
}

func TestTree_SnapshotsAreIsolated(t *testing.T) {
	tree := New()
	a := mustCreate(t, tree, "A", nil)
	b := mustCreate(t, tree, "B", &a)

	n := mustGet(t, tree, b)
	n.Path[0] = 99
	*n.ParentID = 99

	if again := mustGet(t, tree, b); again.Path[0] != a || *again.ParentID != a {
		t.Error("mutating a snapshot changed the tree")
	}
}

func TestTree_Clone(t *testing.T) {
	tree := New()
	a := mustCreate(t, tree, "A", nil)
	b := mustCreate(t, tree, "B", &a)

	clone := tree.Clone()
	if _, err := clone.Rename(a, "Z"); err != nil {
		t.Fatalf("Rename on clone failed: %v", err)
	}
	if _, err := clone.Delete(b); err != nil {
		t.Fatalf("Delete on clone failed: %v", err)
	}

	if n := mustGet(t, tree, b); n.CompleteName != "A / B" {
		t.Errorf("original changed through clone: %q", n.CompleteName)
	}
	if id := mustCreate(t, clone, "C", nil); id != 3 {
		t.Errorf("clone should keep the id counter, got %d", id)
	}
	if id := mustCreate(t, tree, "C", nil); id != 3 {
		t.Errorf("original counter should be independent, got %d", id)
	}
}

func TestLoad(t *testing.T) {
	t.Run("rebuilds derived fields in any order", func(t *testing.T) {
		tree, err := Load([]Node{
			{ID: 7, Name: "Epic", ParentID: ptr(4)},
			{ID: 4, Name: "Fantasy", ParentID: ptr(1)},
			{ID: 1, Name: "Fiction", CompleteName: "stale", Path: []uint{42}},
		})
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		n := mustGet(t, tree, 7)
		if n.CompleteName != "Fiction / Fantasy / Epic" || !reflect.DeepEqual(n.Path, []uint{1, 4, 7}) {
			t.Errorf("unexpected node %+v", n)
		}
		if n := mustGet(t, tree, 1); n.CompleteName != "Fiction" {
			t.Errorf("stale complete name kept: %q", n.CompleteName)
		}
		if id := mustCreate(t, tree, "New", nil); id != 8 {
			t.Errorf("expected next id 8, got %d", id)
		}
	})

	t.Run("rejects invalid records", func(t *testing.T) {
		cases := []struct {
			name    string
			records []Node
			want    error
		}{
			{"unknown parent", []Node{{ID: 1, Name: "A", ParentID: ptr(2)}}, ErrUnknownParent},
			{"self parent", []Node{{ID: 1, Name: "A", ParentID: ptr(1)}}, ErrCycleDetected},
			{"two cycle", []Node{{ID: 1, Name: "A", ParentID: ptr(2)}, {ID: 2, Name: "B", ParentID: ptr(1)}}, ErrCycleDetected},
			{"duplicate id", []Node{{ID: 1, Name: "A"}, {ID: 1, Name: "B"}}, ErrDuplicateID},
			{"zero id", []Node{{ID: 0, Name: "A"}}, ErrDuplicateID},
			{"blank name", []Node{{ID: 1, Name: " "}}, ErrInvalidName},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if _, err := Load(tc.records); !errors.Is(err, tc.want) {
					t.Errorf("expected %v, got %v", tc.want, err)
				}
			})
		}
	})
}

func TestPaths(t *testing.T) {
	if got := FormatPath([]uint{1, 4, 9}); got != "1/4/9/" {
		t.Errorf("FormatPath = %q", got)
	}
	for _, s := range []string{"1/4/9/", "1/4/9"} {
		path, err := ParsePath(s)
		if err != nil {
			t.Fatalf("ParsePath(%q) failed: %v", s, err)
		}
		if !reflect.DeepEqual(path, []uint{1, 4, 9}) {
			t.Errorf("ParsePath(%q) = %v", s, path)
		}
	}
	for _, s := range []string{"", "/", "1//2/", "a/", "0/"} {
		if _, err := ParsePath(s); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("ParsePath(%q): expected ErrInvalidPath, got %v", s, err)
		}
	}
}

// TestTree_RandomOperations applies a random mix of mutations and checks the
// derived fields and the cascade rules after every step.
func TestTree_RandomOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tree := New()
	names := []string{"Fiction", "Poetry", "Drama", "Essays", "Sagas", "Noir"}

	pick := func() (uint, bool) {
		nodes := tree.List()
		if len(nodes) == 0 {
			return 0, false
		}
		return nodes[rng.Intn(len(nodes))].ID, true
	}

	for step := 0; step < 400; step++ {
		switch op := rng.Intn(10); {
		case op < 4:
			var parent *uint
			if id, ok := pick(); ok && rng.Intn(4) != 0 {
				parent = &id
			}
			mustCreate(t, tree, names[rng.Intn(len(names))], parent)
		case op < 6:
			if id, ok := pick(); ok {
				if _, err := tree.Rename(id, names[rng.Intn(len(names))]); err != nil {
					t.Fatalf("step %d: Rename failed: %v", step, err)
				}
			}
		case op < 9:
			id, ok := pick()
			if !ok {
				continue
			}
			var parent *uint
			if p, ok := pick(); ok && rng.Intn(5) != 0 {
				parent = &p
			}
			before := tree.List()
			_, err := tree.Reparent(id, parent)
			if parent != nil {
				desc, _ := tree.DescendantsOf(id)
				wantCycle := *parent == id || containsID(desc, *parent)
				if wantCycle != errors.Is(err, ErrCycleDetected) {
					t.Fatalf("step %d: Reparent(%d, %d) err=%v, cycle expected=%v", step, id, *parent, err, wantCycle)
				}
				if wantCycle && !reflect.DeepEqual(before, tree.List()) {
					t.Fatalf("step %d: rejected reparent changed the tree", step)
				}
			} else if err != nil {
				t.Fatalf("step %d: Reparent to top level failed: %v", step, err)
			}
		default:
			id, ok := pick()
			if !ok {
				continue
			}
			desc, _ := tree.DescendantsOf(id)
			before := tree.Len()
			removed, err := tree.Delete(id)
			if err != nil {
				t.Fatalf("step %d: Delete failed: %v", step, err)
			}
			if len(removed) != len(desc)+1 || tree.Len() != before-len(removed) {
				t.Fatalf("step %d: delete removed %d nodes, expected %d", step, len(removed), len(desc)+1)
			}
			gone := make(map[uint]bool, len(removed))
			for _, r := range removed {
				gone[r] = true
			}
			for _, n := range tree.List() {
				if n.ParentID != nil && gone[*n.ParentID] {
					t.Fatalf("step %d: node %d references deleted parent %d", step, n.ID, *n.ParentID)
				}
			}
		}
		assertConsistent(t, tree)
	}
}

func TestTree_ConcurrentAccess(t *testing.T) {
	tree := New()
	top := mustCreate(t, tree, "Top", nil)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				id, err := tree.Create("Leaf", &top)
				if err != nil {
					t.Errorf("Create failed: %v", err)
					return
				}
				if _, err := tree.Rename(top, "Top"); err != nil {
					t.Errorf("Rename failed: %v", err)
					return
				}
				_, _ = tree.AncestorsOf(id)
				_ = tree.List()
			}
		}()
	}
	wg.Wait()

	if tree.Len() != 1+8*50 {
		t.Errorf("expected %d nodes, got %d", 1+8*50, tree.Len())
	}
	assertConsistent(t, tree)
}
