package model

import (
	"errors"
	"sort"
)

// PathSeparator joins location names when a path is shown as a single string.
const PathSeparator = " / "

// Structural violations reported by Tree validation.
var (
	ErrLocationNotFound = errors.New("location not found")
	ErrWouldCycle       = errors.New("destination is inside the moved subtree")
	ErrTooDeep          = errors.New("location nesting would exceed the maximum depth")
)

// Tree is an in-memory index over the full set of locations. It is
// built from a snapshot of the locations table and answers the
// structural questions (depth, subtree membership, deepest descendant)
// that create, move and delete operations are validated against.
type Tree struct {
	nodes    map[string]*Location
	children map[string][]*Location
}

// NewTree indexes the given locations. Children are kept in name
// order; top-level locations are filed under the empty parent id.
func NewTree(locations []Location) *Tree {
	t := &Tree{
		nodes:    make(map[string]*Location, len(locations)),
		children: make(map[string][]*Location),
	}
	for i := range locations {
		loc := &locations[i]
		t.nodes[loc.ID] = loc

		parent := ""
		if loc.ParentID != nil {
			parent = *loc.ParentID
		}
		t.children[parent] = append(t.children[parent], loc)
	}
	for _, siblings := range t.children {
		sort.SliceStable(siblings, func(i, j int) bool {
			return siblings[i].Name < siblings[j].Name
		})
	}
	return t
}

// Len returns the number of locations in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Get returns the location with the given id, or nil if it is unknown.
func (t *Tree) Get(id string) *Location {
	return t.nodes[id]
}

// Roots returns the top-level locations in name order.
func (t *Tree) Roots() []*Location {
	return t.children[""]
}

// Children returns the direct children of a location in name order.
func (t *Tree) Children(id string) []*Location {
	return t.children[id]
}

// Depth returns how deep a location sits in the tree. Top-level
// locations have depth 1. An unknown id has depth 0.
func (t *Tree) Depth(id string) int {
	depth := 0
	for loc := t.nodes[id]; loc != nil; {
		depth++
		if loc.ParentID == nil {
			break
		}
		loc = t.nodes[*loc.ParentID]
	}
	return depth
}

// DeepestBelow returns how many levels hang below a location: 0 for a
// leaf, 1 when its deepest descendant is a direct child, and so on.
func (t *Tree) DeepestBelow(id string) int {
	deepest := 0
	for _, child := range t.children[id] {
		if d := t.DeepestBelow(child.ID) + 1; d > deepest {
			deepest = d
		}
	}
	return deepest
}

// SubtreeIDs returns the ids of a location and all its descendants,
// depth-first with children in name order. It returns nil for an
// unknown id.
func (t *Tree) SubtreeIDs(id string) []string {
	if t.nodes[id] == nil {
		return nil
	}
	ids := []string{id}
	for _, child := range t.children[id] {
		ids = append(ids, t.SubtreeIDs(child.ID)...)
	}
	return ids
}

// IsDescendant reports whether id sits somewhere below ancestorID.
// A location is not its own descendant.
func (t *Tree) IsDescendant(id, ancestorID string) bool {
	loc := t.nodes[id]
	for loc != nil && loc.ParentID != nil {
		if *loc.ParentID == ancestorID {
			return true
		}
		loc = t.nodes[*loc.ParentID]
	}
	return false
}

// Path returns the location names from the top of the tree down to id,
// inclusive. It returns nil for an unknown id.
func (t *Tree) Path(id string) []string {
	loc := t.nodes[id]
	if loc == nil {
		return nil
	}
	var names []string
	for loc != nil {
		names = append(names, loc.Name)
		if loc.ParentID == nil {
			break
		}
		loc = t.nodes[*loc.ParentID]
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return names
}

// ValidateCreate checks that a new location may be added under the
// given parent ("" for a new top-level location).
func (t *Tree) ValidateCreate(parentID string) error {
	if parentID == "" {
		return nil
	}
	if t.nodes[parentID] == nil {
		return ErrLocationNotFound
	}
	if t.Depth(parentID)+1 > MaxDepth {
		return ErrTooDeep
	}
	return nil
}

// ValidateMove checks that the subtree rooted at id may be re-parented
// under destID ("" to make it a top-level location). The destination
// must exist, must not be the moved location or any of its
// descendants, and the re-rooted subtree must still fit within
// MaxDepth.
func (t *Tree) ValidateMove(id, destID string) error {
	if t.nodes[id] == nil {
		return ErrLocationNotFound
	}
	destDepth := 0
	if destID != "" {
		if t.nodes[destID] == nil {
			return ErrLocationNotFound
		}
		if destID == id || t.IsDescendant(destID, id) {
			return ErrWouldCycle
		}
		destDepth = t.Depth(destID)
	}
	if destDepth+1+t.DeepestBelow(id) > MaxDepth {
		return ErrTooDeep
	}
	return nil
}

// Walk visits the subtree rooted at id depth-first, children in name
// order. The path passed to visit holds the names from id down to the
// visited location, inclusive; every call gets its own copy.
func (t *Tree) Walk(id string, visit func(loc *Location, path []string)) {
	root := t.nodes[id]
	if root == nil {
		return
	}
	t.walk(root, []string{root.Name}, visit)
}

func (t *Tree) walk(loc *Location, path []string, visit func(*Location, []string)) {
	visit(loc, path)
	for _, child := range t.children[loc.ID] {
		childPath := make([]string, len(path)+1)
		copy(childPath, path)
		childPath[len(path)] = child.Name
		t.walk(child, childPath, visit)
	}
}
