package hierarchy

import (
	"github.com/openebl/pkiconsole/pkg/console/model"
	"github.com/samber/lo"
)

// ChildIndex maps an issuer id to the entities it issued, in collection order.
type ChildIndex map[string][]model.Entity

// BuildChildIndex groups collection by issuer in a single pass. Self-signed entities have no edge to
// themselves.
func BuildChildIndex(collection []model.Entity) ChildIndex {
	index := make(ChildIndex)
	for _, e := range collection {
		if e.IsSelfSigned() {
			continue
		}
		index[e.IssuerRef] = append(index[e.IssuerRef], e)
	}
	return index
}

func (idx ChildIndex) Children(id string) []model.Entity {
	return idx[id]
}

// Descendants returns every entity below id, breadth first. Each entity is reported once even when the
// data contains cycles; id itself is never reported.
func (idx ChildIndex) Descendants(id string) []model.Entity {
	seen := map[string]struct{}{id: {}}
	result := make([]model.Entity, 0)
	queue := []string{id}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range idx[current] {
			if _, ok := seen[child.ID]; ok {
				continue
			}
			seen[child.ID] = struct{}{}
			result = append(result, child)
			queue = append(queue, child.ID)
		}
	}
	return result
}

// CanAdoptParent reports whether parentID may become the issuer of childID without creating a cycle.
// It is the check a caller runs before writing a new parent; nothing here enforces it.
func (idx ChildIndex) CanAdoptParent(childID, parentID string) bool {
	if childID == parentID {
		return false
	}
	return !lo.ContainsBy(idx.Descendants(childID), func(e model.Entity) bool { return e.ID == parentID })
}

// Roots returns the tops of the forest: self-signed entities and entities whose issuer is not part of
// the collection.
func Roots(collection []model.Entity) []model.Entity {
	ids := lo.SliceToMap(collection, func(e model.Entity) (string, struct{}) { return e.ID, struct{}{} })
	return lo.Filter(collection, func(e model.Entity, _ int) bool {
		if e.IsSelfSigned() {
			return true
		}
		_, ok := ids[e.IssuerRef]
		return !ok
	})
}

// TreeEntry is one line of a depth-first rendering of the hierarchy.
type TreeEntry struct {
	Entity model.Entity
	Depth  int
}

// Tree walks the hierarchy depth first from its roots. Entities that are only reachable through a cycle
// are appended afterwards as extra tops, so every entity appears exactly once.
func Tree(collection []model.Entity) []TreeEntry {
	index := BuildChildIndex(collection)
	visited := make(map[string]struct{}, len(collection))
	entries := make([]TreeEntry, 0, len(collection))

	var walk func(e model.Entity, depth int)
	walk = func(e model.Entity, depth int) {
		if _, ok := visited[e.ID]; ok {
			return
		}
		visited[e.ID] = struct{}{}
		entries = append(entries, TreeEntry{Entity: e, Depth: depth})
		for _, child := range index[e.ID] {
			walk(child, depth+1)
		}
	}

	for _, root := range Roots(collection) {
		walk(root, 0)
	}
	for _, e := range collection {
		walk(e, 0)
	}
	return entries
}
