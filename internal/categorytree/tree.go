// Package categorytree turns the backend's flat category listing into a
// forest and answers path queries over it.
package categorytree

import (
	"errors"
	"fmt"
	"strings"

	"shopadmin/catalog/internal/domain"

	log "github.com/sirupsen/logrus"
)

// OrphanPolicy decides what happens to a record whose father id does not
// resolve to any record of the same listing.
type OrphanPolicy string

const (
	DropOrphans    OrphanPolicy = "drop"
	PromoteOrphans OrphanPolicy = "promote"
	RejectOrphans  OrphanPolicy = "reject"
)

var (
	ErrOrphanRejected = errors.New("category father does not resolve")
	ErrUnknownPolicy  = errors.New("unknown orphan policy")
)

// Node is one category in the forest. Nodes are not modified after Build.
type Node struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	FatherID string          `json:"fatherId,omitempty"`
	Children []*Node         `json:"children"`
	Record   domain.Category `json:"-"`
}

// Options tune Build. The zero value drops orphans and walks without a
// depth limit.
type Options struct {
	OrphanPolicy OrphanPolicy
	MaxDepth     int
}

// Forest is the result of Build: zero or more roots plus an index of every
// node that was built, reachable or not.
type Forest struct {
	Roots []*Node

	byID     map[string]*Node
	order    []string
	depth    map[string]int
	reached  map[string]struct{}
	orphans  []string
	maxDepth int
}

// Build indexes every record by id, then links each node to its father.
// Records without a father become roots; records whose father is missing are
// handled per Options.OrphanPolicy. Duplicate ids keep the last record at the
// position of the first one.
func Build(records []domain.Category, opts Options) (*Forest, error) {
	policy := opts.OrphanPolicy
	if policy == "" {
		policy = DropOrphans
	}
	switch policy {
	case DropOrphans, PromoteOrphans, RejectOrphans:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
	}

	f := &Forest{
		Roots:    make([]*Node, 0),
		byID:     make(map[string]*Node, len(records)),
		order:    make([]string, 0, len(records)),
		maxDepth: opts.MaxDepth,
	}

	for _, rec := range records {
		node := &Node{
			ID:       rec.ID,
			Title:    rec.Title,
			FatherID: rec.Father(),
			Children: make([]*Node, 0),
			Record:   rec,
		}
		if _, exists := f.byID[rec.ID]; exists {
			log.Warnf("⚠️ Duplicate category id %s, keeping the later record (%q)", rec.ID, rec.Title)
		} else {
			f.order = append(f.order, rec.ID)
		}
		f.byID[rec.ID] = node
	}

	for _, id := range f.order {
		node := f.byID[id]
		if node.FatherID == "" {
			f.Roots = append(f.Roots, node)
			continue
		}
		if father, ok := f.byID[node.FatherID]; ok {
			father.Children = append(father.Children, node)
			continue
		}

		f.orphans = append(f.orphans, node.ID)
		switch policy {
		case PromoteOrphans:
			log.Warnf("⚠️ Category %s (%q) has unknown father %s, promoting to root", node.ID, node.Title, node.FatherID)
			f.Roots = append(f.Roots, node)
		case DropOrphans:
			log.Warnf("⚠️ Category %s (%q) has unknown father %s, dropped from tree", node.ID, node.Title, node.FatherID)
		}
	}

	if policy == RejectOrphans && len(f.orphans) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrOrphanRejected, strings.Join(f.orphans, ", "))
	}

	f.index()

	if unreachable := f.Unreachable(); len(unreachable) > 0 {
		log.Warnf("⚠️ %d categories are not reachable from any root: %s", len(unreachable), strings.Join(unreachable, ", "))
	}

	return f, nil
}

// index records the depth of every node within MaxDepth, and separately
// every node some root leads to at any depth.
func (f *Forest) index() {
	limit := f.maxDepth
	f.maxDepth = 0
	defer func() { f.maxDepth = limit }()

	f.depth = make(map[string]int, len(f.byID))
	f.reached = make(map[string]struct{}, len(f.byID))
	f.Walk(func(n *Node, depth int) bool {
		f.reached[n.ID] = struct{}{}
		if limit <= 0 || depth < limit {
			f.depth[n.ID] = depth
		}
		return true
	})
}

// Lookup returns any built node, including dropped orphans and nodes that
// are not reachable from a root.
func (f *Forest) Lookup(id string) (*Node, bool) {
	n, ok := f.byID[id]
	return n, ok
}

// Contains reports whether id is reachable from one of the roots.
func (f *Forest) Contains(id string) bool {
	_, ok := f.depth[id]
	return ok
}

// Len is the number of reachable nodes.
func (f *Forest) Len() int {
	return len(f.depth)
}

// Orphans lists, in source order, the ids whose father did not resolve.
func (f *Forest) Orphans() []string {
	return append([]string(nil), f.orphans...)
}

// Unreachable lists built nodes that no root leads to and that are not
// themselves orphans: descendants of dropped orphans and members of parent
// cycles.
func (f *Forest) Unreachable() []string {
	orphan := make(map[string]struct{}, len(f.orphans))
	for _, id := range f.orphans {
		orphan[id] = struct{}{}
	}

	var ids []string
	for _, id := range f.order {
		if _, ok := f.reached[id]; ok {
			continue
		}
		if _, ok := orphan[id]; ok {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// ChildrenOf returns the children of a reachable node. An empty id yields
// the roots. A node on the last level allowed by MaxDepth has no children.
func (f *Forest) ChildrenOf(id string) ([]*Node, bool) {
	if id == "" {
		return f.Roots, true
	}
	depth, ok := f.depth[id]
	if !ok {
		return nil, false
	}
	if f.maxDepth > 0 && depth+1 >= f.maxDepth {
		return []*Node{}, true
	}
	return f.byID[id].Children, true
}

// HasChildren reports whether id is reachable and ChildrenOf would return
// at least one node.
func (f *Forest) HasChildren(id string) bool {
	children, ok := f.ChildrenOf(id)
	return ok && len(children) > 0
}
