// Package selector is the cascading, level-by-level category picker. State is
// a plain value; every transition returns a new State and leaves its input
// untouched, so callers decide where the state lives.
package selector

import (
	"errors"
	"fmt"

	"shopadmin/catalog/internal/categorytree"
)

var (
	ErrInvalidLevel     = errors.New("level is not selectable")
	ErrInvalidSelection = errors.New("category is not an option at this level")
	ErrEmptyCursor      = errors.New("no category chosen")
	ErrDuplicateLeaf    = errors.New("category already assigned")
)

// State holds the in-progress cursor and the committed root-to-leaf paths.
type State struct {
	Steps     []string   `json:"steps"`
	Committed [][]string `json:"committed"`
}

func (s State) clone() State {
	out := State{
		Steps:     append([]string{}, s.Steps...),
		Committed: make([][]string, 0, len(s.Committed)),
	}
	for _, p := range s.Committed {
		out.Committed = append(out.Committed, append([]string(nil), p...))
	}
	return out
}

// Leaf is the last chosen id of the cursor, or "".
func (s State) Leaf() string {
	if len(s.Steps) == 0 {
		return ""
	}
	return s.Steps[len(s.Steps)-1]
}

func (s State) hasLeaf(leaf string) bool {
	for _, p := range s.Committed {
		if len(p) > 0 && p[len(p)-1] == leaf {
			return true
		}
	}
	return false
}

// ChooseAtLevel picks id at the given level and discards every choice below
// it. The level must already be on screen: 0 for the roots, or i when the
// node chosen at i-1 has children. id must be one of that level's options.
func ChooseAtLevel(f *categorytree.Forest, s State, level int, id string) (State, error) {
	if level < 0 || level > len(s.Steps) {
		return s, fmt.Errorf("%w: %d (cursor depth %d)", ErrInvalidLevel, level, len(s.Steps))
	}

	parent := ""
	if level > 0 {
		parent = s.Steps[level-1]
	}
	options, ok := f.ChildrenOf(parent)
	if !ok || len(options) == 0 {
		return s, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}

	valid := false
	for _, n := range options {
		if n.ID == id {
			valid = true
			break
		}
	}
	if !valid {
		return s, fmt.Errorf("%w: %q at level %d", ErrInvalidSelection, id, level)
	}

	next := s.clone()
	next.Steps = append(next.Steps[:level], id)
	return next, nil
}

// ClearFromLevel drops the choice at level and everything below it.
func ClearFromLevel(s State, level int) State {
	next := s.clone()
	if level < 0 {
		level = 0
	}
	if level < len(next.Steps) {
		next.Steps = next.Steps[:level]
	}
	return next
}

// CanCommit reports whether CommitCurrentPath would succeed.
func CanCommit(f *categorytree.Forest, s State) bool {
	leaf := s.Leaf()
	return leaf != "" && !s.hasLeaf(leaf) && reachable(f, s.Steps)
}

// CommitCurrentPath moves the cursor into the committed set and resets it.
// The cursor must still lead from a root through f, and its last id must
// not already end a committed path.
func CommitCurrentPath(f *categorytree.Forest, s State) (State, error) {
	leaf := s.Leaf()
	if leaf == "" {
		return s, ErrEmptyCursor
	}
	if !reachable(f, s.Steps) {
		return s, fmt.Errorf("%w: cursor %v no longer matches the tree", ErrInvalidSelection, s.Steps)
	}
	if s.hasLeaf(leaf) {
		return s, fmt.Errorf("%w: %q", ErrDuplicateLeaf, leaf)
	}

	next := s.clone()
	next.Committed = append(next.Committed, next.Steps)
	next.Steps = []string{}
	return next, nil
}

// reachable replays steps level by level against f.
func reachable(f *categorytree.Forest, steps []string) bool {
	parent := ""
	for _, id := range steps {
		options, ok := f.ChildrenOf(parent)
		if !ok {
			return false
		}
		found := false
		for _, n := range options {
			if n.ID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
		parent = id
	}
	return true
}

// RemoveCommittedPath removes the path ending in leafID. Removing a leaf
// that is not committed is a no-op.
func RemoveCommittedPath(s State, leafID string) State {
	next := s.clone()
	kept := next.Committed[:0]
	for _, p := range next.Committed {
		if len(p) > 0 && p[len(p)-1] == leafID {
			continue
		}
		kept = append(kept, p)
	}
	next.Committed = kept
	return next
}

// LeafIDs reduces the committed paths to their leaf ids, in commit order.
func LeafIDs(s State) []string {
	leaves := make([]string, 0, len(s.Committed))
	for _, p := range s.Committed {
		if len(p) > 0 {
			leaves = append(leaves, p[len(p)-1])
		}
	}
	return leaves
}

// Hydrate rebuilds the committed set from assigned category ids, as when a
// product is opened for editing. Ids without a path in the forest are
// returned separately; repeated ids collapse.
func Hydrate(f *categorytree.Forest, categoryIDs []string) (State, []string) {
	s := State{Steps: []string{}, Committed: [][]string{}}
	var missing []string
	for _, id := range categoryIDs {
		if s.hasLeaf(id) {
			continue
		}
		path, ok := f.FindPath(id)
		if !ok {
			missing = append(missing, id)
			continue
		}
		s.Committed = append(s.Committed, path)
	}
	return s, missing
}
