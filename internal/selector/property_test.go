package selector

import (
	"fmt"
	"testing"

	"shopadmin/catalog/internal/categorytree"
	"shopadmin/catalog/internal/domain"

	"pgregory.net/rapid"
)

func randomForest(t *rapid.T) *categorytree.Forest {
	n := rapid.IntRange(1, 30).Draw(t, "n")
	records := make([]domain.Category, 0, n)
	for i := 0; i < n; i++ {
		father := rapid.IntRange(-1, i-1).Draw(t, fmt.Sprintf("father%d", i))
		if father < 0 {
			records = append(records, cat(fmt.Sprint(i), ""))
		} else {
			records = append(records, cat(fmt.Sprint(i), fmt.Sprint(father)))
		}
	}
	f, err := categorytree.Build(records, categorytree.Options{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return f
}

// randomCursor walks down from a random root, choosing random children.
func randomCursor(t *rapid.T, f *categorytree.Forest, label string) State {
	s := State{}
	for level := 0; ; level++ {
		options := Levels(f, s)[level].Options
		if len(options) == 0 {
			return s
		}
		pick := rapid.IntRange(0, len(options)-1).Draw(t, fmt.Sprintf("%s-%d", label, level))
		next, err := ChooseAtLevel(f, s, level, options[pick].ID)
		if err != nil {
			t.Fatalf("valid option rejected: %v", err)
		}
		s = next
		if options[pick].Leaf || !rapid.Bool().Draw(t, fmt.Sprintf("%s-deeper-%d", label, level)) {
			return s
		}
	}
}

func TestPropertyCursorTruncation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := randomForest(t)
		s := randomCursor(t, f, "cursor")
		level := rapid.IntRange(0, len(s.Steps)-1).Draw(t, "level")
		options := Levels(f, s)[level].Options
		id := options[rapid.IntRange(0, len(options)-1).Draw(t, "pick")].ID

		next, err := ChooseAtLevel(f, s, level, id)
		if err != nil {
			t.Fatalf("choose: %v", err)
		}
		if len(next.Steps) != level+1 || next.Steps[level] != id {
			t.Fatalf("cursor %v after choosing %s at %d from %v", next.Steps, id, level, s.Steps)
		}
		for i := 0; i < level; i++ {
			if next.Steps[i] != s.Steps[i] {
				t.Fatalf("prefix changed: %v -> %v", s.Steps, next.Steps)
			}
		}
	})
}

func TestPropertyLeafUniqueness(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := randomForest(t)
		s := State{}
		for i := 0; i < 10; i++ {
			cursor := randomCursor(t, f, fmt.Sprintf("c%d", i))
			cursor.Committed = s.Committed
			if next, err := CommitCurrentPath(f, cursor); err == nil {
				s = next
			}
		}

		seen := make(map[string]bool)
		for _, leaf := range LeafIDs(s) {
			if seen[leaf] {
				t.Fatalf("leaf %s committed twice: %v", leaf, s.Committed)
			}
			seen[leaf] = true
		}
	})
}

func TestPropertyIdempotentRemoval(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := randomForest(t)
		s, err := CommitCurrentPath(f, randomCursor(t, f, "c"))
		if err != nil {
			t.Fatalf("commit: %v", err)
		}
		leaf := LeafIDs(s)[0]

		once := RemoveCommittedPath(s, leaf)
		twice := RemoveCommittedPath(once, leaf)
		if len(once.Committed) != 0 || len(twice.Committed) != 0 {
			t.Fatalf("removal left %v / %v", once.Committed, twice.Committed)
		}
		if got := RemoveCommittedPath(s, "absent"); len(got.Committed) != len(s.Committed) {
			t.Fatalf("removing an absent leaf changed the set")
		}
	})
}
