package selector

import "shopadmin/catalog/internal/categorytree"

type Option struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Leaf  bool   `json:"leaf"`
}

// Level is one select control of the picker.
type Level struct {
	Index    int      `json:"index"`
	Selected string   `json:"selected"`
	Options  []Option `json:"options"`
}

// Levels derives the controls to show for s. The root level is always
// present; a further level appears only while the node chosen above it has
// children within the forest's depth limit.
func Levels(f *categorytree.Forest, s State) []Level {
	levels := make([]Level, 0, len(s.Steps)+1)
	current := f.Roots
	for i := 0; ; i++ {
		lvl := Level{Index: i, Options: make([]Option, 0, len(current))}
		var chosen *categorytree.Node
		for _, n := range current {
			lvl.Options = append(lvl.Options, Option{ID: n.ID, Title: n.Title, Leaf: !f.HasChildren(n.ID)})
			if i < len(s.Steps) && n.ID == s.Steps[i] {
				chosen = n
			}
		}
		if chosen != nil {
			lvl.Selected = chosen.ID
		}
		levels = append(levels, lvl)

		if chosen == nil {
			return levels
		}
		children, _ := f.ChildrenOf(chosen.ID)
		if len(children) == 0 {
			return levels
		}
		current = children
	}
}
