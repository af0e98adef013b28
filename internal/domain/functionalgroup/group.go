package functionalgroup

import (
	"fmt"
	"strings"
)

// Group is one matched functional group on a molecule. The slices hold
// molecule atom ids: Atoms lists the whole match in pattern-atom order,
// Bonders are the atoms that form construction bonds, and Deleters are
// the atoms removed once a reaction involving the group completes.
type Group struct {
	ID       int
	TypeName string
	Atoms    []int
	Bonders  []int
	Deleters []int
}

// Clone returns a copy with atom ids remapped through atomMap. Ids
// absent from the map are kept as they are.
func (fg *Group) Clone(atomMap map[int]int) *Group {
	remap := func(ids []int) []int {
		out := make([]int, len(ids))
		for i, id := range ids {
			if mapped, ok := atomMap[id]; ok {
				out[i] = mapped
			} else {
				out[i] = id
			}
		}
		return out
	}
	return &Group{
		ID:       fg.ID,
		TypeName: fg.TypeName,
		Atoms:    remap(fg.Atoms),
		Bonders:  remap(fg.Bonders),
		Deleters: remap(fg.Deleters),
	}
}

// WithoutAtoms returns a copy with the given atom ids dropped from
// every role slice.
func (fg *Group) WithoutAtoms(ids map[int]struct{}) *Group {
	drop := func(src []int) []int {
		out := make([]int, 0, len(src))
		for _, id := range src {
			if _, gone := ids[id]; !gone {
				out = append(out, id)
			}
		}
		return out
	}
	return &Group{
		ID:       fg.ID,
		TypeName: fg.TypeName,
		Atoms:    drop(fg.Atoms),
		Bonders:  drop(fg.Bonders),
		Deleters: drop(fg.Deleters),
	}
}

func (fg *Group) String() string {
	return fmt.Sprintf(
		"Group(id=%d, type=%s, atoms=%s, bonders=%s, deleters=%s)",
		fg.ID, fg.TypeName,
		idList(fg.Atoms), idList(fg.Bonders), idList(fg.Deleters),
	)
}

func idList(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
