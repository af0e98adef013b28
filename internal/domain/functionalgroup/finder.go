package functionalgroup

import (
	"sort"
)

// Finder locates functional groups on molecular graphs using the types
// held by a registry.
type Finder struct {
	registry *Registry
	matcher  Matcher
}

// FinderOption configures a Finder.
type FinderOption func(*Finder)

// WithMatcher replaces the built-in substructure matcher.
func WithMatcher(m Matcher) FinderOption {
	return func(f *Finder) { f.matcher = m }
}

// NewFinder returns a Finder over the given registry.
func NewFinder(registry *Registry, opts ...FinderOption) *Finder {
	f := &Finder{registry: registry, matcher: NewMatcher()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Find returns the functional groups on g of each named type. Names are
// processed in sorted order, so the assigned group ids do not depend on
// the order the caller listed them; each id equals the group's index in
// the returned slice. Within one type, bonder and deleter atoms are the
// first rule-matching atoms of each group in pattern order, capped at
// the rule's count.
func (f *Finder) Find(g Graph, names []string) ([]*Group, error) {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	var groups []*Group
	for _, name := range sorted {
		t, err := f.registry.Lookup(name)
		if err != nil {
			return nil, err
		}
		matches, err := f.matcher.Match(g, t.Pattern)
		if err != nil {
			return nil, err
		}
		bonders, err := f.roleAtoms(g, matches, t.Bonders)
		if err != nil {
			return nil, err
		}
		deleters, err := f.roleAtoms(g, matches, t.Deleters)
		if err != nil {
			return nil, err
		}
		for i, atoms := range matches {
			groups = append(groups, &Group{
				ID:       len(groups),
				TypeName: t.Name,
				Atoms:    append([]int(nil), atoms...),
				Bonders:  bonders[i],
				Deleters: deleters[i],
			})
		}
	}
	return groups, nil
}

// roleAtoms resolves one role's rules against every group match.
func (f *Finder) roleAtoms(g Graph, matches [][]int, rules []Rule) ([][]int, error) {
	role := make([][]int, len(matches))
	for _, rule := range rules {
		anchorMatches, err := f.matcher.Match(g, rule.Query)
		if err != nil {
			return nil, err
		}
		anchors := make(map[int]bool)
		for _, m := range anchorMatches {
			for _, id := range m {
				anchors[id] = true
			}
		}
		for i, atoms := range matches {
			taken := 0
			for _, id := range atoms {
				if taken == rule.Count {
					break
				}
				if anchors[id] {
					role[i] = append(role[i], id)
					taken++
				}
			}
		}
	}
	return role, nil
}
