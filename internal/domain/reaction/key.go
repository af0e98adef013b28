package reaction

import (
	"sort"
	"strconv"
	"strings"
)

// Key identifies a reaction by the multiset of functional group type
// names taking part in it. Two keys are equal exactly when their name
// multisets are equal, regardless of the order the names were listed,
// so Key values work directly as map keys for the bond order and
// procedure registries.
type Key struct {
	canonical string
}

// NewKey derives the key for the given type names.
func NewKey(names ...string) Key {
	counts := make(map[string]int, len(names))
	for _, name := range names {
		counts[name]++
	}
	distinct := make([]string, 0, len(counts))
	for name := range counts {
		distinct = append(distinct, name)
	}
	sort.Strings(distinct)

	var b strings.Builder
	for i, name := range distinct {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(name)
		b.WriteByte('x')
		b.WriteString(strconv.Itoa(counts[name]))
	}
	return Key{canonical: b.String()}
}

func (k Key) String() string {
	return "ReactionKey(" + k.canonical + ")"
}
