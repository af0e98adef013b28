package functionalgroup

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/haidi-ustc/stk/internal/domain/molecule"
	apperrors "github.com/haidi-ustc/stk/pkg/errors"
	"github.com/haidi-ustc/stk/pkg/types/chem"
)

// Graph is the read view of a molecular graph that patterns are matched
// against. *molecule.Molecule satisfies it.
type Graph interface {
	AtomIDs() []int
	AtomicNumber(id int) int
	Neighbors(id int) []int
	BondOrderBetween(id1, id2 int) (chem.BondOrder, bool)
	InRing(id int) bool
}

// Matcher locates substructure matches on molecular graphs. Each match
// lists molecule atom ids in query-atom order. The default implementation
// compiles the query grammar documented on Compile; an alternative
// chemistry backend can be swapped in through this interface.
type Matcher interface {
	Match(g Graph, query string) ([][]int, error)
}

// NewMatcher returns the built-in Matcher. Compiled queries are cached,
// so repeated searches with the same query string reuse the parse.
func NewMatcher() Matcher {
	return &cachingMatcher{patterns: make(map[string]*Pattern)}
}

type cachingMatcher struct {
	mu       sync.Mutex
	patterns map[string]*Pattern
}

func (m *cachingMatcher) Match(g Graph, query string) ([][]int, error) {
	m.mu.Lock()
	pat, ok := m.patterns[query]
	m.mu.Unlock()
	if !ok {
		var err error
		pat, err = Compile(query)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.patterns[query] = pat
		m.mu.Unlock()
	}
	return pat.FindMatches(g), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Compiled patterns
// ─────────────────────────────────────────────────────────────────────────────

type bondKind int

const (
	bondSingle bondKind = iota
	bondDouble
	bondTriple
	bondAny
)

func (k bondKind) matches(order chem.BondOrder) bool {
	switch k {
	case bondAny:
		return true
	case bondSingle:
		return order == chem.SingleBond
	case bondDouble:
		return order == chem.DoubleBond
	case bondTriple:
		return order == chem.TripleBond
	}
	return false
}

// patternAtom is a single atom constraint. A zero atomicNumber matches
// any element. env, when set, is a recursive environment the atom must
// anchor, i.e. the environment pattern must match with its first atom
// mapped to this one.
type patternAtom struct {
	atomicNumber int
	inRing       bool
	env          *Pattern
}

type patternEdge struct {
	other int
	kind  bondKind
}

// Pattern is a compiled substructure query.
type Pattern struct {
	source string
	atoms  []patternAtom
	// back[i] lists edges from atom i to atoms with a smaller index.
	// Queries are connected, so every atom past the first has at least
	// one such edge, which lets the search extend one atom at a time.
	back [][]patternEdge
}

// Source returns the query string the pattern was compiled from.
func (p *Pattern) Source() string { return p.source }

// Compile parses a substructure query written in a SMARTS subset:
//
//	atoms     [N]  [#6]  [Br]  *
//	ring test [#6R1]
//	recursive [$([N]([H])[H])]
//	bonds     default single, ~ any, = double, # triple
//	branches  (...)
//
// The subset covers the queries used by the built-in group catalog.
func Compile(source string) (*Pattern, error) {
	p := &parser{src: source}
	pat, err := p.parse()
	if err != nil {
		return nil, apperrors.New(
			apperrors.ErrCodeInvalidPattern,
			"invalid pattern",
		).WithDetail(fmt.Sprintf("%q: %v", source, err))
	}
	return pat, nil
}

// MustCompile is Compile for patterns known good at program start.
func MustCompile(source string) *Pattern {
	pat, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return pat
}

type parser struct {
	src string
	pos int
}

func (p *parser) parse() (*Pattern, error) {
	pat := &Pattern{source: p.src}
	prev := -1
	pending := bondSingle
	hasPending := false
	var stack []int

	link := func(idx int) {
		if prev >= 0 {
			kind := bondSingle
			if hasPending {
				kind = pending
			}
			pat.back[idx] = append(pat.back[idx], patternEdge{other: prev, kind: kind})
		}
		hasPending = false
		prev = idx
	}
	addAtom := func(a patternAtom) int {
		pat.atoms = append(pat.atoms, a)
		pat.back = append(pat.back, nil)
		return len(pat.atoms) - 1
	}

	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case '(':
			if prev < 0 {
				return nil, fmt.Errorf("branch before any atom at offset %d", p.pos)
			}
			stack = append(stack, prev)
			p.pos++
		case ')':
			if len(stack) == 0 {
				return nil, fmt.Errorf("unmatched ')' at offset %d", p.pos)
			}
			prev = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			p.pos++
		case '~':
			pending, hasPending = bondAny, true
			p.pos++
		case '=':
			pending, hasPending = bondDouble, true
			p.pos++
		case '#':
			pending, hasPending = bondTriple, true
			p.pos++
		case '*':
			link(addAtom(patternAtom{}))
			p.pos++
		case '[':
			atom, err := p.parseBracket()
			if err != nil {
				return nil, err
			}
			link(addAtom(atom))
		default:
			return nil, fmt.Errorf("unexpected %q at offset %d", c, p.pos)
		}
	}
	switch {
	case len(pat.atoms) == 0:
		return nil, fmt.Errorf("empty pattern")
	case hasPending:
		return nil, fmt.Errorf("dangling bond symbol")
	case len(stack) != 0:
		return nil, fmt.Errorf("unclosed branch")
	}
	for i := 1; i < len(pat.atoms); i++ {
		if len(pat.back[i]) == 0 {
			return nil, fmt.Errorf("disconnected atom at index %d", i)
		}
	}
	return pat, nil
}

// parseBracket consumes one bracket atom starting at '['.
func (p *parser) parseBracket() (patternAtom, error) {
	start := p.pos
	p.pos++ // '['
	var atom patternAtom
	if p.pos < len(p.src) && p.src[p.pos] == '$' {
		p.pos++
		inner, err := p.parseEnv()
		if err != nil {
			return atom, err
		}
		atom.env = inner
	} else if p.pos < len(p.src) && p.src[p.pos] == '#' {
		p.pos++
		digits := p.takeDigits()
		if digits == "" {
			return atom, fmt.Errorf("missing atomic number at offset %d", p.pos)
		}
		atom.atomicNumber, _ = strconv.Atoi(digits)
	} else {
		symbol, err := p.takeSymbol()
		if err != nil {
			return atom, err
		}
		elem, err := molecule.ElementBySymbol(symbol)
		if err != nil {
			return atom, fmt.Errorf("unknown element %q at offset %d", symbol, start)
		}
		atom.atomicNumber = elem.AtomicNumber
	}
	if p.pos < len(p.src) && p.src[p.pos] == 'R' {
		p.pos++
		p.takeDigits() // ring count is not distinguished, membership is
		atom.inRing = true
	}
	if p.pos >= len(p.src) || p.src[p.pos] != ']' {
		return atom, fmt.Errorf("unterminated bracket atom at offset %d", start)
	}
	p.pos++
	return atom, nil
}

// parseEnv consumes a parenthesised recursive environment and compiles
// its body as a nested pattern.
func (p *parser) parseEnv() (*Pattern, error) {
	if p.pos >= len(p.src) || p.src[p.pos] != '(' {
		return nil, fmt.Errorf("expected '(' after '$' at offset %d", p.pos)
	}
	depth := 0
	for i := p.pos; i < len(p.src); i++ {
		switch p.src[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				inner := p.src[p.pos+1 : i]
				p.pos = i + 1
				sub := &parser{src: inner}
				return sub.parse()
			}
		}
	}
	return nil, fmt.Errorf("unterminated environment at offset %d", p.pos)
}

func (p *parser) takeDigits() string {
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) takeSymbol() (string, error) {
	if p.pos >= len(p.src) || p.src[p.pos] < 'A' || p.src[p.pos] > 'Z' {
		return "", fmt.Errorf("expected element symbol at offset %d", p.pos)
	}
	start := p.pos
	p.pos++
	if p.pos < len(p.src) && p.src[p.pos] >= 'a' && p.src[p.pos] <= 'z' {
		two := p.src[start : p.pos+1]
		if _, err := molecule.ElementBySymbol(two); err == nil {
			p.pos++
		}
	}
	return p.src[start:p.pos], nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Matching
// ─────────────────────────────────────────────────────────────────────────────

// FindMatches returns every distinct match of the pattern in g. Each
// match lists molecule atom ids in pattern-atom order. Matches covering
// the same atom set are reported once, and results are ordered
// lexicographically, so repeated searches on the same graph agree.
func (p *Pattern) FindMatches(g Graph) [][]int {
	var out [][]int
	seen := make(map[string]bool)
	assignment := make([]int, len(p.atoms))
	used := make(map[int]bool)
	p.extend(g, 0, assignment, used, func(match []int) bool {
		key := atomSetKey(match)
		if !seen[key] {
			seen[key] = true
			out = append(out, append([]int(nil), match...))
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		for k := range out[i] {
			if out[i][k] != out[j][k] {
				return out[i][k] < out[j][k]
			}
		}
		return false
	})
	return out
}

// MatchesAt reports whether the pattern matches with its first atom
// mapped onto the given molecule atom.
func (p *Pattern) MatchesAt(g Graph, id int) bool {
	if !p.atomOK(g, 0, id) {
		return false
	}
	assignment := make([]int, len(p.atoms))
	assignment[0] = id
	used := map[int]bool{id: true}
	found := false
	p.extend(g, 1, assignment, used, func([]int) bool {
		found = true
		return false
	})
	return found
}

// extend assigns pattern atoms k.. and calls emit for every complete
// match. emit returns false to stop the search; extend mirrors that.
func (p *Pattern) extend(g Graph, k int, assignment []int, used map[int]bool, emit func([]int) bool) bool {
	if k == len(p.atoms) {
		return emit(assignment)
	}
	var candidates []int
	if len(p.back[k]) == 0 {
		candidates = g.AtomIDs()
	} else {
		candidates = g.Neighbors(assignment[p.back[k][0].other])
	}
	for _, id := range candidates {
		if used[id] || !p.atomOK(g, k, id) {
			continue
		}
		ok := true
		for _, e := range p.back[k] {
			order, bonded := g.BondOrderBetween(id, assignment[e.other])
			if !bonded || !e.kind.matches(order) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		assignment[k] = id
		used[id] = true
		cont := p.extend(g, k+1, assignment, used, emit)
		delete(used, id)
		if !cont {
			return false
		}
	}
	return true
}

func (p *Pattern) atomOK(g Graph, k, id int) bool {
	a := p.atoms[k]
	if a.atomicNumber != 0 && g.AtomicNumber(id) != a.atomicNumber {
		return false
	}
	if a.inRing && !g.InRing(id) {
		return false
	}
	if a.env != nil && !a.env.MatchesAt(g, id) {
		return false
	}
	return true
}

func atomSetKey(ids []int) string {
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)
	var b strings.Builder
	for i, id := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(id))
	}
	return b.String()
}
