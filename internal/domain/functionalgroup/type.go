package functionalgroup

import (
	"fmt"
	"sort"
	"sync"

	apperrors "github.com/haidi-ustc/stk/pkg/errors"
)

// Rule selects role atoms inside a matched group. Query must match the
// anchor atoms of the role, normally in the recursive environment form
// [$(...)], and Count caps how many anchors a single group contributes.
type Rule struct {
	Query string
	Count int
}

// Type describes one functional group family: the pattern matching the
// whole group, the rules selecting its bonder atoms and the rules
// selecting the atoms deleted when a reaction consumes the group.
type Type struct {
	Name     string
	Pattern  string
	Bonders  []Rule
	Deleters []Rule
}

// Registry holds the functional group types known to a construction. It
// is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	types map[string]Type
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]Type)}
}

// Register adds a type, validating that every pattern compiles and that
// every rule count is positive. Registering a name twice is an error.
func (r *Registry) Register(t Type) error {
	if t.Name == "" {
		return apperrors.New(apperrors.ErrCodeInvalidGroupRule, "group type needs a name")
	}
	if _, err := Compile(t.Pattern); err != nil {
		return err
	}
	for _, rules := range [][]Rule{t.Bonders, t.Deleters} {
		for _, rule := range rules {
			if rule.Count < 1 {
				return apperrors.New(
					apperrors.ErrCodeInvalidGroupRule,
					"rule count must be positive",
				).WithDetail(fmt.Sprintf("type %q rule %q", t.Name, rule.Query))
			}
			if _, err := Compile(rule.Query); err != nil {
				return err
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[t.Name]; ok {
		return apperrors.New(
			apperrors.ErrCodeDuplicateGroupType,
			"group type already registered",
		).WithDetail(t.Name)
	}
	r.types[t.Name] = t
	return nil
}

// Lookup returns the type registered under name.
func (r *Registry) Lookup(name string) (Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	if !ok {
		return Type{}, apperrors.New(
			apperrors.ErrCodeUnknownFunctionalGroup,
			"unknown functional group",
		).WithDetail(name)
	}
	return t, nil
}

// Names returns the registered type names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns a registry preloaded with the standard group
// catalog.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, t := range catalog {
		if err := r.Register(t); err != nil {
			// The catalog is static, a bad entry is a programming error.
			panic(err)
		}
	}
	return r
}

// catalog lists the built-in group types. The amine2 and alkyne2
// variants differ from their base types only in which atoms they delete
// when reacted.
var catalog = []Type{
	{
		Name:     "amine",
		Pattern:  "[N]([H])[H]",
		Bonders:  []Rule{{Query: "[$([N]([H])[H])]", Count: 1}},
		Deleters: []Rule{{Query: "[$([H][N][H])]", Count: 2}},
	},
	{
		Name:     "aldehyde",
		Pattern:  "[C](=[O])[H]",
		Bonders:  []Rule{{Query: "[$([C](=[O])[H])]", Count: 1}},
		Deleters: []Rule{{Query: "[$([O]=[C][H])]", Count: 1}},
	},
	{
		Name:    "carboxylic_acid",
		Pattern: "[C](=[O])[O][H]",
		Bonders: []Rule{{Query: "[$([C](=[O])[O][H])]", Count: 1}},
		Deleters: []Rule{
			{Query: "[$([H][O][C](=[O]))]", Count: 1},
			{Query: "[$([O]([H])[C](=[O]))]", Count: 1},
		},
	},
	{
		Name:    "amide",
		Pattern: "[C](=[O])[N]([H])[H]",
		Bonders: []Rule{{Query: "[$([C](=[O])[N]([H])[H])]", Count: 1}},
		Deleters: []Rule{
			{Query: "[$([N]([H])([H])[C](=[O]))]", Count: 1},
			{Query: "[$([H][N]([H])[C](=[O]))]", Count: 2},
		},
	},
	{
		Name:    "thioacid",
		Pattern: "[C](=[O])[S][H]",
		Bonders: []Rule{{Query: "[$([C](=[O])[S][H])]", Count: 1}},
		Deleters: []Rule{
			{Query: "[$([H][S][C](=[O]))]", Count: 1},
			{Query: "[$([S]([H])[C](=[O]))]", Count: 1},
		},
	},
	{
		Name:     "alcohol",
		Pattern:  "[O][H]",
		Bonders:  []Rule{{Query: "[$([O][H])]", Count: 1}},
		Deleters: []Rule{{Query: "[$([H][O])]", Count: 1}},
	},
	{
		Name:     "thiol",
		Pattern:  "[S][H]",
		Bonders:  []Rule{{Query: "[$([S][H])]", Count: 1}},
		Deleters: []Rule{{Query: "[$([H][S])]", Count: 1}},
	},
	{
		Name:     "bromine",
		Pattern:  "*[Br]",
		Bonders:  []Rule{{Query: "[$(*[Br])]", Count: 1}},
		Deleters: []Rule{{Query: "[$([Br]*)]", Count: 1}},
	},
	{
		Name:     "iodine",
		Pattern:  "*[I]",
		Bonders:  []Rule{{Query: "[$(*[I])]", Count: 1}},
		Deleters: []Rule{{Query: "[$([I]*)]", Count: 1}},
	},
	{
		Name:     "alkyne",
		Pattern:  "[C]#[C][H]",
		Bonders:  []Rule{{Query: "[$([C]([H])#[C])]", Count: 1}},
		Deleters: []Rule{{Query: "[$([H][C]#[C])]", Count: 1}},
	},
	{
		Name:    "terminal_alkene",
		Pattern: "[C]=[C]([H])[H]",
		Bonders: []Rule{{Query: "[$([C]=[C]([H])[H])]", Count: 1}},
		Deleters: []Rule{
			{Query: "[$([H][C]([H])=[C])]", Count: 2},
			{Query: "[$([C](=[C])([H])[H])]", Count: 1},
		},
	},
	{
		Name:    "boronic_acid",
		Pattern: "[B]([O][H])[O][H]",
		Bonders: []Rule{{Query: "[$([B]([O][H])[O][H])]", Count: 1}},
		Deleters: []Rule{
			{Query: "[$([O]([H])[B][O][H])]", Count: 2},
			{Query: "[$([H][O][B][O][H])]", Count: 2},
		},
	},
	{
		Name:     "amine2",
		Pattern:  "[N]([H])[H]",
		Bonders:  []Rule{{Query: "[$([N]([H])[H])]", Count: 1}},
		Deleters: []Rule{{Query: "[$([H][N][H])]", Count: 1}},
	},
	{
		Name:     "secondary_amine",
		Pattern:  "[H][N]([#6])[#6]",
		Bonders:  []Rule{{Query: "[$([N]([H])([#6])[#6])]", Count: 1}},
		Deleters: []Rule{{Query: "[$([H][N]([#6])[#6])]", Count: 1}},
	},
	{
		Name:     "diol",
		Pattern:  "[H][O][#6]~[#6][O][H]",
		Bonders:  []Rule{{Query: "[$([O]([H])[#6]~[#6][O][H])]", Count: 2}},
		Deleters: []Rule{{Query: "[$([H][O][#6]~[#6][O][H])]", Count: 2}},
	},
	{
		Name:     "difluorene",
		Pattern:  "[F][#6]~[#6][F]",
		Bonders:  []Rule{{Query: "[$([#6]([F])~[#6][F])]", Count: 2}},
		Deleters: []Rule{{Query: "[$([F][#6]~[#6][F])]", Count: 2}},
	},
	{
		Name:     "dibromine",
		Pattern:  "[Br][#6]~[#6][Br]",
		Bonders:  []Rule{{Query: "[$([#6]([Br])~[#6][Br])]", Count: 2}},
		Deleters: []Rule{{Query: "[$([Br][#6]~[#6][Br])]", Count: 2}},
	},
	{
		Name:    "alkyne2",
		Pattern: "[C]#[C][H]",
		Bonders: []Rule{{Query: "[$([C]#[C][H])]", Count: 1}},
		Deleters: []Rule{
			{Query: "[$([H][C]#[C])]", Count: 1},
			{Query: "[$([C](#[C])[H])]", Count: 1},
		},
	},
	{
		Name:    "ring_amine",
		Pattern: "[N]([H])([H])[#6]~[#6]([H])~[#6R1]",
		Bonders: []Rule{
			{Query: "[$([N]([H])([H])[#6]~[#6]([H])~[#6R1])]", Count: 1},
			{Query: "[$([#6]([H])(~[#6R1])~[#6][N]([H])[H])]", Count: 1},
		},
		Deleters: []Rule{
			{Query: "[$([H][N]([H])[#6]~[#6]([H])~[#6R1])]", Count: 2},
			{Query: "[$([H][#6](~[#6R1])~[#6][N]([H])[H])]", Count: 1},
		},
	},
}
