package style

import (
	"fmt"
	"slices"
	"strings"
)

// Breakpoint declares one named responsive scope. Predicate is the raw media
// query condition for the breakpoint itself. Inherits lists the breakpoints
// whose scoped styles must also be visible here: at resolution time each
// listed name gains this breakpoint's predicate as an additional media
// condition. MobileOnly pins the breakpoint to its own width, incoming
// inheritance is a configuration error.
type Breakpoint struct {
	Name       string
	Predicate  string
	Inherits   []string
	MobileOnly bool
}

// Registry is the static breakpoint table consulted by the compiler. Final
// media queries are resolved once at construction, compilation is pure
// lookup.
type Registry struct {
	names   []string
	preds   map[string]string
	queries map[string]string
	reverse map[string]string
}

// NewRegistry validates the breakpoint set and precomputes the final media
// query for every name.
func NewRegistry(bps ...Breakpoint) (*Registry, error) {
	r := &Registry{
		names:   make([]string, 0, len(bps)),
		preds:   make(map[string]string, len(bps)),
		queries: make(map[string]string, len(bps)),
		reverse: make(map[string]string, len(bps)),
	}

	mobileOnly := make(map[string]bool, len(bps))
	for _, bp := range bps {
		if len(bp.Name) == 0 || len(bp.Predicate) == 0 {
			return nil, fmt.Errorf("breakpoint %q: name and predicate are required: %w", bp.Name, ErrBadStructure)
		}
		if _, dup := r.preds[bp.Name]; dup {
			return nil, fmt.Errorf("breakpoint %q: %w", bp.Name, ErrDuplicateBreakpoint)
		}
		r.names = append(r.names, bp.Name)
		r.preds[bp.Name] = bp.Predicate
		mobileOnly[bp.Name] = bp.MobileOnly
	}

	for _, bp := range bps {
		for _, from := range bp.Inherits {
			if _, ok := r.preds[from]; !ok {
				return nil, fmt.Errorf("breakpoint %q inherits %q: %w", bp.Name, from, ErrUnknownBreakpoint)
			}
			if mobileOnly[from] {
				return nil, fmt.Errorf("breakpoint %q inherits %q: %w", bp.Name, from, ErrMobileOnlyInherit)
			}
		}
	}

	// The resolved query for a name is its own predicate followed by the
	// predicates of every breakpoint inheriting from it, in declaration
	// order. Comma means OR in a media query list.
	for _, name := range r.names {
		parts := []string{r.preds[name]}
		for _, bp := range bps {
			if bp.Name == name {
				continue
			}
			if slices.Contains(bp.Inherits, name) {
				parts = append(parts, bp.Predicate)
			}
		}
		q := strings.Join(parts, ", ")
		r.queries[name] = q
		r.reverse[foldQuery(q)] = name
		if _, taken := r.reverse[foldQuery(r.preds[name])]; !taken {
			r.reverse[foldQuery(r.preds[name])] = name
		}
	}
	return r, nil
}

// DefaultBreakpoints returns the stock responsive set: a mobile-only band,
// a mobile-first desktop chain where wider entries inherit through predicate
// coverage, and a print scope with an explicit edge to tablet since the
// print media type is disjoint from the screen queries.
func DefaultBreakpoints() []Breakpoint {
	return []Breakpoint{
		{Name: "mobile", Predicate: "only screen and (max-width: 767px)", MobileOnly: true},
		{Name: "tablet", Predicate: "only screen and (min-width: 768px)"},
		{Name: "small", Predicate: "only screen and (min-width: 992px)"},
		{Name: "large", Predicate: "only screen and (min-width: 1200px)"},
		{Name: "print", Predicate: "print", Inherits: []string{"tablet"}},
	}
}

// DefaultRegistry returns the registry built from DefaultBreakpoints.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultBreakpoints()...)
	if err != nil {
		panic(fmt.Sprintf("default breakpoints are invalid: %v", err))
	}
	return r
}

// Has reports whether name is a registered breakpoint.
func (r *Registry) Has(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.preds[name]
	return ok
}

// Query returns the resolved media query for a breakpoint name, inherited
// conditions included.
func (r *Registry) Query(name string) (string, bool) {
	if r == nil {
		return "", false
	}
	q, ok := r.queries[name]
	return q, ok
}

// Predicate returns the raw predicate a breakpoint was declared with.
func (r *Registry) Predicate(name string) (string, bool) {
	if r == nil {
		return "", false
	}
	p, ok := r.preds[name]
	return p, ok
}

// Names returns the breakpoint names in declaration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.names)
}

// NameFor maps a media query condition back to a breakpoint name, matching
// both raw predicates and resolved queries. Whitespace runs are ignored,
// letter case is not significant.
func (r *Registry) NameFor(condition string) (string, bool) {
	if r == nil {
		return "", false
	}
	name, ok := r.reverse[foldQuery(condition)]
	return name, ok
}

func foldQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}
