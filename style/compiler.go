package style

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"stylec/palette"
)

// Compiler flattens style trees. It is immutable after construction and
// safe for concurrent use: compilation reads the registry, palette and
// unitless set, performs no I/O and keeps no state between calls.
type Compiler struct {
	log      *zap.Logger
	registry *Registry
	pal      *palette.Palette
	unitless map[string]struct{}
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithRegistry replaces the default breakpoint registry.
func WithRegistry(r *Registry) Option {
	return func(c *Compiler) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithPalette installs the identifier dictionary consulted for string
// values. Without a palette all strings are emitted verbatim.
func WithPalette(p *palette.Palette) Option {
	return func(c *Compiler) {
		c.pal = p
	}
}

// WithUnitless adds properties to the unitless set. Names are accepted in
// either camelCase or hyphenated form.
func WithUnitless(props ...string) Option {
	return func(c *Compiler) {
		for _, p := range props {
			c.unitless[hyphenate(p)] = struct{}{}
		}
	}
}

// New creates a compiler with the default breakpoint registry and no
// palette.
func New(log *zap.Logger, opts ...Option) *Compiler {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Compiler{
		log:      log.Named("compiler"),
		registry: DefaultRegistry(),
		unitless: make(map[string]struct{}, len(defaultUnitless)),
	}
	for p := range defaultUnitless {
		c.unitless[p] = struct{}{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the breakpoint registry the compiler was built with.
func (c *Compiler) Registry() *Registry {
	return c.registry
}

// Unitless reports whether bare numbers of prop are emitted without the
// implicit pixel unit. Accepts camelCase or hyphenated names.
func (c *Compiler) Unitless(prop string) bool {
	_, ok := c.unitless[hyphenate(prop)]
	return ok
}

// Compile flattens a style tree against a base scope selector. base stands
// for the component's generated class and may be empty when the host
// framework owns the outer selector. Structural errors abort the whole
// compilation, there is no partial output.
func (c *Compiler) Compile(node *Node, base string) (Compiled, error) {
	out, err := c.compile(node, base, "")
	if err != nil {
		return Compiled{}, err
	}
	c.log.Debug("Compiled style tree",
		zap.String("base", base),
		zap.Int("declarations", strings.Count(out.Declarations, ";")),
		zap.Int("rules", len(out.Rules)))
	return out, nil
}

// compile recursively processes one node. scope is the selector owning the
// produced declarations, media the breakpoint name currently in effect
// (empty outside any breakpoint).
func (c *Compiler) compile(node *Node, scope, media string) (Compiled, error) {
	if node.Len() == 0 {
		return Compiled{}, nil
	}

	// Partition entries into the key classes. Scalars win over structural
	// interpretations, so a pseudo-named key with a string value stays a
	// plain declaration.
	var decls, pseudos, breaks, mods, kids []Entry
	for _, e := range node.entries {
		switch {
		case e.Value.Str != nil || e.Value.Num != nil:
			decls = append(decls, e)
		case e.Value.Node != nil:
			if _, ok := pseudoTable[e.Key]; ok {
				pseudos = append(pseudos, e)
			} else if c.registry.Has(e.Key) {
				breaks = append(breaks, e)
			} else {
				return Compiled{}, fmt.Errorf("key %q: nested styles under a key that is neither pseudo nor breakpoint: %w", e.Key, ErrBadStructure)
			}
		case e.Value.Mods != nil:
			if e.Key != KeyModifier {
				return Compiled{}, fmt.Errorf("key %q: modifier specs are only valid under %q: %w", e.Key, KeyModifier, ErrBadStructure)
			}
			mods = append(mods, e)
		case e.Value.Kids != nil:
			if e.Key != KeyChild {
				return Compiled{}, fmt.Errorf("key %q: child specs are only valid under %q: %w", e.Key, KeyChild, ErrBadStructure)
			}
			kids = append(kids, e)
		default:
			return Compiled{}, fmt.Errorf("key %q: empty value: %w", e.Key, ErrBadStructure)
		}
	}

	var out Compiled

	var b strings.Builder
	for _, e := range decls {
		prop := hyphenate(e.Key)
		b.WriteString(prop)
		b.WriteByte(':')
		b.WriteString(c.renderValue(prop, e.Value))
		b.WriteByte(';')
	}
	out.Declarations = b.String()

	for _, e := range pseudos {
		sel, child, err := c.pseudoScope(scope, e)
		if err != nil {
			return Compiled{}, err
		}
		sub, err := c.compile(child, sel, media)
		if err != nil {
			return Compiled{}, fmt.Errorf("%q: %w", e.Key, err)
		}
		if len(sub.Declarations) > 0 {
			out.Rules = append(out.Rules, Rule{Selector: sel, Body: sub.Declarations})
		}
		out.Rules = append(out.Rules, sub.Rules...)
	}

	for _, e := range breaks {
		q, _ := c.registry.Query(e.Key)
		sub, err := c.compile(e.Value.Node, scope, e.Key)
		if err != nil {
			return Compiled{}, fmt.Errorf("%q: %w", e.Key, err)
		}
		if len(sub.Declarations) > 0 {
			out.Rules = append(out.Rules, Rule{Selector: scope, Body: sub.Declarations, Media: []string{q}})
		}
		// Nested rules stay scoped to this breakpoint: each one is
		// re-wrapped with the same query, outermost first.
		for _, r := range sub.Rules {
			r.Media = append([]string{q}, r.Media...)
			out.Rules = append(out.Rules, r)
		}
	}

	for _, e := range mods {
		for i, spec := range e.Value.Mods {
			if len(spec.Name) == 0 {
				return Compiled{}, fmt.Errorf("modifier spec %d: %w", i, ErrMissingName)
			}
			sel := scope + "." + spec.Name
			sub, err := c.compile(spec.Style, sel, media)
			if err != nil {
				return Compiled{}, fmt.Errorf("modifier %q: %w", spec.Name, err)
			}
			if len(sub.Declarations) > 0 {
				out.Rules = append(out.Rules, Rule{Selector: sel, Body: sub.Declarations})
			}
			out.Rules = append(out.Rules, sub.Rules...)
		}
	}

	for _, e := range kids {
		for i, spec := range e.Value.Kids {
			if len(spec.Selector) == 0 {
				return Compiled{}, fmt.Errorf("child spec %d: %w", i, ErrMissingSelector)
			}
			sel := scope + " " + spec.Selector
			sub, err := c.compile(spec.Style, sel, media)
			if err != nil {
				return Compiled{}, fmt.Errorf("child %q: %w", spec.Selector, err)
			}
			if len(sub.Declarations) > 0 {
				out.Rules = append(out.Rules, Rule{Selector: sel, Body: sub.Declarations})
			}
			out.Rules = append(out.Rules, sub.Rules...)
		}
	}

	return out, nil
}

// pseudoScope extends scope with the pseudo suffix of e, consuming KeyParam
// for parameterized entries.
func (c *Compiler) pseudoScope(scope string, e Entry) (string, *Node, error) {
	pe := pseudoTable[e.Key]
	child := e.Value.Node

	suffix, _ := PseudoSuffix(e.Key)
	if pe.param {
		arg, ok := paramValue(child)
		if !ok {
			return "", nil, fmt.Errorf("key %q: %w", e.Key, ErrMissingParam)
		}
		suffix += "(" + arg + ")"
		child = child.without(KeyParam)
	}
	return scope + suffix, child, nil
}

// paramValue extracts the functional argument from a parameterized pseudo
// node. Strings are taken verbatim, numbers are formatted bare.
func paramValue(n *Node) (string, bool) {
	v, ok := n.Get(KeyParam)
	if !ok {
		return "", false
	}
	switch {
	case v.Str != nil:
		return *v.Str, true
	case v.Num != nil:
		return formatNumber(*v.Num), true
	}
	return "", false
}

// renderValue produces the declaration value text for an already hyphenated
// property name.
func (c *Compiler) renderValue(prop string, v Value) string {
	switch {
	case v.Str != nil:
		s := *v.Str
		if mapped, ok := c.pal.Lookup(s); ok {
			c.log.Debug("Resolved palette identifier", zap.String("id", s), zap.String("value", mapped))
			return mapped
		}
		return s
	case v.Num != nil:
		n := formatNumber(*v.Num)
		if _, bare := c.unitless[prop]; bare {
			return n
		}
		return n + "px"
	}
	return ""
}
