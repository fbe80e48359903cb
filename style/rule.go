package style

import "strings"

// Rule is one auxiliary CSS rule produced by compilation: a selector, a
// joined declaration body and the media conditions wrapping it, outermost
// first. Rules discovered inside a breakpoint scope accumulate that
// breakpoint's query on re-wrapping.
type Rule struct {
	Selector string
	Body     string
	Media    []string
}

// String renders the rule in the compact form the compiler is specified
// against: no whitespace around braces, nested media blocks for stacked
// conditions.
func (r Rule) String() string {
	var b strings.Builder
	for _, m := range r.Media {
		b.WriteString("@media ")
		b.WriteString(m)
		b.WriteByte('{')
	}
	b.WriteString(r.Selector)
	b.WriteByte('{')
	b.WriteString(r.Body)
	b.WriteByte('}')
	for range r.Media {
		b.WriteByte('}')
	}
	return b.String()
}

// Compiled is the result of compiling one style tree: the declarations of
// the current scope and the ordered auxiliary rules for nested scopes.
type Compiled struct {
	Declarations string
	Rules        []Rule
}

// Empty reports whether compilation produced no output at all.
func (c Compiled) Empty() bool {
	return len(c.Declarations) == 0 && len(c.Rules) == 0
}

// AuxiliaryRules renders the auxiliary rules as standalone CSS rule strings
// in emission order.
func (c Compiled) AuxiliaryRules() []string {
	if len(c.Rules) == 0 {
		return nil
	}
	out := make([]string, len(c.Rules))
	for i, r := range c.Rules {
		out[i] = r.String()
	}
	return out
}

// CSS returns the single combined output string: current-scope declarations
// followed by every auxiliary rule, suitable for splicing after the host
// rule body.
func (c Compiled) CSS() string {
	var b strings.Builder
	b.WriteString(c.Declarations)
	for _, r := range c.Rules {
		b.WriteString(r.String())
	}
	return b.String()
}
