package css

import "strings"

// Selector is a parsed CSS selector. The struct describes the rightmost
// compound part, Ancestor chains toward the left. Patterns outside the
// supported shape (attribute selectors, :not() and friends) keep only Raw.
type Selector struct {
	Raw        string    // Original selector string
	Element    string    // Element name of the rightmost part, or empty
	Classes    []string  // Class names of the rightmost part, without dots
	Pseudo     string    // Pseudo-class or -element name without colons, or empty
	PseudoArg  string    // Argument of a parameterized pseudo, e.g. "3n+3"
	Combinator string    // Combinator joining Ancestor to this part: ">", "+", "~", or empty for descendant
	Ancestor   *Selector // Selector to the left, nil for a simple selector
}

// IsSimple returns true if the rightmost part carries an element or class.
func (s Selector) IsSimple() bool {
	return s.Element != "" || len(s.Classes) > 0
}

// IsDescendant returns true if the selector has an ancestor part.
func (s Selector) IsDescendant() bool {
	return s.Ancestor != nil
}

// BaseClass returns the first class of the rightmost part, or empty.
func (s Selector) BaseClass() string {
	if len(s.Classes) == 0 {
		return ""
	}
	return s.Classes[0]
}

// ChildSelector renders the part of the selector to the right of the
// topmost ancestor, combinator included: for ".card > a" it returns "> a".
// Empty for simple selectors.
func (s Selector) ChildSelector() string {
	if s.Ancestor == nil {
		return ""
	}
	var parts []string
	cur := &s
	for cur.Ancestor != nil {
		part := compoundString(cur)
		if cur.Combinator != "" {
			part = cur.Combinator + " " + part
		}
		parts = append([]string{part}, parts...)
		cur = cur.Ancestor
	}
	return strings.Join(parts, " ")
}

func compoundString(s *Selector) string {
	var b strings.Builder
	b.WriteString(s.Element)
	for _, c := range s.Classes {
		b.WriteByte('.')
		b.WriteString(c)
	}
	if s.Pseudo != "" {
		b.WriteByte(':')
		if isPseudoElement(s.Pseudo) {
			b.WriteByte(':')
		}
		b.WriteString(s.Pseudo)
		if s.PseudoArg != "" {
			b.WriteByte('(')
			b.WriteString(s.PseudoArg)
			b.WriteByte(')')
		}
	}
	return b.String()
}

func isPseudoElement(name string) bool {
	switch name {
	case "before", "after", "placeholder", "selection", "first-line", "first-letter":
		return true
	}
	return false
}

// ParseSelector parses a selector string into its structured form. It never
// fails: anything it cannot break down is returned with only Raw set.
func ParseSelector(raw string) Selector {
	raw = strings.TrimSpace(raw)
	sel := Selector{Raw: raw}

	// Attribute selectors and functional pseudo-classes other than the
	// parameterized ones are out of scope.
	if strings.Contains(raw, "[") {
		return sel
	}

	parts, combinators, ok := splitCompound(raw)
	if !ok || len(parts) == 0 {
		return sel
	}

	// Build the chain left to right, each parsed part becomes the new
	// rightmost selector.
	var left *Selector
	for i, part := range parts {
		cur, ok := parseCompound(part)
		if !ok {
			return Selector{Raw: raw}
		}
		if i > 0 {
			cur.Combinator = combinators[i-1]
			cur.Ancestor = left
		}
		left = &cur
	}
	out := *left
	out.Raw = raw
	return out
}

// splitCompound splits a complex selector into compound parts and the
// combinators between them, combinators[i] joins parts[i] and parts[i+1].
// Descendant combination yields an empty combinator string.
func splitCompound(raw string) (parts []string, combinators []string, ok bool) {
	pending := ""
	havePending := false

	appendPart := func(p string) {
		if len(parts) > 0 {
			combinators = append(combinators, pending)
		}
		parts = append(parts, p)
		pending = ""
		havePending = false
	}

	for _, f := range strings.Fields(raw) {
		switch f {
		case ">", "+", "~":
			if len(parts) == 0 || havePending {
				return nil, nil, false
			}
			pending = f
			havePending = true
		default:
			sub, subComb, subOK := splitTight(f)
			if !subOK {
				return nil, nil, false
			}
			for i, s := range sub {
				if i > 0 {
					pending = subComb[i-1]
				}
				appendPart(s)
			}
		}
	}
	if havePending {
		return nil, nil, false
	}
	return parts, combinators, true
}

// splitTight splits one whitespace-free chunk on embedded combinators, so
// "a>b" comes apart the same way "a > b" does.
func splitTight(s string) (parts []string, combinators []string, ok bool) {
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '>', '+', '~':
			if i == start {
				return nil, nil, false
			}
			parts = append(parts, s[start:i])
			combinators = append(combinators, string(s[i]))
			start = i + 1
		}
	}
	if start >= len(s) {
		return nil, nil, false
	}
	parts = append(parts, s[start:])
	return parts, combinators, true
}

// parseCompound parses one compound part: optional element, classes, one
// optional pseudo with an optional argument.
func parseCompound(part string) (Selector, bool) {
	var sel Selector

	// Split off the pseudo first. A double colon marks a pseudo-element,
	// structurally both are handled the same.
	rest := part
	if i := strings.Index(rest, ":"); i >= 0 {
		pseudo := rest[i:]
		rest = rest[:i]
		pseudo = strings.TrimPrefix(pseudo, ":")
		pseudo = strings.TrimPrefix(pseudo, ":")
		if j := strings.Index(pseudo, "("); j >= 0 {
			if !strings.HasSuffix(pseudo, ")") {
				return Selector{}, false
			}
			sel.PseudoArg = strings.TrimSpace(pseudo[j+1 : len(pseudo)-1])
			pseudo = pseudo[:j]
		}
		if pseudo == "" || strings.Contains(pseudo, ":") {
			return Selector{}, false
		}
		sel.Pseudo = pseudo
	}

	// What remains is element then classes.
	for len(rest) > 0 {
		if rest[0] == '.' {
			rest = rest[1:]
			end := strings.IndexByte(rest, '.')
			if end < 0 {
				end = len(rest)
			}
			if end == 0 {
				return Selector{}, false
			}
			sel.Classes = append(sel.Classes, rest[:end])
			rest = rest[end:]
			continue
		}
		end := strings.IndexByte(rest, '.')
		if end < 0 {
			end = len(rest)
		}
		if sel.Element != "" || len(sel.Classes) > 0 {
			return Selector{}, false
		}
		sel.Element = rest[:end]
		rest = rest[end:]
	}

	if sel.Element == "" && len(sel.Classes) == 0 && sel.Pseudo == "" {
		return Selector{}, false
	}
	return sel, true
}

// Sel parses raw into a Selector, a convenience for assembling stylesheets
// from generated selector strings.
func Sel(raw string) Selector {
	return ParseSelector(raw)
}
