package css

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// cssEscapeDoubleQuoted escapes a string for use inside CSS double quotes.
// Backslashes and double quotes are escaped per CSS syntax: \" and \\.
func cssEscapeDoubleQuoted(s string) string {
	// Fast path: nothing to escape.
	if !strings.ContainsAny(s, `"\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Value represents a parsed CSS property value.
type Value struct {
	Raw     string  // Original CSS value string (e.g., "1.2em", "bold", "#ff0000")
	Num     float64 // Numeric component if applicable
	Unit    string  // Unit if applicable: "em", "px", "%", "pt", etc.
	Keyword string  // Keyword if applicable: "bold", "italic", "center", etc.
	Numeric bool    // true when Num carries a parsed number, including zero
}

// IsNumeric returns true if the value has a numeric component.
func (v Value) IsNumeric() bool {
	return v.Numeric
}

// IsKeyword returns true if the value is a keyword with no numeric component.
func (v Value) IsKeyword() bool {
	return v.Keyword != "" && !v.Numeric
}

// Declaration is a single property declaration. Rules keep declarations as
// an ordered list, source order is significant for the cascade.
type Declaration struct {
	Property string
	Value    Value
}

// Rule represents a single CSS rule (selector + ordered declarations).
type Rule struct {
	Selector     Selector
	Declarations []Declaration
}

// GetProperty returns the effective value for a property. With repeated
// declarations the last one wins.
func (r Rule) GetProperty(name string) (Value, bool) {
	for i := len(r.Declarations) - 1; i >= 0; i-- {
		if r.Declarations[i].Property == name {
			return r.Declarations[i].Value, true
		}
	}
	return Value{}, false
}

// Add appends a declaration and returns the rule for chaining.
func (r *Rule) Add(property string, value Value) *Rule {
	r.Declarations = append(r.Declarations, Declaration{Property: property, Value: value})
	return r
}

// FontFace represents an @font-face declaration.
type FontFace struct {
	Family string // font-family value
	Src    string // src value (URL or local reference)
	Style  string // font-style: normal, italic
	Weight string // font-weight: normal, bold, 400, 700
}

// MediaBlock represents an @media block: a raw condition and the items it
// wraps. Blocks nest, a stacked breakpoint compiles to a media block within
// a media block.
type MediaBlock struct {
	Condition string
	Items     []StylesheetItem
}

// Rules returns the plain rules directly inside the block.
func (mb *MediaBlock) Rules() []Rule {
	var rules []Rule
	for _, item := range mb.Items {
		if item.Rule != nil {
			rules = append(rules, *item.Rule)
		}
	}
	return rules
}

// StylesheetItem is a single top-level item in a stylesheet.
// Exactly one of Rule, Media, FontFace, or Import is non-nil.
type StylesheetItem struct {
	Rule     *Rule       // A plain rule (selector + declarations)
	Media    *MediaBlock // A @media block containing nested items
	FontFace *FontFace   // A @font-face declaration
	Import   *string     // An @import URL
}

// Stylesheet represents a CSS stylesheet, parsed or assembled.
type Stylesheet struct {
	Items    []StylesheetItem // All top-level items in source order
	Warnings []string         // Warnings for unsupported features
}

// Append adds a top-level item and returns the stylesheet for chaining.
func (s *Stylesheet) Append(item StylesheetItem) *Stylesheet {
	s.Items = append(s.Items, item)
	return s
}

// Imports returns all @import URLs from the stylesheet in source order.
func (s *Stylesheet) Imports() []string {
	var urls []string
	for _, item := range s.Items {
		if item.Import != nil {
			urls = append(urls, *item.Import)
		}
	}
	return urls
}

// FontFaces returns all @font-face declarations from the stylesheet in
// source order. Only font-faces with a non-empty Family are included.
func (s *Stylesheet) FontFaces() []FontFace {
	var faces []FontFace
	for _, item := range s.Items {
		if item.FontFace != nil && item.FontFace.Family != "" {
			faces = append(faces, *item.FontFace)
		}
	}
	return faces
}

// RulesBySelector returns all top-level rules matching the given selector
// string.
func (s *Stylesheet) RulesBySelector(selector string) []Rule {
	var matches []Rule
	for _, item := range s.Items {
		if item.Rule != nil && item.Rule.Selector.Raw == selector {
			matches = append(matches, *item.Rule)
		}
	}
	return matches
}

// countingWriter accumulates written bytes and holds the first error, so
// the recursive writers below stay readable.
type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (cw *countingWriter) printf(format string, args ...any) {
	if cw.err != nil {
		return
	}
	n, err := fmt.Fprintf(cw.w, format, args...)
	cw.n += int64(n)
	cw.err = err
}

// WriteTo writes the stylesheet to w in expanded form, implementing
// io.WriterTo: one declaration per line, two-space indents, a blank line
// between top-level items.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	for i, item := range s.Items {
		writeItemExpanded(cw, item, 0)
		if i < len(s.Items)-1 {
			cw.printf("\n")
		}
	}
	return cw.n, cw.err
}

// WriteCompact writes the stylesheet to w in compact form: no whitespace
// around braces, declarations joined, items back to back.
func (s *Stylesheet) WriteCompact(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	for _, item := range s.Items {
		writeItemCompact(cw, item)
	}
	return cw.n, cw.err
}

// String returns the expanded CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

// Compact returns the compact CSS text of the stylesheet.
func (s *Stylesheet) Compact() string {
	var sb strings.Builder
	s.WriteCompact(&sb) //nolint:errcheck
	return sb.String()
}

func writeItemExpanded(cw *countingWriter, item StylesheetItem, depth int) {
	pad := strings.Repeat("  ", depth)
	switch {
	case item.Import != nil:
		cw.printf("%s@import url(\"%s\");\n", pad, cssEscapeDoubleQuoted(*item.Import))
	case item.FontFace != nil:
		writeFontFace(cw, item.FontFace, pad)
	case item.Media != nil:
		cw.printf("%s@media %s {\n", pad, item.Media.Condition)
		for i, sub := range item.Media.Items {
			writeItemExpanded(cw, sub, depth+1)
			if i < len(item.Media.Items)-1 {
				cw.printf("\n")
			}
		}
		cw.printf("%s}\n", pad)
	case item.Rule != nil:
		cw.printf("%s%s {\n", pad, item.Rule.Selector.Raw)
		for _, d := range item.Rule.Declarations {
			cw.printf("%s  %s: %s;\n", pad, d.Property, d.Value.Raw)
		}
		cw.printf("%s}\n", pad)
	}
}

func writeItemCompact(cw *countingWriter, item StylesheetItem) {
	switch {
	case item.Import != nil:
		cw.printf("@import url(\"%s\");", cssEscapeDoubleQuoted(*item.Import))
	case item.FontFace != nil:
		cw.printf("@font-face{")
		writeFontFaceBody(cw, item.FontFace, "", "")
		cw.printf("}")
	case item.Media != nil:
		cw.printf("@media %s{", item.Media.Condition)
		for _, sub := range item.Media.Items {
			writeItemCompact(cw, sub)
		}
		cw.printf("}")
	case item.Rule != nil:
		cw.printf("%s{", item.Rule.Selector.Raw)
		for _, d := range item.Rule.Declarations {
			cw.printf("%s:%s;", d.Property, d.Value.Raw)
		}
		cw.printf("}")
	}
}

// writeFontFace writes an @font-face block in expanded form.
func writeFontFace(cw *countingWriter, ff *FontFace, pad string) {
	cw.printf("%s@font-face {\n", pad)
	writeFontFaceBody(cw, ff, pad+"  ", "\n")
	cw.printf("%s}\n", pad)
}

// writeFontFaceBody writes the font-face declarations in a stable order.
func writeFontFaceBody(cw *countingWriter, ff *FontFace, pad, eol string) {
	if ff.Family != "" {
		cw.printf("%sfont-family: \"%s\";%s", pad, cssEscapeDoubleQuoted(ff.Family), eol)
	}
	if ff.Src != "" {
		cw.printf("%ssrc: %s;%s", pad, ff.Src, eol)
	}
	if ff.Style != "" {
		cw.printf("%sfont-style: %s;%s", pad, ff.Style, eol)
	}
	if ff.Weight != "" {
		cw.printf("%sfont-weight: %s;%s", pad, ff.Weight, eol)
	}
}

// urlRewritePattern matches url() references in CSS values for RewriteURLs.
// Handles: url("path"), url('path'), url(path)
var urlRewritePattern = regexp.MustCompile(`url\s*\(\s*(?:["']([^"']*)["']|([^)"]*))\s*\)`)

// RewriteURLs walks all URL references in the stylesheet and applies fn to
// each. This covers @import URLs, @font-face src, and url() references in
// rule declarations, including rules nested in media blocks.
func (s *Stylesheet) RewriteURLs(fn func(originalURL string) string) {
	rewriteItems(s.Items, fn)
}

func rewriteItems(items []StylesheetItem, fn func(string) string) {
	for i := range items {
		item := &items[i]
		switch {
		case item.Import != nil:
			newURL := fn(*item.Import)
			item.Import = &newURL
		case item.FontFace != nil:
			item.FontFace.Src = rewriteURLsInValue(item.FontFace.Src, fn)
		case item.Media != nil:
			rewriteItems(item.Media.Items, fn)
		case item.Rule != nil:
			for j := range item.Rule.Declarations {
				d := &item.Rule.Declarations[j]
				if strings.Contains(d.Value.Raw, "url(") {
					d.Value.Raw = rewriteURLsInValue(d.Value.Raw, fn)
				}
			}
		}
	}
}

// rewriteURLsInValue replaces url() references in a CSS value string.
func rewriteURLsInValue(value string, fn func(string) string) string {
	return urlRewritePattern.ReplaceAllStringFunc(value, func(match string) string {
		sub := urlRewritePattern.FindStringSubmatch(match)
		if len(sub) < 3 {
			return match
		}
		// Group 1 is quoted URL, group 2 is unquoted URL
		originalURL := sub[1]
		if originalURL == "" {
			originalURL = sub[2]
		}
		originalURL = strings.TrimSpace(originalURL)
		newURL := fn(originalURL)
		return fmt.Sprintf("url(\"%s\")", cssEscapeDoubleQuoted(newURL))
	})
}
