package theme

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	yaml "gopkg.in/yaml.v3"

	"stylec/style"
)

// componentClassKey is the reserved component entry declaring an explicit
// css class. It never reaches the style tree and the compiler takes it
// verbatim, skipping both the class prefix and name slugging.
const componentClassKey = "className"

// Parse reads a theme document. Unknown top-level keys are rejected the
// same way configuration decoding rejects them, everything below components
// is interpreted as style trees with entry order preserved.
//
// A document without an id gets a fresh UUID minted, use Marshal to persist
// it.
func Parse(data []byte) (*Theme, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode theme document: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("empty theme document: %w", ErrBadDocument)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: theme document must be a mapping: %w", root.Line, ErrBadDocument)
	}

	t := &Theme{}
	for i := 0; i < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "id":
			id, err := uuid.Parse(val.Value)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad theme id %q: %w", val.Line, val.Value, ErrBadDocument)
			}
			t.ID = id
		case "name":
			t.Name = strings.TrimSpace(val.Value)
		case "description":
			t.Description = val.Value
		case "palette":
			pal, err := parsePalette(val)
			if err != nil {
				return nil, err
			}
			t.Palette = pal
		case "fonts":
			fonts, err := parseFonts(val)
			if err != nil {
				return nil, err
			}
			t.Fonts = fonts
		case "breakpoints":
			bps, err := parseBreakpoints(val)
			if err != nil {
				return nil, err
			}
			t.Breakpoints = bps
		case "components":
			comps, err := parseComponents(val)
			if err != nil {
				return nil, err
			}
			t.Components = comps
		default:
			return nil, fmt.Errorf("line %d: unknown theme key %q: %w", key.Line, key.Value, ErrBadDocument)
		}
	}

	if t.Name == "" {
		return nil, fmt.Errorf("theme name is required: %w", ErrBadDocument)
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.Must(uuid.NewV7())
	}
	return t, nil
}

func parsePalette(n *yaml.Node) (map[string]string, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: palette must be a mapping: %w", n.Line, ErrBadDocument)
	}
	pal := make(map[string]string, len(n.Content)/2)
	for i := 0; i < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: palette entry %q must be a scalar: %w", val.Line, key.Value, ErrBadDocument)
		}
		pal[key.Value] = val.Value
	}
	return pal, nil
}

func parseFonts(n *yaml.Node) ([]FontSpec, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: fonts must be a sequence: %w", n.Line, ErrBadDocument)
	}
	fonts := make([]FontSpec, 0, len(n.Content))
	for _, entry := range n.Content {
		if entry.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: font entry must be a mapping: %w", entry.Line, ErrBadDocument)
		}
		var f FontSpec
		for i := 0; i < len(entry.Content); i += 2 {
			key, val := entry.Content[i], entry.Content[i+1]
			switch key.Value {
			case "family":
				f.Family = val.Value
			case "src":
				f.Src = val.Value
			case "style":
				f.Style = val.Value
			case "weight":
				f.Weight = val.Value
			default:
				return nil, fmt.Errorf("line %d: unknown font key %q: %w", key.Line, key.Value, ErrBadDocument)
			}
		}
		if f.Family == "" || f.Src == "" {
			return nil, fmt.Errorf("line %d: font entry needs family and src: %w", entry.Line, ErrBadDocument)
		}
		fonts = append(fonts, f)
	}
	return fonts, nil
}

func parseBreakpoints(n *yaml.Node) ([]BreakpointSpec, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: breakpoints must be a sequence: %w", n.Line, ErrBadDocument)
	}
	bps := make([]BreakpointSpec, 0, len(n.Content))
	for _, entry := range n.Content {
		if entry.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: breakpoint entry must be a mapping: %w", entry.Line, ErrBadDocument)
		}
		var bp BreakpointSpec
		for i := 0; i < len(entry.Content); i += 2 {
			key, val := entry.Content[i], entry.Content[i+1]
			switch key.Value {
			case "name":
				bp.Name = val.Value
			case "query":
				bp.Query = val.Value
			case "mobile_only":
				b, err := strconv.ParseBool(val.Value)
				if err != nil {
					return nil, fmt.Errorf("line %d: bad mobile_only value %q: %w", val.Line, val.Value, ErrBadDocument)
				}
				bp.MobileOnly = b
			case "inherits":
				switch val.Kind {
				case yaml.ScalarNode:
					bp.Inherits = []string{val.Value}
				case yaml.SequenceNode:
					for _, item := range val.Content {
						bp.Inherits = append(bp.Inherits, item.Value)
					}
				default:
					return nil, fmt.Errorf("line %d: inherits must be a name or a sequence of names: %w", val.Line, ErrBadDocument)
				}
			default:
				return nil, fmt.Errorf("line %d: unknown breakpoint key %q: %w", key.Line, key.Value, ErrBadDocument)
			}
		}
		bps = append(bps, bp)
	}
	return bps, nil
}

func parseComponents(n *yaml.Node) ([]Component, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: components must be a mapping: %w", n.Line, ErrBadDocument)
	}
	comps := make([]Component, 0, len(n.Content)/2)
	seen := make(map[string]struct{}, len(n.Content)/2)
	for i := 0; i < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		if strings.TrimSpace(key.Value) == "" {
			return nil, fmt.Errorf("line %d: component name cannot be empty: %w", key.Line, ErrBadDocument)
		}
		if _, dup := seen[key.Value]; dup {
			return nil, fmt.Errorf("line %d: duplicate component %q: %w", key.Line, key.Value, ErrBadDocument)
		}
		seen[key.Value] = struct{}{}
		val = resolveAlias(val)
		var class string
		if val.Kind == yaml.MappingNode {
			var err error
			class, val, err = splitSpec(val, componentClassKey)
			if err != nil {
				return nil, fmt.Errorf("component %q: %w", key.Value, err)
			}
		}
		node, err := styleTree(val)
		if err != nil {
			return nil, fmt.Errorf("component %q: %w", key.Value, err)
		}
		comps = append(comps, Component{Name: key.Value, Class: strings.TrimSpace(class), Style: node})
	}
	return comps, nil
}

// styleTree converts a YAML mapping into a style node, preserving entry
// order. The structural keys take their special shapes here: class holds
// modifier specs, child holds child specs, either a single mapping or a
// sequence of them.
func styleTree(n *yaml.Node) (*style.Node, error) {
	n = resolveAlias(n)
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: style must be a mapping: %w", n.Line, ErrBadDocument)
	}

	node := style.NewNode()
	for i := 0; i < len(n.Content); i += 2 {
		key, val := n.Content[i], resolveAlias(n.Content[i+1])

		switch key.Value {
		case style.KeyModifier:
			specs, err := modifierSpecs(val)
			if err != nil {
				return nil, err
			}
			node.Set(key.Value, style.Modifiers(specs...))
			continue
		case style.KeyChild:
			specs, err := childSpecs(val)
			if err != nil {
				return nil, err
			}
			node.Set(key.Value, style.Children(specs...))
			continue
		}

		v, err := styleValue(key.Value, val)
		if err != nil {
			return nil, err
		}
		node.Set(key.Value, v)
	}
	return node, nil
}

func styleValue(key string, val *yaml.Node) (style.Value, error) {
	switch val.Kind {
	case yaml.ScalarNode:
		switch val.Tag {
		case "!!int", "!!float":
			f, err := strconv.ParseFloat(val.Value, 64)
			if err != nil {
				return style.Value{}, fmt.Errorf("line %d: bad number %q for %q: %w", val.Line, val.Value, key, ErrBadDocument)
			}
			return style.Num(f), nil
		case "!!null":
			return style.Value{}, fmt.Errorf("line %d: null value for %q: %w", val.Line, key, ErrBadDocument)
		default:
			return style.Str(val.Value), nil
		}
	case yaml.MappingNode:
		sub, err := styleTree(val)
		if err != nil {
			return style.Value{}, err
		}
		return style.Subtree(sub), nil
	default:
		return style.Value{}, fmt.Errorf("line %d: unsupported value shape for %q: %w", val.Line, key, ErrBadDocument)
	}
}

// modifierSpecs accepts a single spec mapping or a sequence of them.
func modifierSpecs(n *yaml.Node) ([]style.ModifierSpec, error) {
	var specs []style.ModifierSpec
	for _, entry := range specNodes(n) {
		entry = resolveAlias(entry)
		if entry.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: modifier spec must be a mapping: %w", entry.Line, ErrBadDocument)
		}
		name, rest, err := splitSpec(entry, "name")
		if err != nil {
			return nil, err
		}
		sub, err := styleTree(rest)
		if err != nil {
			return nil, err
		}
		specs = append(specs, style.ModifierSpec{Name: name, Style: sub})
	}
	return specs, nil
}

// childSpecs accepts a single spec mapping or a sequence of them.
func childSpecs(n *yaml.Node) ([]style.ChildSpec, error) {
	var specs []style.ChildSpec
	for _, entry := range specNodes(n) {
		entry = resolveAlias(entry)
		if entry.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: child spec must be a mapping: %w", entry.Line, ErrBadDocument)
		}
		selector, rest, err := splitSpec(entry, "selector")
		if err != nil {
			return nil, err
		}
		sub, err := styleTree(rest)
		if err != nil {
			return nil, err
		}
		specs = append(specs, style.ChildSpec{Selector: selector, Style: sub})
	}
	return specs, nil
}

func specNodes(n *yaml.Node) []*yaml.Node {
	n = resolveAlias(n)
	if n.Kind == yaml.SequenceNode {
		return n.Content
	}
	return []*yaml.Node{n}
}

// splitSpec extracts the scalar value of field from a spec mapping and
// returns the remaining entries as a new mapping node. A missing field
// yields an empty value, the compiler reports it against the whole
// compilation.
func splitSpec(n *yaml.Node, field string) (string, *yaml.Node, error) {
	rest := &yaml.Node{Kind: yaml.MappingNode, Line: n.Line}
	var value string
	for i := 0; i < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		if key.Value == field {
			if val.Kind != yaml.ScalarNode {
				return "", nil, fmt.Errorf("line %d: %s must be a scalar: %w", val.Line, field, ErrBadDocument)
			}
			value = val.Value
			continue
		}
		rest.Content = append(rest.Content, key, val)
	}
	return value, rest, nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}
