package theme

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"

	yaml "gopkg.in/yaml.v3"

	"stylec/style"
)

// Marshal renders the theme back to YAML with component order and style
// entry order intact. The import workflow and id minting rely on this being
// re-parseable.
func Marshal(t *Theme) ([]byte, error) {
	root := mapNode()

	appendPair(root, "id", strNode(t.ID.String()))
	appendPair(root, "name", strNode(t.Name))
	if t.Description != "" {
		appendPair(root, "description", strNode(t.Description))
	}

	if len(t.Palette) > 0 {
		pal := mapNode()
		for _, name := range slices.Sorted(maps.Keys(t.Palette)) {
			appendPair(pal, name, strNode(t.Palette[name]))
		}
		appendPair(root, "palette", pal)
	}

	if len(t.Fonts) > 0 {
		fonts := seqNode()
		for _, f := range t.Fonts {
			entry := mapNode()
			appendPair(entry, "family", strNode(f.Family))
			appendPair(entry, "src", strNode(f.Src))
			if f.Style != "" {
				appendPair(entry, "style", strNode(f.Style))
			}
			if f.Weight != "" {
				appendPair(entry, "weight", strNode(f.Weight))
			}
			fonts.Content = append(fonts.Content, entry)
		}
		appendPair(root, "fonts", fonts)
	}

	if len(t.Breakpoints) > 0 {
		bps := seqNode()
		for _, bp := range t.Breakpoints {
			entry := mapNode()
			appendPair(entry, "name", strNode(bp.Name))
			appendPair(entry, "query", strNode(bp.Query))
			if bp.MobileOnly {
				appendPair(entry, "mobile_only", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: "true"})
			}
			if len(bp.Inherits) > 0 {
				inh := seqNode()
				for _, name := range bp.Inherits {
					inh.Content = append(inh.Content, strNode(name))
				}
				appendPair(entry, "inherits", inh)
			}
			bps.Content = append(bps.Content, entry)
		}
		appendPair(root, "breakpoints", bps)
	}

	comps := mapNode()
	for _, c := range t.Components {
		node, err := styleYAML(c.Style)
		if err != nil {
			return nil, fmt.Errorf("component %q: %w", c.Name, err)
		}
		if c.Class != "" {
			entry := mapNode()
			appendPair(entry, componentClassKey, strNode(c.Class))
			entry.Content = append(entry.Content, node.Content...)
			node = entry
		}
		appendPair(comps, c.Name, node)
	}
	appendPair(root, "components", comps)

	data, err := yaml.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal theme document: %w", err)
	}
	return data, nil
}

// styleYAML renders a style node as a YAML mapping, inverse of styleTree.
func styleYAML(n *style.Node) (*yaml.Node, error) {
	out := mapNode()
	for _, e := range n.Entries() {
		switch {
		case e.Value.Str != nil:
			appendPair(out, e.Key, strNode(*e.Value.Str))
		case e.Value.Num != nil:
			appendPair(out, e.Key, numNode(*e.Value.Num))
		case e.Value.Node != nil:
			sub, err := styleYAML(e.Value.Node)
			if err != nil {
				return nil, err
			}
			appendPair(out, e.Key, sub)
		case e.Value.Mods != nil:
			specs := make([]*yaml.Node, 0, len(e.Value.Mods))
			for _, spec := range e.Value.Mods {
				entry, err := specYAML("name", spec.Name, spec.Style)
				if err != nil {
					return nil, err
				}
				specs = append(specs, entry)
			}
			appendPair(out, e.Key, collapseSpecs(specs))
		case e.Value.Kids != nil:
			specs := make([]*yaml.Node, 0, len(e.Value.Kids))
			for _, spec := range e.Value.Kids {
				entry, err := specYAML("selector", spec.Selector, spec.Style)
				if err != nil {
					return nil, err
				}
				specs = append(specs, entry)
			}
			appendPair(out, e.Key, collapseSpecs(specs))
		default:
			return nil, fmt.Errorf("key %q has no value", e.Key)
		}
	}
	return out, nil
}

// specYAML renders one modifier or child spec: the identifying field first,
// the style entries after it.
func specYAML(field, value string, sub *style.Node) (*yaml.Node, error) {
	entry := mapNode()
	appendPair(entry, field, strNode(value))
	if sub != nil {
		body, err := styleYAML(sub)
		if err != nil {
			return nil, err
		}
		entry.Content = append(entry.Content, body.Content...)
	}
	return entry, nil
}

// collapseSpecs keeps a single spec as a plain mapping and wraps several in
// a sequence, matching both accepted input shapes.
func collapseSpecs(specs []*yaml.Node) *yaml.Node {
	if len(specs) == 1 {
		return specs[0]
	}
	seq := seqNode()
	seq.Content = specs
	return seq
}

func mapNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func seqNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func numNode(f float64) *yaml.Node {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatFloat(f, 'f', -1, 64)}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(f, 'f', -1, 64)}
}

func appendPair(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, strNode(key), value)
}
