// Package palette provides immutable identifier to CSS value lookup tables.
// A palette is consulted during value normalization: when a style value is a
// bare identifier present in the table, the mapped CSS value is emitted
// instead. Unresolved identifiers are never an error, they pass through as
// plain strings.
package palette

// Palette is a read-only identifier table. The zero value and the nil
// pointer are both valid empty palettes.
type Palette struct {
	entries map[string]string
}

// New builds a palette from entries. The input map is copied, later caller
// mutations do not affect the palette.
func New(entries map[string]string) *Palette {
	p := &Palette{entries: make(map[string]string, len(entries))}
	for k, v := range entries {
		p.entries[k] = v
	}
	return p
}

// Lookup resolves an identifier. Safe to call on a nil palette.
func (p *Palette) Lookup(id string) (string, bool) {
	if p == nil || p.entries == nil {
		return "", false
	}
	v, ok := p.entries[id]
	return v, ok
}

// Len returns the number of entries. Safe to call on a nil palette.
func (p *Palette) Len() int {
	if p == nil {
		return 0
	}
	return len(p.entries)
}

// Merge returns a new palette with overlay entries taking precedence over
// the receiver's. Either side may be nil.
func (p *Palette) Merge(overlay *Palette) *Palette {
	merged := &Palette{entries: make(map[string]string, p.Len()+overlay.Len())}
	if p != nil {
		for k, v := range p.entries {
			merged.entries[k] = v
		}
	}
	if overlay != nil {
		for k, v := range overlay.entries {
			merged.entries[k] = v
		}
	}
	return merged
}
