// Package theme reads and writes theme documents: YAML files pairing named
// components with nested style trees, plus the palette, fonts and breakpoint
// registry the stylesheet is compiled against.
package theme

import (
	"errors"

	"github.com/google/uuid"

	"stylec/palette"
	"stylec/style"
)

// ErrBadDocument is wrapped by every structural error reported while
// reading a theme document.
var ErrBadDocument = errors.New("malformed theme document")

type (
	// FontSpec describes one @font-face the theme ships.
	FontSpec struct {
		Family string
		Src    string
		Style  string
		Weight string
	}

	// BreakpointSpec is one entry of a theme-defined breakpoint registry.
	BreakpointSpec struct {
		Name       string
		Query      string
		MobileOnly bool
		Inherits   []string
	}

	// Component binds a class name to its style tree. Component order is
	// the emission order of the stylesheet. Class, when set, is used as the
	// css class verbatim instead of deriving one from Name.
	Component struct {
		Name  string
		Class string
		Style *style.Node
	}

	// Theme is a parsed theme document.
	Theme struct {
		ID          uuid.UUID
		Name        string
		Description string
		Palette     map[string]string
		Fonts       []FontSpec
		Breakpoints []BreakpointSpec
		Components  []Component
	}
)

// Registry builds the breakpoint registry the theme compiles against: the
// theme's own table when one is declared, the stock set otherwise.
func (t *Theme) Registry() (*style.Registry, error) {
	if len(t.Breakpoints) == 0 {
		return style.DefaultRegistry(), nil
	}
	bps := make([]style.Breakpoint, 0, len(t.Breakpoints))
	for _, bp := range t.Breakpoints {
		bps = append(bps, style.Breakpoint{
			Name:       bp.Name,
			Predicate:  bp.Query,
			Inherits:   bp.Inherits,
			MobileOnly: bp.MobileOnly,
		})
	}
	return style.NewRegistry(bps...)
}

// Colors returns the theme palette layered over the ambient tables: the CSS
// named color table when webColors is set, then extra entries, with the
// theme's own entries winning over both.
func (t *Theme) Colors(webColors bool, extra map[string]string) *palette.Palette {
	base := palette.New(extra)
	if webColors {
		base = palette.Web().Merge(base)
	}
	return base.Merge(palette.New(t.Palette))
}

// Component returns the named component and whether it exists.
func (t *Theme) Component(name string) (Component, bool) {
	for _, c := range t.Components {
		if c.Name == name {
			return c, true
		}
	}
	return Component{}, false
}
