package compile

import (
	"context"
	"io"
	"maps"
	"slices"
	"sort"

	"github.com/maruel/natural"

	"stylec/config"
	"stylec/state"
	"stylec/utils/debug"
)

// DumpTheme compiles theme source and returns both the debug tree and the
// rendered stylesheet. Debug tooling entry point, regular processing goes
// through the compile subcommand.
func DumpTheme(ctx context.Context, r io.Reader, srcName string) (string, []byte, error) {
	env := state.EnvFromContext(ctx)

	d, err := prepareDocument(ctx, r, srcName, config.OutputFmtCss, env.Log)
	if err != nil {
		return "", nil, err
	}
	defer d.Cleanup(env)

	sheet, err := assembleStylesheet(d, env)
	if err != nil {
		return "", nil, err
	}
	data, err := renderStylesheet(d, sheet, env)
	if err != nil {
		return "", nil, err
	}
	return d.String(), data, nil
}

// String returns a readable tree of the whole Document: theme header,
// palette, fonts, resolved breakpoints and every compiled component. It
// exists solely for manual inspection during debugging.
func (d *Document) String() string {
	if d == nil {
		return "<nil Document>"
	}

	tw := debug.NewTreeWriter()

	tw.Line(0, "Theme[%q] id[%s] source[%q] format[%s]", d.Theme.Name, d.Theme.ID, d.SrcName, d.Format)
	if d.Theme.Description != "" {
		tw.TextBlock(0, "Description", d.Theme.Description)
	}

	if len(d.Theme.Palette) > 0 {
		tw.Line(0, "Palette: %d", len(d.Theme.Palette))
		keys := slices.Collect(maps.Keys(d.Theme.Palette))
		sort.Sort(natural.StringSlice(keys))
		for _, k := range keys {
			tw.Line(1, "%s = %q", k, d.Theme.Palette[k])
		}
	}

	if len(d.Theme.Fonts) > 0 {
		tw.Line(0, "Fonts: %d", len(d.Theme.Fonts))
		for _, f := range d.Theme.Fonts {
			tw.Line(1, "Family[%q] src[%q] style[%q] weight[%q]", f.Family, f.Src, f.Style, f.Weight)
		}
	}

	if reg := d.compiler.Registry(); reg != nil {
		names := reg.Names()
		tw.Line(0, "Breakpoints: %d", len(names))
		for _, n := range names {
			q, _ := reg.Query(n)
			tw.Line(1, "%s: %q", n, q)
		}
	}

	// Components stay in theme order, it is the emission order of the
	// stylesheet.
	tw.Line(0, "Components: %d", len(d.Components))
	for _, c := range d.Components {
		tw.Line(1, "Component[%q] class[%q] rules[%d]", c.Name, c.Class, len(c.Compiled.Rules))
		if c.Compiled.Declarations != "" {
			tw.TextBlock(2, "declarations", c.Compiled.Declarations)
		}
		for _, r := range c.Compiled.Rules {
			tw.Rule(2, r.Media, r.Selector, r.Body)
		}
	}

	return tw.String()
}
