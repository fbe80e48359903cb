package compile

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gosimple/slug"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"stylec/config"
	"stylec/misc"
	"stylec/state"
	"stylec/style"
	"stylec/theme"
)

// ComponentCSS is one compiled theme component: the class generated for it
// and the compiler output to be placed under that class.
type ComponentCSS struct {
	Name     string
	Class    string // class name without leading dot
	Compiled style.Compiled
}

// Document carries one parsed theme and everything derived from it during
// compilation.
type Document struct {
	SrcName string
	Format  config.OutputFmt
	WorkDir string
	Theme   *theme.Theme

	Components []ComponentCSS

	compiler *style.Compiler
}

// Cleanup releases the document workdir, saving its content to the report
// first when one is active.
func (d *Document) Cleanup(env *state.LocalEnv) {
	if d == nil || d.WorkDir == "" {
		return
	}
	if env.Rpt != nil {
		if err := env.Rpt.StoreCopy(fmt.Sprintf("%s-%s", misc.GetAppName(), d.Theme.ID), d.WorkDir); err != nil {
			env.Log.Warn("Unable to save workdir to report", zap.Error(err))
		}
	}
	os.RemoveAll(d.WorkDir)
	d.WorkDir = ""
}

// Compiler exposes the configured style compiler, import and preview reuse
// its registry and palette.
func (d *Document) Compiler() *style.Compiler { return d.compiler }

// prepareDocument reads theme source, parses it and compiles every component.
// Any component failing to compile fails the whole document, there is no
// partial output.
func prepareDocument(ctx context.Context, r io.Reader, srcName string, format config.OutputFmt, log *zap.Logger) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	env := state.EnvFromContext(ctx)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read theme source: %w", err)
	}

	t, err := theme.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("unable to parse theme: %w", err)
	}

	// Save sources for debugging
	if env.Rpt != nil {
		base := filepath.Base(srcName)
		env.Rpt.StoreData(fmt.Sprintf("source-%s-%s", t.ID, base), data)
		if normalized, err := theme.Marshal(t); err == nil {
			env.Rpt.StoreData(fmt.Sprintf("parsed-%s-%s", t.ID, base), normalized)
		}
	}

	sheet := &env.Cfg.Document.Stylesheet

	reg, err := registryFor(t, sheet.Breakpoints)
	if err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp("", misc.GetAppName()+"-")
	if err != nil {
		return nil, fmt.Errorf("unable to create temporary directory: %w", err)
	}

	comp := style.New(log,
		style.WithRegistry(reg),
		style.WithPalette(t.Colors(sheet.UseWebColors, sheet.Palette)),
		style.WithUnitless(sheet.UnitlessProperties...))

	d := &Document{
		SrcName:  srcName,
		Format:   format,
		WorkDir:  tmpDir,
		Theme:    t,
		compiler: comp,
	}

	prefix := sheet.ClassPrefix
	classes := make(map[string]int, len(t.Components))

	var cerr error
	for _, c := range t.Components {
		class := classFor(prefix, c.Class, c.Name, classes)
		compiled, err := comp.Compile(c.Style, "."+class)
		if err != nil {
			cerr = multierr.Append(cerr, fmt.Errorf("component %q: %w", c.Name, err))
			continue
		}
		if compiled.Empty() {
			log.Debug("Component compiled to nothing", zap.String("component", c.Name))
		}
		d.Components = append(d.Components, ComponentCSS{Name: c.Name, Class: class, Compiled: compiled})
	}
	if cerr != nil {
		os.RemoveAll(tmpDir)
		return nil, cerr
	}

	if env.Rpt != nil {
		env.Rpt.StoreData(fmt.Sprintf("document-%s.txt", t.ID), []byte(d.String()))
	}

	log.Debug("Theme compiled",
		zap.String("theme", t.Name), zap.Stringer("id", t.ID), zap.Int("components", len(d.Components)))

	return d, nil
}

// registryFor picks the breakpoint table the document compiles against: the
// theme's own table when declared, the configuration supplied one next, the
// stock set otherwise.
func registryFor(t *theme.Theme, override []config.BreakpointConfig) (*style.Registry, error) {
	if len(t.Breakpoints) > 0 {
		reg, err := t.Registry()
		if err != nil {
			return nil, fmt.Errorf("theme has invalid breakpoints: %w", err)
		}
		return reg, nil
	}
	if len(override) == 0 {
		return style.DefaultRegistry(), nil
	}
	reg, err := style.NewRegistry(breakpointTable(override)...)
	if err != nil {
		return nil, fmt.Errorf("configuration has invalid breakpoints: %w", err)
	}
	return reg, nil
}

// breakpointTable converts configuration breakpoint entries to the registry
// declaration form.
func breakpointTable(override []config.BreakpointConfig) []style.Breakpoint {
	bps := make([]style.Breakpoint, 0, len(override))
	for _, bp := range override {
		bps = append(bps, style.Breakpoint{
			Name:       bp.Name,
			Predicate:  bp.Query,
			Inherits:   bp.Inherits,
			MobileOnly: bp.MobileOnly,
		})
	}
	return bps
}

// classFor derives a css class name from component name, keeping names
// unique when different components slug to the same class. An explicit
// override is taken verbatim, prefix and slugging apply to derived names
// only.
func classFor(prefix, override, name string, seen map[string]int) string {
	class := override
	if len(class) == 0 {
		class = slug.Make(name)
		if len(class) == 0 {
			class = "component"
		}
		class = prefix + class
	}

	seen[class]++
	if n := seen[class]; n > 1 {
		return fmt.Sprintf("%s-%d", class, n)
	}
	return class
}
