package compile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"stylec/config"
	"stylec/css"
	"stylec/state"
	"stylec/style"
	"stylec/theme"
)

// urlExtractPattern extracts URLs from raw CSS value strings such as
// @font-face src. It matches url("path"), url('path'), and url(path).
var urlExtractPattern = regexp.MustCompile(`url\s*\(\s*(?:["']([^"']*)["']|([^)"]*))\s*\)`)

// RunImport is the "import" subcommand entry point: folds an existing
// stylesheet back into a theme document.
func RunImport(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("import")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input stylesheet has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.Overwrite = cmd.Bool("overwrite")

	log.Info("Import starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Import completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	file, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("unable to open stylesheet: %w", err)
	}
	defer file.Close()

	t, err := importStylesheet(ctx, file, filepath.Base(src), log)
	if err != nil {
		return fmt.Errorf("unable to import stylesheet (%s): %w", src, err)
	}

	data, err := theme.Marshal(t)
	if err != nil {
		return fmt.Errorf("unable to serialize theme: %w", err)
	}

	base := config.CleanFileName(strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)))
	outputName := filepath.Join(dst, base+".yaml")

	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	if err := os.WriteFile(outputName, data, 0644); err != nil {
		return fmt.Errorf("unable to write theme document: %w", err)
	}

	if env.Rpt != nil {
		env.Rpt.Store(fmt.Sprintf("import-%s.yaml", t.ID), outputName)
	}

	log.Info("Theme document written",
		zap.String("file", outputName), zap.Int("components", len(t.Components)), zap.Int("fonts", len(t.Fonts)))
	return nil
}

// importStylesheet parses CSS and folds it into a theme: every class-rooted
// rule becomes part of a component style tree, media conditions fold into
// breakpoint scopes, compound classes into modifier specs and descendant
// selectors into child specs. Rules the theme model cannot express are
// dropped with a warning.
func importStylesheet(ctx context.Context, r io.Reader, srcName string, log *zap.Logger) (*theme.Theme, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	env := state.EnvFromContext(ctx)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read stylesheet: %w", err)
	}
	data, err = decodeStylesheet(data, log)
	if err != nil {
		return nil, err
	}

	sheet := css.NewParser(log).Parse(data, srcName)
	for _, w := range sheet.Warnings {
		log.Warn("Stylesheet", zap.String("source", srcName), zap.String("problem", w))
	}

	im, err := newImporter(env, log)
	if err != nil {
		return nil, err
	}
	im.fold(sheet.Items, nil)

	if len(im.order) == 0 && len(im.fonts) == 0 {
		return nil, errors.New("stylesheet has no class rules to import")
	}

	comps := make([]theme.Component, 0, len(im.order))
	for _, class := range im.order {
		comps = append(comps, theme.Component{Name: class, Style: im.roots[class]})
	}

	// Synthesized breakpoints replace the registry wholesale, so the table
	// matched against is carried over to keep resolved names resolvable.
	breaks := im.breaks
	if len(breaks) > 0 {
		full := make([]theme.BreakpointSpec, 0, len(breaks)+len(im.table))
		for _, bp := range im.table {
			full = append(full, theme.BreakpointSpec{
				Name:       bp.Name,
				Query:      bp.Predicate,
				MobileOnly: bp.MobileOnly,
				Inherits:   bp.Inherits,
			})
		}
		breaks = append(full, breaks...)
	}

	return &theme.Theme{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        strings.TrimSuffix(srcName, filepath.Ext(srcName)),
		Components:  comps,
		Fonts:       im.fonts,
		Breakpoints: breaks,
	}, nil
}

// decodeStylesheet transcodes stylesheet bytes to UTF-8: BOM first, then a
// leading @charset rule.
func decodeStylesheet(data []byte, log *zap.Logger) ([]byte, error) {
	if enc := detectUTF(data); enc != encUnknown {
		decoded, err := io.ReadAll(selectReader(bytes.NewReader(data), enc))
		if err != nil {
			return nil, fmt.Errorf("unable to decode stylesheet: %w", err)
		}
		return decoded, nil
	}
	if label := cssCharsetLabel(data); label != "" {
		cr, err := charset.NewReaderLabel(label, bytes.NewReader(data))
		if err != nil {
			log.Warn("Unknown @charset label, assuming UTF-8", zap.String("charset", label), zap.Error(err))
			return data, nil
		}
		decoded, err := io.ReadAll(cr)
		if err != nil {
			return nil, fmt.Errorf("unable to decode stylesheet from %s: %w", label, err)
		}
		return decoded, nil
	}
	return data, nil
}

// cssCharsetLabel extracts the label of a leading @charset rule. The rule
// counts only when it opens the file exactly: @charset "label";
func cssCharsetLabel(data []byte) string {
	const prefix = `@charset "`
	if !bytes.HasPrefix(data, []byte(prefix)) {
		return ""
	}
	rest := data[len(prefix):]
	end := bytes.IndexByte(rest, '"')
	if end < 0 {
		return ""
	}
	return string(rest[:end])
}

type importer struct {
	env *state.LocalEnv
	log *zap.Logger

	comp  *style.Compiler // consulted for the unitless property set
	reg   *style.Registry
	table []style.Breakpoint // the declarations reg was built from

	roots map[string]*style.Node
	order []string

	fonts     []theme.FontSpec
	breaks    []theme.BreakpointSpec
	breakKeys map[string]string // media condition -> breakpoint key
}

func newImporter(env *state.LocalEnv, log *zap.Logger) (*importer, error) {
	sheet := &env.Cfg.Document.Stylesheet

	// Media conditions and numeric values fold against the same registry and
	// unitless set the compile pipeline would use for a theme without its own
	// breakpoint table.
	table := style.DefaultBreakpoints()
	if len(sheet.Breakpoints) > 0 {
		table = breakpointTable(sheet.Breakpoints)
	}
	reg, err := style.NewRegistry(table...)
	if err != nil {
		return nil, fmt.Errorf("configuration has invalid breakpoints: %w", err)
	}

	comp := style.New(log, style.WithRegistry(reg), style.WithUnitless(sheet.UnitlessProperties...))
	return &importer{
		env:       env,
		log:       log,
		comp:      comp,
		reg:       reg,
		table:     table,
		roots:     make(map[string]*style.Node),
		breakKeys: make(map[string]string),
	}, nil
}

// fold walks stylesheet items, conds is the media condition chain currently
// in effect, outermost first.
func (im *importer) fold(items []css.StylesheetItem, conds []string) {
	for _, item := range items {
		switch {
		case item.Import != nil:
			im.log.Warn("Dropping @import, not expressible in a theme", zap.String("url", *item.Import))

		case item.FontFace != nil:
			ff := item.FontFace
			if ff.Family == "" {
				im.log.Warn("Dropping @font-face without font-family")
				continue
			}
			im.fonts = append(im.fonts, theme.FontSpec{
				Family: ff.Family,
				Src:    fontSpecSrc(ff.Src),
				Style:  ff.Style,
				Weight: ff.Weight,
			})

		case item.Media != nil:
			next := append(append([]string(nil), conds...), item.Media.Condition)
			im.fold(item.Media.Items, next)

		case item.Rule != nil:
			im.foldRule(item.Rule, conds)
		}
	}
}

// foldRule places one rule's declarations at the right spot of a component
// tree.
func (im *importer) foldRule(rule *css.Rule, conds []string) {
	if len(rule.Declarations) == 0 {
		return
	}

	sel := rule.Selector
	top := topmost(&sel)
	if top.Element != "" || len(top.Classes) == 0 {
		im.log.Warn("Skipping rule, selector is not rooted in a class", zap.String("selector", sel.Raw))
		return
	}

	class := top.Classes[0]
	if prefix := im.env.Cfg.Document.Stylesheet.ClassPrefix; prefix != "" {
		class = strings.TrimPrefix(class, prefix)
	}

	node := im.root(class)

	// breakpoint scopes first, the compiler accepts them at any depth but
	// this keeps imported trees uniform
	for _, cond := range conds {
		node = subtree(node, im.breakpointKey(cond))
	}

	// extra classes on the root compound are modifiers
	for _, mod := range top.Classes[1:] {
		node = modifierNode(node, mod)
	}

	if top.Pseudo != "" {
		key, ok := style.PseudoKey(top.Pseudo)
		if !ok {
			im.log.Warn("Skipping rule, unsupported pseudo", zap.String("selector", sel.Raw), zap.String("pseudo", top.Pseudo))
			return
		}
		if existing, ok := node.Get(key); ok && existing.Node != nil && top.PseudoArg != "" {
			if v, ok := existing.Node.Get(style.KeyParam); ok && v.Str != nil && *v.Str != top.PseudoArg {
				im.log.Warn("Skipping rule, conflicting pseudo arguments", zap.String("selector", sel.Raw))
				return
			}
		}
		node = subtree(node, key)
		if top.PseudoArg != "" {
			node.Set(style.KeyParam, style.Str(top.PseudoArg))
		}
	}

	// everything right of the root compound is a child selector
	if childSel := sel.ChildSelector(); childSel != "" {
		node = childNode(node, childSel)
	}

	for _, d := range rule.Declarations {
		node.Set(style.CamelKey(d.Property), im.foldValue(d.Property, d.Value))
	}
}

func (im *importer) root(class string) *style.Node {
	if n, ok := im.roots[class]; ok {
		return n
	}
	n := style.NewNode()
	im.roots[class] = n
	im.order = append(im.order, class)
	return n
}

// breakpointKey maps a media condition to a breakpoint key, synthesizing a
// registry entry when the active table has no match.
func (im *importer) breakpointKey(cond string) string {
	if name, ok := im.reg.NameFor(cond); ok {
		return name
	}
	if key, ok := im.breakKeys[cond]; ok {
		return key
	}

	key := slug.Make(cond)
	if key == "" {
		key = fmt.Sprintf("media-%d", len(im.breaks)+1)
	}
	for base, n := key, 2; im.reg.Has(key) || im.keyTaken(key); n++ {
		key = fmt.Sprintf("%s-%d", base, n)
	}

	im.log.Debug("Synthesized breakpoint for media condition", zap.String("condition", cond), zap.String("name", key))
	im.breaks = append(im.breaks, theme.BreakpointSpec{Name: key, Query: cond})
	im.breakKeys[cond] = key
	return key
}

func (im *importer) keyTaken(key string) bool {
	for _, k := range im.breakKeys {
		if k == key {
			return true
		}
	}
	return false
}

// foldValue turns a parsed declaration value back into a tree value. Numbers
// fold to bare numerics only when compilation would regenerate the same
// text, everything else stays a string.
func (im *importer) foldValue(prop string, v css.Value) style.Value {
	if v.IsNumeric() {
		switch {
		case v.Unit == "" && im.comp.Unitless(prop):
			return style.Num(v.Num)
		case v.Unit == "px" && !im.comp.Unitless(prop):
			return style.Num(v.Num)
		}
	}
	return style.Str(v.Raw)
}

// topmost returns the leftmost compound of a selector chain, the part that
// names the component.
func topmost(sel *css.Selector) *css.Selector {
	cur := sel
	for cur.Ancestor != nil {
		cur = cur.Ancestor
	}
	return cur
}

// subtree returns the nested node under key, creating it when absent.
func subtree(n *style.Node, key string) *style.Node {
	if v, ok := n.Get(key); ok && v.Node != nil {
		return v.Node
	}
	sub := style.NewNode()
	n.Set(key, style.Subtree(sub))
	return sub
}

// modifierNode returns the style node of the named modifier spec, creating
// the spec when absent.
func modifierNode(n *style.Node, name string) *style.Node {
	v, _ := n.Get(style.KeyModifier)
	for i := range v.Mods {
		if v.Mods[i].Name == name {
			return v.Mods[i].Style
		}
	}
	sub := style.NewNode()
	n.Set(style.KeyModifier, style.Modifiers(append(v.Mods, style.ModifierSpec{Name: name, Style: sub})...))
	return sub
}

// childNode returns the style node of the child spec with the given
// selector, creating the spec when absent.
func childNode(n *style.Node, selector string) *style.Node {
	v, _ := n.Get(style.KeyChild)
	for i := range v.Kids {
		if v.Kids[i].Selector == selector {
			return v.Kids[i].Style
		}
	}
	sub := style.NewNode()
	n.Set(style.KeyChild, style.Children(append(v.Kids, style.ChildSpec{Selector: selector, Style: sub})...))
	return sub
}

// fontSpecSrc reduces a full src value to the referenced path, theme font
// entries keep bare paths.
func fontSpecSrc(src string) string {
	m := urlExtractPattern.FindStringSubmatch(src)
	if m == nil {
		return src
	}
	u := m[1]
	if u == "" {
		u = m[2]
	}
	return strings.TrimSpace(u)
}
