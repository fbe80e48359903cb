package compile

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"stylec/config"
	"stylec/css"
	"stylec/state"
	"stylec/style"
)

// assembleStylesheet builds the output stylesheet for a document: font faces
// first, then every component in theme order, each as a base rule followed by
// its auxiliary rules. Extra stylesheet, when configured, is parsed and
// appended at the end so it wins the cascade.
func assembleStylesheet(d *Document, env *state.LocalEnv) (*css.Stylesheet, error) {
	sheet := &css.Stylesheet{}

	if env.Cfg.Document.Stylesheet.IncludeFonts {
		for _, f := range d.Theme.Fonts {
			ff := css.FontFace{
				Family: f.Family,
				Src:    fontSrc(f.Src),
				Style:  f.Style,
				Weight: f.Weight,
			}
			sheet.Append(css.StylesheetItem{FontFace: &ff})
		}
	}

	for _, c := range d.Components {
		appendCompiled(sheet, "."+c.Class, c.Compiled)
	}

	if path := env.Cfg.Document.ExtraStylesheetPath; path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("unable to read extra stylesheet: %w", err)
		}
		extra := css.NewParser(env.Log).Parse(data, path)
		for _, w := range extra.Warnings {
			env.Log.Warn("Extra stylesheet", zap.String("path", path), zap.String("problem", w))
		}
		sheet.Items = append(sheet.Items, extra.Items...)
	}

	return sheet, nil
}

// appendCompiled converts one compiler result to stylesheet items: the base
// rule with flat declarations, then auxiliary rules with their media nesting
// rebuilt, outermost condition first.
func appendCompiled(sheet *css.Stylesheet, base string, compiled style.Compiled) {
	if compiled.Declarations != "" {
		sheet.Append(css.StylesheetItem{Rule: &css.Rule{
			Selector:     css.Sel(base),
			Declarations: splitDecls(compiled.Declarations),
		}})
	}
	for _, r := range compiled.Rules {
		item := css.StylesheetItem{Rule: &css.Rule{
			Selector:     css.Sel(r.Selector),
			Declarations: splitDecls(r.Body),
		}}
		for i := len(r.Media) - 1; i >= 0; i-- {
			item = css.StylesheetItem{Media: &css.MediaBlock{
				Condition: r.Media[i],
				Items:     []css.StylesheetItem{item},
			}}
		}
		sheet.Append(item)
	}
}

// splitDecls breaks a flat declaration string back into property/value pairs.
// Separators inside quoted strings do not split, content values carry both
// colons and semicolons.
func splitDecls(body string) []css.Declaration {
	var decls []css.Declaration
	for _, part := range splitOutsideQuotes(body, ';') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		prop, value, found := cutOutsideQuotes(part, ':')
		if !found {
			continue
		}
		decls = append(decls, css.Declaration{
			Property: strings.TrimSpace(prop),
			Value:    css.Value{Raw: strings.TrimSpace(value)},
		})
	}
	return decls
}

func splitOutsideQuotes(s string, sep byte) []string {
	var parts []string
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == sep:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

func cutOutsideQuotes(s string, sep byte) (before, after string, found bool) {
	var quote byte
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == sep:
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

// fontSrc wraps a bare font path into url() notation, full src values with
// format() hints pass through untouched.
func fontSrc(src string) string {
	if strings.Contains(src, "url(") || strings.HasPrefix(src, "local(") {
		return src
	}
	return fmt.Sprintf("url(\"%s\")", src)
}

// renderStylesheet produces the final stylesheet text: expanded banner
// comment on top, then the sheet in the configured output mode.
func renderStylesheet(d *Document, sheet *css.Stylesheet, env *state.LocalEnv) ([]byte, error) {
	var sb strings.Builder

	if banner := env.Cfg.Document.Stylesheet.Banner; banner != "" {
		text, err := expandTemplate(d, config.BannerTemplateFieldName, banner, d.Format)
		if err != nil {
			return nil, fmt.Errorf("unable to expand banner: %w", err)
		}
		if text != "" {
			// comment terminator inside banner text would break the sheet
			text = strings.ReplaceAll(text, "*/", "* /")
			sb.WriteString("/* ")
			sb.WriteString(text)
			sb.WriteString(" */\n\n")
		}
	}

	var err error
	switch env.Cfg.Document.Stylesheet.Mode {
	case config.OutputModeCompact:
		_, err = sheet.WriteCompact(&sb)
	default:
		_, err = sheet.WriteTo(&sb)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to render stylesheet: %w", err)
	}
	return []byte(sb.String()), nil
}
