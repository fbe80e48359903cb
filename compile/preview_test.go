package compile

import (
	"strings"
	"testing"

	"stylec/config"
	"stylec/state"
)

func setupTestDocumentForPreview(t *testing.T) (*Document, *state.LocalEnv) {
	t.Helper()

	ctx, logger := setupTestContext(t, "")
	env := state.EnvFromContext(ctx)
	d, err := prepareDocument(ctx, strings.NewReader(themeDocSource), "dark.yaml", config.OutputFmtCss, logger)
	if err != nil {
		t.Fatalf("prepareDocument() error = %v", err)
	}
	t.Cleanup(func() { d.Cleanup(env) })
	return d, env
}

// TestBuildPreview tests the preview page structure: stylesheet link, default
// title and one sample section per component.
func TestBuildPreview(t *testing.T) {
	d, env := setupTestDocumentForPreview(t)

	doc := buildPreview(d, "dark.css", env)

	root := doc.Root()
	if root == nil || root.Tag != "html" {
		t.Fatalf("document root = %v, want html", root)
	}

	head := root.SelectElement("head")
	if head == nil {
		t.Fatal("preview has no head")
	}
	link := head.SelectElement("link")
	if link == nil || link.SelectAttrValue("href", "") != "dark.css" {
		t.Errorf("stylesheet link = %v, want href dark.css", link)
	}
	// default title template is "{{.Theme}} style preview"
	if title := head.SelectElement("title"); title == nil || title.Text() != "Dark style preview" {
		t.Errorf("title = %v, want expanded default template", title)
	}

	body := root.SelectElement("body")
	if body == nil {
		t.Fatal("preview has no body")
	}
	sections := body.SelectElements("section")
	if len(sections) != len(d.Components) {
		t.Fatalf("len(sections) = %d, want %d", len(sections), len(d.Components))
	}

	first := sections[0]
	if label := first.SelectElement("h2"); label == nil || label.Text() != "page" {
		t.Errorf("section label = %v, want page", label)
	}
	sample := first.SelectElement("div")
	if sample == nil || sample.SelectAttrValue("class", "") != "page" {
		t.Errorf("sample block = %v, want class page", sample)
	}
	if sample.SelectElement("ul") == nil || sample.SelectElement("p") == nil {
		t.Error("sample block misses child elements for descendant rules")
	}
}

// TestBuildPreview_Title tests title template expansion and its fallbacks.
func TestBuildPreview_Title(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"custom template", "Theme {{.Theme}} ({{.Format}})", "Theme Dark (css)"},
		{"empty template falls back to name", "", "Dark"},
		{"broken template falls back to name", "{{.Broken", "Dark"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, env := setupTestDocumentForPreview(t)
			env.Cfg.Document.Preview.Title = tt.template

			doc := buildPreview(d, "dark.css", env)
			title := doc.Root().SelectElement("head").SelectElement("title")
			if title == nil || title.Text() != tt.want {
				t.Errorf("title = %v, want %q", title, tt.want)
			}
		})
	}
}

// TestRenderPreview tests XHTML serialization of the preview page.
func TestRenderPreview(t *testing.T) {
	d, env := setupTestDocumentForPreview(t)

	page, err := renderPreview(buildPreview(d, "dark.css", env))
	if err != nil {
		t.Fatalf("renderPreview() error = %v", err)
	}

	s := string(page)
	if !strings.HasPrefix(s, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Errorf("preview does not open with the XML declaration: %q", s[:min(len(s), 60)])
	}
	if !strings.Contains(s, `<html xmlns="http://www.w3.org/1999/xhtml">`) {
		t.Error("preview misses the XHTML namespace")
	}
	if !strings.Contains(s, "</html>") {
		t.Error("preview is not closed")
	}
}

// TestPreviewFileName tests preview naming derived from the stylesheet path.
func TestPreviewFileName(t *testing.T) {
	tests := []struct {
		name string
		css  string
		want string
	}{
		{"simple", "dark.css", "dark.xhtml"},
		{"multiple dots", "theme.min.css", "theme.min.xhtml"},
		{"with path", "a/b/dark.css", "a/b/dark.xhtml"},
		{"no extension", "styles", "styles.xhtml"},
		{"dot only in directory", "dir.v2/styles", "dir.v2/styles.xhtml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := previewFileName(tt.css); got != tt.want {
				t.Errorf("previewFileName(%q) = %q, want %q", tt.css, got, tt.want)
			}
		})
	}
}
