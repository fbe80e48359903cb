package compile

import (
	"bytes"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"stylec/config"
	"stylec/state"
)

// buildPreview creates an XHTML page exercising every compiled component, one
// sample block per component class. Opening it next to the stylesheet shows
// what the theme renders like, pseudo and breakpoint rules included.
func buildPreview(d *Document, cssHref string, env *state.LocalEnv) *etree.Document {
	title := d.Theme.Name
	if tmpl := env.Cfg.Document.Preview.Title; tmpl != "" {
		expanded, err := expandTemplate(d, config.PreviewTitleTemplateFieldName, tmpl, d.Format)
		if err != nil {
			env.Log.Warn("Unable to expand preview title", zap.Error(err))
		} else if expanded != "" {
			title = expanded
		}
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	html := doc.CreateElement("html")
	html.CreateAttr("xmlns", "http://www.w3.org/1999/xhtml")

	head := html.CreateElement("head")

	meta := head.CreateElement("meta")
	meta.CreateAttr("http-equiv", "Content-Type")
	meta.CreateAttr("content", "text/html; charset=utf-8")

	link := head.CreateElement("link")
	link.CreateAttr("rel", "stylesheet")
	link.CreateAttr("type", "text/css")
	link.CreateAttr("href", cssHref)

	titleElem := head.CreateElement("title")
	titleElem.SetText(title)

	body := html.CreateElement("body")

	heading := body.CreateElement("h1")
	heading.SetText(title)

	if d.Theme.Description != "" {
		desc := body.CreateElement("p")
		desc.SetText(d.Theme.Description)
	}

	for i := range d.Components {
		appendComponentSample(body, &d.Components[i])
	}

	return doc
}

// appendComponentSample appends one labeled sample block. The block carries
// the component class and holds common child elements so descendant rules
// have something to land on.
func appendComponentSample(parent *etree.Element, c *ComponentCSS) {
	section := parent.CreateElement("section")

	label := section.CreateElement("h2")
	label.SetText(c.Name)

	sample := section.CreateElement("div")
	sample.CreateAttr("class", c.Class)

	para := sample.CreateElement("p")
	para.SetText("Sample paragraph with ")
	a := para.CreateElement("a")
	a.CreateAttr("href", "#")
	a.SetText("a link")
	a.SetTail(", ")
	em := para.CreateElement("em")
	em.SetText("emphasis")
	em.SetTail(" and ")
	strong := para.CreateElement("strong")
	strong.SetText("strong")
	strong.SetTail(" text.")

	span := sample.CreateElement("span")
	span.SetText("Inline span")

	list := sample.CreateElement("ul")
	for _, item := range []string{"First item", "Second item", "Third item"} {
		li := list.CreateElement("li")
		li.SetText(item)
	}
}

// renderPreview serializes the preview page.
func renderPreview(doc *etree.Document) ([]byte, error) {
	var buf bytes.Buffer
	doc.Indent(2)
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// previewFileName derives the preview page name for a stylesheet path:
// same base, xhtml extension.
func previewFileName(cssName string) string {
	return trimExt(cssName) + ".xhtml"
}

func trimExt(name string) string {
	for i := len(name) - 1; i >= 0 && name[i] != '/' && name[i] != '\\'; i-- {
		if name[i] == '.' {
			return name[:i]
		}
	}
	return name
}
