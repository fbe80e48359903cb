package compile

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"stylec/config"
	"stylec/misc"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context    string
	App        string
	Version    string
	Theme      string
	ID         string
	SourceFile string
	Format     string
	Components []string
}

func buildComponents(d *Document) []string {
	result := make([]string, 0, len(d.Components))
	for _, c := range d.Components {
		result = append(result, c.Name)
	}
	return result
}

func expandTemplate(d *Document, name config.TemplateFieldName, field string, format config.OutputFmt) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	values := Values{
		Context:    string(name),
		App:        misc.GetAppName(),
		Version:    misc.GetVersion(),
		Theme:      d.Theme.Name,
		ID:         d.Theme.ID.String(),
		SourceFile: strings.TrimSuffix(filepath.Base(d.SrcName), filepath.Ext(d.SrcName)),
		Format:     format.String(),
		Components: buildComponents(d),
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
