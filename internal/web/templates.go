package web

import (
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Templates holds the parsed page templates, each combined with the
// shared layout.
type Templates struct {
	Home     *template.Template
	Login    *template.Template
	Register *template.Template
	Cars     *template.Template
	Car      *template.Template
	Error    *template.Template
}

// LoadTemplates parses the embedded templates.
func LoadTemplates() (*Templates, error) {
	pages := map[string]**template.Template{}
	t := &Templates{}
	pages["home.html"] = &t.Home
	pages["login.html"] = &t.Login
	pages["register.html"] = &t.Register
	pages["cars.html"] = &t.Cars
	pages["car.html"] = &t.Car
	pages["error.html"] = &t.Error

	for page, dst := range pages {
		tmpl, err := template.ParseFS(templatesFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		*dst = tmpl
	}
	return t, nil
}
