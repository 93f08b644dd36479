// Package web renders the server-side dashboard pages.
package web

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/thumbtrend/thumbtrend/internal"
)

var log = internal.GetLogger()

//go:embed templates/*
var TemplatesFS embed.FS

var LayoutTemplates = []string{
	"templates/components/layout.html",
}

func NewPage(
	title, subTitle, path string,
	templates []string,
	data interface{},
) *Page {
	return &Page{
		Title:     title,
		SubTitle:  subTitle,
		Templates: templates,
		Path:      path,
		Data:      data,
	}
}

type Page struct {
	Title     string
	SubTitle  string
	Templates []string
	Path      string
	Data      interface{}
}

func (p *Page) Render(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")

	templates := append(LayoutTemplates, p.Templates...) //nolint:gocritic

	tmpl, err := template.New(p.Title).Funcs(templateFuncs()).ParseFS(
		TemplatesFS,
		templates...,
	)
	if err != nil {
		log.Errorf("Failed to parse template: %s", err)
		http.Error(w, "Failed to parse template", http.StatusInternalServerError)
		return
	}

	err = tmpl.ExecuteTemplate(w, "Layout", p)
	if err != nil {
		log.Errorf("Failed to execute template: %s", err)
		http.Error(w, "Failed to execute template", http.StatusInternalServerError)
		return
	}
}
