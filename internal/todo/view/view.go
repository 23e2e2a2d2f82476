package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"time"

	"todolist/internal/todo/model"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

type Renderer struct {
	tmpl *template.Template
	now  func() time.Time
}

// page adds the footer fields to a list page.
type page struct {
	model.ListPage
	Year int
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl, now: time.Now}, nil
}

// RenderList executes the list template into w. The output is buffered so a
// template error never leaves a half-written page behind.
func (r *Renderer) RenderList(w io.Writer, p model.ListPage) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "list", page{ListPage: p, Year: r.now().Year()}); err != nil {
		return fmt.Errorf("render list %s: %w", p.ListName, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Static is the embedded stylesheet tree, rooted so that "styles.css" is at
// the top level.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// DateLabel is the heading of the default list, e.g. "Saturday, October 18".
func DateLabel(t time.Time) string {
	return t.Format("Monday, January 2")
}

// DayLabel is the heading of a named list, e.g. "Saturday".
func DayLabel(t time.Time) string {
	return t.Format("Monday")
}
