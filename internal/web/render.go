// Package web provides the HTML form handlers and template rendering for the
// note-taking UI.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

//go:embed templates
var templatesFS embed.FS

// Renderer manages HTML template rendering with caching and custom functions.
type Renderer struct {
	templates map[string]*template.Template
	funcMap   template.FuncMap
	mu        sync.RWMutex
}

// NewRenderer creates a new Renderer by parsing all embedded templates.
// base.html is parsed first and combined with each page template, so every
// page renders inside the shared chrome.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		funcMap:   createFuncMap(),
	}

	if err := r.parseTemplates(); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return r, nil
}

func (r *Renderer) parseTemplates() error {
	root, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return err
	}

	base, err := template.New("base.html").Funcs(r.funcMap).ParseFS(root, "base.html")
	if err != nil {
		return fmt.Errorf("parse base.html: %w", err)
	}

	return fs.WalkDir(root, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path == "base.html" || !strings.HasSuffix(path, ".html") {
			return nil
		}

		page, err := base.Clone()
		if err != nil {
			return err
		}
		page, err = page.ParseFS(root, path)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		r.templates[path] = page
		return nil
	})
}

// Render executes the named template with the given data and writes the
// result to w. templateName is the path relative to the templates directory
// (e.g. "auth/login.html", "notes/list.html").
func (r *Renderer) Render(w http.ResponseWriter, templateName string, data interface{}) error {
	return r.renderStatus(w, http.StatusOK, templateName, data)
}

// RenderStatus is Render with an explicit HTTP status code. Used for form
// re-renders and error pages.
func (r *Renderer) RenderStatus(w http.ResponseWriter, code int, templateName string, data interface{}) error {
	return r.renderStatus(w, code, templateName, data)
}

func (r *Renderer) renderStatus(w http.ResponseWriter, code int, templateName string, data interface{}) error {
	r.mu.RLock()
	tmpl, ok := r.templates[templateName]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("template %q not found", templateName)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if code != http.StatusOK {
		w.WriteHeader(code)
	}
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		return fmt.Errorf("execute template %q: %w", templateName, err)
	}

	return nil
}

// RenderError renders an error page with the given HTTP status code and
// message.
func (r *Renderer) RenderError(w http.ResponseWriter, code int, message string) {
	data := ErrorPageData{
		PageData: PageData{Title: http.StatusText(code)},
		Code:     code,
		Message:  message,
	}
	if err := r.renderStatus(w, code, "error.html", data); err != nil {
		http.Error(w, fmt.Sprintf("Error %d: %s", code, message), code)
	}
}

func createFuncMap() template.FuncMap {
	return template.FuncMap{
		"formatTime": func(t time.Time) string {
			return t.Format("Jan 2, 2006 15:04")
		},
		"renderMarkdown": renderMarkdown,
	}
}

// renderMarkdown converts note text to HTML. The output is sanitized, so the
// returned value is safe to mark as template.HTML.
func renderMarkdown(s string) template.HTML {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	doc := parser.NewWithExtensions(extensions).Parse([]byte(s))

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank,
	})
	htmlContent := markdown.Render(doc, renderer)

	sanitized := bluemonday.UGCPolicy().SanitizeBytes(htmlContent)
	return template.HTML(sanitized)
}
