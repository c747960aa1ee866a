package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"github.com/dmitrijs2005/sitekeeper/internal/server/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names understood by the renderer.
const (
	pageIndex     = "index"
	pageRegister  = "register"
	pageLogin     = "login"
	pageDashboard = "dashboard"
	pageError     = "error"
)

// Renderer writes a named page.
type Renderer interface {
	Render(w io.Writer, page string, data *PageData) error
}

// PageData is the view model shared by every page.
type PageData struct {
	Title    string
	User     *models.User
	Form     map[string]string
	Errors   map[string]string
	Message  string
	Websites []*models.Website
}

// FieldError returns the message attached to a form field.
func (d *PageData) FieldError(field string) string {
	if d == nil {
		return ""
	}
	return d.Errors[field]
}

// Value returns the echoed value of a form field.
func (d *PageData) Value(field string) string {
	if d == nil {
		return ""
	}
	return d.Form[field]
}

// TemplateRenderer renders the embedded html/template pages. Each page is
// parsed together with the shared layout.
type TemplateRenderer struct {
	pages map[string]*template.Template
}

func NewTemplateRenderer() (*TemplateRenderer, error) {
	r := &TemplateRenderer{pages: make(map[string]*template.Template)}

	for _, page := range []string{pageIndex, pageRegister, pageLogin, pageDashboard, pageError} {
		t, err := template.New("layout.html").ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", page, err)
		}
		r.pages[page] = t
	}

	return r, nil
}

func (r *TemplateRenderer) Render(w io.Writer, page string, data *PageData) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// render buffers the page so a template error can still become a 500.
func (s *HTTPServer) render(w http.ResponseWriter, r *http.Request, status int, page string, data *PageData) {
	if data == nil {
		data = &PageData{}
	}
	if id, ok := IdentityFrom(r.Context()); ok && data.User == nil {
		data.User = id.User
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, page, data); err != nil {
		s.logger.Error(r.Context(), "render failed", "page", page, "error", err, "request_id", RequestID(r.Context()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
