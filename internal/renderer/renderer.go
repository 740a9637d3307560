package renderer

import (
	"embed"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/damacus/iron-index/internal/models"
	"github.com/labstack/echo/v4"
)

//go:embed views
var views embed.FS

// TemplateRenderer implements echo.Renderer
type TemplateRenderer struct {
	Templates map[string]*template.Template
}

// New creates a new TemplateRenderer with pre-parsed templates
func New() *TemplateRenderer {
	r := &TemplateRenderer{
		Templates: make(map[string]*template.Template),
	}
	r.parseTemplates()
	return r
}

var funcs = template.FuncMap{
	"entryHref": entryHref,
}

func (t *TemplateRenderer) parseTemplates() {
	parse := func(name string, files ...string) {
		t.Templates[name] = template.Must(template.New(name).Funcs(funcs).ParseFS(views, files...))
	}

	parse("index", "views/layouts/base.html", "views/pages/index.html")
	// Error page is standalone
	parse("error", "views/pages/error.html")
}

// selfExecutingTemplates lists templates that execute their own named block instead of "base"
var selfExecutingTemplates = map[string]bool{
	"error": true,
}

// Render renders a template document
func (t *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tmpl, ok := t.Templates[name]
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "Template not found: "+name)
	}

	if selfExecutingTemplates[name] {
		return tmpl.ExecuteTemplate(w, name, data)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}

// entryHref links a listing row relative to the page's base href. The name
// is escaped as a single path segment; a name that would read as a URL scheme
// ("javascript:...") is anchored with "./".
func entryHref(e models.ListEntry) template.URL {
	name := strings.TrimSuffix(e.Name, "/")
	href := url.PathEscape(name)
	if strings.Contains(href, ":") {
		href = "./" + href
	}
	if e.IsDirectory {
		href += "/"
	}
	return template.URL(href)
}
