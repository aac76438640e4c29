package views

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"time"

	"blogdesk/app/models"
)

//go:embed templates static
var files embed.FS

// TimeLayout is how post timestamps are displayed.
const TimeLayout = "Jan 2, 2006, 3:04:05 PM"

// Renderer renders the embedded page templates
type Renderer struct {
	post  *template.Template
	pages map[string]*template.Template
	loc   *time.Location
}

// New parses all templates. Timestamps are shown in loc, or local time when nil.
func New(loc *time.Location) (*Renderer, error) {
	if loc == nil {
		loc = time.Local
	}
	r := &Renderer{
		pages: make(map[string]*template.Template),
		loc:   loc,
	}

	funcs := template.FuncMap{
		"formatTime":  r.formatTime,
		"updatedText": r.updatedText,
		"renderPost":  r.RenderPost,
		"pathEscape":  url.PathEscape,
	}

	var err error
	r.post, err = template.New("post").Funcs(funcs).ParseFS(files, "templates/posts/post.html")
	if err != nil {
		return nil, err
	}

	pages := map[string][]string{
		"index":   {"templates/layout.html", "templates/posts/index.html"},
		"confirm": {"templates/layout.html", "templates/posts/confirm_delete.html"},
	}
	for name, paths := range pages {
		t, err := template.New(name).Funcs(funcs).ParseFS(files, paths...)
		if err != nil {
			return nil, err
		}
		r.pages[name] = t
	}
	return r, nil
}

// MustNew is like New but panics on a template error.
func MustNew(loc *time.Location) *Renderer {
	r, err := New(loc)
	if err != nil {
		panic("failed to parse templates: " + err.Error())
	}
	return r
}

// RenderPost renders one post. Title, body and author are escaped, so markup
// in them shows up as literal text.
func (r *Renderer) RenderPost(post *models.Post) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.post.ExecuteTemplate(&buf, "post", post); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Render executes a page inside the layout. Nothing is written on error.
func (r *Renderer) Render(w io.Writer, page string, data interface{}) error {
	t, ok := r.pages[page]
	if !ok {
		return fs.ErrNotExist
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// Static serves the embedded stylesheet.
func Static() http.Handler {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

func (r *Renderer) formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(r.loc).Format(TimeLayout)
}

// updatedText is empty unless the update time reads differently from the
// creation time.
func (r *Renderer) updatedText(p *models.Post) string {
	if !p.WasUpdated() {
		return ""
	}
	updated := r.formatTime(*p.UpdatedAt)
	if updated == r.formatTime(p.CreatedAt) {
		return ""
	}
	return updated
}
