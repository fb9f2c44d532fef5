package http

import (
	"embed"
	"html/template"
	"time"

	"github.com/gin-gonic/gin"

	"entryblog/internal/domain"
	"entryblog/internal/render"
)

//go:embed templates/*.html
var templateFS embed.FS

const timeLayout = "January 2, 2006 15:04"

func loadTemplates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}

type entryView struct {
	ID       int64
	Title    string
	Content  string
	Body     template.HTML
	Author   string
	Datetime string
	CanEdit  bool
}

func newEntryView(e *domain.Entry, who domain.Identity) entryView {
	return entryView{
		ID:       e.ID,
		Title:    e.Title,
		Content:  e.Content,
		Body:     render.Markdown(e.Content),
		Author:   e.Author,
		Datetime: e.CreatedAt.Local().Format(timeLayout),
		CanEdit:  e.OwnedBy(who.UserID),
	}
}

// render executes a named template with the caller's identity mixed into data.
func (h *Handler) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	who := identityFrom(c)
	data["authenticate"] = who.IsAuthenticated()
	data["name"] = who.DisplayName()
	data["year"] = time.Now().Year()
	c.HTML(status, name, data)
}
