package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"entryblog/internal/pagination"
	"entryblog/internal/service"
)

func (h *Handler) listEntries(c *gin.Context) {
	page := 1
	if raw := c.Param("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.renderNotFound(c)
			return
		}
		page = n
	}
	limit := pagination.ParseLimit(c.Query("limit"))

	result, err := h.entries.List(c.Request.Context(), page, limit)
	if err != nil {
		h.fail(c, err)
		return
	}

	who := identityFrom(c)
	views := make([]entryView, len(result.Entries))
	for i := range result.Entries {
		views[i] = newEntryView(&result.Entries[i], who)
	}

	w := result.Window
	h.render(c, http.StatusOK, "entries.html", gin.H{
		"entries":     views,
		"page":        w.Page,
		"limit":       w.Limit,
		"total_pages": w.TotalPages,
		"has_next":    w.HasNext,
		"has_prev":    w.HasPrev,
		"next_page":   w.NextPage(),
		"prev_page":   w.PrevPage(),
	})
}

func (h *Handler) addEntryForm(c *gin.Context) {
	h.render(c, http.StatusOK, "add_entry.html", gin.H{})
}

func (h *Handler) createEntry(c *gin.Context) {
	title := c.PostForm("title")
	content := c.PostForm("content")

	entry, err := h.entries.Create(c.Request.Context(), identityFrom(c), title, content)
	if err != nil {
		if errors.Is(err, service.ErrInvalidEntry) {
			h.render(c, http.StatusBadRequest, "add_entry.html", gin.H{
				"error":   err.Error(),
				"title":   title,
				"content": content,
			})
			return
		}
		h.fail(c, err)
		return
	}

	h.logger.WithField("entry_id", entry.ID).Info("entry created")
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) viewEntry(c *gin.Context) {
	id, ok := entryID(c)
	if !ok {
		h.renderNotFound(c)
		return
	}

	entry, err := h.entries.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.render(c, http.StatusOK, "view_single_entry.html", gin.H{
		"entry": newEntryView(entry, identityFrom(c)),
	})
}

func (h *Handler) editEntryForm(c *gin.Context) {
	entry := ownedEntry(c)
	h.render(c, http.StatusOK, "edit_entry.html", gin.H{
		"entry": newEntryView(entry, identityFrom(c)),
	})
}

func (h *Handler) updateEntry(c *gin.Context) {
	entry := ownedEntry(c)
	if _, err := h.entries.UpdateContent(c.Request.Context(), identityFrom(c), entry.ID, c.PostForm("content")); err != nil {
		h.fail(c, err)
		return
	}

	h.logger.WithField("entry_id", entry.ID).Info("entry updated")
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) deleteEntryForm(c *gin.Context) {
	entry := ownedEntry(c)
	h.render(c, http.StatusOK, "delete_entry.html", gin.H{
		"entry": newEntryView(entry, identityFrom(c)),
	})
}

func (h *Handler) deleteEntry(c *gin.Context) {
	entry := ownedEntry(c)
	if err := h.entries.Delete(c.Request.Context(), identityFrom(c), entry.ID); err != nil {
		h.fail(c, err)
		return
	}

	h.logger.WithField("entry_id", entry.ID).Info("entry deleted")
	c.Redirect(http.StatusFound, "/")
}
