package http

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"entryblog/internal/domain"
	"entryblog/internal/repository"
	"entryblog/internal/service"
)

const (
	ctxRequestID = "request_id"
	ctxIdentity  = "identity"
	ctxEntry     = "entry"

	headerRequestID = "X-Request-ID"
)

// requestID tags every request with a unique id, echoed in the response headers.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set(ctxRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"request_id": c.GetString(ctxRequestID),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"client_ip":  c.ClientIP(),
		}
		if who := identityFrom(c); who.IsAuthenticated() {
			fields["user_id"] = who.UserID
		}
		entry := h.logger.WithFields(fields)
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request failed")
		default:
			entry.Debug("request served")
		}
	}
}

// identify resolves the caller once per request from the session cookie.
// Handlers read the result with identityFrom and pass it on explicitly.
func (h *Handler) identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		who := domain.Anonymous()

		token, err := c.Cookie(sessionCookie)
		if err == nil && token != "" {
			uid, err := h.sessions.Parse(token)
			if err != nil {
				h.clearSession(c)
			} else {
				user, err := h.users.GetByID(c.Request.Context(), uid)
				switch {
				case err == nil:
					who = domain.IdentityOf(user)
				case errors.Is(err, repository.ErrNotFound):
					h.clearSession(c)
				default:
					h.internalError(c, err)
					c.Abort()
					return
				}
			}
		}

		c.Set(ctxIdentity, who)
		c.Next()
	}
}

func identityFrom(c *gin.Context) domain.Identity {
	if v, ok := c.Get(ctxIdentity); ok {
		if who, ok := v.(domain.Identity); ok {
			return who
		}
	}
	return domain.Anonymous()
}

// requireAuth sends anonymous callers to the login form, remembering where
// they were headed.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !identityFrom(c).IsAuthenticated() {
			redirectToLogin(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// requireOwner loads the :id entry and lets only its author through.
func (h *Handler) requireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := entryID(c)
		if !ok {
			h.renderNotFound(c)
			c.Abort()
			return
		}

		entry, err := h.entries.GetOwned(c.Request.Context(), identityFrom(c), id)
		if err != nil {
			h.fail(c, err)
			c.Abort()
			return
		}

		c.Set(ctxEntry, entry)
		c.Next()
	}
}

func ownedEntry(c *gin.Context) *domain.Entry {
	v, _ := c.Get(ctxEntry)
	entry, _ := v.(*domain.Entry)
	return entry
}

func entryID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func redirectToLogin(c *gin.Context) {
	c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
}

// fail converts a service error into the response the boundary promises:
// redirects for auth problems, 404 for missing entries, 500 otherwise.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		redirectToLogin(c)
	case errors.Is(err, service.ErrForbidden):
		c.Redirect(http.StatusFound, "/")
	case errors.Is(err, service.ErrNotFound):
		h.renderNotFound(c)
	default:
		h.internalError(c, err)
	}
}

func (h *Handler) internalError(c *gin.Context, err error) {
	h.logger.WithFields(logrus.Fields{
		"request_id": c.GetString(ctxRequestID),
		"path":       c.Request.URL.Path,
		"error":      err.Error(),
	}).Error("unexpected error")
	h.render(c, http.StatusInternalServerError, "error.html", gin.H{
		"status":  http.StatusInternalServerError,
		"message": "Something went wrong.",
	})
}

func (h *Handler) renderNotFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, "error.html", gin.H{
		"status":  http.StatusNotFound,
		"message": "Not found.",
	})
}
