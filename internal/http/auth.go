package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"entryblog/internal/service"
)

const (
	sessionCookie = "session"
	flashCookie   = "flash"

	msgBadCredentials = "Incorrect username or password"
)

type flash struct {
	Category string
	Message  string
}

func (h *Handler) loginForm(c *gin.Context) {
	h.render(c, http.StatusOK, "login.html", gin.H{
		"next":    safeNext(c.Query("next")),
		"flashes": h.takeFlashes(c),
	})
}

func (h *Handler) login(c *gin.Context) {
	next := safeNext(c.Query("next"))
	if next == "" {
		next = safeNext(c.PostForm("next"))
	}

	user, err := h.users.Authenticate(c.Request.Context(), c.PostForm("email"), c.PostForm("password"))
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			h.internalError(c, err)
			return
		}
		h.logger.WithField("request_id", c.GetString(ctxRequestID)).Info("login rejected")
		h.setFlash(c, "danger", msgBadCredentials)
		target := "/login"
		if next != "" {
			target += "?next=" + url.QueryEscape(next)
		}
		c.Redirect(http.StatusFound, target)
		return
	}

	token, _, err := h.sessions.Issue(user.ID)
	if err != nil {
		h.internalError(c, err)
		return
	}
	h.setCookie(c, sessionCookie, token, int(h.sessions.TTL().Seconds()))
	h.logger.WithField("user_id", user.ID).Info("user logged in")

	if next == "" {
		next = "/"
	}
	c.Redirect(http.StatusFound, next)
}

// logout is safe to call without a session.
func (h *Handler) logout(c *gin.Context) {
	h.clearSession(c)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) clearSession(c *gin.Context) {
	h.setCookie(c, sessionCookie, "", -1)
}

func (h *Handler) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", h.cookieSecure, true)
}

func (h *Handler) setFlash(c *gin.Context, category, message string) {
	h.setCookie(c, flashCookie, category+":"+message, 60)
}

// takeFlashes returns pending flash messages and clears them.
func (h *Handler) takeFlashes(c *gin.Context) []flash {
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil
	}
	h.setCookie(c, flashCookie, "", -1)

	category, message, ok := strings.Cut(raw, ":")
	if !ok {
		return []flash{{Category: "info", Message: raw}}
	}
	return []flash{{Category: category, Message: message}}
}

// safeNext only accepts local absolute paths as post-login targets.
func safeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return next
}
