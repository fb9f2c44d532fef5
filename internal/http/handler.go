package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"entryblog/internal/service"
	"entryblog/internal/session"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	entries      service.EntryService
	users        service.UserService
	sessions     *session.Manager
	logger       *logrus.Logger
	cookieSecure bool
}

func NewHandler(entries service.EntryService, users service.UserService, sessions *session.Manager, logger *logrus.Logger, cookieSecure bool) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		entries:      entries,
		users:        users,
		sessions:     sessions,
		logger:       logger,
		cookieSecure: cookieSecure,
	}
}

// RegisterRoutes installs templates, middleware and every route on router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.SetHTMLTemplate(loadTemplates())
	router.Use(requestID(), h.requestLogger(), h.identify())
	router.NoRoute(func(c *gin.Context) {
		h.renderNotFound(c)
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})

	router.GET("/", h.listEntries)
	router.GET("/page/:page/", h.listEntries)

	router.GET("/login", h.loginForm)
	router.POST("/login", h.login)
	router.GET("/logout", h.logout)

	entry := router.Group("/entry")
	{
		authed := entry.Group("", h.requireAuth())
		authed.GET("/add", h.addEntryForm)
		authed.POST("/add", h.createEntry)

		entry.GET("/:id", h.viewEntry)

		owned := entry.Group("/:id", h.requireAuth(), h.requireOwner())
		owned.GET("/edit", h.editEntryForm)
		owned.POST("/edit", h.updateEntry)
		owned.GET("/delete", h.deleteEntryForm)
		owned.POST("/delete", h.deleteEntry)
	}
}
