package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups the route handlers. Nil members leave their routes
// unregistered.
type Handlers struct {
	Submit      *SubmitHandler
	Content     *ContentHandler
	Sitemap     *SitemapHandler
	Webhook     *WebhookHandler
	Files       *UploadHandler
	Submissions *FormHandler
	AdminToken  string
}

// Register mounts every route on r and makes unmatched methods answer 405.
func Register(r *gin.Engine, h Handlers) {
	r.HandleMethodNotAllowed = true
	r.NoMethod(MethodNotAllowed)

	api := r.Group("/api")
	{
		if h.Submit != nil {
			api.POST("/submit-form", h.Submit.Submit)
		}

		if h.Content != nil {
			api.GET("/forms", h.Content.GetForms)
			api.GET("/events", h.Content.GetEvents)
			api.GET("/reports", h.Content.GetReports)
			api.GET("/pages/:slug", h.Content.GetPage)
			api.GET("/services", h.Content.GetServices)
		}

		if h.Webhook != nil {
			api.POST("/webhooks/cms", h.Webhook.Receive)
		}

		if h.Files != nil {
			api.GET("/files/*object", h.Files.ServeFile)
		}

		if h.Submissions != nil {
			admin := api.Group("/submissions", RequireAdmin(h.AdminToken))
			admin.GET("", h.Submissions.List)
			admin.GET("/:id", h.Submissions.GetByID)
		}

		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}

	if h.Sitemap != nil {
		r.GET("/sitemap.xml", h.Sitemap.Get)
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
