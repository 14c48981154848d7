package api

import (
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hud203/leadengine/internal/analytics"
	"github.com/hud203/leadengine/internal/attribution"
	"github.com/hud203/leadengine/internal/dispatch"
	apperrors "github.com/hud203/leadengine/internal/errors"
	"github.com/hud203/leadengine/internal/models"
	"github.com/hud203/leadengine/internal/repository"
	"github.com/hud203/leadengine/internal/services"
)

// Deps bundles everything the HTTP layer needs. It is assembled once in the
// run-server command and handed to SetupRoutes.
type Deps struct {
	Leads        *services.LeadService
	Dispatcher   *dispatch.Dispatcher
	Stores       attribution.Stores
	Events       repository.EventRepository
	DownloadsDir string
	Log          zerolog.Logger
}

// SetupRoutes configures all gin API routes and injects dependencies.
func SetupRoutes(router *gin.Engine, deps Deps) {
	// Health check route, used by load balancers and monitoring
	router.GET("/health", HealthCheckHandler)

	// Lead magnet file delivery (the downloadUrl target)
	router.GET("/downloads/:magnetId", DownloadHandler(deps))

	api := router.Group("/api")
	api.Use(VisitorID())
	{
		api.POST("/lead-capture", LeadCaptureHandler(deps))
		api.POST("/page-view", PageViewHandler(deps))
		api.POST("/events", EventIntakeHandler(deps))
		api.GET("/score", LeadScoreHandler(deps))
	}
}

// HealthCheckHandler handles the /health route to verify service status.
func HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// tracker builds the per-request attribution tracker for the cookie visitor.
func tracker(c *gin.Context, deps Deps) *attribution.Tracker {
	id := visitorID(c)
	return attribution.NewTracker(deps.Stores.Durable(id), deps.Stores.Volatile(id), deps.Dispatcher, deps.Log)
}

// pageContext derives the attribution page context from an intake request:
// the query string of the reported page path and the reported referrer.
func pageContext(path, referrer string) attribution.PageContext {
	page := attribution.PageContext{Referrer: referrer}
	if u, err := url.Parse(path); err == nil {
		page.Query = u.Query()
	}
	return page
}

// LeadCaptureHandler processes POST /api/lead-capture.
//
// Responses mirror what the site's form handling expects:
//   - 200 {success, message, downloadUrl} on capture, even when the CRM
//     forwarding failed downstream
//   - 400 {error} for validation failures
//   - 500 {error} for malformed bodies and anything unexpected
func LeadCaptureHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var lead models.Lead
		if err := c.ShouldBindJSON(&lead); err != nil {
			// An unparseable body is not a client validation error in this
			// contract; it reports as a generic failure
			deps.Log.Error().Err(err).Msg("lead capture: malformed request body")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		result, err := deps.Leads.Capture(c.Request.Context(), lead, visitorID(c))
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrMissingFields):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
			case errors.Is(err, apperrors.ErrInvalidEmail):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email format"})
			default:
				deps.Log.Error().Err(err).Msg("lead capture: unexpected failure")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
			return
		}

		// Tie the conversion to the visitor's accumulated attribution state
		page := pageContext(c.Request.URL.RequestURI(), c.Request.Referer())
		tracker(c, deps).TrackConversion(c.Request.Context(), "lead_magnet_download", 1, page)

		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"message":     result.Message,
			"downloadUrl": result.DownloadURL,
		})
	}
}

// PageViewRequest is the JSON body reported for each page load.
type PageViewRequest struct {
	Path     string `json:"path" binding:"required"`
	Title    string `json:"title"`
	Referrer string `json:"referrer"`
}

// PageViewHandler processes POST /api/page-view: it advances the visitor's
// attribution state and dispatches a page_view event.
func PageViewHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PageViewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		page := pageContext(req.Path, req.Referrer)
		tracker(c, deps).Initialize(c.Request.Context(), page)

		event := analytics.PageView(req.Path, req.Title, req.Referrer)
		event.VisitorID = visitorID(c)
		analytics.ParseUTM(page.Query).Merge(event.Properties)
		deps.Dispatcher.Track(event)

		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
	}
}

// EventIntakeRequest is the generic taxonomy event intake body.
type EventIntakeRequest struct {
	Event      string         `json:"event" binding:"required"`
	Category   string         `json:"category" binding:"required"`
	Action     string         `json:"action" binding:"required"`
	Label      string         `json:"label"`
	Value      float64        `json:"value"`
	Properties map[string]any `json:"properties"`
}

// EventIntakeHandler processes POST /api/events for events the fixed
// constructors do not cover (scroll depth, funnel steps reported by the
// frontend, and so on).
func EventIntakeHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req EventIntakeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
		if !analytics.ValidCategory(req.Category) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown event category"})
			return
		}

		deps.Dispatcher.Track(models.Event{
			Name:       req.Event,
			Category:   req.Category,
			Action:     req.Action,
			Label:      req.Label,
			Value:      req.Value,
			VisitorID:  visitorID(c),
			Properties: req.Properties,
			Timestamp:  time.Now(),
		})

		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
	}
}

// LeadScoreHandler computes the cookie visitor's lead score from their
// stored event history.
func LeadScoreHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := visitorID(c)
		names, err := deps.Events.EventNamesByVisitor(id)
		if err != nil {
			deps.Log.Error().Err(err).Str("visitor", id).Msg("lead score lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"visitor_id": id,
			"lead_score": analytics.ScoreEventNames(names),
			"events":     len(names),
		})
	}
}

// DownloadHandler streams a lead magnet file from the configured directory.
// Magnet IDs map to <downloads_dir>/<id>.pdf.
func DownloadHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		// filepath.Base strips any traversal the client may have smuggled in
		magnetID := filepath.Base(c.Param("magnetId"))
		path := filepath.Join(deps.DownloadsDir, magnetID+".pdf")

		if _, err := os.Stat(path); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Download not found"})
			return
		}
		c.FileAttachment(path, magnetID+".pdf")
	}
}
