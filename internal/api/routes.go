// Package api exposes an optional status/control HTTP+WebSocket service
// over a run registry that the CLI commands already populate. Adapted
// from the teacher's internal/api.SetupRouter: same gin.Engine,
// manual-CORS, rate-limiter, and auth-middleware wiring, now serving run
// metadata and iteration summaries instead of block-scan/mixer data.
package api

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/privacylab/flfp-kernel/internal/events"
	"github.com/privacylab/flfp-kernel/internal/storage"
)

// Handler bundles the API's dependencies, grounded on the teacher's
// APIHandler struct. Archive is nil when the deployment has no Postgres
// DSN configured (spec.md §4.10 treats it as optional); the two run
// listing/detail routes respond 503 in that case rather than panicking.
type Handler struct {
	Registry *storage.Registry
	Events   *events.Manager
	Hub      *Hub
	Archive  *storage.PostgresStore
}

// SetupRouter builds the gin engine: CORS, rate limiting, auth, and the
// run/iteration/event/metrics endpoints.
func SetupRouter(h *Handler, rateLimiter *RateLimiter) *gin.Engine {
	r := gin.Default()

	allowedOrigins := strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",")
	r.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && originAllowed(origin, allowedOrigins) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	if rateLimiter != nil {
		r.Use(rateLimiter.Middleware())
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/v1/runs/:id/stream", h.Hub.Subscribe)

	protected := r.Group("/v1")
	protected.Use(AuthMiddleware())
	{
		protected.GET("/runs", h.listRuns)
		protected.GET("/runs/:id", h.getRun)
		protected.GET("/runs/:id/events", h.getRecentEvents)
		protected.POST("/runs/:id/cancel", h.cancelRun)
	}

	return r
}

func originAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		a = strings.TrimSpace(a)
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

// listRuns serves spec.md §4.10's "list known runs" endpoint from the
// Postgres archive, since the bbolt registry only tracks completion
// booleans, not run metadata.
func (h *Handler) listRuns(c *gin.Context) {
	if h.Archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run archive not configured"})
		return
	}
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	runs, err := h.Archive.ListRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// getRun serves spec.md §4.10's per-run detail endpoint: run metadata
// plus the most recently completed iteration summary, when the run has
// one (targeted/general runs never do; iterative-robustness runs do).
func (h *Handler) getRun(c *gin.Context) {
	if h.Archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run archive not configured"})
		return
	}
	runID := c.Param("id")
	run, err := h.Archive.GetRun(c.Request.Context(), runID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	body := gin.H{"run": run}
	if summary, ok, err := h.Archive.GetLatestIterationSummary(c.Request.Context(), runID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	} else if ok {
		body["latest_iteration"] = summary
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) getRecentEvents(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	c.JSON(http.StatusOK, gin.H{"events": h.Events.RecentEvents(limit)})
}

// cancelRun emits a cancel_requested event through the handler's
// events.Manager and answers 202. It does not stop any run itself: no CLI
// command subscribes to this event or cancels its context in response.
func (h *Handler) cancelRun(c *gin.Context) {
	runID := c.Param("id")
	h.Events.Emit(events.Event{
		Type:      "cancel_requested",
		Severity:  "info",
		RunID:     runID,
		Message:   "cancellation requested via API",
		Timestamp: time.Now(),
	})
	c.JSON(http.StatusAccepted, gin.H{"run_id": runID, "status": "cancel_requested"})
}
