// Package api exposes the read-only HTTP surface of the pipeline: health,
// content statistics, and recent content.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/awslens/awslens/internal/database"
	"github.com/awslens/awslens/internal/domain"
	"github.com/awslens/awslens/internal/logging"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
	healthPingTimeout  = 2 * time.Second
)

// ContentReader is the repository surface the handlers need.
type ContentReader interface {
	GetByID(ctx context.Context, id string) (*domain.ContentRecord, error)
	GetStats(ctx context.Context) (*database.Stats, error)
	CountBySource(ctx context.Context) (map[string]int64, error)
	ListRecent(ctx context.Context, limit int) ([]domain.ContentRecord, error)
}

// Pinger reports backend connectivity for readiness checks.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler handles HTTP requests for the content API.
type Handler struct {
	repo   ContentReader
	db     Pinger
	logger logging.Logger
}

// NewHandler creates a Handler.
func NewHandler(repo ContentReader, db Pinger, logger logging.Logger) *Handler {
	return &Handler{repo: repo, db: db, logger: logger}
}

// HealthCheck reports liveness.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ReadyCheck reports readiness, including database connectivity.
func (h *Handler) ReadyCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Error("readiness check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// GetStats returns content table statistics plus per-source counts.
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.repo.GetStats(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to load content stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}

	bySource, err := h.repo.CountBySource(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to load source counts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"content":   stats,
		"by_source": bySource,
	})
}

// ListRecent returns the most recently crawled records. The limit query
// parameter is clamped to maxRecentLimit.
func (h *Handler) ListRecent(c *gin.Context) {
	limit := defaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	records, err := h.repo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list recent content", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list content"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"content": records,
		"total":   len(records),
	})
}

// GetContent returns a single record by ID.
func (h *Handler) GetContent(c *gin.Context) {
	id := c.Param("id")

	record, err := h.repo.GetByID(c.Request.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "content not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to load content", "content_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load content"})
		return
	}

	c.JSON(http.StatusOK, record)
}
