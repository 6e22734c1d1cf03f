package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"student-inout-api/internal/broadcast"
	"student-inout-api/internal/database"
)

type HealthHandler struct {
	// db is read on every probe because the connection may arrive late
	db    func() *gorm.DB
	redis *redis.Client
	hub   *broadcast.Hub
}

func NewHealthHandler(db func() *gorm.DB, redis *redis.Client, hub *broadcast.Hub) *HealthHandler {
	return &HealthHandler{
		db:    db,
		redis: redis,
		hub:   hub,
	}
}

// Health godoc
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "student-inout-api",
	})
}

// Ready godoc
// @Summary      Readiness probe
// @Tags         health
// @Produce      json
// @Router       /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	db := h.db()
	if db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"error":  "database not connected",
		})
		return
	}

	if err := database.Ping(ctx, db); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"error":  "database not reachable",
		})
		return
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"error":  "redis not reachable",
			})
			return
		}
	}

	resp := gin.H{"status": "ready"}
	if h.hub != nil {
		resp["displays"] = h.hub.ClientCount()
	}
	c.JSON(http.StatusOK, resp)
}
