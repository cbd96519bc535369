package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const healthTimeout = 3 * time.Second

// Dependency states reported by /health.
const (
	depConnected = "connected"
	depError     = "error"
	depDisabled  = "disabled"
)

type HealthResponse struct {
	OK    bool   `json:"ok"`
	DB    string `json:"db"`
	Redis string `json:"redis"`
}

func depState(err error) string {
	if err != nil {
		return depError
	}
	return depConnected
}

// Health godoc
// @Summary Service health
// @Description Pings the database and, when the tracker runs with Redis, the
// @Description lookup cache. Redis reports "disabled" when not configured.
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	pingDB := func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		resp := HealthResponse{DB: depState(pingDB(ctx)), Redis: depDisabled}
		if rdb != nil {
			resp.Redis = depState(rdb.Ping(ctx).Err())
		}
		// A missing cache degrades lookups, a failing one is an outage.
		resp.OK = resp.DB == depConnected && resp.Redis != depError

		status := http.StatusOK
		if !resp.OK {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, resp)
	}
}
