package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats is a point-in-time snapshot of the connection pool, reported by
// the database health endpoint. Field names follow the camelCase convention
// of the extraction API.
type PoolStats struct {
	TotalConns      int32  `json:"totalConns"`
	IdleConns       int32  `json:"idleConns"`
	AcquiredConns   int32  `json:"acquiredConns"`
	MaxConns        int32  `json:"maxConns"`
	AcquireCount    int64  `json:"acquireCount"`
	AcquireDuration string `json:"acquireDuration"`
}

// HealthReport is the response body of GET /health/db.
type HealthReport struct {
	Status string     `json:"status"`
	Error  string     `json:"error,omitempty"`
	Pool   *PoolStats `json:"pool"`
}

func snapshot(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
	}
}

// HealthHandler pings the database with a short deadline and reports pool
// statistics. An unreachable database answers 503.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		stats := snapshot(pool)
		if err := pool.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, HealthReport{
				Status: "unhealthy",
				Error:  err.Error(),
				Pool:   stats,
			})
		}
		return c.JSON(http.StatusOK, HealthReport{Status: "healthy", Pool: stats})
	}
}
