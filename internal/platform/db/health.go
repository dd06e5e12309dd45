package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// poolHealth is the database section of the portal's health surface. The
// audit sink and every repository share this pool, so an unhealthy report
// here means the durable audit trail is degraded too.
type poolHealth struct {
	Healthy       bool   `json:"healthy"`
	TotalConns    int32  `json:"total_conns"`
	IdleConns     int32  `json:"idle_conns"`
	AcquiredConns int32  `json:"acquired_conns"`
	MaxConns      int32  `json:"max_conns"`
	Error         string `json:"error,omitempty"`
}

func checkPool(ctx context.Context, pool *pgxpool.Pool) poolHealth {
	stat := pool.Stat()
	h := poolHealth{
		Healthy:       true,
		TotalConns:    stat.TotalConns(),
		IdleConns:     stat.IdleConns(),
		AcquiredConns: stat.AcquiredConns(),
		MaxConns:      stat.MaxConns(),
	}
	if err := pool.Ping(ctx); err != nil {
		h.Healthy = false
		h.Error = err.Error()
	}
	return h
}

// HealthHandler reports database reachability and pool pressure.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		h := checkPool(ctx, pool)
		status := http.StatusOK
		label := "healthy"
		if !h.Healthy {
			status = http.StatusServiceUnavailable
			label = "unhealthy"
		}
		return c.JSON(status, map[string]any{
			"status": label,
			"pool":   h,
		})
	}
}
