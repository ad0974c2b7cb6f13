// Package endpoint holds the housekeeping handlers every control API
// exposes next to its session routes.
package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/minutes/component"
)

// HealthChecker collects the health of the running components.
type HealthChecker func(ctx context.Context) []component.Health

// HealthReport is the /health body.
type HealthReport struct {
	Status     component.HealthStatus `json:"status"`
	Service    string                 `json:"service"`
	CheckedAt  time.Time              `json:"timestamp"`
	Components []component.Health     `json:"components"`
}

// Code is 503 while any component is unhealthy, 200 otherwise. Degraded
// components still answer 200 so that probes do not restart a capture.
func (r HealthReport) Code() int {
	if r.Status == component.StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// Health answers with a HealthReport. A nil checker reports no components.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := HealthReport{Service: serviceName, CheckedAt: time.Now().UTC().Truncate(time.Second)}
		if checker != nil {
			report.Components = checker(c.Request.Context())
		}
		report.Status = component.Overall(report.Components)
		c.JSON(report.Code(), report)
	}
}
