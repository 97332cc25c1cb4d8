package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthChecker interface {
	HealthCheck() error
}

// Health reports liveness plus the state of each named dependency.
func Health(service string, checks map[string]HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := gin.H{
			"status":  "healthy",
			"service": service,
		}
		code := http.StatusOK
		for name, check := range checks {
			if err := check.HealthCheck(); err != nil {
				status[name] = "unhealthy"
				status["status"] = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "healthy"
		}
		c.JSON(code, status)
	}
}
