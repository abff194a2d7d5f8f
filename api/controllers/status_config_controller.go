package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/fitsnap-go/notify"
	"github.com/moyoez/fitsnap-go/tool"
	"github.com/moyoez/fitsnap-go/transfer"
	"github.com/moyoez/fitsnap-go/types"
)

// healthProbeTimeout bounds GET /status?probe=1 independently of the upload timeout.
const healthProbeTimeout = 5 * time.Second

// UserStatus returns server status for the web UI (running, notify_ws_enabled).
// With ?probe=1 the analysis service health endpoint is called too.
// GET /api/self/v1/status
func UserStatus(c *gin.Context) {
	resp := gin.H{
		"running":           true,
		"notify_ws_enabled": notify.NotifyWSEnabled(),
	}
	if c.Query("probe") == "1" {
		cfg := tool.GetCurrentConfig()
		client := transfer.NewMeasurementClient(cfg.AnalysisBaseURL, nil)
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthProbeTimeout)
		defer cancel()

		health, elapsed, err := client.CheckHealth(ctx)
		service := gin.H{
			"base_url":   cfg.AnalysisBaseURL,
			"latency_ms": elapsed.Milliseconds(),
		}
		if err != nil {
			tool.DefaultLogger.Warnf("[Status] Analysis service probe failed: %v", err)
			service["reachable"] = false
			service["error"] = err.Error()
		} else {
			service["reachable"] = true
			service["status"] = health.Status
			service["timestamp"] = health.Timestamp
		}
		resp["service"] = service
	}
	c.JSON(http.StatusOK, resp)
}

// UserConfigGet returns the effective config. Key material is never included.
// GET /api/self/v1/config
func UserConfigGet(c *gin.Context) {
	cfg := tool.GetCurrentConfig()
	c.JSON(http.StatusOK, types.ConfigResponse{
		Port:                  cfg.Port,
		Protocol:              cfg.Protocol,
		AnalysisBaseURL:       cfg.AnalysisBaseURL,
		Identity:              cfg.Identity,
		MaxImageBytes:         cfg.MaxImageBytes,
		RequestTimeoutSeconds: cfg.RequestTimeoutSeconds,
		SessionTTLSeconds:     cfg.SessionTTLSeconds,
		MeasurementUnit:       cfg.MeasurementUnit,
		AllowLan:              cfg.AllowLan,
		IntakeRatePerSecond:   cfg.IntakeRatePerSecond,
		NotifyWebsocket:       cfg.NotifyWebsocket,
	})
}
