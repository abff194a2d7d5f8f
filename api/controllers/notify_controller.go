package controllers

import (
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/moyoez/fitsnap-go/api/models"
	"github.com/moyoez/fitsnap-go/tool"
)

var notifyWSUpgrader = websocket.Upgrader{
	CheckOrigin: checkNotifyOrigin,
}

// checkNotifyOrigin accepts clients without an Origin, the UI served by this host, and the
// configured cross-site origins.
func checkNotifyOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}
	return slices.Contains(tool.GetCurrentConfig().CorsOrigins, strings.TrimRight(origin, "/"))
}

// HandleNotifyWS upgrades the request to WebSocket and registers the connection with the hub.
// Workflow notifications (stage_changed, slot_updated, submission_*) are pushed to it.
func HandleNotifyWS(hub *models.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := notifyWSUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			tool.DefaultLogger.Debugf("[NotifyWS] Upgrade failed: %v", err)
			return
		}
		defer func() {
			if err := conn.Close(); err != nil {
				tool.DefaultLogger.Errorf("Failed to close WebSocket connection: %v", err)
			}
		}()

		hub.Register(conn)
		defer hub.Unregister(conn)
		tool.DefaultLogger.Debugf("[NotifyWS] Client connected from %s", c.ClientIP())

		// Read loop to detect client close and keep connection alive
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}
}
