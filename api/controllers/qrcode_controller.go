package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/fitsnap-go/tool"
	"github.com/skip2/go-qrcode"
)

const (
	defaultQRSize = 200
	maxQRSize     = 512
)

// Capture links only work for other devices when the API accepts LAN clients.
const lanDisabledHint = "LAN access is disabled; set allowLan: true in the config or start with -useAllowLan"

// GenerateQRCode returns a PNG QR code image. Compatible with api.qrserver.com create-qr-code API:
// GET ?size=200x200&data=<url-encoded-content>
// Without data the first capture link is encoded, so a phone can open the UI and use its camera.
func GenerateQRCode(c *gin.Context) {
	data := c.Query("data")
	if data == "" {
		cfg := tool.GetCurrentConfig()
		if !cfg.AllowLan {
			c.JSON(http.StatusConflict, tool.FastReturnError(lanDisabledHint))
			return
		}
		links := tool.CaptureLinks(cfg.Protocol, cfg.Port)
		if len(links) == 0 {
			c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing parameter data and no LAN address to encode"))
			return
		}
		data = links[0].URL
	}

	size := parseSize(c.Query("size"))
	if size <= 0 {
		size = defaultQRSize
	}
	if size > maxQRSize {
		size = maxQRSize
	}

	png, err := qrcode.Encode(data, qrcode.Medium, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to encode QR code: "+err.Error()))
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// UserCaptureLinks lists the URLs other devices on the LAN can open.
// GET /api/self/v1/capture-link
func UserCaptureLinks(c *gin.Context) {
	cfg := tool.GetCurrentConfig()
	if !cfg.AllowLan {
		c.JSON(http.StatusConflict, tool.FastReturnError(lanDisabledHint))
		return
	}
	links := tool.CaptureLinks(cfg.Protocol, cfg.Port)
	c.JSON(http.StatusOK, gin.H{
		"links":    links,
		"allowLan": cfg.AllowLan,
	})
}

// parseSize parses size from "200x200" or "200" and returns the pixel dimension.
func parseSize(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if idx := strings.Index(s, "x"); idx > 0 {
		s = strings.TrimSpace(s[:idx])
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
