package api

import (
	"context"
	"crypto/tls"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/moyoez/fitsnap-go/api/controllers"
	"github.com/moyoez/fitsnap-go/api/middlewares"
	"github.com/moyoez/fitsnap-go/api/models"
	"github.com/moyoez/fitsnap-go/notify"
	"github.com/moyoez/fitsnap-go/tool"
	"github.com/moyoez/fitsnap-go/types"
)

// Server represents the local HTTP API the web UI talks to
type Server struct {
	cfg    *types.AppConfig
	engine *gin.Engine
	server *http.Server
	mu     sync.RWMutex
}

// webPathExists returns true if name exists as file or as dir (with index.html) in the FS.
func webPathExists(f fs.FS, name string) bool {
	if name == "" || name == "." {
		_, err := fs.Stat(f, "index.html")
		return err == nil
	}
	name = strings.TrimPrefix(name, "/")
	_, err := fs.Stat(f, name)
	if err == nil {
		return true
	}
	_, err = fs.Stat(f, name+"/index.html")
	return err == nil
}

// NewServer creates a new API server instance for cfg
func NewServer(cfg *types.AppConfig) *Server {
	return &Server{cfg: cfg}
}

// webFS opens the UI bundle directory from config, or returns nil when none is configured.
func (s *Server) webFS() fs.FS {
	if s.cfg.WebOutPath == "" {
		return nil
	}
	if info, err := os.Stat(s.cfg.WebOutPath); err == nil && info.IsDir() {
		return os.DirFS(s.cfg.WebOutPath)
	}
	tool.DefaultLogger.Warnf("[Server] Web UI path %s not found, ignoring", s.cfg.WebOutPath)
	return nil
}

func (s *Server) setupRoutes() *gin.Engine {
	if tool.DefaultLogger.GetLevel() == log.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	// ClientIP must come from the socket peer; loopback-only routes depend on it.
	_ = engine.SetTrustedProxies(nil)
	engine.Use(gin.Logger(), gin.Recovery())
	engine.Use(middlewares.AllowCORS(s.cfg.CorsOrigins))
	engine.MaxMultipartMemory = s.cfg.MaxImageBytes + 1<<20

	intakeLimit := middlewares.IntakeRateLimit(s.cfg.IntakeRatePerSecond)

	self := engine.Group("/api/self/v1", middlewares.LocalUnlessLan(s.cfg.AllowLan))
	{
		self.GET("/status", controllers.UserStatus) // Running, notify_ws_enabled, optional service probe
		self.GET("/config", controllers.UserConfigGet)
		self.POST("/sessions", controllers.UserCreateSession)
		self.GET("/sessions/:id", controllers.UserGetSession)
		self.DELETE("/sessions/:id", controllers.UserCloseSession) // user navigated away
		self.POST("/sessions/:id/acknowledge", controllers.UserAcknowledge)
		self.POST("/sessions/:id/slots/:slot", intakeLimit, controllers.UserAcquireSlot)
		self.DELETE("/sessions/:id/slots/:slot", controllers.UserClearSlot)
		self.GET("/sessions/:id/slots/:slot/image", controllers.UserGetSlotImage)
		self.POST("/sessions/:id/submit", intakeLimit, controllers.UserSubmit)
		self.POST("/sessions/:id/reset", controllers.UserReset)
		self.GET("/sessions/:id/result", controllers.UserGetResult)
		self.GET("/capture-link", controllers.UserCaptureLinks)
		self.GET("/create-qr-code", controllers.GenerateQRCode) // QR code PNG (same params as api.qrserver.com)
		if hub := models.GetNotifyHub(); notify.NotifyWSEnabled() && hub != nil {
			self.GET("/notify-ws", controllers.HandleNotifyWS(hub))
		}
	}

	// Serve the static UI. For app routes (/capture, /result, etc.) serve index.html directly
	// so client-side routing works when a link is opened on a phone.
	if webFS := s.webFS(); webFS != nil {
		fileServer := http.FileServer(http.FS(webFS))
		engine.NoRoute(gin.WrapF(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				http.NotFound(w, r)
				return
			}
			path := strings.TrimPrefix(r.URL.Path, "/")
			if path == "" {
				path = "index.html"
			}

			// Static assets should be served directly if they exist
			if ext := filepath.Ext(path); ext != "" && ext != ".html" {
				if webPathExists(webFS, path) {
					fileServer.ServeHTTP(w, r)
					return
				}
				http.NotFound(w, r)
				return
			}

			data, err := fs.ReadFile(webFS, "index.html")
			if err != nil {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(data)
		}))
		tool.DefaultLogger.Infof("[Server] Serving web UI")
	}

	return engine
}

// Handler builds the routes without listening, for tests.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	engine := s.setupRoutes()

	s.mu.Lock()
	s.engine = engine
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: engine,
	}
	s.mu.Unlock()

	address := fmt.Sprintf("%s://0.0.0.0:%d", s.cfg.Protocol, s.cfg.Port)
	tool.DefaultLogger.Infof("Starting API server on %s", address)

	if s.cfg.Protocol == "https" {
		cert, err := tool.GetOrCreateTLSCertFromConfig(s.cfg)
		if err != nil {
			return fmt.Errorf("failed to get TLS certificate: %v", err)
		}
		tool.PersistConfig(s.cfg)

		s.mu.Lock()
		s.server.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
		}
		s.mu.Unlock()

		tool.DefaultLogger.Infof("TLS certificate configured for HTTPS")
		return s.server.ListenAndServeTLS("", "")
	}

	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests and waits for active ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
