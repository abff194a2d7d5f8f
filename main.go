package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moyoez/fitsnap-go/api"
	"github.com/moyoez/fitsnap-go/api/models"
	"github.com/moyoez/fitsnap-go/notify"
	"github.com/moyoez/fitsnap-go/tool"
	"github.com/moyoez/fitsnap-go/transfer"
	"github.com/moyoez/fitsnap-go/workflow"
)

func main() {
	cfg := tool.SetFlags()

	// initialize logger
	tool.InitLogger()
	tool.SetLogMode(cfg.Log)

	appCfg, err := tool.LoadConfig(cfg.UseConfigPath)
	if err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}
	tool.ApplyFlagOverrides(&appCfg, cfg)

	if cfg.SkipNotify {
		notify.SetUseNotify(false)
	}
	notify.SetSocketPath(appCfg.NotifySocketPath)
	if appCfg.NotifyWebsocket {
		hub := models.NewHub()
		models.SetNotifyHub(hub)
		notify.SetHub(hub, true)
	}

	tool.InitHTTPClients(tool.RequestTimeout(&appCfg))
	analyzer := transfer.NewMeasurementClient(appCfg.AnalysisBaseURL, tool.GetHttpClient())
	models.InitSessionStore(tool.SessionTTL(&appCfg), func(identity string) *workflow.Workflow {
		return workflow.New(identity, analyzer,
			workflow.WithMaxImageBytes(appCfg.MaxImageBytes),
			workflow.WithNotifier(notify.Dispatch),
		)
	})

	tool.DefaultLogger.Infof("Analysis service: %s (timeout %v)", appCfg.AnalysisBaseURL, tool.RequestTimeout(&appCfg))
	if appCfg.Identity == "" {
		tool.DefaultLogger.Infof("No identity configured, guest submissions use %q", workflow.GuestIdentity)
	}
	if appCfg.AllowLan {
		for _, link := range tool.CaptureLinks(appCfg.Protocol, appCfg.Port) {
			tool.DefaultLogger.Infof("Capture link (%s): %s", link.Interface, link.URL)
		}
	} else {
		tool.DefaultLogger.Infof("LAN access disabled, capture links are not offered (use -useAllowLan)")
	}

	apiServer := api.NewServer(&appCfg)
	go func() {
		if err := apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			tool.DefaultLogger.Fatalf("API server startup failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	tool.DefaultLogger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		tool.DefaultLogger.Errorf("Graceful shutdown failed: %v", err)
	}
}
