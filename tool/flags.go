package tool

import (
	"flag"

	"github.com/moyoez/fitsnap-go/types"
)

// SetFlags parses CLI flags and returns the override config.
func SetFlags() types.Config {
	var cfg types.Config
	flag.StringVar(&cfg.Log, "log", "", "log mode: dev|prod|none")
	flag.StringVar(&cfg.UseConfigPath, "useConfigPath", "", "override config file path")
	flag.IntVar(&cfg.UsePort, "usePort", 0, "override local API port")
	flag.BoolVar(&cfg.UseHttps, "useHttps", false, "serve the local API over https with a self-signed certificate")
	flag.StringVar(&cfg.UseAnalysisBaseURL, "useAnalysisBaseURL", "", "override analysis service base URL")
	flag.StringVar(&cfg.UseIdentity, "useIdentity", "", "user id sent with submissions (guest sentinel when empty)")
	flag.BoolVar(&cfg.UseAllowLan, "useAllowLan", false, "accept API requests from other devices on the LAN")
	flag.StringVar(&cfg.UseWebOutPath, "useWebOutPath", "", "path to the static web UI bundle")
	flag.BoolVar(&cfg.SkipNotify, "skipNotify", false, "do not send unix socket notifications")
	flag.Parse()
	return cfg
}
