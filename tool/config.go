package tool

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/moyoez/fitsnap-go/types"
)

const (
	DefaultPort            = 53318
	DefaultAnalysisBaseURL = "http://localhost:8001"
	DefaultMaxImageBytes   = 10 * 1024 * 1024 // 10MB, same cap the service accepts
	DefaultMeasurementUnit = "cm"
)

var (
	ConfigPath    = "config.yaml" // be aware that it can be changed, default to ./config.yaml
	CurrentConfig types.AppConfig
)

func DefaultConfig() types.AppConfig {
	return types.AppConfig{
		Port:                  DefaultPort,
		Protocol:              "http",
		AnalysisBaseURL:       DefaultAnalysisBaseURL,
		Identity:              "",
		MaxImageBytes:         DefaultMaxImageBytes,
		RequestTimeoutSeconds: 120, // analysis is slow, the ui only disables re-submit meanwhile
		SessionTTLSeconds:     3600,
		MeasurementUnit:       DefaultMeasurementUnit,
		AllowLan:              false,
		IntakeRatePerSecond:   5,
		NotifyWebsocket:       true,
	}
}

func LoadConfig(path string) (types.AppConfig, error) {
	if path == "" {
		path = ConfigPath
	}
	ConfigPath = path

	cfg := DefaultConfig()

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if writeErr := writeConfig(path, cfg); writeErr != nil {
				return cfg, fmt.Errorf("config file not found, and failed to generate default config: %w", writeErr)
			}
			DefaultLogger.Infof("Created new config file at %s", path)
			CurrentConfig = cfg
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if info.IsDir() {
		return cfg, fmt.Errorf("config file path is a directory: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	normalizeConfig(&cfg)

	CurrentConfig = cfg
	return cfg, nil
}

// normalizeConfig replaces zero or invalid values left by a hand-edited file.
func normalizeConfig(cfg *types.AppConfig) {
	def := DefaultConfig()
	if cfg.Port <= 0 {
		cfg.Port = def.Port
	}
	cfg.Protocol = strings.ToLower(cfg.Protocol)
	if cfg.Protocol != "http" && cfg.Protocol != "https" {
		DefaultLogger.Warnf("Unknown protocol %q in config, using http", cfg.Protocol)
		cfg.Protocol = "http"
	}
	cfg.AnalysisBaseURL = strings.TrimRight(cfg.AnalysisBaseURL, "/")
	if cfg.AnalysisBaseURL == "" {
		cfg.AnalysisBaseURL = def.AnalysisBaseURL
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = def.MaxImageBytes
	}
	if cfg.RequestTimeoutSeconds < 0 {
		cfg.RequestTimeoutSeconds = 0
	}
	if cfg.SessionTTLSeconds <= 0 {
		cfg.SessionTTLSeconds = def.SessionTTLSeconds
	}
	if cfg.MeasurementUnit == "" {
		cfg.MeasurementUnit = def.MeasurementUnit
	}
	var origins []string
	for _, origin := range cfg.CorsOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "*" {
			DefaultLogger.Warnf("Wildcard CORS origin is not supported, ignoring it")
			continue
		}
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	cfg.CorsOrigins = origins
	if cfg.IntakeRatePerSecond < 0 {
		cfg.IntakeRatePerSecond = 0
	}
}

// ApplyFlagOverrides merges CLI flags over the loaded config. Flags win.
func ApplyFlagOverrides(cfg *types.AppConfig, flags types.Config) {
	if flags.UsePort > 0 {
		cfg.Port = flags.UsePort
	}
	if flags.UseHttps {
		cfg.Protocol = "https"
	}
	if flags.UseAnalysisBaseURL != "" {
		cfg.AnalysisBaseURL = strings.TrimRight(flags.UseAnalysisBaseURL, "/")
	}
	if flags.UseIdentity != "" {
		cfg.Identity = flags.UseIdentity
	}
	if flags.UseAllowLan {
		cfg.AllowLan = true
	}
	if flags.UseWebOutPath != "" {
		cfg.WebOutPath = flags.UseWebOutPath
	}
	CurrentConfig = *cfg
}

func writeConfig(path string, cfg types.AppConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// PersistConfig writes cfg to the current config path and makes it current.
func PersistConfig(cfg *types.AppConfig) {
	if cfg == nil {
		return
	}
	CurrentConfig = *cfg
	if err := writeConfig(ConfigPath, CurrentConfig); err != nil {
		DefaultLogger.Warnf("Failed to persist config: %v", err)
	}
}

func GetCurrentConfig() *types.AppConfig {
	return &CurrentConfig
}

// RequestTimeout is the per-request deadline for calls to the analysis service. Zero means none.
func RequestTimeout(cfg *types.AppConfig) time.Duration {
	return time.Duration(cfg.RequestTimeoutSeconds) * time.Second
}

// SessionTTL is how long an idle workflow stays reachable.
func SessionTTL(cfg *types.AppConfig) time.Duration {
	return time.Duration(cfg.SessionTTLSeconds) * time.Second
}
