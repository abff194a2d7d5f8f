package types

// AppConfig represents the application configuration loaded from config file
type AppConfig struct {
	Port                  int      `yaml:"port"`
	Protocol              string   `yaml:"protocol"`
	AnalysisBaseURL       string   `yaml:"analysisBaseURL"`
	Identity              string   `yaml:"identity,omitempty"`
	MaxImageBytes         int64    `yaml:"maxImageBytes"`
	RequestTimeoutSeconds int      `yaml:"requestTimeoutSeconds"`
	SessionTTLSeconds     int      `yaml:"sessionTTLSeconds"`
	MeasurementUnit       string   `yaml:"measurementUnit"`
	AllowLan              bool     `yaml:"allowLan"`
	CorsOrigins           []string `yaml:"corsOrigins,omitempty"` // origins allowed to call the API cross-site, e.g. a UI dev server
	IntakeRatePerSecond   int      `yaml:"intakeRatePerSecond"`
	NotifyWebsocket       bool     `yaml:"notifyWebsocket"`
	NotifySocketPath      string   `yaml:"notifySocketPath,omitempty"`
	WebOutPath            string   `yaml:"webOutPath,omitempty"`
	CertPEM               string   `yaml:"certPEM,omitempty"`
	KeyPEM                string   `yaml:"keyPEM,omitempty"`
}

// Config holds runtime overrides from CLI flags
type Config struct {
	Log                string
	UseConfigPath      string
	UsePort            int
	UseHttps           bool
	UseAnalysisBaseURL string
	UseIdentity        string
	UseAllowLan        bool
	UseWebOutPath      string
	SkipNotify         bool // if true, no unix socket notifications are sent.
}
