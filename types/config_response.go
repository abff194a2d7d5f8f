package types

// ConfigResponse is the JSON shape for GET /api/self/v1/config. Key material is never exposed.
type ConfigResponse struct {
	Port                  int    `json:"port"`
	Protocol              string `json:"protocol"`
	AnalysisBaseURL       string `json:"analysis_base_url"`
	Identity              string `json:"identity"`
	MaxImageBytes         int64  `json:"max_image_bytes"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
	SessionTTLSeconds     int    `json:"session_ttl_seconds"`
	MeasurementUnit       string `json:"measurement_unit"`
	AllowLan              bool   `json:"allow_lan"`
	IntakeRatePerSecond   int    `json:"intake_rate_per_second"`
	NotifyWebsocket       bool   `json:"notify_websocket"`
}
