package tool

import (
	"fmt"
	"net/url"
	"strings"
)

// BuildMeasurementUploadURL builds the analysis endpoint URL from the configured base.
func BuildMeasurementUploadURL(baseURL string) (string, error) {
	return joinServiceURL(baseURL, "/api/measurements/upload")
}

// BuildHealthURL builds the /api/health URL of the analysis service.
func BuildHealthURL(baseURL string) (string, error) {
	return joinServiceURL(baseURL, "/api/health")
}

func joinServiceURL(baseURL, path string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q in base URL", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base URL %q has no host", baseURL)
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String(), nil
}

// BuildCaptureURL builds the URL a phone on the LAN opens to reach the capture UI.
func BuildCaptureURL(protocol, ip string, port int) string {
	return fmt.Sprintf("%s://%s:%d/", protocol, ip, port)
}
