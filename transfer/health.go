package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/moyoez/fitsnap-go/tool"
	"github.com/moyoez/fitsnap-go/types"
)

// CheckHealth calls GET /api/health on the analysis service and reports the round trip.
func (c *MeasurementClient) CheckHealth(ctx context.Context) (*types.ServiceHealth, time.Duration, error) {
	url, err := tool.BuildHealthURL(c.baseURL)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build health URL: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create health request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client().Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to send health request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close response body: %v", err)
		}
	}()
	elapsed := time.Since(start)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, elapsed, fmt.Errorf("failed to read health response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, elapsed, fmt.Errorf("health request failed with status: %s", resp.Status)
	}

	var health types.ServiceHealth
	if err := sonic.Unmarshal(body, &health); err != nil {
		return nil, elapsed, fmt.Errorf("failed to parse health response: %w", err)
	}
	return &health, elapsed, nil
}
