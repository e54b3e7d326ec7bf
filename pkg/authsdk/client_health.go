package authsdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrNotReady is returned by GetReadiness when the service answers 503. The
// failing checks are in the HealthResponse returned alongside it.
var ErrNotReady = errors.New("authsdk: service not ready")

// GetLiveness checks if the process is serving requests.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	health, _, err := c.probe(ctx, "/livez")
	return health, err
}

// GetReadiness checks the credential store and the signing key.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	health, degraded, err := c.probe(ctx, "/readyz")
	if err != nil {
		return nil, err
	}
	if degraded {
		return health, ErrNotReady
	}
	return health, nil
}

// probe decodes a health body. A 503 still carries a HealthResponse, any
// other non-200 status is an APIError.
func (c *SDKClient) probe(ctx context.Context, path string) (*HealthResponse, bool, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read response body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusServiceUnavailable:
	default:
		return nil, false, parseErrorResponse(resp, body)
	}

	var health HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return nil, false, fmt.Errorf("failed to decode response: %w", err)
	}
	return &health, resp.StatusCode == http.StatusServiceUnavailable, nil
}
