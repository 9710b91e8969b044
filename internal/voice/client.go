package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.retellai.com"
	defaultTimeout = 30 * time.Second
)

// ClientOption configures the token client.
type ClientOption func(*TokenClient)

// WithBaseURL sets a custom base URL for the vendor API.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *TokenClient) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *TokenClient) {
		c.httpClient = httpClient
	}
}

// TokenClient issues short-lived per-call access tokens from the vendor's
// web-call endpoint, authenticated with the static API key.
type TokenClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewTokenClient creates a client for the vendor API.
func NewTokenClient(apiKey string, opts ...ClientOption) *TokenClient {
	c := &TokenClient{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CallMetadata is the session metadata attached to a token request.
type CallMetadata struct {
	SessionType string `json:"session_type"`
	Timestamp   string `json:"timestamp"`
	UserID      string `json:"user_id"`
}

// WebCallRequest is the token-issuing request body.
type WebCallRequest struct {
	AgentID  string       `json:"agent_id"`
	Metadata CallMetadata `json:"metadata"`
}

// WebCallCredentials is the vendor's token response.
type WebCallCredentials struct {
	CallID      string `json:"call_id"`
	AccessToken string `json:"access_token"`
	AgentID     string `json:"agent_id"`
}

// TokenIssuer is the capability the controller needs from this client.
type TokenIssuer interface {
	CreateWebCall(ctx context.Context, req *WebCallRequest) (*WebCallCredentials, error)
}

// CreateWebCall requests an access token for a new web call. A non-2xx
// response body is surfaced as text in the returned error for diagnostics.
func (c *TokenClient) CreateWebCall(ctx context.Context, req *WebCallRequest) (*WebCallCredentials, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/create-web-call", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var creds WebCallCredentials
	if err := json.Unmarshal(respBody, &creds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if creds.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}

	return &creds, nil
}

var _ TokenIssuer = (*TokenClient)(nil)
