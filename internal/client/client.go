// Package client talks to the oneshot HTTP API. It satisfies tree.Expander
// and chat.Asker so the CLI can drive both against a running server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dgallion1/oneshot/internal/explain"
)

// NetworkError is a transport failure: the request never got a response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a non-2xx response, decoded from the {error, details} body.
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("api error %d: %s: %s", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client communicates with the oneshot HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient returns a client. The timeout covers render-bound video calls,
// so it is longer than any single LLM round trip.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 6 * time.Minute,
		},
	}
}

// Explain calls POST /api/explain.
func (c *Client) Explain(ctx context.Context, req explain.ExplainRequest) (*explain.ExplainResponse, error) {
	var out explain.ExplainResponse
	if err := c.postJSON(ctx, "/api/explain", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Expand calls POST /api/expand.
func (c *Client) Expand(ctx context.Context, req explain.ExpandRequest) (*explain.ExpandResponse, error) {
	var out explain.ExpandResponse
	if err := c.postJSON(ctx, "/api/expand", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ask calls POST /api/ask and returns the answer text.
func (c *Client) Ask(ctx context.Context, req explain.AskRequest) (string, error) {
	var out explain.AskResponse
	if err := c.postJSON(ctx, "/api/ask", req, &out); err != nil {
		return "", err
	}
	return out.Answer, nil
}

// Audio calls POST /api/generate-audio and returns the MP3 bytes.
func (c *Client) Audio(ctx context.Context, text, voice string) ([]byte, error) {
	resp, err := c.post(ctx, "/api/generate-audio", map[string]string{"text": text, "voice": voice})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: "read audio", Err: err}
	}
	return audio, nil
}

// Video is the body returned by POST /api/generate-video.
type Video struct {
	VideoURL string          `json:"videoUrl"`
	Script   json.RawMessage `json:"script"`
}

// Video calls POST /api/generate-video.
func (c *Client) Video(ctx context.Context, topic, text string) (*Video, error) {
	var out Video
	if err := c.postJSON(ctx, "/api/generate-video", map[string]string{"topic": topic, "text": text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	resp, err := c.post(ctx, path, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// post sends a JSON body and returns the response when the status is 2xx.
// The caller closes the body.
func (c *Client) post(ctx context.Context, path string, in any) (*http.Response, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", path, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Op: "post " + path, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}
	return resp, nil
}

func decodeAPIError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Details = body.Details
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
