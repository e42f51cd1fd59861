// Package media turns explanations into audio and video at the service
// boundary. Neither is part of the explanation tree itself.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrAudioFailed wraps every speech synthesis failure.
var ErrAudioFailed = errors.New("audio generation failed")

// maxAudioBytes bounds a synthesized clip read into memory.
const maxAudioBytes = 32 << 20

// SpeechClient calls an OpenAI-compatible /audio/speech endpoint.
type SpeechClient struct {
	apiKey       string
	model        string
	baseURL      string
	defaultVoice string
	httpClient   *http.Client
}

func NewSpeechClient(apiKey, model, baseURL, defaultVoice string) *SpeechClient {
	return &SpeechClient{
		apiKey:       apiKey,
		model:        model,
		baseURL:      strings.TrimRight(baseURL, "/"),
		defaultVoice: defaultVoice,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Synthesize returns MP3 bytes for text. An empty voice uses the default.
func (c *SpeechClient) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is empty", ErrAudioFailed)
	}
	if voice == "" {
		voice = c.defaultVoice
	}

	body, err := json.Marshal(speechRequest{
		Model:          c.model,
		Input:          text,
		Voice:          voice,
		ResponseFormat: "mp3",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %w", ErrAudioFailed, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", ErrAudioFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: speech api: %w", ErrAudioFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: status %d: %s", ErrAudioFailed, resp.StatusCode, string(msg))
	}
	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read audio: %w", ErrAudioFailed, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio", ErrAudioFailed)
	}
	return audio, nil
}

func (c *SpeechClient) Close() {
	c.httpClient.CloseIdleConnections()
}
