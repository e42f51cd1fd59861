package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/oneshot/internal/explain"
	"github.com/dgallion1/oneshot/internal/llm"
)

// ErrInvalidScript is returned when the model's script fails validation.
var ErrInvalidScript = errors.New("invalid video script")

// Scene is one shot of an explainer video. Duration is in seconds.
type Scene struct {
	Visual    string  `json:"visual"`
	Narration string  `json:"narration"`
	Duration  float64 `json:"duration"`
}

// Script is the document handed to the renderer.
type Script struct {
	Title  string  `json:"title"`
	Scenes []Scene `json:"scenes"`
}

// Validate checks the properties the renderer relies on.
func (s *Script) Validate() error {
	if len(s.Scenes) == 0 {
		return fmt.Errorf("%w: no scenes", ErrInvalidScript)
	}
	for i, sc := range s.Scenes {
		if strings.TrimSpace(sc.Narration) == "" {
			return fmt.Errorf("%w: scenes[%d].narration is empty", ErrInvalidScript, i)
		}
		if sc.Duration <= 0 {
			return fmt.Errorf("%w: scenes[%d].duration must be positive", ErrInvalidScript, i)
		}
	}
	return nil
}

const scriptSystemPrompt = "You are a video script writer. Create engaging explainer video scripts with SHORT narration."

const scriptPromptTemplate = `Convert this explanation into a video script with 5-7 short scenes. Each scene should have:
1. Visual description (what to show)
2. Narration text (what to say, keep it SHORT, max 15 words)
3. Duration (4-6 seconds)

Topic: %s

Explanation: %s

Return ONLY valid JSON in this format:
{
  "title": %q,
  "scenes": [
    {
      "visual": "Description of visual/image prompt",
      "narration": "Short text to narrate",
      "duration": 5
    }
  ]
}

Keep narration VERY concise and visual descriptions clear. Make it engaging.`

// ScriptWriter asks the model for a scene script.
type ScriptWriter struct {
	llm llm.Completer
}

func NewScriptWriter(c llm.Completer) *ScriptWriter {
	return &ScriptWriter{llm: c}
}

// Write produces and validates a script. A missing title falls back to topic.
// Failures are *explain.GenerationError with Op "script"; a bad script also
// matches ErrInvalidScript.
func (w *ScriptWriter) Write(ctx context.Context, topic, text string) (*Script, error) {
	out, err := w.llm.Complete(ctx, llm.Request{
		System:      scriptSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: fmt.Sprintf(scriptPromptTemplate, topic, text, topic)}},
		MaxTokens:   1200,
		Temperature: 0.7,
		JSON:        true,
	})
	if err != nil {
		reason := explain.ReasonProvider
		if errors.Is(err, llm.ErrEmptyResponse) {
			reason = explain.ReasonNoResponse
		}
		return nil, scriptError(reason, err)
	}
	if strings.TrimSpace(out) == "" {
		return nil, scriptError(explain.ReasonNoResponse, nil)
	}

	var s Script
	if err := json.Unmarshal([]byte(llm.StripCodeBlock(out)), &s); err != nil {
		return nil, scriptError(explain.ReasonInvalidResponse, fmt.Errorf("%w: %w", ErrInvalidScript, err))
	}
	if s.Title == "" {
		s.Title = topic
	}
	if err := s.Validate(); err != nil {
		return nil, scriptError(explain.ReasonInvalidResponse, err)
	}
	return &s, nil
}

func scriptError(reason string, err error) error {
	return &explain.GenerationError{Op: "script", Reason: reason, Err: err}
}
