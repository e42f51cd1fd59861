package explain

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/dgallion1/oneshot/internal/llm"
)

// NoAnswer is returned to the asker when the model produced no text.
const NoAnswer = "No response generated."

// Service is the LLM-backed Explanation Generator, Term Expander and
// selection answerer. It holds no per-user state.
type Service struct {
	llm llm.Completer
	log *slog.Logger
}

func NewService(c llm.Completer, log *slog.Logger) *Service {
	return &Service{llm: c, log: log}
}

// Generate produces the root explanation for a topic. It does not retry.
func (s *Service) Generate(ctx context.Context, req ExplainRequest) (*ExplainResponse, error) {
	if err := ValidateExplainRequest(&req); err != nil {
		return nil, err
	}

	out, err := s.llm.Complete(ctx, llm.Request{
		System:      ExplainSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: BuildExplainPrompt(req)}},
		MaxTokens:   1500,
		Temperature: 0.4,
		JSON:        true,
	})
	if err != nil {
		return nil, &GenerationError{Op: "explain", Reason: completionReason(err), Err: err}
	}
	if strings.TrimSpace(out) == "" {
		return nil, &GenerationError{Op: "explain", Reason: ReasonNoResponse}
	}

	resp, err := ParseExplainResponse([]byte(llm.StripCodeBlock(out)))
	if err != nil {
		s.log.Warn("invalid explain response", "topic", req.Topic, "error", err)
		return nil, &GenerationError{Op: "explain", Reason: ReasonInvalidResponse, Err: err}
	}

	s.log.Debug("explanation generated",
		"topic", req.Topic,
		"tone", req.Tone(),
		"terms", len(resp.Root.ExpandableTerms),
	)
	return resp, nil
}

// Expand produces a child node for one term. The returned TermID always
// equals req.TermID.
func (s *Service) Expand(ctx context.Context, req ExpandRequest) (*ExpandResponse, error) {
	if err := ValidateExpandRequest(req); err != nil {
		return nil, err
	}

	out, err := s.llm.Complete(ctx, llm.Request{
		System:      ExpandSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: BuildExpandPrompt(req)}},
		MaxTokens:   800,
		Temperature: 0.4,
		JSON:        true,
	})
	if err != nil {
		return nil, &ExpansionError{TermID: req.TermID, Reason: completionReason(err), Err: err}
	}
	if strings.TrimSpace(out) == "" {
		return nil, &ExpansionError{TermID: req.TermID, Reason: ReasonNoResponse}
	}

	resp, err := ParseExpandResponse([]byte(llm.StripCodeBlock(out)))
	if err != nil {
		s.log.Warn("invalid expand response", "term_id", req.TermID, "depth", req.Depth, "error", err)
		return nil, &ExpansionError{TermID: req.TermID, Reason: ReasonInvalidResponse, Err: err}
	}
	resp.TermID = req.TermID

	s.log.Debug("term expanded",
		"term_id", req.TermID,
		"depth", req.Depth,
		"terms", len(resp.Node.ExpandableTerms),
	)
	return resp, nil
}

// Ask answers a question about the selected text, replaying the caller's
// history ahead of the question.
func (s *Service) Ask(ctx context.Context, req AskRequest) (string, error) {
	if err := ValidateAskRequest(req); err != nil {
		return "", err
	}

	msgs := make([]llm.Message, 0, len(req.ConversationHistory)+1)
	for _, m := range req.ConversationHistory {
		msgs = append(msgs, llm.Message{Role: llm.Role(m.Role), Content: m.Content})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: req.Question})

	out, err := s.llm.Complete(ctx, llm.Request{
		System:      BuildAskSystemPrompt(req.SelectedText),
		Messages:    msgs,
		MaxTokens:   500,
		Temperature: 0.7,
	})
	if errors.Is(err, llm.ErrEmptyResponse) {
		return NoAnswer, nil
	}
	if err != nil {
		return "", &GenerationError{Op: "ask", Reason: ReasonProvider, Err: err}
	}
	if strings.TrimSpace(out) == "" {
		return NoAnswer, nil
	}
	return out, nil
}

func completionReason(err error) string {
	if errors.Is(err, llm.ErrEmptyResponse) {
		return ReasonNoResponse
	}
	return ReasonProvider
}
