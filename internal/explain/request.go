package explain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxTopicLen = 500

// ValidateExplainRequest trims the topic in place and checks the option ranges.
func ValidateExplainRequest(req *ExplainRequest) error {
	req.Topic = strings.TrimSpace(req.Topic)
	n := utf8.RuneCountInString(req.Topic)
	if n == 0 {
		return &RequestError{Field: "topic", Reason: "is required"}
	}
	if n > maxTopicLen {
		return &RequestError{Field: "topic", Reason: fmt.Sprintf("must be at most %d characters", maxTopicLen)}
	}
	if req.Options == nil {
		return nil
	}
	if req.Options.Tone != "" && !req.Options.Tone.Valid() {
		return &RequestError{Field: "options.tone", Reason: "must be one of concise, balanced, detailed"}
	}
	if c := req.Options.Complexity; c != nil && (*c < 1 || *c > 5) {
		return &RequestError{Field: "options.complexity", Reason: "must be between 1 and 5"}
	}
	return nil
}

// ValidateExpandRequest checks depth first so an over-deep request never
// reaches the generator.
func ValidateExpandRequest(req ExpandRequest) error {
	if req.Depth < 0 || req.Depth > MaxDepth {
		return &DepthLimitError{Depth: req.Depth, Max: MaxDepth}
	}
	if strings.TrimSpace(req.Topic) == "" {
		return &RequestError{Field: "topic", Reason: "is required"}
	}
	if strings.TrimSpace(req.Term) == "" {
		return &RequestError{Field: "term", Reason: "is required"}
	}
	return nil
}

func ValidateAskRequest(req AskRequest) error {
	if strings.TrimSpace(req.SelectedText) == "" {
		return &RequestError{Field: "selectedText", Reason: "is required"}
	}
	if strings.TrimSpace(req.Question) == "" {
		return &RequestError{Field: "question", Reason: "is required"}
	}
	for i, m := range req.ConversationHistory {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return &RequestError{
				Field:  fmt.Sprintf("conversationHistory[%d].role", i),
				Reason: "must be user or assistant",
			}
		}
	}
	return nil
}
