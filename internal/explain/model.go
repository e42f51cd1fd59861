// Package explain holds the expansion-tree data model, the request and
// response contracts, and the LLM-backed generator, expander and answerer.
//
// Character offsets (StartIndex, EndIndex) count Unicode code points of the
// containing node's Text.
package explain

// RootID is the fixed id of every explanation's root node.
const RootID = "root"

// MaxDepth is the deepest expansion request accepted.
const MaxDepth = 5

// ExpandableTerm anchors an expandable span inside a node's text.
type ExpandableTerm struct {
	ID         string `json:"id"`
	Term       string `json:"term"`
	StartIndex int    `json:"startIndex"`
	EndIndex   int    `json:"endIndex"`
	Summary    string `json:"summary,omitempty"`
}

// ExplanationNode is one block of explanatory prose and its expandable terms,
// in the order the generator declared them.
type ExplanationNode struct {
	ID              string           `json:"id"`
	Text            string           `json:"text"`
	ExpandableTerms []ExpandableTerm `json:"expandableTerms"`
}

// Term returns the declared term with the given id.
func (n *ExplanationNode) Term(id string) (ExpandableTerm, bool) {
	for _, t := range n.ExpandableTerms {
		if t.ID == id {
			return t, true
		}
	}
	return ExpandableTerm{}, false
}

// Metadata is descriptive only.
type Metadata struct {
	EstimatedReadTime    float64 `json:"estimatedReadTime"`
	ComplexityLevel      string  `json:"complexityLevel"`
	TotalExpandableTerms float64 `json:"totalExpandableTerms"`
}

type ExplainResponse struct {
	Topic    string          `json:"topic"`
	Root     ExplanationNode `json:"root"`
	Metadata Metadata        `json:"metadata"`
}

type ExpandResponse struct {
	TermID string          `json:"termId"`
	Node   ExplanationNode `json:"node"`
}

// Tone selects the target length band of a generated explanation.
type Tone string

const (
	ToneConcise  Tone = "concise"
	ToneBalanced Tone = "balanced"
	ToneDetailed Tone = "detailed"
)

// Valid reports whether t is one of the known tones.
func (t Tone) Valid() bool {
	switch t {
	case ToneConcise, ToneBalanced, ToneDetailed:
		return true
	}
	return false
}

type Options struct {
	IncludeExamples *bool    `json:"includeExamples,omitempty"`
	IncludeUseCases *bool    `json:"includeUseCases,omitempty"`
	IncludePitfalls *bool    `json:"includePitfalls,omitempty"`
	Tone            Tone     `json:"tone,omitempty"`
	Complexity      *float64 `json:"complexity,omitempty"`
}

type ExplainRequest struct {
	Topic   string   `json:"topic"`
	Options *Options `json:"options,omitempty"`
}

// Tone returns the requested tone, defaulting to balanced.
func (r ExplainRequest) Tone() Tone {
	if r.Options == nil || r.Options.Tone == "" {
		return ToneBalanced
	}
	return r.Options.Tone
}

type ExpandRequest struct {
	Topic         string `json:"topic"`
	TermID        string `json:"termId"`
	Term          string `json:"term"`
	ParentContext string `json:"parentContext"`
	Depth         int    `json:"depth"`
}

// Role of a selection Q&A message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type AskRequest struct {
	SelectedText        string    `json:"selectedText"`
	Question            string    `json:"question"`
	ConversationHistory []Message `json:"conversationHistory"`
}

type AskResponse struct {
	Answer string `json:"answer"`
}
