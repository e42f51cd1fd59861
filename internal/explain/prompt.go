package explain

import (
	"fmt"
	"strings"
)

const ExplainSystemPrompt = `You are an expert explainer that creates concise, expandable explanations.

Your task is to explain topics in a clear, engaging way with embedded expandable terms. The explanation should be readable in about 60 seconds.

IMPORTANT: Identify 5-8 key concepts/terms that a curious reader might want to explore deeper. Mark these terms for expansion.

Return ONLY valid JSON matching this schema:
{
  "topic": "string",
  "root": {
    "id": "root",
    "text": "The main explanation text...",
    "expandableTerms": [
      {
        "id": "unique-id",
        "term": "TLS",
        "startIndex": 25,
        "endIndex": 28,
        "summary": "Brief tooltip preview of what this expands to"
      }
    ]
  },
  "metadata": {
    "estimatedReadTime": 60,
    "complexityLevel": "intermediate",
    "totalExpandableTerms": 7
  }
}

Rules:
- Make the root text engaging and complete (but concise)
- Select terms that add meaningful depth when expanded
- Provide accurate character indices (startIndex/endIndex) so that text[startIndex:endIndex] is exactly the term
- Every term id must be unique within the node
- Summary should be 1 sentence, <100 chars
- Never return empty text
- Write in plain text without markdown formatting (no **, __, [], etc.)`

const ExpandSystemPrompt = `You are an expert explainer providing deeper context on a specific term.

The user clicked on a term to learn more. Provide a focused explanation (2-4 sentences) that:
1. Clearly explains what the term means
2. Adds relevant context or examples
3. Identifies 2-4 related concepts that could be explored further

Return ONLY valid JSON matching this schema:
{
  "termId": "same-as-request",
  "node": {
    "id": "unique-id",
    "text": "Explanation of the term...",
    "expandableTerms": [
      {
        "id": "unique-id",
        "term": "related concept",
        "startIndex": 10,
        "endIndex": 25,
        "summary": "Brief preview"
      }
    ]
  }
}

Rules:
- Keep explanation focused and concise (50-150 words)
- Make it self-contained but respect parent context
- Go one level deeper than the parent context
- Include 2-4 expandable terms for deeper exploration
- Maintain accurate character indices
- Write in plain text without markdown formatting (no **, __, [], etc.)`

var toneGuidance = map[Tone]string{
	ToneConcise:  "Keep explanation brief and to the point (100-150 words). Focus on core concepts only.",
	ToneBalanced: "Provide a clear, well-rounded explanation (150-250 words). Balance brevity with depth.",
	ToneDetailed: "Give a comprehensive explanation with context and nuance (250-400 words). Explore implications and connections.",
}

// BuildExplainPrompt creates the user prompt for a root explanation.
func BuildExplainPrompt(req ExplainRequest) string {
	tone := req.Tone()
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Topic: %q\n\n", req.Topic))
	sb.WriteString(fmt.Sprintf("Style: %s\n", tone))
	sb.WriteString(toneGuidance[tone])
	sb.WriteString("\n")

	if o := req.Options; o != nil {
		if o.Complexity != nil {
			sb.WriteString(fmt.Sprintf("Target complexity: %g on a 1-5 scale (1 = newcomer, 5 = expert).\n", *o.Complexity))
		}
		if isSet(o.IncludeExamples) {
			sb.WriteString("Include a concrete example.\n")
		}
		if isSet(o.IncludeUseCases) {
			sb.WriteString("Mention where this is used in practice.\n")
		}
		if isSet(o.IncludePitfalls) {
			sb.WriteString("Point out a common pitfall or misconception.\n")
		}
	}

	sb.WriteString("\nGenerate a clear explanation with expandable terms. Return ONLY the JSON response.")
	return sb.String()
}

// BuildExpandPrompt creates the user prompt for a term expansion.
func BuildExpandPrompt(req ExpandRequest) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Original topic: %q\n", req.Topic))
	sb.WriteString(fmt.Sprintf("Term to expand: %q\n", req.Term))
	sb.WriteString(fmt.Sprintf("Context: %q\n", req.ParentContext))
	sb.WriteString(fmt.Sprintf("Current depth: %d\n\n", req.Depth))
	sb.WriteString(fmt.Sprintf("Provide a focused explanation of %q with 2-4 expandable sub-terms. Return ONLY the JSON response.", req.Term))
	return sb.String()
}

// BuildAskSystemPrompt quotes the selected passage for a Q&A exchange.
func BuildAskSystemPrompt(selectedText string) string {
	return fmt.Sprintf(`You are a helpful assistant answering questions about a selected text passage.

The user has selected this text:
%q

Provide clear, concise answers focused on the selected text. If the question is about something not in the text, politely note that and provide general information if helpful.`, selectedText)
}

func isSet(b *bool) bool {
	return b != nil && *b
}
