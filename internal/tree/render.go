package tree

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/oneshot/internal/explain"
)

// Render writes the visible tree as indented plain text. Declared terms are
// bracketed; every expanded child follows its parent under a "→ term" line.
func (c *Controller) Render(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderNode(w, c.root, 0)
}

func (c *Controller) renderNode(w io.Writer, n *Node, indent int) error {
	pad := strings.Repeat("  ", indent)
	if _, err := fmt.Fprintf(w, "%s%s\n", pad, Highlight(n.ExplanationNode)); err != nil {
		return err
	}
	for _, ch := range c.expandedChildren(n.Key) {
		if _, err := fmt.Fprintf(w, "%s  → %s\n", pad, ch.term); err != nil {
			return err
		}
		if err := c.renderNode(w, ch.node, indent+2); err != nil {
			return err
		}
	}
	return nil
}

// Highlight returns the node text with each resolved term span wrapped in
// square brackets.
func Highlight(n explain.ExplanationNode) string {
	runes := []rune(n.Text)
	var sb strings.Builder
	pos := 0
	for _, s := range explain.ResolveSpans(n) {
		sb.WriteString(string(runes[pos:s.Start]))
		sb.WriteString("[")
		sb.WriteString(string(runes[s.Start:s.End]))
		sb.WriteString("]")
		pos = s.End
	}
	sb.WriteString(string(runes[pos:]))
	return sb.String()
}
