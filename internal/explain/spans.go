package explain

import "sort"

// Span is a resolved, non-overlapping highlight of a declared term.
type Span struct {
	Term  ExpandableTerm
	Start int
	End   int
	// Aligned is true when the text under the offsets equals Term.Term.
	Aligned bool
}

// ResolveSpans picks a deterministic set of non-overlapping highlight spans.
// Terms are taken by ascending start, longer span first on a tie, then
// declaration order; a term that overlaps an accepted span is skipped.
// Offsets are a hint only: display uses Term.Term.
func ResolveSpans(n ExplanationNode) []Span {
	runes := []rune(n.Text)
	idx := make([]int, 0, len(n.ExpandableTerms))
	for i, t := range n.ExpandableTerms {
		if t.StartIndex >= 0 && t.StartIndex < t.EndIndex && t.EndIndex <= len(runes) {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ta, tb := n.ExpandableTerms[idx[a]], n.ExpandableTerms[idx[b]]
		if ta.StartIndex != tb.StartIndex {
			return ta.StartIndex < tb.StartIndex
		}
		return ta.EndIndex > tb.EndIndex
	})

	spans := make([]Span, 0, len(idx))
	end := -1
	for _, i := range idx {
		t := n.ExpandableTerms[i]
		if t.StartIndex < end {
			continue
		}
		spans = append(spans, Span{
			Term:    t,
			Start:   t.StartIndex,
			End:     t.EndIndex,
			Aligned: string(runes[t.StartIndex:t.EndIndex]) == t.Term,
		})
		end = t.EndIndex
	}
	return spans
}
