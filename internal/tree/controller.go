// Package tree is the client-side expansion-tree controller. It owns every
// fetched node and a single state table keyed by (node key, term id), so the
// toggle, cache and staleness rules can be exercised without any UI.
package tree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"sync"

	"github.com/dgallion1/oneshot/internal/explain"
)

var (
	ErrUnknownNode = errors.New("unknown node")
	ErrUnknownTerm = errors.New("unknown term")
	// ErrNotClickable is returned for a word click on whitespace, punctuation
	// or anything that is not exactly one word token.
	ErrNotClickable = errors.New("not a clickable word")
	// ErrLoading is returned for a click on a term whose fetch is outstanding.
	ErrLoading = errors.New("expansion already in progress")
	// ErrStale is returned when a fetch finished after it was abandoned.
	ErrStale = errors.New("expansion result discarded")
)

// Expander fetches the child node for one term.
type Expander interface {
	Expand(ctx context.Context, req explain.ExpandRequest) (*explain.ExpandResponse, error)
}

// Node is a fetched explanation placed in the tree.
type Node struct {
	Key   string
	Depth int
	explain.ExplanationNode
}

// State is the per-term expansion state.
type State struct {
	Expanded bool
	Loading  bool
	Child    *Node
	Err      string
}

// Action describes what a click did.
type Action int

const (
	Collapsed Action = iota
	ExpandedFromCache
	Fetched
	Failed
)

func (a Action) String() string {
	switch a {
	case Collapsed:
		return "collapsed"
	case ExpandedFromCache:
		return "expanded-from-cache"
	case Fetched:
		return "fetched"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// termKind separates declared terms from ad-hoc words so a declared id that
// happens to look like a word id never shares state with the word.
type termKind uint8

const (
	declaredTerm termKind = iota
	wordTerm
)

type stateKey struct {
	node string
	kind termKind
	term string
}

// childKey builds the key of the node opened from (kind, id) under parent.
// The id is path-escaped so keys stay unambiguous for any id.
func childKey(parent string, kind termKind, id string) string {
	prefix := "t:"
	if kind == wordTerm {
		prefix = "w:"
	}
	return parent + "/" + prefix + url.PathEscape(id)
}

type termState struct {
	State
	term    string
	fetchID uint64
	order   int
}

// Controller is safe for concurrent use. The expander is called without the
// lock held, so different terms fetch in parallel.
type Controller struct {
	mu       sync.Mutex
	topic    string
	root     *Node
	nodes    map[string]*Node
	states   map[stateKey]*termState
	expander Expander
	log      *slog.Logger
	nextID   uint64
}

func New(topic string, root explain.ExplanationNode, exp Expander, log *slog.Logger) *Controller {
	c := &Controller{expander: exp, log: log}
	c.reset(topic, root)
	return c
}

// Reset replaces the whole tree. Outstanding fetches become stale.
func (c *Controller) Reset(topic string, root explain.ExplanationNode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset(topic, root)
}

func (c *Controller) reset(topic string, root explain.ExplanationNode) {
	c.topic = topic
	c.root = &Node{Key: explain.RootID, Depth: 0, ExplanationNode: root}
	c.nodes = map[string]*Node{explain.RootID: c.root}
	c.states = make(map[stateKey]*termState)
}

func (c *Controller) Topic() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.topic
}

func (c *Controller) Root() *Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.root
}

// Node returns a node by key.
func (c *Controller) Node(key string) (*Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.nodes[key]
	return n, ok
}

// State returns a copy of a declared term's state; the zero State when never
// clicked.
func (c *Controller) State(nodeKey, termID string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked(stateKey{nodeKey, declaredTerm, termID})
}

// WordState returns a copy of an ad-hoc word's state in a node.
func (c *Controller) WordState(nodeKey, word string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	node, ok := c.nodes[nodeKey]
	if !ok {
		return State{}
	}
	return c.stateLocked(stateKey{nodeKey, wordTerm, WordTermID(word, node.Depth)})
}

func (c *Controller) stateLocked(key stateKey) State {
	if st, ok := c.states[key]; ok {
		return st.State
	}
	return State{}
}

// ClickWord toggles an ad-hoc word of a node. Its identity is
// WordTermID(word, depth), separate from any declared term with the same text
// or id. Only a single word token is clickable.
func (c *Controller) ClickWord(ctx context.Context, nodeKey, word string) (Action, error) {
	if toks := Tokenize(word); len(toks) != 1 || !toks[0].Clickable() {
		return Failed, fmt.Errorf("%w: %q", ErrNotClickable, word)
	}
	c.mu.Lock()
	node, ok := c.nodes[nodeKey]
	c.mu.Unlock()
	if !ok {
		return Failed, fmt.Errorf("%w: %s", ErrUnknownNode, nodeKey)
	}
	return c.toggle(ctx, node, wordTerm, WordTermID(word, node.Depth), word)
}

// ClickTerm toggles a declared expandable term of a node.
func (c *Controller) ClickTerm(ctx context.Context, nodeKey, termID string) (Action, error) {
	c.mu.Lock()
	node, ok := c.nodes[nodeKey]
	c.mu.Unlock()
	if !ok {
		return Failed, fmt.Errorf("%w: %s", ErrUnknownNode, nodeKey)
	}
	term, ok := node.Term(termID)
	if !ok {
		return Failed, fmt.Errorf("%w: %s in %s", ErrUnknownTerm, termID, nodeKey)
	}
	return c.toggle(ctx, node, declaredTerm, term.ID, term.Term)
}

func (c *Controller) toggle(ctx context.Context, node *Node, kind termKind, termID, term string) (Action, error) {
	key := stateKey{node.Key, kind, termID}

	c.mu.Lock()
	st, ok := c.states[key]
	if !ok {
		st = &termState{term: term, order: len(c.states)}
		c.states[key] = st
	}
	switch {
	case st.Loading:
		c.mu.Unlock()
		return Failed, ErrLoading
	case st.Expanded:
		st.Expanded = false
		c.mu.Unlock()
		return Collapsed, nil
	case st.Child != nil:
		st.Expanded = true
		c.mu.Unlock()
		return ExpandedFromCache, nil
	}

	req := explain.ExpandRequest{
		Topic:         c.topic,
		TermID:        termID,
		Term:          term,
		ParentContext: node.Text,
		Depth:         node.Depth,
	}
	if node.Depth > explain.MaxDepth {
		err := &explain.DepthLimitError{Depth: node.Depth, Max: explain.MaxDepth}
		st.Err = err.Error()
		c.mu.Unlock()
		return Failed, err
	}
	c.nextID++
	fetchID := c.nextID
	st.fetchID = fetchID
	st.Loading = true
	st.Err = ""
	c.mu.Unlock()

	resp, err := c.expander.Expand(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.states[key] != st || st.fetchID != fetchID {
		c.log.Debug("dropping stale expansion", "node", node.Key, "term_id", termID)
		return Failed, ErrStale
	}
	st.Loading = false
	if err == nil {
		err = explain.ValidateNode(resp.Node)
	}
	if err != nil {
		st.Err = err.Error()
		c.log.Warn("expansion failed", "node", node.Key, "term_id", termID, "depth", node.Depth, "error", err)
		return Failed, err
	}

	child := &Node{
		Key:             childKey(node.Key, kind, termID),
		Depth:           node.Depth + 1,
		ExplanationNode: resp.Node,
	}
	c.nodes[child.Key] = child
	st.Child = child
	st.Expanded = true
	return Fetched, nil
}

// Abandon invalidates an outstanding fetch for a declared term; its result
// will be dropped on arrival and the term returns to the collapsed, idle state.
func (c *Controller) Abandon(nodeKey, termID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.abandonLocked(stateKey{nodeKey, declaredTerm, termID})
}

// AbandonWord is Abandon for an ad-hoc word.
func (c *Controller) AbandonWord(nodeKey, word string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	node, ok := c.nodes[nodeKey]
	if !ok {
		return
	}
	c.abandonLocked(stateKey{nodeKey, wordTerm, WordTermID(word, node.Depth)})
}

func (c *Controller) abandonLocked(key stateKey) {
	st, ok := c.states[key]
	if !ok || !st.Loading {
		return
	}
	c.nextID++
	st.fetchID = c.nextID
	st.Loading = false
}

// expandedChildren returns the expanded children of a node in first-click
// order. Callers hold c.mu.
func (c *Controller) expandedChildren(nodeKey string) []childRef {
	var out []childRef
	for k, st := range c.states {
		if k.node == nodeKey && st.Expanded && st.Child != nil {
			out = append(out, childRef{termID: k.term, term: st.term, node: st.Child, order: st.order})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].order < out[j].order })
	return out
}

type childRef struct {
	termID string
	term   string
	node   *Node
	order  int
}
