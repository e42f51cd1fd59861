// Package chat is the client side of selection Q&A: one conversation about a
// piece of selected text, with at most one session active at a time.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/dgallion1/oneshot/internal/explain"
)

// ErrorReply is appended as the assistant turn when a question fails.
const ErrorReply = "Sorry, I encountered an error. Please try again."

var (
	ErrEmptySelection = errors.New("selected text is empty")
	ErrEmptyQuestion  = errors.New("question is empty")
	// ErrPending is returned while the session is waiting on an answer.
	ErrPending = errors.New("a question is already pending")
	// ErrClosed is returned by a closed or replaced session. An answer that
	// arrives after close is dropped with this error.
	ErrClosed = errors.New("session closed")
)

// Asker answers one question about a selection.
type Asker interface {
	Ask(ctx context.Context, req explain.AskRequest) (string, error)
}

// Manager holds the single active session.
type Manager struct {
	mu     sync.Mutex
	asker  Asker
	log    *slog.Logger
	active *Session
}

func NewManager(asker Asker, log *slog.Logger) *Manager {
	return &Manager{asker: asker, log: log}
}

// Open starts a session on selectedText, closing any session already open.
func (m *Manager) Open(selectedText string) (*Session, error) {
	if strings.TrimSpace(selectedText) == "" {
		return nil, ErrEmptySelection
	}
	s := &Session{asker: m.asker, log: m.log, selected: selectedText}

	m.mu.Lock()
	prev := m.active
	m.active = s
	m.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
	return s, nil
}

// Close ends the active session, if any.
func (m *Manager) Close() {
	m.mu.Lock()
	s := m.active
	m.active = nil
	m.mu.Unlock()
	if s != nil {
		s.Close()
	}
}

// Active returns the open session or nil.
func (m *Manager) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Session is one conversation. Questions are answered one at a time.
type Session struct {
	mu       sync.Mutex
	asker    Asker
	log      *slog.Logger
	selected string
	history  []explain.Message
	pending  bool
	closed   bool
}

func (s *Session) SelectedText() string { return s.selected }

// History returns a copy of the conversation so far.
func (s *Session) History() []explain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]explain.Message(nil), s.history...)
}

func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close marks the session closed; an outstanding answer will be dropped.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Ask sends question with the prior history. The user turn is recorded
// immediately; the assistant turn is the answer, or ErrorReply on failure,
// in which case the underlying error is returned alongside it.
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return "", ErrClosed
	case s.pending:
		s.mu.Unlock()
		return "", ErrPending
	}
	req := explain.AskRequest{
		SelectedText:        s.selected,
		Question:            question,
		ConversationHistory: append([]explain.Message(nil), s.history...),
	}
	s.history = append(s.history, explain.Message{Role: explain.RoleUser, Content: question})
	s.pending = true
	s.mu.Unlock()

	answer, err := s.asker.Ask(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = false
	if s.closed {
		s.log.Debug("dropping answer for closed session", "turns", len(req.ConversationHistory))
		return "", ErrClosed
	}
	if err != nil {
		s.log.Warn("ask failed", "turns", len(req.ConversationHistory), "error", err)
		s.history = append(s.history, explain.Message{Role: explain.RoleAssistant, Content: ErrorReply})
		return ErrorReply, err
	}
	s.history = append(s.history, explain.Message{Role: explain.RoleAssistant, Content: answer})
	return answer, nil
}
