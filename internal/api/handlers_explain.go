package api

import (
	"errors"
	"net/http"

	"github.com/dgallion1/oneshot/internal/explain"
	"github.com/dgallion1/oneshot/internal/llm"
)

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req explain.ExplainRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := s.deps.Explainer.Generate(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, "Failed to generate explanation", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	var req explain.ExpandRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := s.deps.Explainer.Expand(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, "Failed to expand term", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req explain.AskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	answer, err := s.deps.Explainer.Ask(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, "Failed to process question", err)
		return
	}
	writeJSON(w, http.StatusOK, explain.AskResponse{Answer: answer})
}

// writeServiceError maps caller mistakes to 400 and everything else to 500.
// The cause goes in details; the log line carries the full chain.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var depthErr *explain.DepthLimitError
	switch {
	case errors.As(err, &depthErr):
		jsonErrorDetails(w, "Maximum expansion depth reached", err.Error(), http.StatusBadRequest)
	case explain.IsInvalidInput(err):
		jsonErrorDetails(w, "Invalid request", err.Error(), http.StatusBadRequest)
	default:
		var provErr *llm.ProviderError
		retryable := errors.As(err, &provErr) && provErr.Retryable()
		s.log.Error("request failed", "path", r.URL.Path, "retryable", retryable, "error", err)
		jsonErrorDetails(w, msg, err.Error(), http.StatusInternalServerError)
	}
}
