package api

import (
	"net/http"
	"strconv"
	"strings"
)

type audioRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

type videoRequest struct {
	Topic string `json:"topic"`
	Text  string `json:"text"`
}

// maxSpeechChars is the speech endpoint's input limit.
const maxSpeechChars = 4096

func (s *Server) handleGenerateAudio(w http.ResponseWriter, r *http.Request) {
	if s.deps.Speech == nil {
		jsonError(w, "audio generation unavailable", http.StatusServiceUnavailable)
		return
	}
	var req audioRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		jsonError(w, "Text is required", http.StatusBadRequest)
		return
	}
	if len([]rune(req.Text)) > maxSpeechChars {
		jsonError(w, "Text exceeds "+strconv.Itoa(maxSpeechChars)+" characters", http.StatusBadRequest)
		return
	}

	audio, err := s.deps.Speech.Synthesize(r.Context(), req.Text, req.Voice)
	if err != nil {
		s.log.Error("audio generation failed", "error", err)
		jsonErrorDetails(w, "Failed to generate audio", err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.WriteHeader(http.StatusOK)
	w.Write(audio)
}

func (s *Server) handleGenerateVideo(w http.ResponseWriter, r *http.Request) {
	if s.deps.Video == nil {
		jsonError(w, "video generation unavailable", http.StatusServiceUnavailable)
		return
	}
	var req videoRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Topic) == "" || strings.TrimSpace(req.Text) == "" {
		jsonError(w, "Topic and text are required", http.StatusBadRequest)
		return
	}

	res, err := s.deps.Video.Generate(r.Context(), req.Topic, req.Text)
	if err != nil {
		s.log.Error("video generation failed", "topic", req.Topic, "error", err)
		jsonErrorDetails(w, "Failed to generate video", err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
