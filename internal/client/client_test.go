package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgallion1/oneshot/internal/chat"
	"github.com/dgallion1/oneshot/internal/explain"
	"github.com/dgallion1/oneshot/internal/tree"
)

var (
	_ tree.Expander = (*Client)(nil)
	_ chat.Asker    = (*Client)(nil)
)

func TestExpand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/expand" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		var req explain.ExpandRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Term != "hash" || req.Depth != 2 {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(explain.ExpandResponse{
			TermID: req.TermID,
			Node:   explain.ExplanationNode{ID: "n1", Text: "A hash is a digest.", ExpandableTerms: []explain.ExpandableTerm{}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "secret")
	resp, err := c.Expand(context.Background(), explain.ExpandRequest{Topic: "t", TermID: "x", Term: "hash", Depth: 2})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if resp.TermID != "x" || resp.Node.Text != "A hash is a digest." {
		t.Errorf("response = %+v", resp)
	}
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
		details string
	}{
		{"structured", 400, `{"error":"Maximum expansion depth reached","details":"depth 6 exceeds 5"}`, "Maximum expansion depth reached", "depth 6 exceeds 5"},
		{"plain text", 502, "bad gateway\n", "bad gateway", ""},
		{"empty", 500, "", "Internal Server Error", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, "").Ask(context.Background(), explain.AskRequest{SelectedText: "a", Question: "b"})
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.StatusCode != tt.status || apiErr.Message != tt.message || apiErr.Details != tt.details {
				t.Errorf("got %+v", apiErr)
			}
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, "").Explain(context.Background(), explain.ExplainRequest{Topic: "x"})
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestAudioAndVideo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		switch r.URL.Path {
		case "/api/generate-audio":
			if body["voice"] != "nova" {
				t.Errorf("voice = %q", body["voice"])
			}
			w.Header().Set("Content-Type", "audio/mpeg")
			w.Write([]byte("mp3"))
		case "/api/generate-video":
			w.Write([]byte(`{"videoUrl":"/videos/abc.mp4","script":{"title":"t","scenes":[]}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	audio, err := c.Audio(context.Background(), "hello", "nova")
	if err != nil || string(audio) != "mp3" {
		t.Fatalf("Audio = %q, %v", audio, err)
	}
	v, err := c.Video(context.Background(), "t", "text")
	if err != nil {
		t.Fatalf("Video: %v", err)
	}
	if v.VideoURL != "/videos/abc.mp4" || len(v.Script) == 0 {
		t.Errorf("video = %+v", v)
	}
}
