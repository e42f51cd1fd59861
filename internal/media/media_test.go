package media

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/oneshot/internal/explain"
	"github.com/dgallion1/oneshot/internal/llm"
)

type fakeCompleter struct {
	out   string
	err   error
	calls []llm.Request
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	f.calls = append(f.calls, req)
	return f.out, f.err
}

func (f *fakeCompleter) Model() string { return "fake" }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const validScript = `{"title":"Merkle trees","scenes":[
 {"visual":"a tree of boxes","narration":"Every leaf holds a hash.","duration":5},
 {"visual":"arrows to the top","narration":"Parents hash their children.","duration":4.5}
]}`

type recordingRenderer struct {
	scriptPath string
	outputPath string
	script     []byte
	err        error
}

func (r *recordingRenderer) Render(_ context.Context, scriptPath, outputPath string) error {
	r.scriptPath, r.outputPath = scriptPath, outputPath
	r.script, _ = os.ReadFile(scriptPath)
	return r.err
}

func TestScriptValidate(t *testing.T) {
	tests := []struct {
		name   string
		script Script
		ok     bool
	}{
		{"valid", Script{Scenes: []Scene{{Narration: "hi", Duration: 4}}}, true},
		{"no scenes", Script{}, false},
		{"empty narration", Script{Scenes: []Scene{{Narration: "  ", Duration: 4}}}, false},
		{"zero duration", Script{Scenes: []Scene{{Narration: "hi"}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.script.Validate()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidScript) {
				t.Fatalf("expected ErrInvalidScript, got %v", err)
			}
		})
	}
}

func TestScriptWriter(t *testing.T) {
	fc := &fakeCompleter{out: "```json\n" + validScript + "\n```"}
	s, err := NewScriptWriter(fc).Write(context.Background(), "Merkle trees", "A merkle tree...")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(s.Scenes) != 2 || s.Scenes[1].Duration != 4.5 {
		t.Errorf("unexpected script: %+v", s)
	}
	req := fc.calls[0]
	if !req.JSON || req.Temperature != 0.7 {
		t.Errorf("unexpected request settings: %+v", req)
	}
	if !strings.Contains(req.Messages[0].Content, "Topic: Merkle trees") {
		t.Errorf("prompt missing topic: %s", req.Messages[0].Content)
	}
}

func TestScriptWriter_Invalid(t *testing.T) {
	for _, out := range []string{"not json", `{"title":"x","scenes":[]}`} {
		_, err := NewScriptWriter(&fakeCompleter{out: out}).Write(context.Background(), "t", "x")
		if !errors.Is(err, ErrInvalidScript) {
			t.Errorf("%q: expected ErrInvalidScript, got %v", out, err)
		}
		var gErr *explain.GenerationError
		if !errors.As(err, &gErr) || gErr.Op != "script" || gErr.Reason != explain.ReasonInvalidResponse {
			t.Errorf("%q: expected script GenerationError, got %#v", out, err)
		}
	}
}

func TestScriptWriter_CompletionFailures(t *testing.T) {
	provErr := &llm.ProviderError{StatusCode: 503, Message: "overloaded"}
	tests := []struct {
		name   string
		fc     *fakeCompleter
		reason string
	}{
		{"provider", &fakeCompleter{err: provErr}, explain.ReasonProvider},
		{"empty-error", &fakeCompleter{err: llm.ErrEmptyResponse}, explain.ReasonNoResponse},
		{"blank", &fakeCompleter{out: "  \n"}, explain.ReasonNoResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScriptWriter(tt.fc).Write(context.Background(), "t", "x")
			var gErr *explain.GenerationError
			if !errors.As(err, &gErr) {
				t.Fatalf("expected GenerationError, got %v", err)
			}
			if gErr.Op != "script" || gErr.Reason != tt.reason {
				t.Fatalf("got op=%q reason=%q", gErr.Op, gErr.Reason)
			}
			if errors.Is(err, ErrInvalidScript) {
				t.Fatal("completion failures are not invalid scripts")
			}
			if tt.fc.err != nil && !errors.Is(err, tt.fc.err) {
				t.Fatalf("cause lost: %v", err)
			}
		})
	}
}

func TestVideoPipeline_Success(t *testing.T) {
	dir := t.TempDir()
	r := &recordingRenderer{}
	p := NewVideoPipeline(NewScriptWriter(&fakeCompleter{out: validScript}), r, dir, testLogger())

	res, err := p.Generate(context.Background(), "Merkle trees", "text")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	id := strings.TrimSuffix(filepath.Base(r.outputPath), ".mp4")
	if res.VideoURL != "/videos/"+id+".mp4" {
		t.Errorf("videoUrl = %q, output = %q", res.VideoURL, r.outputPath)
	}
	if r.scriptPath != filepath.Join(dir, "script-"+id+".json") {
		t.Errorf("script path = %q", r.scriptPath)
	}

	var stored Script
	if err := json.Unmarshal(r.script, &stored); err != nil {
		t.Fatalf("stored script: %v", err)
	}
	if stored.Title != "Merkle trees" || len(stored.Scenes) != 2 {
		t.Errorf("stored script = %+v", stored)
	}
	if _, err := os.Stat(r.scriptPath); !os.IsNotExist(err) {
		t.Errorf("script file should be removed, stat err = %v", err)
	}
}

func TestVideoPipeline_RenderFailure(t *testing.T) {
	dir := t.TempDir()
	renderErr := &RenderProcessError{ExitCode: 1, Err: errors.New("exit status 1")}
	r := &recordingRenderer{err: renderErr}
	p := NewVideoPipeline(NewScriptWriter(&fakeCompleter{out: validScript}), r, dir, testLogger())

	_, err := p.Generate(context.Background(), "t", "x")
	var rpe *RenderProcessError
	if !errors.As(err, &rpe) || rpe.ExitCode != 1 {
		t.Fatalf("expected RenderProcessError, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected empty dir after failure, found %d entries", len(entries))
	}
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestProcessRenderer_AppendsPaths(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	out := filepath.Join(dir, "out.mp4")
	if err := os.WriteFile(in, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := &ProcessRenderer{Command: []string{"sh", "-c", `cp "$0" "$1"`}, Timeout: 10 * time.Second}
	if err := r.Render(context.Background(), in, out); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if data, err := os.ReadFile(out); err != nil || string(data) != "{}" {
		t.Errorf("output = %q, err = %v", data, err)
	}
}

func TestProcessRenderer_Failures(t *testing.T) {
	requireShell(t)
	tests := []struct {
		name     string
		command  []string
		timeout  time.Duration
		exitCode int
		output   string
	}{
		{"non-zero exit", []string{"sh", "-c", "echo render broke; exit 3"}, 10 * time.Second, 3, "render broke"},
		{"spawn failure", []string{filepath.Join(t.TempDir(), "missing-binary")}, 10 * time.Second, -1, ""},
		{"timeout", []string{"sh", "-c", "exec sleep 5"}, 50 * time.Millisecond, -1, ""},
		{"no command", nil, 0, -1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &ProcessRenderer{Command: tt.command, Timeout: tt.timeout, Log: testLogger()}
			err := r.Render(context.Background(), "a.json", "a.mp4")
			var rpe *RenderProcessError
			if !errors.As(err, &rpe) {
				t.Fatalf("expected RenderProcessError, got %v", err)
			}
			if rpe.ExitCode != tt.exitCode {
				t.Errorf("exit code = %d, want %d", rpe.ExitCode, tt.exitCode)
			}
			if tt.output != "" && !strings.Contains(rpe.Output, tt.output) {
				t.Errorf("output = %q, want %q", rpe.Output, tt.output)
			}
			if tt.name == "timeout" && !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("expected deadline exceeded, got %v", err)
			}
		})
	}
}

func TestSpeechClient(t *testing.T) {
	var got speechRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing auth header")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3fake"))
	}))
	defer srv.Close()

	c := NewSpeechClient("sk-test", "tts-1", srv.URL+"/", "alloy")
	audio, err := c.Synthesize(context.Background(), "hello there", "")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio) != "ID3fake" {
		t.Errorf("audio = %q", audio)
	}
	if got.Voice != "alloy" || got.Model != "tts-1" || got.Input != "hello there" {
		t.Errorf("request = %+v", got)
	}
}

func TestSpeechClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewSpeechClient("k", "tts-1", srv.URL, "alloy")
	if _, err := c.Synthesize(context.Background(), "hi", "nova"); !errors.Is(err, ErrAudioFailed) {
		t.Errorf("expected ErrAudioFailed, got %v", err)
	}
	if _, err := c.Synthesize(context.Background(), "   ", ""); !errors.Is(err, ErrAudioFailed) {
		t.Errorf("empty text: expected ErrAudioFailed, got %v", err)
	}
}
