package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Renderer turns a script file into a video file.
type Renderer interface {
	Render(ctx context.Context, scriptPath, outputPath string) error
}

// RenderProcessError reports a render command that failed to start, exited
// non-zero or ran past its timeout. ExitCode is -1 when no exit status exists.
type RenderProcessError struct {
	ExitCode int
	Output   string
	Err      error
}

func (e *RenderProcessError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("render process exited with code %d: %v", e.ExitCode, e.Err)
	}
	return fmt.Sprintf("render process: %v", e.Err)
}

func (e *RenderProcessError) Unwrap() error { return e.Err }

// ProcessRenderer runs an external command with the script and output paths
// appended as its last two arguments.
type ProcessRenderer struct {
	Command []string
	Timeout time.Duration
	Log     *slog.Logger
}

// renderOutputLimit is how much of the command's output is kept for errors.
const renderOutputLimit = 4096

func (r *ProcessRenderer) Render(ctx context.Context, scriptPath, outputPath string) error {
	if len(r.Command) == 0 {
		return &RenderProcessError{ExitCode: -1, Err: errors.New("no render command configured")}
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	args := append(append([]string(nil), r.Command[1:]...), scriptPath, outputPath)
	cmd := exec.CommandContext(ctx, r.Command[0], args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = 5 * time.Second

	start := time.Now()
	err := cmd.Run()
	if r.Log != nil {
		r.Log.Info("render finished",
			"command", r.Command[0],
			"output", outputPath,
			"duration_ms", time.Since(start).Milliseconds(),
			"ok", err == nil,
		)
	}
	if err == nil {
		return nil
	}

	tail := out.String()
	if len(tail) > renderOutputLimit {
		tail = tail[len(tail)-renderOutputLimit:]
	}
	if ctx.Err() != nil {
		err = fmt.Errorf("%w: %w", ctx.Err(), err)
	}
	var exitErr *exec.ExitError
	code := -1
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return &RenderProcessError{ExitCode: code, Output: strings.TrimSpace(tail), Err: err}
}

// VideoResult is returned to the caller of /api/generate-video.
type VideoResult struct {
	VideoURL string  `json:"videoUrl"`
	Script   *Script `json:"script"`
}

// VideoPipeline writes a script, stores it next to the output and renders it.
type VideoPipeline struct {
	writer   *ScriptWriter
	renderer Renderer
	dir      string
	log      *slog.Logger
}

func NewVideoPipeline(writer *ScriptWriter, renderer Renderer, dir string, log *slog.Logger) *VideoPipeline {
	return &VideoPipeline{writer: writer, renderer: renderer, dir: dir, log: log}
}

// Dir is the directory rendered videos are served from.
func (p *VideoPipeline) Dir() string { return p.dir }

// Generate runs the whole pipeline. The script file is removed afterwards
// whether or not rendering succeeded.
func (p *VideoPipeline) Generate(ctx context.Context, topic, text string) (*VideoResult, error) {
	script, err := p.writer.Write(ctx, topic, text)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create videos dir: %w", err)
	}
	id := uuid.NewString()
	scriptPath := filepath.Join(p.dir, "script-"+id+".json")
	outputPath := filepath.Join(p.dir, id+".mp4")

	data, err := json.MarshalIndent(script, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal script: %w", err)
	}
	if err := os.WriteFile(scriptPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("write script: %w", err)
	}
	defer func() {
		if err := os.Remove(scriptPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			p.log.Warn("remove script file", "path", scriptPath, "error", err)
		}
	}()

	p.log.Info("rendering video", "id", id, "topic", topic, "scenes", len(script.Scenes))
	if err := p.renderer.Render(ctx, scriptPath, outputPath); err != nil {
		return nil, err
	}
	return &VideoResult{VideoURL: "/videos/" + id + ".mp4", Script: script}, nil
}
