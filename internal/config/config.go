package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Port string

	// Auth (optional; empty disables bearer checks)
	APIKey string

	// LLM provider selection
	LLMProvider string

	AnthropicAPIKey string
	AnthropicModel  string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	GeminiAPIKey string
	GeminiModel  string

	// Speech
	SpeechModel  string
	DefaultVoice string

	// Video rendering
	VideosDir     string
	RenderCommand []string
	RenderTimeout time.Duration

	// Request limits
	RateLimitRPS   float64
	RateLimitBurst int
	MaxBodyBytes   int64

	StatsWindow time.Duration
	LogLevel    slog.Level
}

// fileConfig mirrors Config for the optional TOML file. Zero values mean unset.
type fileConfig struct {
	Port     string `toml:"port"`
	APIKey   string `toml:"api_key"`
	LogLevel string `toml:"log_level"`

	LLM struct {
		Provider        string `toml:"provider"`
		AnthropicAPIKey string `toml:"anthropic_api_key"`
		AnthropicModel  string `toml:"anthropic_model"`
		OpenAIAPIKey    string `toml:"openai_api_key"`
		OpenAIBaseURL   string `toml:"openai_base_url"`
		OpenAIModel     string `toml:"openai_model"`
		GeminiAPIKey    string `toml:"gemini_api_key"`
		GeminiModel     string `toml:"gemini_model"`
		StatsWindow     string `toml:"stats_window"`
	} `toml:"llm"`

	Media struct {
		SpeechModel   string   `toml:"speech_model"`
		DefaultVoice  string   `toml:"default_voice"`
		VideosDir     string   `toml:"videos_dir"`
		RenderCommand []string `toml:"render_command"`
		RenderTimeout string   `toml:"render_timeout"`
	} `toml:"media"`

	Limits struct {
		RateLimitRPS   float64 `toml:"rate_limit_rps"`
		RateLimitBurst int     `toml:"rate_limit_burst"`
		MaxBodyBytes   int64   `toml:"max_body_bytes"`
	} `toml:"limits"`
}

// Default returns the built-in configuration before any file or env overrides.
func Default() Config {
	return Config{
		Port:           "8090",
		LLMProvider:    "openai",
		AnthropicModel: "claude-sonnet-4-5-20250929",
		OpenAIBaseURL:  "https://api.openai.com/v1",
		OpenAIModel:    "gpt-4o-mini",
		GeminiModel:    "gemini-2.5-flash",
		SpeechModel:    "tts-1",
		DefaultVoice:   "alloy",
		VideosDir:      "public/videos",
		RenderCommand:  []string{"node", "scripts/render-video.js"},
		RenderTimeout:  5 * time.Minute,
		RateLimitRPS:   5,
		RateLimitBurst: 20,
		MaxBodyBytes:   1 << 20,
		StatsWindow:    time.Hour,
		LogLevel:       slog.LevelInfo,
	}
}

// Load builds the configuration from defaults, the optional TOML file named by
// ONESHOT_CONFIG, and finally environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("ONESHOT_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("ONESHOT_API_KEY", cfg.APIKey)

	cfg.LLMProvider = strings.ToLower(envOr("LLM_PROVIDER", cfg.LLMProvider))
	cfg.AnthropicAPIKey = envOr("ANTHROPIC_API_KEY", cfg.AnthropicAPIKey)
	cfg.AnthropicModel = envOr("ANTHROPIC_MODEL", cfg.AnthropicModel)
	cfg.OpenAIAPIKey = envOr("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIBaseURL = envOr("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.OpenAIModel = envOr("MODEL_NAME", cfg.OpenAIModel)
	cfg.GeminiAPIKey = envOr("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiModel = envOr("GEMINI_MODEL", cfg.GeminiModel)

	cfg.SpeechModel = envOr("SPEECH_MODEL", cfg.SpeechModel)
	cfg.DefaultVoice = envOr("DEFAULT_VOICE", cfg.DefaultVoice)

	cfg.VideosDir = envOr("VIDEOS_DIR", cfg.VideosDir)
	if v := os.Getenv("RENDER_COMMAND"); v != "" {
		cfg.RenderCommand = strings.Fields(v)
	}
	cfg.RenderTimeout = envDuration("RENDER_TIMEOUT", cfg.RenderTimeout)

	cfg.RateLimitRPS = envFloat("RATE_LIMIT_RPS", cfg.RateLimitRPS)
	cfg.RateLimitBurst = envInt("RATE_LIMIT_BURST", cfg.RateLimitBurst)
	cfg.MaxBodyBytes = envInt64("MAX_BODY_BYTES", cfg.MaxBodyBytes)

	cfg.StatsWindow = envDuration("STATS_WINDOW", cfg.StatsWindow)
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = parseLevel(v, cfg.LogLevel)
	}

	cfg.normalize()
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var fc fileConfig
	if err := toml.NewDecoder(file).Decode(&fc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	setString(&c.Port, fc.Port)
	setString(&c.APIKey, fc.APIKey)
	if fc.LogLevel != "" {
		c.LogLevel = parseLevel(fc.LogLevel, c.LogLevel)
	}

	setString(&c.LLMProvider, fc.LLM.Provider)
	setString(&c.AnthropicAPIKey, fc.LLM.AnthropicAPIKey)
	setString(&c.AnthropicModel, fc.LLM.AnthropicModel)
	setString(&c.OpenAIAPIKey, fc.LLM.OpenAIAPIKey)
	setString(&c.OpenAIBaseURL, fc.LLM.OpenAIBaseURL)
	setString(&c.OpenAIModel, fc.LLM.OpenAIModel)
	setString(&c.GeminiAPIKey, fc.LLM.GeminiAPIKey)
	setString(&c.GeminiModel, fc.LLM.GeminiModel)
	if err := setDuration(&c.StatsWindow, fc.LLM.StatsWindow); err != nil {
		return fmt.Errorf("llm.stats_window: %w", err)
	}

	setString(&c.SpeechModel, fc.Media.SpeechModel)
	setString(&c.DefaultVoice, fc.Media.DefaultVoice)
	setString(&c.VideosDir, fc.Media.VideosDir)
	if len(fc.Media.RenderCommand) > 0 {
		c.RenderCommand = fc.Media.RenderCommand
	}
	if err := setDuration(&c.RenderTimeout, fc.Media.RenderTimeout); err != nil {
		return fmt.Errorf("media.render_timeout: %w", err)
	}

	if fc.Limits.RateLimitRPS > 0 {
		c.RateLimitRPS = fc.Limits.RateLimitRPS
	}
	if fc.Limits.RateLimitBurst > 0 {
		c.RateLimitBurst = fc.Limits.RateLimitBurst
	}
	if fc.Limits.MaxBodyBytes > 0 {
		c.MaxBodyBytes = fc.Limits.MaxBodyBytes
	}
	return nil
}

func (c *Config) normalize() {
	def := Default()
	if c.RenderTimeout <= 0 {
		c.RenderTimeout = def.RenderTimeout
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = def.RateLimitBurst
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = def.MaxBodyBytes
	}
	if c.StatsWindow <= 0 {
		c.StatsWindow = def.StatsWindow
	}
	c.OpenAIBaseURL = strings.TrimRight(c.OpenAIBaseURL, "/")
}

func (c Config) Validate() error {
	switch c.LLMProvider {
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for provider anthropic")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for provider openai")
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for provider gemini")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	if len(c.RenderCommand) == 0 {
		return fmt.Errorf("RENDER_COMMAND must not be empty")
	}
	if c.VideosDir == "" {
		return fmt.Errorf("VIDEOS_DIR must not be empty")
	}
	return nil
}

func parseLevel(s string, fallback slog.Level) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return fallback
	}
	return lvl
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
