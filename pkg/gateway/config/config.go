package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type AuthMode string

const (
	AuthModeWorkOS   AuthMode = "workos"
	AuthModeStatic   AuthMode = "static"
	AuthModeDisabled AuthMode = "disabled"
)

type Config struct {
	Addr string

	AuthMode AuthMode

	// WorkOS server API key; required when AuthMode is workos.
	WorkOSAPIKey string

	// Fixed tokens accepted when AuthMode is static.
	StaticTokens []string

	// Ordered completion credentials. Failover walks them front to back.
	GroqAPIKeys []string

	// Optional Gemini credential. When set it joins the completion pool and
	// enables semantic embeddings for retrieval.
	GeminiAPIKey string

	// Speech-to-text uses exactly one credential: the last configured Groq key.
	GroqModel      string
	GroqSTTModel   string
	GroqTTSModel   string
	GroqTTSVoice   string
	GeminiModel    string
	EmbeddingModel string

	// PostgreSQL DSN. Empty disables persistence; sessions then run on the
	// built-in question defaults and nothing is recorded.
	DatabaseURL string

	// Apply schema migrations at startup.
	MigrateOnStart bool

	// Serve retrieval context from the global corpus when an interview has no
	// documents of its own.
	RetrievalGlobalFallback bool

	// CORS
	CORSAllowedOrigins map[string]struct{} // empty => disabled

	// Live WebSocket session limits.
	MaxAudioMessageBytes int64
	SessionMaxDuration   time.Duration
	WSWriteTimeout       time.Duration
	WSPingInterval       time.Duration
	TurnTimeout          time.Duration

	// Operational defaults
	ReadHeaderTimeout   time.Duration
	ShutdownGracePeriod time.Duration
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                    envOr("VAI_INTERVIEW_ADDR", ":8080"),
		AuthMode:                AuthMode(envOr("VAI_INTERVIEW_AUTH_MODE", string(AuthModeWorkOS))),
		WorkOSAPIKey:            strings.TrimSpace(os.Getenv("VAI_INTERVIEW_WORKOS_API_KEY")),
		StaticTokens:            splitCSV(os.Getenv("VAI_INTERVIEW_STATIC_TOKENS")),
		GroqAPIKeys:             splitCSV(os.Getenv("VAI_INTERVIEW_GROQ_API_KEYS")),
		GeminiAPIKey:            strings.TrimSpace(os.Getenv("VAI_INTERVIEW_GEMINI_API_KEY")),
		GroqModel:               envOr("VAI_INTERVIEW_GROQ_MODEL", "llama-3.3-70b-versatile"),
		GroqSTTModel:            envOr("VAI_INTERVIEW_GROQ_STT_MODEL", "whisper-large-v3-turbo"),
		GroqTTSModel:            envOr("VAI_INTERVIEW_GROQ_TTS_MODEL", "playai-tts"),
		GroqTTSVoice:            envOr("VAI_INTERVIEW_GROQ_TTS_VOICE", "Nia-PlayAI"),
		GeminiModel:             envOr("VAI_INTERVIEW_GEMINI_MODEL", "gemini-2.0-flash"),
		EmbeddingModel:          envOr("VAI_INTERVIEW_EMBEDDING_MODEL", "gemini-embedding-001"),
		DatabaseURL:             strings.TrimSpace(os.Getenv("VAI_INTERVIEW_DATABASE_URL")),
		MigrateOnStart:          envBoolOr("VAI_INTERVIEW_MIGRATE_ON_START", true),
		RetrievalGlobalFallback: envBoolOr("VAI_INTERVIEW_RETRIEVAL_GLOBAL_FALLBACK", false),
		CORSAllowedOrigins:      make(map[string]struct{}),
		MaxAudioMessageBytes:    envInt64Or("VAI_INTERVIEW_MAX_AUDIO_MESSAGE_BYTES", 16<<20), // 16 MiB
		SessionMaxDuration:      envDurationOr("VAI_INTERVIEW_SESSION_MAX_DURATION", 1*time.Hour),
		WSWriteTimeout:          envDurationOr("VAI_INTERVIEW_WS_WRITE_TIMEOUT", 10*time.Second),
		WSPingInterval:          envDurationOr("VAI_INTERVIEW_WS_PING_INTERVAL", 20*time.Second),
		TurnTimeout:             envDurationOr("VAI_INTERVIEW_TURN_TIMEOUT", 2*time.Minute),
		ReadHeaderTimeout:       envDurationOr("VAI_INTERVIEW_READ_HEADER_TIMEOUT", 10*time.Second),
		ShutdownGracePeriod:     envDurationOr("VAI_INTERVIEW_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
	}

	switch cfg.AuthMode {
	case AuthModeWorkOS, AuthModeStatic, AuthModeDisabled:
	default:
		return Config{}, fmt.Errorf("VAI_INTERVIEW_AUTH_MODE must be one of workos|static|disabled")
	}

	for _, origin := range splitCSV(os.Getenv("VAI_INTERVIEW_CORS_ORIGINS")) {
		cfg.CORSAllowedOrigins[origin] = struct{}{}
	}

	if cfg.AuthMode == AuthModeWorkOS && cfg.WorkOSAPIKey == "" {
		return Config{}, fmt.Errorf("VAI_INTERVIEW_WORKOS_API_KEY must be set when VAI_INTERVIEW_AUTH_MODE=workos")
	}
	if cfg.AuthMode == AuthModeStatic && len(cfg.StaticTokens) == 0 {
		return Config{}, fmt.Errorf("VAI_INTERVIEW_STATIC_TOKENS must be set when VAI_INTERVIEW_AUTH_MODE=static")
	}
	if len(cfg.GroqAPIKeys) == 0 {
		return Config{}, fmt.Errorf("VAI_INTERVIEW_GROQ_API_KEYS must contain at least one key")
	}
	if cfg.MaxAudioMessageBytes <= 0 {
		return Config{}, fmt.Errorf("VAI_INTERVIEW_MAX_AUDIO_MESSAGE_BYTES must be > 0")
	}
	if cfg.SessionMaxDuration <= 0 {
		return Config{}, fmt.Errorf("VAI_INTERVIEW_SESSION_MAX_DURATION must be > 0")
	}
	if cfg.WSWriteTimeout <= 0 {
		return Config{}, fmt.Errorf("VAI_INTERVIEW_WS_WRITE_TIMEOUT must be > 0")
	}
	if cfg.WSPingInterval <= 0 {
		return Config{}, fmt.Errorf("VAI_INTERVIEW_WS_PING_INTERVAL must be > 0")
	}
	if cfg.TurnTimeout <= 0 {
		return Config{}, fmt.Errorf("VAI_INTERVIEW_TURN_TIMEOUT must be > 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("VAI_INTERVIEW_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("VAI_INTERVIEW_SHUTDOWN_GRACE_PERIOD must be > 0")
	}

	return cfg, nil
}

// STTAPIKey returns the credential the transcriber uses: the last configured
// Groq key. Transcription does not fail over.
func (c Config) STTAPIKey() string {
	if len(c.GroqAPIKeys) == 0 {
		return ""
	}
	return c.GroqAPIKeys[len(c.GroqAPIKeys)-1]
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt64Or(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envBoolOr(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return def
	}
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
