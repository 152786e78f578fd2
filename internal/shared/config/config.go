package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "MOCKMATE"

// Config holds application configuration.
type Config struct {
	Env             string
	Port            string
	CORSAllowOrigin []string
	LogLevel        string
	LogFormat       string
	StagesFile      string
	CatalogStore    string
	CatalogDir      string
	CatalogPrefix   string
	AWSRegion       string
	S3Bucket        string
	SessionsBackend string
	SessionsDir     string
	DatabaseURL     string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	UsageBackend    string
	LLMProvider     string
	LLMModel        string
	OpenAIAPIKey    string
	GeminiAPIKey    string
	SQSQueueURL     string
	StartRatePerMin int
	ManagerIdleTTL  time.Duration
	PromptVersion   string
	ExtractMaxBytes int64
}

// New returns a viper instance with defaults and MOCKMATE_* env binding.
// Keys containing dots map to underscores, so log.level reads MOCKMATE_LOG_LEVEL.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// SetDefaults registers the default of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("port", "8080")
	v.SetDefault("cors_allow_origins", "http://localhost:5173")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("stages.file", "")
	v.SetDefault("catalog.store", "local")
	v.SetDefault("catalog.dir", "./data/questions")
	v.SetDefault("catalog.prefix", "")
	v.SetDefault("aws.region", "")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("sessions.backend", "file")
	v.SetDefault("sessions.dir", "./data/sessions")
	v.SetDefault("database_url", "")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("usage.backend", "memory")
	v.SetDefault("llm.provider", "none")
	v.SetDefault("llm.model", "")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("queue.sqs_url", "")
	v.SetDefault("rate_limit.start_per_minute", 30)
	v.SetDefault("manager.idle_ttl", "2h")
	v.SetDefault("llm.prompt_version", "guidance:v1")
	v.SetDefault("extract.max_bytes", 5<<20)
}

// ReadFile merges a config file into v. An empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// Load reads every key from v and normalizes enumerations.
func Load(v *viper.Viper) Config {
	// Bind the bare DATABASE_URL too, since hosting platforms set it unprefixed.
	_ = v.BindEnv("database_url", envPrefix+"_DATABASE_URL", "DATABASE_URL")

	return Config{
		Env:             normalizeEnv(v.GetString("env")),
		Port:            v.GetString("port"),
		CORSAllowOrigin: splitAndTrim(v.GetString("cors_allow_origins")),
		LogLevel:        v.GetString("log.level"),
		LogFormat:       v.GetString("log.format"),
		StagesFile:      v.GetString("stages.file"),
		CatalogStore:    normalizeStoreType(v.GetString("catalog.store")),
		CatalogDir:      v.GetString("catalog.dir"),
		CatalogPrefix:   v.GetString("catalog.prefix"),
		AWSRegion:       v.GetString("aws.region"),
		S3Bucket:        v.GetString("s3.bucket"),
		SessionsBackend: normalizeChoice(v.GetString("sessions.backend"), "file", "memory", "file", "postgres", "redis"),
		SessionsDir:     v.GetString("sessions.dir"),
		DatabaseURL:     v.GetString("database_url"),
		RedisAddr:       v.GetString("redis.addr"),
		RedisPassword:   v.GetString("redis.password"),
		RedisDB:         v.GetInt("redis.db"),
		UsageBackend:    normalizeChoice(v.GetString("usage.backend"), "memory", "memory", "postgres"),
		LLMProvider:     normalizeChoice(v.GetString("llm.provider"), "none", "none", "openai", "gemini"),
		LLMModel:        v.GetString("llm.model"),
		OpenAIAPIKey:    v.GetString("openai.api_key"),
		GeminiAPIKey:    v.GetString("gemini.api_key"),
		SQSQueueURL:     v.GetString("queue.sqs_url"),
		StartRatePerMin: v.GetInt("rate_limit.start_per_minute"),
		ManagerIdleTTL:  v.GetDuration("manager.idle_ttl"),
		PromptVersion:   v.GetString("llm.prompt_version"),
		ExtractMaxBytes: v.GetInt64("extract.max_bytes"),
	}
}

// Validate reports combinations that cannot start.
func (c Config) Validate() error {
	if (c.SessionsBackend == "postgres" || c.UsageBackend == "postgres") && strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("database_url is required for the postgres backend")
	}
	if c.Env == "production" && c.SessionsBackend == "memory" {
		return fmt.Errorf("sessions.backend=memory is not allowed in production")
	}
	if c.CatalogStore == "s3" && strings.TrimSpace(c.S3Bucket) == "" {
		return fmt.Errorf("s3.bucket is required when catalog.store=s3")
	}
	if c.SessionsBackend == "file" && strings.TrimSpace(c.SessionsDir) == "" {
		return fmt.Errorf("sessions.dir is required when sessions.backend=file")
	}
	return nil
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeChoice(raw, def string, allowed ...string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for _, a := range allowed {
		if raw == a {
			return raw
		}
	}
	return def
}
