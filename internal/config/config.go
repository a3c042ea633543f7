package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/FelpTB/fornecedor-orchestrator/internal/chunk"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Firecrawl  FirecrawlConfig  `yaml:"firecrawl" mapstructure:"firecrawl"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai" mapstructure:"openai"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Chunk      ChunkConfig      `yaml:"chunk" mapstructure:"chunk"`
	Queue      QueueConfig      `yaml:"queue" mapstructure:"queue"`
	RateBudget RateBudgetConfig `yaml:"rate_budget" mapstructure:"rate_budget"`
	Circuit    CircuitConfig    `yaml:"circuit" mapstructure:"circuit"`
	Worker     WorkerConfig     `yaml:"worker" mapstructure:"worker"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Security   SecurityConfig   `yaml:"security" mapstructure:"security"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// JinaConfig holds Jina AI settings, used for the search stage and as the
// STANDARD fetch strategy backend.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// FirecrawlConfig holds Firecrawl API settings, the AGGRESSIVE fetch
// strategy backend.
type FirecrawlConfig struct {
	Key      string `yaml:"key" mapstructure:"key"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	MaxPages int    `yaml:"max_pages" mapstructure:"max_pages"`
}

// PerplexityConfig holds Perplexity settings — the vendor with neither
// schema directives nor sampling controls, used as last-resort fallback.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// AnthropicConfig holds Anthropic settings — the primary structured-output
// vendor, supporting sampling controls; its schema is folded into the prompt.
type AnthropicConfig struct {
	Key              string `yaml:"key" mapstructure:"key"`
	Model            string `yaml:"model" mapstructure:"model"`
	MaxConcurrency   int    `yaml:"max_concurrency" mapstructure:"max_concurrency"`
	PromptCacheTTL   string `yaml:"prompt_cache_ttl" mapstructure:"prompt_cache_ttl"`
}

// OpenAIConfig holds OpenAI settings — the secondary structured-output
// vendor, supporting schema directives via response_format.
type OpenAIConfig struct {
	Key            string `yaml:"key" mapstructure:"key"`
	Model          string `yaml:"model" mapstructure:"model"`
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	MaxConcurrency int    `yaml:"max_concurrency" mapstructure:"max_concurrency"`
}

// FetchConfig configures the adaptive fetcher's strategy escalation.
type FetchConfig struct {
	TimeoutSecs      int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxPagesPerSite  int      `yaml:"max_pages_per_site" mapstructure:"max_pages_per_site"`
	UserAgents       []string `yaml:"user_agents" mapstructure:"user_agents"`
	StrategyOrder    []string `yaml:"strategy_order" mapstructure:"strategy_order"`
}

// ChunkConfig configures the content chunker.
type ChunkConfig struct {
	MaxTokensPerChunk int `yaml:"max_tokens_per_chunk" mapstructure:"max_tokens_per_chunk"`
	MaxChunksPerSite  int `yaml:"max_chunks_per_site" mapstructure:"max_chunks_per_site"`
}

// QueueConfig configures the durable queue tables shared by all stages.
type QueueConfig struct {
	VisibilityTimeoutSecs int `yaml:"visibility_timeout_secs" mapstructure:"visibility_timeout_secs"`
	MaxAttempts           int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffSecs    int `yaml:"initial_backoff_secs" mapstructure:"initial_backoff_secs"`
	MaxBackoffSecs        int `yaml:"max_backoff_secs" mapstructure:"max_backoff_secs"`
	ClaimBatchSize        int `yaml:"claim_batch_size" mapstructure:"claim_batch_size"`
}

// RateBudgetConfig configures the per-(vendor,resource) token buckets.
type RateBudgetConfig struct {
	DefaultRatePerSec float64 `yaml:"default_rate_per_sec" mapstructure:"default_rate_per_sec"`
	DefaultBurst      int     `yaml:"default_burst" mapstructure:"default_burst"`
	AcquireTimeoutSecs int    `yaml:"acquire_timeout_secs" mapstructure:"acquire_timeout_secs"`
}

// CircuitConfig configures the per-(vendor,resource) circuit breakers.
type CircuitConfig struct {
	FailureThreshold  int    `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs  int    `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
	HalfOpenMaxProbes int    `yaml:"half_open_max_probes" mapstructure:"half_open_max_probes"`
}

// WorkerConfig configures the long-running stage worker loops.
type WorkerConfig struct {
	PollIntervalSecs  int `yaml:"poll_interval_secs" mapstructure:"poll_interval_secs"`
	ShutdownGraceSecs int `yaml:"shutdown_grace_secs" mapstructure:"shutdown_grace_secs"`
}

// ServerConfig configures the orchestration facade's HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// SecurityConfig configures the facade's shared-secret auth.
type SecurityConfig struct {
	SharedSecret string `yaml:"shared_secret" mapstructure:"shared_secret"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FORNECEDOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)

	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")

	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v2")
	v.SetDefault("firecrawl.max_pages", 20)

	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")

	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_concurrency", 4)
	v.SetDefault("anthropic.prompt_cache_ttl", "5m")

	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.max_concurrency", 4)

	v.SetDefault("fetch.timeout_secs", 20)
	v.SetDefault("fetch.max_pages_per_site", 12)
	v.SetDefault("fetch.user_agents", []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	})
	v.SetDefault("fetch.strategy_order", []string{"fast", "standard", "robust", "aggressive"})

	v.SetDefault("chunk.max_tokens_per_chunk", chunk.DefaultMaxTokens)
	v.SetDefault("chunk.max_chunks_per_site", 8)

	v.SetDefault("queue.visibility_timeout_secs", 600)
	v.SetDefault("queue.max_attempts", 5)
	v.SetDefault("queue.initial_backoff_secs", 30)
	v.SetDefault("queue.max_backoff_secs", 900)
	v.SetDefault("queue.claim_batch_size", 1)

	v.SetDefault("rate_budget.default_rate_per_sec", 2.0)
	v.SetDefault("rate_budget.default_burst", 4)
	v.SetDefault("rate_budget.acquire_timeout_secs", 30)

	v.SetDefault("circuit.failure_threshold", 5)
	v.SetDefault("circuit.reset_timeout_secs", 60)
	v.SetDefault("circuit.half_open_max_probes", 1)

	v.SetDefault("worker.poll_interval_secs", 2)
	v.SetDefault("worker.shutdown_grace_secs", 30)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the fields required by mode are present and sane.
// mode is one of "serve" (orchestration facade) or "worker" (stage workers).
func (c *Config) Validate(mode string) error {
	var problems []string

	require := func(cond bool, msg string) {
		if !cond {
			problems = append(problems, msg)
		}
	}

	switch mode {
	case "serve":
		require(c.Store.DatabaseURL != "", "store.database_url is required")
		require(c.Security.SharedSecret != "", "security.shared_secret is required")
		require(c.Server.Port > 0, "server.port must be > 0")
	case "worker":
		require(c.Store.DatabaseURL != "", "store.database_url is required")
		require(c.Anthropic.Key != "" || c.OpenAI.Key != "" || c.Perplexity.Key != "",
			"at least one of anthropic.key, openai.key, perplexity.key is required")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	require(c.Queue.MaxAttempts > 0, "queue.max_attempts must be > 0")
	require(c.RateBudget.DefaultRatePerSec > 0, "rate_budget.default_rate_per_sec must be > 0")

	if len(problems) > 0 {
		return eris.Errorf("config: invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
