// Package config loads marathon-cli settings from config.yaml, a .env file
// and MARATHON_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/marathon-cli/internal/resilience"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Sources   SourcesConfig   `yaml:"sources" mapstructure:"sources"`
	Jina      JinaConfig      `yaml:"jina" mapstructure:"jina"`
	Notion    NotionConfig    `yaml:"notion" mapstructure:"notion"`
	Narrative NarrativeConfig `yaml:"narrative" mapstructure:"narrative"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI    OpenAIConfig    `yaml:"openai" mapstructure:"openai"`
	Sync      SyncConfig      `yaml:"sync" mapstructure:"sync"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the snapshot backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// SourcesConfig configures the two listing scrapers.
type SourcesConfig struct {
	RoadrunURL     string                 `yaml:"roadrun_url" mapstructure:"roadrun_url"`
	RunningLifeURL string                 `yaml:"runninglife_url" mapstructure:"runninglife_url"`
	RenderViaJina  bool                   `yaml:"render_via_jina" mapstructure:"render_via_jina"`
	UserAgent      string                 `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs    int                    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RespectRobots  bool                   `yaml:"respect_robots" mapstructure:"respect_robots"`
	RobotsTTLMins  int                    `yaml:"robots_ttl_mins" mapstructure:"robots_ttl_mins"`
	Retry          resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// Timeout returns the per-request timeout.
func (s SourcesConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// JinaConfig holds Jina Reader settings.
type JinaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// NotionConfig holds the Notion token and the event database.
type NotionConfig struct {
	Token   string `yaml:"token" mapstructure:"token"`
	EventDB string `yaml:"event_db" mapstructure:"event_db"`
	DelayMs int    `yaml:"delay_ms" mapstructure:"delay_ms"`
}

// Configured reports whether publishing is possible.
func (n NotionConfig) Configured() bool {
	return n.Token != "" && n.EventDB != ""
}

// NarrativeConfig selects the script provider.
type NarrativeConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// SyncConfig configures a sync run.
type SyncConfig struct {
	Threshold     float64 `yaml:"threshold" mapstructure:"threshold"`
	FirstRunCap   int     `yaml:"first_run_cap" mapstructure:"first_run_cap"`
	DetailLimit   int     `yaml:"detail_limit" mapstructure:"detail_limit"`
	DetailDelayMs int     `yaml:"detail_delay_ms" mapstructure:"detail_delay_ms"`
	OutputDir     string  `yaml:"output_dir" mapstructure:"output_dir"`
	LogDir        string  `yaml:"log_dir" mapstructure:"log_dir"`
	MetricsPath   string  `yaml:"metrics_path" mapstructure:"metrics_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, ./config.yaml and the environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches the
// working directory for an optional config.yaml; a named file must exist.
func LoadFile(path string) (*Config, error) {
	// .env never overrides variables already set in the process.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("MARATHON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "json")
	v.SetDefault("store.path", "data/history.json")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("sources.roadrun_url", "http://www.roadrun.co.kr/schedule/list.php")
	v.SetDefault("sources.runninglife_url", "https://mobile.runninglife.co.kr/contest/")
	v.SetDefault("sources.render_via_jina", false)
	v.SetDefault("sources.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	v.SetDefault("sources.timeout_secs", 10)
	v.SetDefault("sources.respect_robots", true)
	v.SetDefault("sources.robots_ttl_mins", 60)
	v.SetDefault("sources.retry.max_attempts", 3)
	v.SetDefault("sources.retry.initial_backoff", "1s")
	v.SetDefault("sources.retry.max_backoff", "10s")
	v.SetDefault("sources.retry.jitter", 0.2)
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("notion.delay_ms", 1000)
	v.SetDefault("narrative.provider", "anthropic")
	v.SetDefault("narrative.max_tokens", 4096)
	v.SetDefault("sync.threshold", 0.6)
	v.SetDefault("sync.first_run_cap", 10)
	v.SetDefault("sync.detail_limit", 10)
	v.SetDefault("sync.detail_delay_ms", 1000)
	v.SetDefault("sync.output_dir", "output")
	v.SetDefault("sync.log_dir", "logs")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Keys without a default are only picked up from the environment when
	// bound explicitly. The unprefixed names are the ones existing .env
	// files use.
	for _, b := range []struct {
		key    string
		legacy string
	}{
		{"store.database_url", "DATABASE_URL"},
		{"jina.key", "JINA_API_KEY"},
		{"notion.token", "NOTION_API_KEY"},
		{"notion.event_db", "NOTION_DATABASE_ID"},
		{"narrative.model", ""},
		{"anthropic.key", "ANTHROPIC_API_KEY"},
		{"openai.key", "OPENAI_API_KEY"},
		{"openai.base_url", ""},
		{"sync.metrics_path", ""},
	} {
		names := []string{"MARATHON_" + strings.ToUpper(strings.ReplaceAll(b.key, ".", "_"))}
		if b.legacy != "" {
			names = append(names, b.legacy)
		}
		if err := v.BindEnv(append([]string{b.key}, names...)...); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", b.key)
		}
	}

	// Read config file (optional)
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

// Validate checks the settings a command needs. mode is "sync",
// "reconcile" or "snapshot".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "json", "sqlite":
		if c.Store.Path == "" {
			errs = append(errs, "store.path is required")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for the postgres driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q must be json, sqlite or postgres", c.Store.Driver))
	}

	switch mode {
	case "sync":
		if c.Sources.RoadrunURL == "" && c.Sources.RunningLifeURL == "" {
			errs = append(errs, "at least one of sources.roadrun_url and sources.runninglife_url is required")
		}
		if c.Sync.FirstRunCap < 0 {
			errs = append(errs, "sync.first_run_cap must be >= 0")
		}
		if c.Sync.DetailLimit < 0 {
			errs = append(errs, "sync.detail_limit must be >= 0")
		}
	case "reconcile", "snapshot":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Sync.Threshold < 0 || c.Sync.Threshold > 1 {
		errs = append(errs, "sync.threshold must be between 0 and 1")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
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
