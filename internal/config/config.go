package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Apify  ApifyConfig  `yaml:"apify" mapstructure:"apify"`
	Search SearchConfig `yaml:"search" mapstructure:"search"`
	Enrich EnrichConfig `yaml:"enrich" mapstructure:"enrich"`
	Notion NotionConfig `yaml:"notion" mapstructure:"notion"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ApifyConfig holds provider credentials and endpoint overrides.
type ApifyConfig struct {
	Token   string `yaml:"token" mapstructure:"token"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Actor   string `yaml:"actor" mapstructure:"actor"`
}

// SearchConfig configures the acquisition run parameters.
type SearchConfig struct {
	Region            string   `yaml:"region" mapstructure:"region"`
	MaxResults        int      `yaml:"max_results" mapstructure:"max_results"`
	PollIntervalSecs  int      `yaml:"poll_interval_secs" mapstructure:"poll_interval_secs"`
	PollTimeoutSecs   int      `yaml:"poll_timeout_secs" mapstructure:"poll_timeout_secs"`
	EnforceKeywords   bool     `yaml:"enforce_keywords" mapstructure:"enforce_keywords"`
	Keywords          []string `yaml:"keywords" mapstructure:"keywords"`
	GenericNames      []string `yaml:"generic_names" mapstructure:"generic_names"`
	EnrichConcurrency int      `yaml:"enrich_concurrency" mapstructure:"enrich_concurrency"`
}

// EnrichConfig configures the contact-email resolver.
type EnrichConfig struct {
	TimeoutMs          int      `yaml:"timeout_ms" mapstructure:"timeout_ms"`
	UserAgent          string   `yaml:"user_agent" mapstructure:"user_agent"`
	PlaceholderDomains []string `yaml:"placeholder_domains" mapstructure:"placeholder_domains"`
	RatePerSec         float64  `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// NotionConfig holds Notion API credentials and the lead database ID.
type NotionConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	LeadDB string `yaml:"lead_db" mapstructure:"lead_db"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Credential keys get empty defaults so environment-only
	// values survive Unmarshal.
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leadgen.db")
	v.SetDefault("apify.token", "")
	v.SetDefault("apify.base_url", "https://api.apify.com/v2")
	v.SetDefault("apify.actor", "compass~crawler-google-places")
	v.SetDefault("search.region", "en España")
	v.SetDefault("search.max_results", 20)
	v.SetDefault("search.poll_interval_secs", 5)
	v.SetDefault("search.poll_timeout_secs", 600)
	v.SetDefault("search.enforce_keywords", false)
	v.SetDefault("search.keywords", []string{"reformas", "obras", "instalad", "construcc", "rehabilitacion"})
	v.SetDefault("search.generic_names", []string{"sin nombre", "empresa desconocida"})
	v.SetDefault("search.enrich_concurrency", 4)
	v.SetDefault("enrich.timeout_ms", 5000)
	v.SetDefault("enrich.user_agent", "")
	v.SetDefault("notion.token", "")
	v.SetDefault("notion.lead_db", "")
	v.SetDefault("enrich.placeholder_domains", []string{"example.com", "wix.com"})
	v.SetDefault("enrich.rate_per_sec", 2.0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
