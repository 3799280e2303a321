package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the assistant.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Locator   LocatorConfig   `mapstructure:"locator"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server and auth settings.
type ServerConfig struct {
	Address   string `mapstructure:"address"`
	JWTSecret string `mapstructure:"jwt_secret"`
	UploadDir string `mapstructure:"upload_dir"`
}

// LLMConfig contains LLM provider configuration.
type LLMConfig struct {
	Provider       string        `mapstructure:"provider"` // openai-compatible
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	Temperature    float64       `mapstructure:"temperature"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	Routing        RoutingConfig `mapstructure:"routing"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
}

// RoutingConfig names which model serves each task class.
type RoutingConfig struct {
	Classification string `mapstructure:"classification"` // router, resolver steps
	Answering      string `mapstructure:"answering"`      // follow-up and summarizer
	Vision         string `mapstructure:"vision"`         // report image transcription
}

// KnowledgeConfig locates the category knowledge sources.
type KnowledgeConfig struct {
	CSVPath        string `mapstructure:"csv_path"`
	IndexPath      string `mapstructure:"index_path"`
	TopK           int    `mapstructure:"top_k"`
	EmbeddingBatch int    `mapstructure:"embedding_batch"`
}

// LocatorConfig configures the doctor-finder collaborator.
type LocatorConfig struct {
	URL          string        `mapstructure:"url"`
	PlacesAPIKey string        `mapstructure:"places_api_key"`
	MaxResults   int           `mapstructure:"max_results"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// StorageConfig selects the session store backend. Postgres wins when
// configured, then Redis, then the JSON file store.
type StorageConfig struct {
	SessionsDir string         `mapstructure:"sessions_dir"`
	Postgres    PostgresConfig `mapstructure:"postgres"`
	Redis       RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains Postgres connection settings.
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN assembles a connection string from the configured fields.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	if p.Host == "" && p.DBName == "" {
		return ""
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// TelemetryConfig contains monitoring settings.
type TelemetryConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	CostTracking bool `mapstructure:"cost_tracking"`
}

// LoadConfig reads config.yaml (or the explicit path) with MEDGRAPH_*
// environment overrides.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.default_timeout", "30s")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.upload_dir", "uploads")
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.routing.classification", "gpt-4o-mini")
	v.SetDefault("llm.routing.answering", "gpt-4o-mini")
	v.SetDefault("llm.routing.vision", "gpt-4o-mini")
	v.SetDefault("llm.embedding_model", "text-embedding-3-small")
	v.SetDefault("knowledge.csv_path", "medquad.csv")
	v.SetDefault("knowledge.index_path", "knowledge_index.json")
	v.SetDefault("knowledge.top_k", 5)
	v.SetDefault("knowledge.embedding_batch", 64)
	v.SetDefault("locator.url", "http://127.0.0.1:5001")
	v.SetDefault("locator.max_results", 5)
	v.SetDefault("locator.timeout", "15s")
	v.SetDefault("storage.sessions_dir", "chats")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.cost_tracking", false)

	if path == "" {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		v.AddConfigPath(exeDir)
		v.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("MEDGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine: defaults plus env cover a bare deployment.
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Knowledge.TopK <= 0 {
		cfg.Knowledge.TopK = 5
	}
	return &cfg, nil
}
