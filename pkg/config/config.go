package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Risk     RiskConfig     `mapstructure:"risk"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	UseInMemory bool   `mapstructure:"use_in_memory"`
}

type OpenAIConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	Model          string  `mapstructure:"model"`
	EmbeddingModel string  `mapstructure:"embedding_model"`
	BaseURL        string  `mapstructure:"base_url"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	Temperature    float64 `mapstructure:"temperature"`
}

type EngineConfig struct {
	EmbeddingDimension int `mapstructure:"embedding_dimension"`
	RecentLimit        int `mapstructure:"recent_limit"`
	SimilarLimit       int `mapstructure:"similar_limit"`
	InsightLimit       int `mapstructure:"insight_limit"`
	EmotionWindow      int `mapstructure:"emotion_window"`
	TrendWindow        int `mapstructure:"trend_window"`
	InsightInterval    int `mapstructure:"insight_interval"`
	InsightHistory     int `mapstructure:"insight_history"`
}

type RiskConfig struct {
	// SingleHitTier is "low" or "medium": the tier assigned when exactly
	// one lexicon phrase matches.
	SingleHitTier string `mapstructure:"single_hit_tier"`
	// Phrases overrides the built-in crisis lexicon when non-empty.
	Phrases []string `mapstructure:"phrases"`
}

type WorkerConfig struct {
	QueueSize      int `mapstructure:"queue_size"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	// Remove leading slash from path to get database name
	dbName := strings.TrimPrefix(u.Path, "/")

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   dbName,
		SSLMode:  "disable",
	}, nil
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.use_in_memory", false)
	v.SetDefault("openai.model", "gpt-3.5-turbo")
	v.SetDefault("openai.embedding_model", "text-embedding-3-small")
	v.SetDefault("openai.max_tokens", 200)
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("engine.embedding_dimension", 1536)
	v.SetDefault("engine.recent_limit", 3)
	v.SetDefault("engine.similar_limit", 3)
	v.SetDefault("engine.insight_limit", 2)
	v.SetDefault("engine.emotion_window", 200)
	v.SetDefault("engine.trend_window", 10)
	v.SetDefault("engine.insight_interval", 5)
	v.SetDefault("engine.insight_history", 10)
	v.SetDefault("risk.single_hit_tier", "medium")
	v.SetDefault("worker.queue_size", 64)
	v.SetDefault("worker.timeout_seconds", 30)

	// Enable environment variable support
	v.AutomaticEnv()

	// Read the config file
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Check for DATABASE_URL environment variable
	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		config.Database = dbConfig
	}

	if apiKey := v.GetString("OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}

	return &config, nil
}
