package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port                string              `mapstructure:"port"`
	StoreBackend        string              `mapstructure:"store_backend"` // "mongo" or "memory"
	MongoURI            string              `mapstructure:"MONGODB_URI"`
	MongoDatabase       string              `mapstructure:"mongo_database"`
	AI                  AIConfig            `mapstructure:"ai"`
	WeaviateStoreConfig WeaviateStoreConfig `mapstructure:"weaviate_store_config"`
	Chunker             ChunkerConfig       `mapstructure:"chunker"`
	Retrieval           RetrievalConfig     `mapstructure:"retrieval"`
	Conversation        ConversationConfig  `mapstructure:"conversation"`
	Monitor             MonitorConfig       `mapstructure:"monitor"`
	Booking             BookingConfig       `mapstructure:"booking"`
}

type AIConfig struct {
	Provider       string        `mapstructure:"provider"` // "openai" or "gemini"
	Endpoint       string        `mapstructure:"endpoint"`
	Model          string        `mapstructure:"model"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	OpenAIAPIKey   string        `mapstructure:"OPENAI_API_KEY"`
	GeminiAPIKeys  []string      `mapstructure:"GEMINI_API_KEYS"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
}

type WeaviateStoreConfig struct {
	Host   string `mapstructure:"host"`
	APIKey string `mapstructure:"WEAVIATE_APIKEY"`
}

type ChunkerConfig struct {
	MaxChunkSize int `mapstructure:"max_chunk_size"`
	OverlapSize  int `mapstructure:"overlap_size"`
}

type RetrievalConfig struct {
	DefaultTopK int     `mapstructure:"default_top_k"`
	MaxTopK     int     `mapstructure:"max_top_k"`
	MinScore    float32 `mapstructure:"min_score"`
}

type ConversationConfig struct {
	WindowMode    string        `mapstructure:"window_mode"` // "count" or "time"
	WindowEntries int           `mapstructure:"window_entries"`
	WindowMaxAge  time.Duration `mapstructure:"window_max_age"`
}

type MonitorConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	CheckInterval     time.Duration `mapstructure:"check_interval"`
	RebuildMaxRetries int           `mapstructure:"rebuild_max_retries"`
}

type BookingConfig struct {
	ServiceURL string        `mapstructure:"service_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Bind secrets from environment variables
	v.BindEnv("MONGODB_URI")
	v.BindEnv("ai.OPENAI_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("ai.GEMINI_API_KEYS", "GEMINI_API_KEYS")
	v.BindEnv("weaviate_store_config.WEAVIATE_APIKEY", "WEAVIATE_APIKEY")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("store_backend", "mongo")
	v.SetDefault("mongo_database", "chatsupport")
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.timeout", 30*time.Second)
	v.SetDefault("ai.max_retries", 3)
	v.SetDefault("chunker.max_chunk_size", 1000)
	v.SetDefault("chunker.overlap_size", 100)
	v.SetDefault("retrieval.default_top_k", 3)
	v.SetDefault("retrieval.max_top_k", 20)
	v.SetDefault("retrieval.min_score", 0.0)
	v.SetDefault("conversation.window_mode", "count")
	v.SetDefault("conversation.window_entries", 10)
	v.SetDefault("conversation.window_max_age", 24*time.Hour)
	v.SetDefault("monitor.enabled", true)
	v.SetDefault("monitor.check_interval", 30*time.Second)
	v.SetDefault("monitor.rebuild_max_retries", 3)
	v.SetDefault("booking.timeout", 30*time.Second)
}
