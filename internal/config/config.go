package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Document ingestion limits. Chunk overlap is a percentage of chunk size.
	MaxUploadDocumentSize int64 `envconfig:"MAX_UPLOAD_DOCUMENT_SIZE" default:"20000000"`
	ChunkSize             int   `envconfig:"CHUNK_SIZE" default:"2300"`
	ChunkOverlapPercent   int   `envconfig:"CHUNK_OVERLAP_PERCENT" default:"25"`

	// Bounded fan-out used by the cascade delete and the sweeper.
	CascadeWorkers int `envconfig:"CASCADE_WORKERS" default:"8"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"parley-uploads"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	// Remote text-extraction service for binary document formats.
	ExtractorURL    string `envconfig:"EXTRACTOR_URL"`
	ExtractorAPIKey string `envconfig:"EXTRACTOR_API_KEY"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("PARLEY", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.ChunkOverlapPercent < 0 || cfg.ChunkOverlapPercent >= 100 {
		return nil, fmt.Errorf("chunk overlap percent must be in [0, 100): %d", cfg.ChunkOverlapPercent)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasExtractor() bool {
	return c.ExtractorURL != ""
}

// ChunkOverlap converts the configured percentage into code units.
func (c *Config) ChunkOverlap() int {
	return c.ChunkSize * c.ChunkOverlapPercent / 100
}
