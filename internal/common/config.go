package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	AWS     AWSConfig
	Ingest  IngestConfig
	AI      AIConfig
	Archive ArchiveConfig
}

// AWSConfig holds the AWS resources the pipeline talks to.
type AWSConfig struct {
	Region    string
	Bucket    string
	TableName string
	DLQURL    string
}

// IngestConfig holds upload-side settings.
type IngestConfig struct {
	KeyPrefix     string
	MaxUploadSize int64
}

// AIConfig holds Bedrock inference settings.
type AIConfig struct {
	ModelID   string
	MaxTokens int32
	Timeout   time.Duration
}

// ArchiveConfig holds the local SQLite archive settings.
type ArchiveConfig struct {
	Path string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		AWS: AWSConfig{
			Region:    getEnv("AWS_REGION", "us-east-1"),
			Bucket:    getEnv("BUCKET_NAME", ""),
			TableName: getEnv("DDB_TABLE", ""),
			DLQURL:    getEnv("DLQ_URL", ""),
		},
		Ingest: IngestConfig{
			KeyPrefix:     getEnv("UPLOAD_KEY_PREFIX", "invoices/"),
			MaxUploadSize: getEnvAsInt64("MAX_UPLOAD_BYTES", 10*1024*1024),
		},
		AI: AIConfig{
			ModelID:   getEnv("BEDROCK_MODEL_ID", "anthropic.claude-3-haiku-20240307-v1:0"),
			MaxTokens: getEnvAsInt32("BEDROCK_MAX_TOKENS", 500),
			Timeout:   getEnvAsDuration("BEDROCK_TIMEOUT", 45*time.Second),
		},
		Archive: ArchiveConfig{
			Path: getEnv("ARCHIVE_DB_PATH", ""),
		},
	}
}

// Validate checks that the configuration is usable for end-to-end processing.
func (c *Config) Validate() error {
	if c.AWS.Bucket == "" {
		return NewValidationError("BUCKET_NAME is required")
	}
	if c.AWS.TableName == "" {
		return NewValidationError("DDB_TABLE is required")
	}
	if c.AI.ModelID == "" {
		return NewValidationError("BEDROCK_MODEL_ID is required")
	}
	return nil
}

// Helper functions for environment variable parsing.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
