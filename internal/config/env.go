package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// LayoutConfig holds the repagination defaults the CLI flags start from.
type LayoutConfig struct {
	Multiplier float64
	Tolerance  int
	DPI        int
}

// OutputConfig describes how emitted pages are encoded.
type OutputConfig struct {
	Format   string
	Quality  int
	Lossless bool
}

// S3Config enables mirroring of written pages to a bucket. Empty Bucket disables it.
type S3Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// Config is the top-level configuration.
type Config struct {
	Logging         LoggingConfig
	Axiom           AxiomConfig
	Layout          LayoutConfig
	Output          OutputConfig
	S3              S3Config
	RedisURL        string
	MetricsTextfile string
}

// Load reads .env from the working directory, when present, and then the
// process environment. Variables already set in the environment win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return FromEnv(), err
	}
	return FromEnv(), nil
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	// Logging defaults. Stdout is reserved for command output.
	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", "true")),
		File:       getEnv("LOG_FILE", ""),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_repage",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.Layout = LayoutConfig{
		Multiplier: parseFloat(getEnv("REPAGE_MULTIPLIER", "2.5"), 2.5),
		Tolerance:  parseInt(getEnv("REPAGE_TOLERANCE", "10"), 10),
		DPI:        parseInt(getEnv("REPAGE_DPI", "150"), 150),
	}

	cfg.Output = OutputConfig{
		Format:   getEnv("REPAGE_FORMAT", "webp"),
		Quality:  parseInt(getEnv("REPAGE_QUALITY", "80"), 80),
		Lossless: parseBool(getEnv("REPAGE_LOSSLESS", "false")),
	}

	cfg.S3 = S3Config{
		Bucket:          getEnv("S3_BUCKET", ""),
		Prefix:          getEnv("S3_PREFIX", ""),
		Region:          getEnv("S3_REGION", ""),
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
	}

	cfg.RedisURL = getEnv("REDIS_URL", "")
	cfg.MetricsTextfile = getEnv("METRICS_TEXTFILE", "")
	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseFloat(s string, def float64) float64 {
	if s == "" {
		return def
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}
