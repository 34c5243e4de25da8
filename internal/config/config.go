package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/dgallion1/litchunk/internal/document"
	"github.com/dgallion1/litchunk/internal/parser"
	"github.com/dgallion1/litchunk/internal/tokens"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8090"`

	// Auth
	APIKey string `env:"LITCHUNK_API_KEY"`

	// Upload limits
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"` // 50MB
	MaxBatchFiles  int   `env:"MAX_BATCH_FILES" envDefault:"20"`

	// Chunking defaults
	ChunkSize        int    `env:"CHUNK_SIZE" envDefault:"1000"`
	ChunkOverlap     int    `env:"CHUNK_OVERLAP" envDefault:"200"`
	TokenCountMethod string `env:"TOKEN_COUNT_METHOD" envDefault:"auto"`

	// Token estimation
	TokenModel     string   `env:"TOKEN_MODEL"`
	SegmenterDicts []string `env:"SEGMENTER_DICTS" envSeparator:","`

	// Extraction
	TitleMaxLength       int      `env:"TITLE_MAX_LENGTH" envDefault:"50"`
	PDFFallbackPdftotext bool     `env:"PDF_FALLBACK_PDFTOTEXT" envDefault:"true"`
	ExtractTypes         []string `env:"EXTRACT_TYPES" envDefault:"pdf,docx,html" envSeparator:","`

	// Batch worker pool
	BatchWorkers int `env:"BATCH_WORKERS" envDefault:"4"`

	StatsWindow time.Duration `env:"STATS_WINDOW" envDefault:"1h"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads the environment, after merging the given .env files (or ./.env
// when none are given and it exists). Variables already set win over files.
// Non-positive sizes fall back to their defaults.
func Load(dotenvFiles ...string) (Config, error) {
	if err := godotenv.Load(dotenvFiles...); err != nil {
		if len(dotenvFiles) > 0 || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load dotenv: %w", err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.MaxBatchFiles <= 0 {
		cfg.MaxBatchFiles = 20
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 200
	}
	if cfg.TitleMaxLength <= 0 {
		cfg.TitleMaxLength = 50
	}
	if cfg.BatchWorkers <= 0 {
		cfg.BatchWorkers = 4
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = time.Hour
	}

	return cfg, nil
}

// Validate checks settings every entry point needs.
func (c Config) Validate() error {
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", c.ChunkOverlap, c.ChunkSize)
	}
	if _, err := tokens.ParseMethod(c.TokenCountMethod); err != nil {
		return fmt.Errorf("TOKEN_COUNT_METHOD: %w", err)
	}
	if _, err := c.SourceTypes(); err != nil {
		return err
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// ValidateServer adds the checks only the HTTP server needs.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("LITCHUNK_API_KEY is required")
	}
	return nil
}

// TokenMethod returns the configured method, or MethodAuto when invalid.
func (c Config) TokenMethod() tokens.Method {
	m, err := tokens.ParseMethod(c.TokenCountMethod)
	if err != nil {
		return tokens.MethodAuto
	}
	return m
}

// SourceTypes resolves EXTRACT_TYPES, accepting entries with or without a
// leading dot.
func (c Config) SourceTypes() ([]document.SourceType, error) {
	var out []document.SourceType
	seen := make(map[document.SourceType]bool)
	for _, raw := range c.ExtractTypes {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		t, ok := parser.TypeForExtension(raw)
		if !ok {
			return nil, fmt.Errorf("EXTRACT_TYPES: unsupported type %q", raw)
		}
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("EXTRACT_TYPES: no types enabled")
	}
	return out, nil
}

// Level returns the slog level for LOG_LEVEL, or Info when invalid.
func (c Config) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
