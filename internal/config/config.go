package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Ollama  OllamaConfig
	Storage StorageConfig
	Log     LogConfig
	NLU     NLUConfig
	Session SessionConfig
	Extract ExtractConfig
	Search  SearchConfig
}

type ServerConfig struct {
	Port           int
	MaxConnections int
	APIToken       string
}

type OllamaConfig struct {
	BaseURL    string
	EmbedModel string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

type NLUConfig struct {
	LowConfidenceThreshold float64
	SemanticEnabled        bool
}

type SessionConfig struct {
	ContinuationThreshold float64
	TTL                   string
	// Store is "sqlite" or "memory".
	Store string
}

type ExtractConfig struct {
	MinProductIDDigits int
	DefaultCountry     string
	DefaultZip         string
	NEREnabled         bool
}

type SearchConfig struct {
	DefaultPageSize int
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:           4100,
			MaxConnections: 256,
		},
		Ollama: OllamaConfig{
			BaseURL:    "http://localhost:11434",
			EmbedModel: "nomic-embed-text",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
		NLU: NLUConfig{
			LowConfidenceThreshold: 0.2,
			SemanticEnabled:        true,
		},
		Session: SessionConfig{
			ContinuationThreshold: 0.3,
			TTL:                   "5m",
			Store:                 "sqlite",
		},
		Extract: ExtractConfig{
			MinProductIDDigits: 5,
			DefaultCountry:     "USA",
			DefaultZip:         "00000",
			NEREnabled:         true,
		},
		Search: SearchConfig{
			DefaultPageSize: 10,
		},
	}
}

// Load reads configuration from the JSON file at
// $XDG_CONFIG_HOME/shopbot/config.json, then from a .env file in the
// working directory, then from SHOPBOT_* environment variables. Later
// sources win.
func Load() (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	return loadWith(newFileBackend(configFilePath()))
}

// loadDotEnv exports the variables in path without overriding ones that are
// already set. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", path, err)
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var problems []string
	if c.NLU.LowConfidenceThreshold <= 0 || c.NLU.LowConfidenceThreshold > 1 {
		problems = append(problems, "nlu.low_confidence_threshold must be in (0, 1]")
	}
	if c.Session.ContinuationThreshold <= 0 || c.Session.ContinuationThreshold > 1 {
		problems = append(problems, "session.continuation_threshold must be in (0, 1]")
	}
	if d, err := time.ParseDuration(c.Session.TTL); err != nil || d <= 0 {
		problems = append(problems, fmt.Sprintf("session.ttl %q is not a positive duration", c.Session.TTL))
	}
	if c.Session.Store != "sqlite" && c.Session.Store != "memory" {
		problems = append(problems, fmt.Sprintf("session.store %q must be sqlite or memory", c.Session.Store))
	}
	if c.Extract.MinProductIDDigits < 1 {
		problems = append(problems, "extract.min_product_id_digits must be at least 1")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// SessionTTL returns the parsed session.ttl.
func (c Config) SessionTTL() time.Duration {
	d, _ := time.ParseDuration(c.Session.TTL)
	return d
}

// LogLevel maps log.level onto a slog level. Unknown names mean Info.
func (c Config) LogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "shopbot-data"
		}
	}
	return filepath.Join(dir, "shopbot")
}

func configFilePath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "shopbot", "config.json")
}
