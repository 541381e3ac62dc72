package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// Embedding providers.
const (
	ProviderWorker = "worker"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

const (
	configFileName = "config.toml"
	envFileName    = ".env"
)

// Config is the full ragcore configuration.
type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Splitter  SplitterConfig  `toml:"splitter"`
	Entities  EntitiesConfig  `toml:"entities"`
	Server    ServerConfig    `toml:"server"`
	Log       LogConfig       `toml:"log"`
}

// DatabaseConfig locates the SQLite database directory.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider          string   `toml:"provider"`
	Model             string   `toml:"model"`
	Dimension         int      `toml:"dimension"`
	WorkerCommand     []string `toml:"worker_command,omitempty"`
	BaseURL           string   `toml:"base_url"`
	APIKeyEnv         string   `toml:"api_key_env"`
	BatchSize         int      `toml:"batch_size"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
}

// APIKey reads the provider API key from the environment.
func (c EmbeddingConfig) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}

// Key identifies the provider configuration for caching opened embedders.
func (c EmbeddingConfig) Key() string {
	return fmt.Sprintf("%s|%s|%s|%d", c.Provider, c.Model, c.BaseURL, c.Dimension)
}

// SplitterConfig holds the default chunking settings.
type SplitterConfig struct {
	Strategy     string `toml:"strategy"`
	ChunkSize    int    `toml:"chunk_size"`
	ChunkOverlap int    `toml:"chunk_overlap"`
	MinChunkSize int    `toml:"min_chunk_size"`
	MaxChunkSize int    `toml:"max_chunk_size"`
	MaxTokens    int    `toml:"max_tokens"`
}

// Domain converts the settings into the splitter configuration used by the
// indexer.
func (c SplitterConfig) Domain() domain.SplitterConfig {
	return domain.SplitterConfig{
		Strategy:     c.Strategy,
		ChunkSize:    c.ChunkSize,
		ChunkOverlap: c.ChunkOverlap,
		MinChunkSize: c.MinChunkSize,
		MaxChunkSize: c.MaxChunkSize,
		MaxTokens:    c.MaxTokens,
	}
}

// EntitiesConfig configures entity extraction.
type EntitiesConfig struct {
	Enabled       bool     `toml:"enabled"`
	WorkerCommand []string `toml:"worker_command,omitempty"`
	Labels        []string `toml:"labels"`
}

// ServerConfig holds listen addresses for the network surfaces.
type ServerConfig struct {
	Addr    string `toml:"addr"`
	MCPAddr string `toml:"mcp_addr"`
}

// LogConfig controls logging.
type LogConfig struct {
	Verbose bool `toml:"verbose"`
}

// DefaultDir returns ~/.ragcore.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".ragcore"), nil
}

// Default returns the configuration used when no file is present.
// dir is the ragcore home directory.
func Default(dir string) Config {
	sc := domain.DefaultSplitterConfig()
	return Config{
		Database: DatabaseConfig{Path: filepath.Join(dir, "data")},
		Embedding: EmbeddingConfig{
			Provider:  ProviderOllama,
			Model:     "nomic-embed-text",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Splitter: SplitterConfig{
			Strategy:     sc.Strategy,
			ChunkSize:    sc.ChunkSize,
			ChunkOverlap: sc.ChunkOverlap,
			MinChunkSize: sc.MinChunkSize,
			MaxChunkSize: sc.MaxChunkSize,
			MaxTokens:    sc.MaxTokens,
		},
		Entities: EntitiesConfig{Labels: slices.Clone(domain.DefaultEntityLabels)},
		Server:   ServerConfig{Addr: "127.0.0.1:8000", MCPAddr: "127.0.0.1:8001"},
	}
}

// Load reads the configuration at path. An empty path uses
// ~/.ragcore/config.toml. A missing file yields the defaults.
func Load(path string) (Config, error) {
	dir := filepath.Dir(path)
	if path == "" {
		d, err := DefaultDir()
		if err != nil {
			return Config{}, err
		}
		dir = d
		path = filepath.Join(dir, configFileName)
	}

	if err := loadEnv(dir); err != nil {
		return Config{}, err
	}

	cfg := Default(dir)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory if needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	// Write with restricted permissions
	return os.WriteFile(path, data, 0600)
}

// Validate checks provider names and splitter sizes.
func (c Config) Validate() error {
	switch c.Embedding.Provider {
	case ProviderWorker:
		if len(c.Embedding.WorkerCommand) == 0 {
			return fmt.Errorf("%w: embedding.worker_command is required for the worker provider", domain.ErrValidation)
		}
	case ProviderOllama, ProviderOpenAI, ProviderNone:
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", domain.ErrValidation, c.Embedding.Provider)
	}
	if c.Embedding.Dimension < 0 {
		return fmt.Errorf("%w: embedding.dimension must not be negative", domain.ErrValidation)
	}
	if c.Entities.Enabled && len(c.Entities.WorkerCommand) == 0 {
		return fmt.Errorf("%w: entities.worker_command is required when entities are enabled", domain.ErrValidation)
	}

	s := c.Splitter
	if s.ChunkSize <= 0 {
		return fmt.Errorf("%w: splitter.chunk_size must be positive", domain.ErrValidation)
	}
	if s.ChunkOverlap < 0 || s.ChunkOverlap >= s.ChunkSize {
		return fmt.Errorf("%w: splitter.chunk_overlap must be in [0, chunk_size)", domain.ErrValidation)
	}
	if s.MinChunkSize > s.MaxChunkSize {
		return fmt.Errorf("%w: splitter.min_chunk_size exceeds max_chunk_size", domain.ErrValidation)
	}
	return nil
}

// loadEnv loads .env files from dir and the working directory. Variables
// already set in the environment win.
func loadEnv(dir string) error {
	for _, p := range []string{filepath.Join(dir, envFileName), envFileName} {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}
