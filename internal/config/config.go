// Package config loads server settings from an optional YAML file and
// the environment. Environment variables win over file values, and a
// .env file is honored the same way the original deployment scripts
// expect.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/pkg/codec"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the root configuration tree.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Store     StoreConfig     `yaml:"store"`
	Render    RenderConfig    `yaml:"render"`
	Templates TemplatesConfig `yaml:"templates"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// OpenAIConfig holds the interpreter model settings. The API key is
// environment-only so it never lands in a checked-in file.
type OpenAIConfig struct {
	APIKey         string  `yaml:"-"`
	Model          string  `yaml:"model"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float32 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	BaseURL        string  `yaml:"base_url"`
}

// StoreConfig selects and tunes the durable session store. DSN and
// encryption key are environment-only.
type StoreConfig struct {
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"-"`
	Compression string `yaml:"compression"`
	EncryptKey  string `yaml:"-"`
}

// RenderConfig holds the Graphviz rendering settings. Format is the
// image type rendered when a request names none; set it empty in the
// YAML file to render only on request.
type RenderConfig struct {
	DotPath   string `yaml:"dot_path"`
	OutputDir string `yaml:"output_dir"`
	TempDir   string `yaml:"temp_dir"`
	Format    string `yaml:"format"`
}

// TemplatesConfig points at the starter flowchart directory.
type TemplatesConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":5000"},
		OpenAI: OpenAIConfig{
			TimeoutSeconds: 30,
		},
		Store: StoreConfig{
			Driver:      DriverMemory,
			SQLitePath:  "./flowchart.db",
			Compression: string(codec.CompressionZstd),
		},
		Render: RenderConfig{
			DotPath:   "dot",
			OutputDir: "./outputs",
			TempDir:   "./temp_files",
			Format:    "png",
		},
		Templates: TemplatesConfig{Dir: "./flowchart_templates"},
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// and the environment, in that order. An empty path skips the file.
func Load(path string) (*Config, error) {
	// Populate the process environment from .env when present.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	envStr("FLOWCHART_ADDR", &c.Server.Addr)

	envStr("OPENAI_API_KEY", &c.OpenAI.APIKey)
	envStr("FLOWCHART_OPENAI_MODEL", &c.OpenAI.Model)
	envStr("FLOWCHART_OPENAI_BASE_URL", &c.OpenAI.BaseURL)
	envInt("FLOWCHART_OPENAI_MAX_TOKENS", &c.OpenAI.MaxTokens)
	envInt("FLOWCHART_OPENAI_TIMEOUT_SECONDS", &c.OpenAI.TimeoutSeconds)

	envStr("FLOWCHART_STORE_DRIVER", &c.Store.Driver)
	envStr("FLOWCHART_SQLITE_PATH", &c.Store.SQLitePath)
	envStr("FLOWCHART_POSTGRES_DSN", &c.Store.PostgresDSN)
	envStr("FLOWCHART_STORE_COMPRESSION", &c.Store.Compression)
	envStr("FLOWCHART_ENCRYPT_KEY", &c.Store.EncryptKey)

	envStr("FLOWCHART_DOT_PATH", &c.Render.DotPath)
	envStr("FLOWCHART_OUTPUT_DIR", &c.Render.OutputDir)
	envStr("FLOWCHART_TEMP_DIR", &c.Render.TempDir)
	envStr("FLOWCHART_RENDER_FORMAT", &c.Render.Format)

	envStr("FLOWCHART_TEMPLATE_DIR", &c.Templates.Dir)
}

// Validate checks cross-field consistency after all sources merged.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Driver == DriverPostgres && c.Store.PostgresDSN == "" {
		return fmt.Errorf("store driver %q requires FLOWCHART_POSTGRES_DSN", DriverPostgres)
	}
	if _, err := codec.ParseCompression(c.Store.Compression); err != nil {
		return err
	}
	if _, err := c.EncryptKey(); err != nil {
		return err
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr cannot be empty")
	}
	return nil
}

// Compression returns the parsed store compression setting.
func (c *Config) Compression() codec.Compression {
	comp, err := codec.ParseCompression(c.Store.Compression)
	if err != nil {
		return codec.CompressionNone
	}
	return comp
}

// EncryptKey decodes the hex-encoded at-rest encryption key. An unset
// key returns nil, which disables encryption.
func (c *Config) EncryptKey() ([]byte, error) {
	if c.Store.EncryptKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.Store.EncryptKey)
	if err != nil {
		return nil, fmt.Errorf("FLOWCHART_ENCRYPT_KEY must be hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("FLOWCHART_ENCRYPT_KEY must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
