package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DirName is the per-user settings directory under $HOME.
const DirName = ".datalens"

// Global configuration structure.
type Global struct {
	APIKey          string  `mapstructure:"api_key" yaml:"api_key"`
	GroqAPIKey      string  `mapstructure:"groq_api_key" yaml:"groq_api_key"`
	DefaultProvider string  `mapstructure:"default_provider" yaml:"default_provider"`
	DefaultModel    string  `mapstructure:"default_model" yaml:"default_model"`
	MaxTokens       int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature     float64 `mapstructure:"temperature" yaml:"temperature"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Local runtimes (Ollama)
	OllamaHost string `mapstructure:"ollama_host" yaml:"ollama_host"`

	HistoryDB string `mapstructure:"history_db" yaml:"history_db"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// Analysis
	MaxRows            int `mapstructure:"max_rows" yaml:"max_rows"`
	SampleRows         int `mapstructure:"sample_rows" yaml:"sample_rows"`
	InsightTokenBudget int `mapstructure:"insight_token_budget" yaml:"insight_token_budget"`
}

// defaults registers every key so AutomaticEnv values reach Unmarshal.
func defaults(v *viper.Viper) {
	v.SetDefault("api_key", "")
	v.SetDefault("groq_api_key", "")
	v.SetDefault("history_db", "")
	v.SetDefault("default_provider", "groq")
	v.SetDefault("default_model", "llama-3.1-8b-instant")
	v.SetDefault("max_tokens", 1024)
	v.SetDefault("temperature", 0.3)
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")
	v.SetDefault("max_rows", 100000)
	v.SetDefault("sample_rows", 5)
	v.SetDefault("insight_token_budget", 6000)
}

// Dir returns ~/.datalens.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// DefaultPath returns the config file used when --config is not given.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.datalens/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file (cfgFile or ~/.datalens/config.yaml) > defaults.
// GROQ_API_KEY is honored when DATALENS_GROQ_API_KEY is unset.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DATALENS")
	v.AutomaticEnv()
	defaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// A missing file is fine; a malformed one is not.
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.GroqAPIKey == "" {
		c.GroqAPIKey = os.Getenv("GROQ_API_KEY")
	}
	if c.HistoryDB == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.HistoryDB = filepath.Join(dir, "history.db")
	}
	return &c, nil
}

// Keys lists the settable configuration keys in sorted order.
func Keys() []string {
	var out []string
	for _, f := range fields() {
		out = append(out, f.key)
	}
	sort.Strings(out)
	return out
}

// Set assigns value to the named key, converting it to the field's type.
func (c *Global) Set(key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, f := range fields() {
		if f.key != key {
			continue
		}
		return f.set(c, strings.TrimSpace(value))
	}
	return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
}

// Redacted returns a copy safe to print: API keys keep only their last four characters.
func (c *Global) Redacted() Global {
	out := *c
	out.APIKey = mask(out.APIKey)
	out.GroqAPIKey = mask(out.GroqAPIKey)
	return out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}

type field struct {
	key string
	set func(c *Global, v string) error
}

func str(key string, p func(*Global) *string) field {
	return field{key, func(c *Global, v string) error { *p(c) = v; return nil }}
}

func integer(key string, p func(*Global) *int) field {
	return field{key, func(c *Global, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", key, v)
		}
		*p(c) = n
		return nil
	}}
}

func fields() []field {
	return []field{
		str("api_key", func(c *Global) *string { return &c.APIKey }),
		str("groq_api_key", func(c *Global) *string { return &c.GroqAPIKey }),
		{"default_provider", func(c *Global, v string) error {
			switch strings.ToLower(v) {
			case "openrouter", "groq", "ollama":
				c.DefaultProvider = strings.ToLower(v)
				return nil
			}
			return fmt.Errorf("default_provider: %q is not one of openrouter|groq|ollama", v)
		}},
		str("default_model", func(c *Global) *string { return &c.DefaultModel }),
		integer("max_tokens", func(c *Global) *int { return &c.MaxTokens }),
		{"temperature", func(c *Global, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f < 0 || f > 2 {
				return fmt.Errorf("temperature: %q must be a number in [0, 2]", v)
			}
			c.Temperature = f
			return nil
		}},
		integer("http_timeout_sec", func(c *Global) *int { return &c.HTTPTimeoutSec }),
		integer("retry_max_attempts", func(c *Global) *int { return &c.RetryMaxAttempts }),
		integer("retry_base_delay_ms", func(c *Global) *int { return &c.RetryBaseDelayMs }),
		integer("retry_max_delay_ms", func(c *Global) *int { return &c.RetryMaxDelayMs }),
		str("ollama_host", func(c *Global) *string { return &c.OllamaHost }),
		str("history_db", func(c *Global) *string { return &c.HistoryDB }),
		str("log_level", func(c *Global) *string { return &c.LogLevel }),
		str("log_format", func(c *Global) *string { return &c.LogFormat }),
		integer("max_rows", func(c *Global) *int { return &c.MaxRows }),
		integer("sample_rows", func(c *Global) *int { return &c.SampleRows }),
		integer("insight_token_budget", func(c *Global) *int { return &c.InsightTokenBudget }),
	}
}
