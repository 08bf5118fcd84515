package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"imagesaid/internal/naming"
	"imagesaid/pkg/types"
)

// EnvPrefix prefixes every environment override, e.g. IMAGESAID_API_URL.
const EnvPrefix = "IMAGESAID_"

// Config holds runtime parameters for the CLI and the HTTP API.
// Zero values mean "unspecified" and are replaced by WithDefaults.
type Config struct {
	Addr            string                 `json:"addr" yaml:"addr" toml:"addr"`
	APIURL          string                 `json:"api_url" yaml:"api_url" toml:"api_url"`
	Model           string                 `json:"model" yaml:"model" toml:"model"`
	ContextLength   int                    `json:"context_length" yaml:"context_length" toml:"context_length"`
	Prompt          string                 `json:"prompt" yaml:"prompt" toml:"prompt"`
	Templates       []types.PromptTemplate `json:"templates" yaml:"templates" toml:"templates"`
	DefaultTemplate string                 `json:"default_template" yaml:"default_template" toml:"default_template"`
	RequestTimeoutS int                    `json:"request_timeout_seconds" yaml:"request_timeout_seconds" toml:"request_timeout_seconds"`
	ConnectTimeoutS int                    `json:"connect_timeout_seconds" yaml:"connect_timeout_seconds" toml:"connect_timeout_seconds"`
	LogLevel        string                 `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat       string                 `json:"log_format" yaml:"log_format" toml:"log_format"`
	MaxBodyBytes    int64                  `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	CORSOrigins     []string               `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`

	// ModelContextLengths overrides ContextLength for individual models.
	ModelContextLengths map[string]int `json:"model_context_lengths" yaml:"model_context_lengths" toml:"model_context_lengths"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:            "127.0.0.1:8765",
		APIURL:          "http://localhost:11434",
		Model:           "qwen2.5vl:3b",
		ContextLength:   4096,
		Prompt:          naming.DefaultPrompt,
		Templates:       []types.PromptTemplate{{Name: "default", Content: naming.DefaultPrompt}},
		DefaultTemplate: "default",
		RequestTimeoutS: 120,
		ConnectTimeoutS: 5,
		LogLevel:        "info",
		LogFormat:       "console",
		MaxBodyBytes:    1 << 20,
	}
}

// WithDefaults fills every unspecified field of c from Default. When only
// a default template is named, its content becomes the prompt.
func (c Config) WithDefaults() Config {
	d := Default()
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	if c.APIURL == "" {
		c.APIURL = d.APIURL
	}
	if c.Model == "" {
		c.Model = d.Model
	}
	if c.ContextLength <= 0 {
		c.ContextLength = d.ContextLength
	}
	if len(c.Templates) == 0 {
		c.Templates = d.Templates
	}
	if c.DefaultTemplate == "" {
		c.DefaultTemplate = d.DefaultTemplate
	}
	if c.Prompt == "" {
		if p, err := c.ResolvePrompt(c.DefaultTemplate); err == nil {
			c.Prompt = p
		} else {
			c.Prompt = d.Prompt
		}
	}
	if c.RequestTimeoutS <= 0 {
		c.RequestTimeoutS = d.RequestTimeoutS
	}
	if c.ConnectTimeoutS <= 0 {
		c.ConnectTimeoutS = d.ConnectTimeoutS
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = d.MaxBodyBytes
	}
	return c
}

// ResolvePrompt returns the content of the named template. An empty name
// returns the configured prompt.
func (c Config) ResolvePrompt(name string) (string, error) {
	if name == "" {
		return c.Prompt, nil
	}
	for _, t := range c.Templates {
		if strings.EqualFold(t.Name, name) {
			return t.Content, nil
		}
	}
	return "", fmt.Errorf("unknown prompt template: %s", name)
}

// ContextLengthFor returns the context length configured for model, falling
// back to ContextLength. Model names match case-insensitively.
func (c Config) ContextLengthFor(model string) int {
	if n := c.ModelContextLengths[model]; n > 0 {
		return n
	}
	for name, n := range c.ModelContextLengths {
		if n > 0 && strings.EqualFold(name, model) {
			return n
		}
	}
	return c.ContextLength
}

// ApplyEnv overrides fields from IMAGESAID_* variables read through lookup
// (os.LookupEnv in production). Malformed numbers are reported.
func (c Config) ApplyEnv(lookup func(string) (string, bool)) (Config, error) {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
		return nil
	}
	str("ADDR", &c.Addr)
	str("API_URL", &c.APIURL)
	str("MODEL", &c.Model)
	str("PROMPT", &c.Prompt)
	str("DEFAULT_TEMPLATE", &c.DefaultTemplate)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	for key, dst := range map[string]*int{
		"CONTEXT_LENGTH":          &c.ContextLength,
		"REQUEST_TIMEOUT_SECONDS": &c.RequestTimeoutS,
		"CONNECT_TIMEOUT_SECONDS": &c.ConnectTimeoutS,
	} {
		if err := num(key, dst); err != nil {
			return c, err
		}
	}
	if v, ok := lookup(EnvPrefix + "CORS_ORIGINS"); ok && strings.TrimSpace(v) != "" {
		c.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.CORSOrigins = append(c.CORSOrigins, o)
			}
		}
	}
	return c, nil
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
