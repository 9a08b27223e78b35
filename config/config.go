// Package config provides configuration management for the lead-agent CLI.
// It supports loading configuration from YAML files and environment
// variables, later sources overriding earlier ones.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bishwajitSingh123/lead-agent/pkg/classify"
)

// OutputFormat defines the supported output formats for CLI results.
type OutputFormat string

const (
	// OutputFormatText is human-readable plain text output.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON is JSON-formatted output for machine processing.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML is YAML-formatted output for machine processing.
	OutputFormatYAML OutputFormat = "yaml"
)

// Default configuration values.
const (
	DefaultLeadsFile    = "leads.csv"
	DefaultStateFile    = "lead_state.csv"
	DefaultDraftsDir    = "drafts"
	DefaultOutputFormat = OutputFormatText
	DefaultConfigDir    = ".lead-agent"
	DefaultConfigFile   = "config.yaml"
	DefaultSMTPPort     = 587
	DefaultThreshold    = "Hot"
)

// DataConfig holds the file locations the agent reads and writes.
type DataConfig struct {
	// LeadsFile is the CSV file of incoming leads.
	LeadsFile string `yaml:"leads_file"`

	// StateFile is the CSV table recording per-lead review state.
	StateFile string `yaml:"state_file"`

	// DraftsDir receives a text file per approved draft. Empty disables
	// draft files; the state table remains the source of truth.
	DraftsDir string `yaml:"drafts_dir,omitempty"`
}

// LLMConfig holds the completion-API settings used for classification and
// drafting. The API key is never stored here; see the credentials package.
type LLMConfig struct {
	// BaseURL is the OpenAI-compatible API root.
	BaseURL string `yaml:"base_url,omitempty"`

	// SmallModel handles routine classification and drafting.
	SmallModel string `yaml:"small_model,omitempty"`

	// LargeModel handles messages flagged as heavy reasoning.
	LargeModel string `yaml:"large_model,omitempty"`

	Temperature float32       `yaml:"temperature,omitempty"`
	MaxTokens   int           `yaml:"max_tokens,omitempty"`
	Timeout     time.Duration `yaml:"-"`
	MaxRetries  int           `yaml:"max_retries,omitempty"`
}

// SMTPConfig holds the outbound mail relay settings. The password is never
// stored here; see the credentials package.
type SMTPConfig struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Username string `yaml:"username,omitempty"`

	// From is the sender address placed in the From header. Defaults to
	// Username when empty.
	From string `yaml:"from,omitempty"`
}

// IsConfigured reports whether the relay can be dialed at all.
func (c *SMTPConfig) IsConfigured() bool {
	return c != nil && c.Host != ""
}

// FromAddress returns the From header value, falling back to the username.
func (c *SMTPConfig) FromAddress() string {
	if c.From != "" {
		return c.From
	}
	return c.Username
}

// AutoConfig holds the non-interactive review settings.
type AutoConfig struct {
	// SendEnabled allows automated delivery; false means approve-only.
	SendEnabled bool `yaml:"send_enabled,omitempty"`

	// Threshold is the minimum classification to auto-send: Hot, Warm or
	// Cold.
	Threshold string `yaml:"threshold,omitempty"`

	// BatchLimit caps automated sends per run; zero means no cap.
	BatchLimit int `yaml:"batch_limit,omitempty"`
}

// Config holds the lead-agent configuration settings.
type Config struct {
	// Data locates the lead and state files.
	Data DataConfig `yaml:"data"`

	// LLM configures the completion API.
	LLM LLMConfig `yaml:"llm"`

	// SMTP configures the outbound mail relay.
	SMTP SMTPConfig `yaml:"smtp"`

	// Auto configures the non-interactive review mode.
	Auto AutoConfig `yaml:"auto"`

	// OutputFormat specifies the default output format for commands.
	OutputFormat OutputFormat `yaml:"output_format"`

	// Debug enables verbose debug logging.
	Debug bool `yaml:"debug,omitempty"`
}

// DefaultConfig returns a Config with default values. LLM defaults come from
// the classify package so the two never drift.
func DefaultConfig() *Config {
	llm := classify.DefaultConfig()
	return &Config{
		Data: DataConfig{
			LeadsFile: DefaultLeadsFile,
			StateFile: DefaultStateFile,
			DraftsDir: DefaultDraftsDir,
		},
		LLM: LLMConfig{
			BaseURL:     llm.BaseURL,
			SmallModel:  llm.SmallModel,
			LargeModel:  llm.LargeModel,
			Temperature: llm.Temperature,
			MaxTokens:   llm.MaxTokens,
			Timeout:     llm.Timeout,
			MaxRetries:  llm.MaxRetries,
		},
		SMTP: SMTPConfig{
			Port: DefaultSMTPPort,
		},
		Auto: AutoConfig{
			Threshold: DefaultThreshold,
		},
		OutputFormat: DefaultOutputFormat,
	}
}

// ConfigDir returns the configuration directory path.
// Uses $LEADAGENT_CONFIG_DIR if set, otherwise ~/.lead-agent
func ConfigDir() (string, error) {
	if dir := os.Getenv("LEADAGENT_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadConfig loads the configuration from file and environment variables.
// Configuration is loaded in this order (later sources override earlier):
// 1. Default values
// 2. Config file (~/.lead-agent/config.yaml or $LEADAGENT_CONFIG_DIR/config.yaml)
// 3. Environment variables (LEADAGENT_*)
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	configPath, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// configFile mirrors Config with the timeout held as a duration string.
type configFile struct {
	Data DataConfig `yaml:"data"`

	LLM struct {
		BaseURL     string  `yaml:"base_url,omitempty"`
		SmallModel  string  `yaml:"small_model,omitempty"`
		LargeModel  string  `yaml:"large_model,omitempty"`
		Temperature float32 `yaml:"temperature,omitempty"`
		MaxTokens   int     `yaml:"max_tokens,omitempty"`
		Timeout     string  `yaml:"timeout,omitempty"`
		MaxRetries  int     `yaml:"max_retries,omitempty"`
	} `yaml:"llm"`

	SMTP SMTPConfig `yaml:"smtp"`
	Auto AutoConfig `yaml:"auto"`

	OutputFormat OutputFormat `yaml:"output_format,omitempty"`
	Debug        bool         `yaml:"debug,omitempty"`
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fileCfg configFile
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fileCfg.Data.LeadsFile != "" {
		cfg.Data.LeadsFile = fileCfg.Data.LeadsFile
	}
	if fileCfg.Data.StateFile != "" {
		cfg.Data.StateFile = fileCfg.Data.StateFile
	}
	if fileCfg.Data.DraftsDir != "" {
		cfg.Data.DraftsDir = fileCfg.Data.DraftsDir
	}

	if fileCfg.LLM.BaseURL != "" {
		cfg.LLM.BaseURL = fileCfg.LLM.BaseURL
	}
	if fileCfg.LLM.SmallModel != "" {
		cfg.LLM.SmallModel = fileCfg.LLM.SmallModel
	}
	if fileCfg.LLM.LargeModel != "" {
		cfg.LLM.LargeModel = fileCfg.LLM.LargeModel
	}
	if fileCfg.LLM.Temperature != 0 {
		cfg.LLM.Temperature = fileCfg.LLM.Temperature
	}
	if fileCfg.LLM.MaxTokens != 0 {
		cfg.LLM.MaxTokens = fileCfg.LLM.MaxTokens
	}
	if fileCfg.LLM.Timeout != "" {
		timeout, err := time.ParseDuration(fileCfg.LLM.Timeout)
		if err != nil {
			return fmt.Errorf("parsing llm timeout: %w", err)
		}
		cfg.LLM.Timeout = timeout
	}
	if fileCfg.LLM.MaxRetries != 0 {
		cfg.LLM.MaxRetries = fileCfg.LLM.MaxRetries
	}

	if fileCfg.SMTP.Host != "" {
		cfg.SMTP.Host = fileCfg.SMTP.Host
	}
	if fileCfg.SMTP.Port != 0 {
		cfg.SMTP.Port = fileCfg.SMTP.Port
	}
	if fileCfg.SMTP.Username != "" {
		cfg.SMTP.Username = fileCfg.SMTP.Username
	}
	if fileCfg.SMTP.From != "" {
		cfg.SMTP.From = fileCfg.SMTP.From
	}

	cfg.Auto.SendEnabled = fileCfg.Auto.SendEnabled
	if fileCfg.Auto.Threshold != "" {
		cfg.Auto.Threshold = fileCfg.Auto.Threshold
	}
	if fileCfg.Auto.BatchLimit != 0 {
		cfg.Auto.BatchLimit = fileCfg.Auto.BatchLimit
	}

	if fileCfg.OutputFormat != "" {
		cfg.OutputFormat = fileCfg.OutputFormat
	}
	cfg.Debug = fileCfg.Debug

	return nil
}

// loadFromEnv overlays environment variables onto the configuration.
func loadFromEnv(cfg *Config) {
	if v := os.Getenv("LEADAGENT_LEADS_FILE"); v != "" {
		cfg.Data.LeadsFile = v
	}
	if v := os.Getenv("LEADAGENT_STATE_FILE"); v != "" {
		cfg.Data.StateFile = v
	}
	if v := os.Getenv("LEADAGENT_DRAFTS_DIR"); v != "" {
		cfg.Data.DraftsDir = v
	}

	if v := os.Getenv("LEADAGENT_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LEADAGENT_LLM_SMALL_MODEL"); v != "" {
		cfg.LLM.SmallModel = v
	}
	if v := os.Getenv("LEADAGENT_LLM_LARGE_MODEL"); v != "" {
		cfg.LLM.LargeModel = v
	}
	if v := os.Getenv("LEADAGENT_LLM_TIMEOUT"); v != "" {
		if timeout, err := time.ParseDuration(v); err == nil {
			cfg.LLM.Timeout = timeout
		}
	}

	if v := os.Getenv("LEADAGENT_SMTP_HOST"); v != "" {
		cfg.SMTP.Host = v
	}
	if v := os.Getenv("LEADAGENT_SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.SMTP.Port = port
		}
	}
	if v := os.Getenv("LEADAGENT_SMTP_USERNAME"); v != "" {
		cfg.SMTP.Username = v
	}
	if v := os.Getenv("LEADAGENT_SMTP_FROM"); v != "" {
		cfg.SMTP.From = v
	}

	if v := os.Getenv("LEADAGENT_AUTO_SEND"); v == "true" || v == "1" {
		cfg.Auto.SendEnabled = true
	}
	if v := os.Getenv("LEADAGENT_AUTO_THRESHOLD"); v != "" {
		cfg.Auto.Threshold = v
	}
	if v := os.Getenv("LEADAGENT_AUTO_BATCH_LIMIT"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			cfg.Auto.BatchLimit = limit
		}
	}

	if v := os.Getenv("LEADAGENT_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = OutputFormat(v)
	}
	if v := os.Getenv("LEADAGENT_DEBUG"); v == "true" || v == "1" {
		cfg.Debug = true
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Data.LeadsFile == "" {
		return fmt.Errorf("data.leads_file is required")
	}
	if c.Data.StateFile == "" {
		return fmt.Errorf("data.state_file is required")
	}

	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be positive")
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must not be negative")
	}

	if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
		return fmt.Errorf("smtp.port must be in 1..65535")
	}

	switch c.Auto.Threshold {
	case "Hot", "Warm", "Cold":
	default:
		return fmt.Errorf("invalid auto.threshold: %q (must be Hot, Warm, or Cold)", c.Auto.Threshold)
	}
	if c.Auto.BatchLimit < 0 {
		return fmt.Errorf("auto.batch_limit must not be negative")
	}

	if !c.OutputFormat.IsValid() {
		return fmt.Errorf("invalid output_format: %q (must be text, json, or yaml)", c.OutputFormat)
	}

	return nil
}

// ClassifyConfig converts the LLM section into a classify client config.
// apiKey comes from the credentials package.
func (c *Config) ClassifyConfig(apiKey string) classify.Config {
	return classify.Config{
		BaseURL:     strings.TrimRight(c.LLM.BaseURL, "/"),
		APIKey:      apiKey,
		SmallModel:  c.LLM.SmallModel,
		LargeModel:  c.LLM.LargeModel,
		Temperature: c.LLM.Temperature,
		MaxTokens:   c.LLM.MaxTokens,
		Timeout:     c.LLM.Timeout,
		MaxRetries:  c.LLM.MaxRetries,
	}
}

// IsValid checks if the output format is valid.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return true
	default:
		return false
	}
}

// String returns the string representation of the output format.
func (f OutputFormat) String() string {
	return string(f)
}

// SaveConfig saves the configuration to the config file.
func SaveConfig(cfg *Config) error {
	configDir, err := ConfigDir()
	if err != nil {
		return fmt.Errorf("getting config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(configDir, DefaultConfigFile)

	var fileCfg configFile
	fileCfg.Data = cfg.Data
	fileCfg.LLM.BaseURL = cfg.LLM.BaseURL
	fileCfg.LLM.SmallModel = cfg.LLM.SmallModel
	fileCfg.LLM.LargeModel = cfg.LLM.LargeModel
	fileCfg.LLM.Temperature = cfg.LLM.Temperature
	fileCfg.LLM.MaxTokens = cfg.LLM.MaxTokens
	fileCfg.LLM.Timeout = cfg.LLM.Timeout.String()
	fileCfg.LLM.MaxRetries = cfg.LLM.MaxRetries
	fileCfg.SMTP = cfg.SMTP
	fileCfg.Auto = cfg.Auto
	fileCfg.OutputFormat = cfg.OutputFormat
	fileCfg.Debug = cfg.Debug

	data, err := yaml.Marshal(&fileCfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
