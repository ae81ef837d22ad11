// Package config loads the RevReach configuration from a YAML file with
// environment-variable overrides for secrets.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type ProductConfig struct {
	Name  string `yaml:"name"`
	Pitch string `yaml:"pitch"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"` // "openai" or "ollama"
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

type SearchConfig struct {
	APIKey string `yaml:"api_key"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	From     string `yaml:"from"`
	Password string `yaml:"password"`
}

type LimitsConfig struct {
	DailyEmails         int `yaml:"daily_emails"`
	WeeklyEmails        int `yaml:"weekly_emails"`
	MonthlyEmails       int `yaml:"monthly_emails"`
	EmailsPerCampaign   int `yaml:"emails_per_campaign"`
	DailyCampaigns      int `yaml:"daily_campaigns"`
	ConcurrentCampaigns int `yaml:"concurrent_campaigns"`
}

type RiskConfig struct {
	SensitiveTargets []string `yaml:"sensitive_targets"`
	RegulatedSectors []string `yaml:"regulated_sectors"`
	SensitiveTopics  []string `yaml:"sensitive_topics"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Product ProductConfig `yaml:"product"`
	LLM     LLMConfig     `yaml:"llm"`
	Search  SearchConfig  `yaml:"search"`
	SMTP    SMTPConfig    `yaml:"smtp"`
	Limits  LimitsConfig  `yaml:"limits"`
	Risk    RiskConfig    `yaml:"risk"`
	Storage StorageConfig `yaml:"storage"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		Product: ProductConfig{Name: "RevReach"},
		LLM: LLMConfig{
			Provider: "openai",
			BaseURL:  "https://api.openai.com/v1",
			Model:    "gpt-4",
		},
		SMTP:    SMTPConfig{Host: "smtp.gmail.com", Port: 587},
		Storage: StorageConfig{Path: "revreach.db"},
	}
}

// Load reads the config file at path, falling back to defaults when the
// file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults plus env are enough for a first run.
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(cfg)

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "revreach.db"
	}
	if cfg.Product.Name == "" {
		cfg.Product.Name = "RevReach"
	}
	return cfg, nil
}

// applyEnv lets secrets come from the environment instead of the file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("REVREACH_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("REVREACH_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("REVREACH_SEARCH_API_KEY"); v != "" {
		cfg.Search.APIKey = v
	}
	if v := os.Getenv("REVREACH_SMTP_FROM"); v != "" {
		cfg.SMTP.From = v
	}
	if v := os.Getenv("REVREACH_SMTP_PASSWORD"); v != "" {
		cfg.SMTP.Password = v
	}
	if v := os.Getenv("REVREACH_DB_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("REVREACH_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
}
