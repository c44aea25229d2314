// Package config provides configuration loading and validation for the agent.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Config is the agent configuration loadable from a JSON file. All fields
// are optional; missing values fall back to Defaults.
type Config struct {
	// Data files
	CatalogPath string `json:"catalog_path,omitempty" validate:"omitempty"`
	SchemaPath  string `json:"schema_path,omitempty" validate:"omitempty"`
	RulesPath   string `json:"rules_path,omitempty" validate:"omitempty"`

	// LLM
	APIKey         string  `json:"api_key,omitempty"`
	Model          string  `json:"model,omitempty"`
	TimeoutSeconds int     `json:"timeout_seconds,omitempty" validate:"gte=0,lte=300"`
	Temperature    float64 `json:"temperature,omitempty" validate:"gte=0,lte=2"`

	// Pipeline tuning
	ConfidenceThreshold float64 `json:"confidence_threshold,omitempty" validate:"gte=0,lte=1"`
	CandidateCount      int     `json:"candidate_count,omitempty" validate:"gte=0,lte=100"`
	FinalCount          int     `json:"final_count,omitempty" validate:"gte=0,lte=50"`
	MaxQuestions        int     `json:"max_questions,omitempty" validate:"gte=0,lte=10"`
	UseFuzzyMatching    *bool   `json:"use_fuzzy_matching,omitempty"`

	// Server
	Port    int  `json:"port,omitempty" validate:"gte=0,lte=65535"`
	Verbose bool `json:"verbose,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	fuzzy := true
	return Config{
		CatalogPath:         "data/Apparels_shared.xlsx",
		SchemaPath:          "data/attribute_schema.json",
		RulesPath:           "data/vibe_rules.json",
		TimeoutSeconds:      30,
		Temperature:         0.1,
		ConfidenceThreshold: 0.6,
		CandidateCount:      15,
		FinalCount:          5,
		MaxQuestions:        2,
		UseFuzzyMatching:    &fuzzy,
		Port:                8000,
	}
}

// LoadConfig loads configuration from a JSON file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

var validate = validator.New()

// Validate checks field ranges and the candidate/final relationship.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.CandidateCount > 0 && c.FinalCount > c.CandidateCount {
		return fmt.Errorf("config error: 'final_count' (%d) exceeds 'candidate_count' (%d)", c.FinalCount, c.CandidateCount)
	}
	return nil
}

// MergeWithDefaults fills zero-valued fields from defaults and returns the
// merged config.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.CatalogPath == "" {
		result.CatalogPath = defaults.CatalogPath
	}
	if result.SchemaPath == "" {
		result.SchemaPath = defaults.SchemaPath
	}
	if result.RulesPath == "" {
		result.RulesPath = defaults.RulesPath
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.TimeoutSeconds == 0 {
		result.TimeoutSeconds = defaults.TimeoutSeconds
	}
	if result.Temperature == 0 {
		result.Temperature = defaults.Temperature
	}
	if result.ConfidenceThreshold == 0 {
		result.ConfidenceThreshold = defaults.ConfidenceThreshold
	}
	if result.CandidateCount == 0 {
		result.CandidateCount = defaults.CandidateCount
	}
	if result.FinalCount == 0 {
		result.FinalCount = defaults.FinalCount
	}
	if result.MaxQuestions == 0 {
		result.MaxQuestions = defaults.MaxQuestions
	}
	if result.UseFuzzyMatching == nil {
		result.UseFuzzyMatching = defaults.UseFuzzyMatching
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	return result
}

// ResolveAPIKey prefers the config value, then the GEMINI_API_KEY
// environment variable.
func (c *Config) ResolveAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	return os.Getenv("GEMINI_API_KEY")
}
