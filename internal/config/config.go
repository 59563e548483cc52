package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the project config file looked up from the working directory.
const FileName = ".tutor.yaml"

type Cache struct {
	Enabled *bool  `yaml:"enabled"`
	Dir     string `yaml:"dir"`
	Size    int    `yaml:"size"`
}

// On reports whether response caching is enabled. Unset means enabled.
func (c Cache) On() bool {
	return c.Enabled == nil || *c.Enabled
}

type LLM struct {
	Provider  string  `yaml:"provider"`
	Model     string  `yaml:"model"`
	BaseURL   string  `yaml:"base-url"`
	APIKeyEnv string  `yaml:"api-key-env"`
	Script    string  `yaml:"script"`
	RPS       float64 `yaml:"rps"`
	Burst     int     `yaml:"burst"`
	Retries   int     `yaml:"retries"`
	Timeout   int     `yaml:"timeout"` // seconds per call
	Cache     Cache   `yaml:"cache"`
}

type Pipeline struct {
	Retries             int  `yaml:"retries"`
	RetryWait           int  `yaml:"retry-wait"` // seconds
	StrictRelationships bool `yaml:"strict-relationships"`
}

type S3 struct {
	Endpoint     string `yaml:"endpoint"`
	Region       string `yaml:"region"`
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	AccessKeyEnv string `yaml:"access-key-env"`
	SecretKeyEnv string `yaml:"secret-key-env"`
	UseSSL       *bool  `yaml:"use-ssl"`
}

type Publish struct {
	S3 *S3 `yaml:"s3"`
}

type Config struct {
	Name            string   `yaml:"name"`
	Repo            string   `yaml:"repo"`
	Dir             string   `yaml:"dir"`
	Output          string   `yaml:"output"`
	Include         []string `yaml:"include"`
	Exclude         []string `yaml:"exclude"`
	MaxFileSize     int64    `yaml:"max-file-size"`
	MaxAbstractions int      `yaml:"max-abstractions"`
	GitHubTokenEnv  string   `yaml:"github-token-env"`
	LLM             LLM      `yaml:"llm"`
	Pipeline        Pipeline `yaml:"pipeline"`
	Publish         Publish  `yaml:"publish"`
}

// Load reads a YAML config file. The result still needs Validate once
// command-line overrides are applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadOptional loads path if it exists and returns an empty config otherwise.
func LoadOptional(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	return cfg, err
}

// Find walks up from dir looking for .tutor.yaml. Returns "" when none exists.
func Find(dir string) string {
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// GitHubToken returns the GitHub token from the configured environment variable.
func (c *Config) GitHubToken() string {
	return os.Getenv(c.GitHubTokenEnv)
}

// APIKey returns the provider key from the configured environment variable.
func (l LLM) APIKey() string {
	if l.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(l.APIKeyEnv)
}
