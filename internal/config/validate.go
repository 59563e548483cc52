package config

import (
	"fmt"
	"net/url"
	"strings"
)

var (
	// DefaultInclude covers common source and documentation files.
	DefaultInclude = []string{
		"*.py", "*.js", "*.jsx", "*.ts", "*.tsx", "*.go", "*.java", "*.pyi", "*.pyx",
		"*.c", "*.cc", "*.cpp", "*.h", "*.md", "*.rst", "*Dockerfile", "*Makefile",
		"*.yaml", "*.yml",
	}
	// DefaultExclude skips tests, build output, vendored code and assets.
	DefaultExclude = []string{
		"assets/**", "data/**", "images/**", "public/**", "static/**", "temp/**",
		"**/docs/**", "**/venv/**", "**/.venv/**", "*test*", "**/tests/**",
		"**/examples/**", "v1/**", "**/dist/**", "**/build/**", "**/experimental/**",
		"**/deprecated/**", "**/misc/**", "**/legacy/**", ".git/**", ".github/**",
		".next/**", ".vscode/**", "**/obj/**", "**/bin/**", "**/node_modules/**", "*.log",
	}
)

const (
	DefaultOutput          = "output"
	DefaultMaxFileSize     = 100000
	DefaultMaxAbstractions = 10
)

var providerDefaults = map[string]LLM{
	"gemini": {Model: "gemini-2.5-flash", APIKeyEnv: "GEMINI_API_KEY"},
	"ollama": {Model: "llama3.1", BaseURL: "http://localhost:11434"},
	"openai": {Model: "gpt-4o-mini", BaseURL: "https://api.openai.com/v1", APIKeyEnv: "OPENAI_API_KEY"},
	"script": {Model: "script"},
}

// Validate checks the config for errors and sets defaults.
func Validate(cfg *Config) error {
	if cfg.Repo == "" && cfg.Dir == "" {
		return fmt.Errorf("config: one of 'repo' or 'dir' is required")
	}
	if cfg.Repo != "" && cfg.Dir != "" {
		return fmt.Errorf("config: 'repo' and 'dir' are mutually exclusive")
	}
	if cfg.Repo != "" {
		u, err := url.Parse(cfg.Repo)
		if err != nil || u.Host != "github.com" || len(strings.Split(strings.Trim(u.Path, "/"), "/")) < 2 {
			return fmt.Errorf("config: 'repo' %q must be a https://github.com/owner/repo URL", cfg.Repo)
		}
	}
	if strings.ContainsAny(cfg.Name, `/\`) {
		return fmt.Errorf("config: 'name' %q must not contain path separators", cfg.Name)
	}
	if cfg.Output == "" {
		cfg.Output = DefaultOutput
	}
	if len(cfg.Include) == 0 {
		cfg.Include = DefaultInclude
	}
	if cfg.Exclude == nil {
		cfg.Exclude = DefaultExclude
	}
	for _, p := range append(append([]string{}, cfg.Include...), cfg.Exclude...) {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("config: 'include' and 'exclude' entries must be non-empty")
		}
	}
	if cfg.MaxFileSize == 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.MaxFileSize < 0 {
		return fmt.Errorf("config: 'max-file-size' must be >= 0")
	}
	if cfg.MaxAbstractions == 0 {
		cfg.MaxAbstractions = DefaultMaxAbstractions
	}
	if cfg.MaxAbstractions < 1 {
		return fmt.Errorf("config: 'max-abstractions' must be >= 1")
	}
	if cfg.GitHubTokenEnv == "" {
		cfg.GitHubTokenEnv = "GITHUB_TOKEN"
	}

	if err := validateLLM(&cfg.LLM); err != nil {
		return err
	}

	p := &cfg.Pipeline
	if p.Retries < 0 {
		return fmt.Errorf("config: pipeline.retries must be >= 0")
	}
	if p.RetryWait < 0 {
		return fmt.Errorf("config: pipeline.retry-wait must be >= 0")
	}

	if s3 := cfg.Publish.S3; s3 != nil {
		if s3.Endpoint == "" {
			return fmt.Errorf("config: publish.s3.endpoint is required")
		}
		if s3.Bucket == "" {
			return fmt.Errorf("config: publish.s3.bucket is required")
		}
		if s3.AccessKeyEnv == "" {
			s3.AccessKeyEnv = "S3_ACCESS_KEY"
		}
		if s3.SecretKeyEnv == "" {
			s3.SecretKeyEnv = "S3_SECRET_KEY"
		}
		if s3.UseSSL == nil {
			on := true
			s3.UseSSL = &on
		}
		s3.Prefix = strings.Trim(s3.Prefix, "/")
	}
	return nil
}

func validateLLM(l *LLM) error {
	if l.Provider == "" {
		l.Provider = "gemini"
	}
	def, ok := providerDefaults[l.Provider]
	if !ok {
		return fmt.Errorf("config: llm: unknown provider %q (must be gemini, ollama, openai, or script)", l.Provider)
	}
	if l.Model == "" {
		l.Model = def.Model
	}
	if l.BaseURL == "" {
		l.BaseURL = def.BaseURL
	}
	if l.APIKeyEnv == "" {
		l.APIKeyEnv = def.APIKeyEnv
	}
	if l.Provider == "script" && l.Script == "" {
		return fmt.Errorf("config: llm: script provider requires 'script'")
	}
	if l.RPS < 0 {
		return fmt.Errorf("config: llm.rps must be >= 0")
	}
	if l.Burst == 0 {
		l.Burst = 1
	}
	if l.Burst < 0 {
		return fmt.Errorf("config: llm.burst must be >= 0")
	}
	if l.Retries == 0 {
		l.Retries = 3
	}
	if l.Retries < 0 {
		return fmt.Errorf("config: llm.retries must be >= 0")
	}
	if l.Timeout == 0 {
		l.Timeout = 300
	}
	if l.Timeout < 0 {
		return fmt.Errorf("config: llm.timeout must be >= 0")
	}
	if l.Cache.Dir == "" {
		l.Cache.Dir = ".tutor-cache"
	}
	if l.Cache.Size == 0 {
		l.Cache.Size = 1024
	}
	if l.Cache.Size < 0 {
		return fmt.Errorf("config: llm.cache.size must be >= 0")
	}
	return nil
}
