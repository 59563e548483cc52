package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/config"
)

// Preflight checks that everything the configured provider needs at call
// time is present: the API key variable and the script file.
func Preflight(cfg config.LLM) error {
	var missing []string
	switch cfg.Provider {
	case "gemini":
		if cfg.APIKey() == "" {
			missing = append(missing, "environment variable "+cfg.APIKeyEnv)
		}
	case "script":
		if _, err := os.Stat(cfg.Script); err != nil {
			missing = append(missing, "script file "+cfg.Script)
		}
	}
	// openai-compatible servers and ollama may run without a key.
	if len(missing) > 0 {
		return fmt.Errorf("llm: %s provider needs %s", cfg.Provider, strings.Join(missing, ", "))
	}
	return nil
}
