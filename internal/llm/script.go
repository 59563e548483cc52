package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ScriptEntry is one canned response. An entry with Match answers any prompt
// containing that text; entries without Match are handed out in order.
type ScriptEntry struct {
	Match    string `yaml:"match"`
	Response string `yaml:"response"`
}

type scriptFile struct {
	Responses []ScriptEntry `yaml:"responses"`
}

// ScriptClient replays canned responses, for offline runs and tests.
type ScriptClient struct {
	mu      sync.Mutex
	name    string
	matched []ScriptEntry
	queue   []string
	calls   int
}

func NewScriptClient(name string, entries []ScriptEntry) *ScriptClient {
	s := &ScriptClient{name: name}
	for _, e := range entries {
		if e.Match != "" {
			s.matched = append(s.matched, e)
		} else {
			s.queue = append(s.queue, e.Response)
		}
	}
	return s
}

// LoadScript reads a YAML file of the form {responses: [{match, response}]}.
func LoadScript(path string) (*ScriptClient, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	var f scriptFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("script: parsing %s: %w", path, err)
	}
	return NewScriptClient(path, f.Responses), nil
}

func (s *ScriptClient) Name() string { return "script:" + s.name }
func (s *ScriptClient) Close() error { return nil }

func (s *ScriptClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	for _, e := range s.matched {
		if strings.Contains(prompt, e.Match) {
			return e.Response, nil
		}
	}
	if len(s.queue) == 0 {
		return "", NewPermanentError(fmt.Errorf("script: no response left for call %d", s.calls))
	}
	resp := s.queue[0]
	s.queue = s.queue[1:]
	return resp, nil
}

// Calls returns how many prompts the script has answered or rejected.
func (s *ScriptClient) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
