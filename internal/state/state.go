package state

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	StatusRunning     = "running"
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
	StatusInterrupted = "interrupted"
)

type State struct {
	RunID      string `json:"run_id"`
	Project    string `json:"project"`
	StageIndex int    `json:"stage_index"`
	Status     string `json:"status"` // running, completed, failed, interrupted
	LastError  string `json:"last_error,omitempty"`
}

// New returns a fresh running state with a new run ID.
func New(project string) *State {
	return &State{
		RunID:   uuid.NewString(),
		Project: project,
		Status:  StatusRunning,
	}
}

func statePath(artifactsDir string) string {
	return filepath.Join(artifactsDir, "state.json")
}

// Load reads the state from the artifacts directory. Returns a new state if not found.
func Load(artifactsDir string) (*State, error) {
	path := statePath(artifactsDir)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &State{Status: StatusRunning}, nil
		}
		return nil, err
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Exists reports whether a saved state is present in the artifacts directory.
func Exists(artifactsDir string) bool {
	_, err := os.Stat(statePath(artifactsDir))
	return err == nil
}

// Save writes the state to the artifacts directory.
func (s *State) Save(artifactsDir string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return WriteFileAtomic(statePath(artifactsDir), data, 0644)
}

// Advance increments the stage index.
func (s *State) Advance() {
	s.StageIndex++
}

// SetStage sets the stage index for --from and --retry jumps.
func (s *State) SetStage(idx int) {
	s.StageIndex = idx
}

// Fail records a failure at the current stage.
func (s *State) Fail(err error) {
	s.Status = StatusFailed
	if err != nil {
		s.LastError = err.Error()
	}
}
