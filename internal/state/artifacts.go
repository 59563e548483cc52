package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoCheckpoint is returned when a stage has no saved output.
var ErrNoCheckpoint = errors.New("no checkpoint")

// ArtifactsDir returns the run artifacts directory for a project.
func ArtifactsDir(outputDir, project string) string {
	return filepath.Join(outputDir, project, ".tutor")
}

// EnsureDir creates the artifacts directory structure.
func EnsureDir(artifactsDir string) error {
	dirs := []string{
		artifactsDir,
		filepath.Join(artifactsDir, "checkpoints"),
		filepath.Join(artifactsDir, "checkpoints", "chapters"),
		filepath.Join(artifactsDir, "prompts"),
		filepath.Join(artifactsDir, "responses"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("creating artifacts dir %s: %w", d, err)
		}
	}
	return nil
}

// CheckpointPath returns the path of a stage's saved output.
func CheckpointPath(artifactsDir, stage string) string {
	return filepath.Join(artifactsDir, "checkpoints", stage+".json")
}

// SaveCheckpoint writes v as the saved output of stage.
func SaveCheckpoint(artifactsDir, stage string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s checkpoint: %w", stage, err)
	}
	return WriteFileAtomic(CheckpointPath(artifactsDir, stage), data, 0644)
}

// LoadCheckpoint decodes the saved output of stage into v.
func LoadCheckpoint(artifactsDir, stage string, v any) error {
	data, err := os.ReadFile(CheckpointPath(artifactsDir, stage))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", stage, ErrNoCheckpoint)
		}
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s checkpoint: %w", stage, err)
	}
	return nil
}

func chapterPath(artifactsDir string, number int) string {
	return filepath.Join(artifactsDir, "checkpoints", "chapters", fmt.Sprintf("%02d.md", number))
}

// SaveChapter checkpoints the text of a single written chapter.
func SaveChapter(artifactsDir string, number int, text string) error {
	return WriteFileAtomic(chapterPath(artifactsDir, number), []byte(text), 0644)
}

// LoadChapters returns the texts of chapters 1..k checkpointed so far, stopping
// at the first gap.
func LoadChapters(artifactsDir string) ([]string, error) {
	var out []string
	for n := 1; ; n++ {
		data, err := os.ReadFile(chapterPath(artifactsDir, n))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return out, nil
			}
			return nil, err
		}
		out = append(out, string(data))
	}
}

// ClearChapters removes every chapter checkpoint.
func ClearChapters(artifactsDir string) error {
	dir := filepath.Join(artifactsDir, "checkpoints", "chapters")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".md") {
			if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

func exchangeName(stage string, n int) string {
	if n > 0 {
		return fmt.Sprintf("%s-%02d.md", stage, n)
	}
	return stage + ".md"
}

// PromptPath returns the path for a saved prompt. n numbers repeated calls
// within a stage (chapters); 0 means the stage's only call.
func PromptPath(artifactsDir, stage string, n int) string {
	return filepath.Join(artifactsDir, "prompts", exchangeName(stage, n))
}

// ResponsePath returns the path for a saved model response.
func ResponsePath(artifactsDir, stage string, n int) string {
	return filepath.Join(artifactsDir, "responses", exchangeName(stage, n))
}

// LatestExchange returns the most recently written prompt and response
// paths for stage. Either may be empty when missing.
func LatestExchange(artifactsDir, stage string) (prompt, response string) {
	return latest(filepath.Join(artifactsDir, "prompts"), stage),
		latest(filepath.Join(artifactsDir, "responses"), stage)
}

func latest(dir, stage string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if name == stage+".md" || strings.HasPrefix(name, stage+"-") {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1])
}
