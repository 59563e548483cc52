package doctor

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/state"
)

var stages = []string{"fetch", "identify", "relate", "order", "write", "combine"}

type stubGen struct {
	prompt string
	answer string
}

func (s *stubGen) Generate(ctx context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.answer, nil
}

func TestTail_Short(t *testing.T) {
	path := t.TempDir() + "/r.md"
	os.WriteFile(path, []byte("line 1\nline 2\nline 3"), 0644)

	result := tail(path, "missing")
	if result != "line 1\nline 2\nline 3" {
		t.Errorf("expected full content, got %q", result)
	}
}

func TestTail_Long(t *testing.T) {
	path := t.TempDir() + "/r.md"
	var lines []string
	for i := 0; i < 300; i++ {
		lines = append(lines, "response line")
	}
	os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644)

	result := tail(path, "missing")
	if !strings.HasPrefix(result, "... (truncated to last 200 lines)") {
		t.Errorf("expected truncation prefix, got %q", result[:60])
	}
	if n := len(strings.Split(result, "\n")); n != 201 {
		t.Errorf("expected 201 lines, got %d", n)
	}
}

func TestTail_Missing(t *testing.T) {
	if got := tail("", "(none)"); got != "(none)" {
		t.Errorf("got %q", got)
	}
	if got := tail(t.TempDir()+"/nope.md", "(none)"); got != "(none)" {
		t.Errorf("got %q", got)
	}
}

func TestGatherTiming_WithData(t *testing.T) {
	dir := t.TempDir()
	timing := &state.Timing{
		Entries: []state.TimingEntry{
			{Stage: "identify", Duration: "1m 30s"},
			{Stage: "relate", Duration: "0m 45s"},
		},
	}
	timing.Flush(dir)

	result := gatherTiming(dir, "relate")
	if !strings.Contains(result, "relate") || !strings.Contains(result, "0m 45s") {
		t.Errorf("unexpected timing %q", result)
	}
	if strings.Contains(result, "1m 30s") {
		t.Error("other stages should be excluded")
	}
}

func TestGatherTiming_MissingEnd(t *testing.T) {
	dir := t.TempDir()
	timing := &state.Timing{Entries: []state.TimingEntry{{Stage: "write"}}}
	timing.Flush(dir)

	result := gatherTiming(dir, "write")
	if !strings.Contains(result, "did not complete") {
		t.Errorf("expected 'did not complete', got %q", result)
	}
}

func TestGatherTiming_NoData(t *testing.T) {
	if result := gatherTiming(t.TempDir(), "nonexistent"); result != "" {
		t.Errorf("expected empty string, got %q", result)
	}
}

func TestBuildPrompt_IncludesLatestExchange(t *testing.T) {
	dir := t.TempDir()
	if err := state.EnsureDir(dir); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(state.PromptPath(dir, "write", 1), []byte("first chapter prompt"), 0644)
	os.WriteFile(state.PromptPath(dir, "write", 2), []byte("second chapter prompt"), 0644)
	os.WriteFile(state.ResponsePath(dir, "write", 1), []byte("first chapter"), 0644)
	if err := state.SaveCheckpoint(dir, "fetch", []string{}); err != nil {
		t.Fatal(err)
	}

	p := buildPrompt(4, 6, "write", "write: chapter 2 (X): generating: quota exceeded", dir)
	for _, want := range []string{
		"Stage 5 of 6: write",
		"quota exceeded",
		"write-02.md",
		"second chapter prompt",
		"first chapter",
		"Completed stages: fetch",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}
	if strings.Contains(p, "first chapter prompt") {
		t.Error("only the latest prompt should be included")
	}
}

func TestRun_NotFailed(t *testing.T) {
	st := &state.State{Status: state.StatusCompleted}
	gen := &stubGen{}
	if err := Run(context.Background(), t.TempDir(), stages, st, gen); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if gen.prompt != "" {
		t.Error("model should not be called for a completed run")
	}
}

func TestRun_StageIndexOutOfRange(t *testing.T) {
	st := &state.State{Status: state.StatusFailed, StageIndex: 9}
	err := Run(context.Background(), t.TempDir(), stages, st, &stubGen{})
	if err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("expected 'out of range' error, got %v", err)
	}
}

func TestRun_AsksModel(t *testing.T) {
	st := &state.State{Status: state.StatusFailed, StageIndex: 1, LastError: "identify: missing fenced yaml block: no yaml"}
	gen := &stubGen{answer: "MODEL problem: retry."}
	if err := Run(context.Background(), t.TempDir(), stages, st, gen); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(gen.prompt, "missing fenced yaml block") || !strings.Contains(gen.prompt, "(no prompt saved for this stage)") {
		t.Fatalf("unexpected prompt:\n%s", gen.prompt)
	}
}
