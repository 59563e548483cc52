package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/state"
	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/tutorial"
	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/ux"
)

const maxLines = 200

const diagPrompt = `You are diagnosing a failed run of tutor, a tool that turns a codebase into a tutorial through a pipeline of LLM calls. Analyze the context below and provide a concise diagnosis.

## Failed Stage
Stage %d of %d: %s

## Error
%s

## Last Prompt Sent (%s)
%s

## Last Model Response (%s)
%s
%s
Instructions:
1. Identify what went wrong. Common causes are a response without a fenced yaml block, indices out of range, a chapter order that repeats or omits abstractions, provider errors (authentication, quota, timeouts), and fetch errors (bad URL, rate limits, no matching files).
2. Classify this as a MODEL problem (the answer was malformed), a CONFIG problem (provider, patterns, credentials), or a SOURCE problem (the repository itself).
3. Suggest specific fixes.
4. Recommend the next command to run:
   - tutor run --retry N   (resume at the failed stage)
   - tutor run --from N    (re-run from stage N onward)
   - Fix the underlying issue first, then retry

Be direct and concise. Focus on actionable advice.`

// Run gathers failure context from artifacts and asks the model for a
// diagnosis, which is printed to stdout.
func Run(ctx context.Context, artifactsDir string, stages []string, st *state.State, gen tutorial.Generator) error {
	if st.Status != state.StatusFailed && st.Status != state.StatusInterrupted {
		fmt.Println("No failed run to diagnose.")
		return nil
	}

	if st.StageIndex >= len(stages) {
		return fmt.Errorf("stage index %d out of range (pipeline has %d stages)", st.StageIndex, len(stages))
	}
	stage := stages[st.StageIndex]

	diagText := buildPrompt(st.StageIndex, len(stages), stage, st.LastError, artifactsDir)

	fmt.Printf("\n%s%s══ Doctor: diagnosing stage %d/%d (%s) ══%s\n\n",
		ux.Bold, ux.Cyan, st.StageIndex+1, len(stages), stage, ux.Reset)

	diagnosis, err := gen.Generate(ctx, diagText)
	if err != nil {
		return fmt.Errorf("asking the model for a diagnosis: %w", err)
	}
	fmt.Println(strings.TrimSpace(diagnosis))
	ux.ResumeHint(st.StageIndex)
	return nil
}

func buildPrompt(index, total int, stage, lastError, artifactsDir string) string {
	promptPath, responsePath := state.LatestExchange(artifactsDir, stage)
	if lastError == "" {
		lastError = "(no error recorded)"
	}

	var extras []string
	if timing := gatherTiming(artifactsDir, stage); timing != "" {
		extras = append(extras, fmt.Sprintf("Timing: %s", timing))
	}
	if done := gatherCheckpoints(artifactsDir); done != "" {
		extras = append(extras, fmt.Sprintf("Completed stages: %s", done))
	}
	var execContext string
	if len(extras) > 0 {
		execContext = fmt.Sprintf("\n## Execution Context\n%s\n", strings.Join(extras, "\n"))
	}

	return fmt.Sprintf(diagPrompt, index+1, total, stage, lastError,
		displayName(promptPath), tail(promptPath, "(no prompt saved for this stage)"),
		displayName(responsePath), tail(responsePath, "(no response saved for this stage)"),
		execContext)
}

func displayName(path string) string {
	if path == "" {
		return "none"
	}
	return filepath.Base(path)
}

// tail returns the last maxLines lines of the file at path.
func tail(path, missing string) string {
	if path == "" {
		return missing
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return missing
	}
	lines := strings.Split(string(data), "\n")
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
		return fmt.Sprintf("... (truncated to last %d lines)\n%s", maxLines, strings.Join(lines, "\n"))
	}
	return string(data)
}

func gatherTiming(artifactsDir, stage string) string {
	timing, err := state.LoadTiming(artifactsDir)
	if err != nil {
		return ""
	}
	var parts []string
	for _, e := range timing.Entries {
		if e.Stage != stage {
			continue
		}
		if e.Duration != "" {
			parts = append(parts, fmt.Sprintf("%s started %s, duration %s",
				e.Stage, e.Start.Format("15:04:05"), e.Duration))
		} else {
			parts = append(parts, fmt.Sprintf("%s started %s (did not complete)",
				e.Stage, e.Start.Format("15:04:05")))
		}
	}
	return strings.Join(parts, "; ")
}

func gatherCheckpoints(artifactsDir string) string {
	entries, err := os.ReadDir(filepath.Join(artifactsDir, "checkpoints"))
	if err != nil {
		return ""
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, strings.TrimSuffix(e.Name(), ".json"))
		}
	}
	return strings.Join(names, ", ")
}
