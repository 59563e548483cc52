package ux

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/state"
)

// RenderStatus prints the full status display for a project's last run.
func RenderStatus(stages []string, st *state.State, artifactsDir string) {
	timing, _ := state.LoadTiming(artifactsDir)

	// Header
	fmt.Printf("%sProject:%s %s\n", Bold, Reset, st.Project)
	if st.RunID != "" {
		fmt.Printf("%sRun:%s     %s\n", Bold, Reset, st.RunID)
	}
	if st.StageIndex >= len(stages) {
		fmt.Printf("%sState:%s   %s%scompleted%s\n", Bold, Reset, Green, Bold, Reset)
	} else {
		fmt.Printf("%sState:%s   %d/%d (%s) — %s\n",
			Bold, Reset, st.StageIndex+1, len(stages), stages[st.StageIndex], st.Status)
	}
	if st.LastError != "" {
		fmt.Printf("%sError:%s   %s%s%s\n", Bold, Reset, Red, st.LastError, Reset)
	}

	// Completed stages
	if st.StageIndex > 0 {
		fmt.Printf("\n%sCompleted:%s\n", Bold, Reset)
		for i := 0; i < st.StageIndex && i < len(stages); i++ {
			dur := findDuration(timing, stages[i])
			fmt.Printf("  %s%d%s  %-20s %sdone%s  %s\n",
				Dim, i+1, Reset, stages[i], Green, Reset, dur)
		}
	}

	// Remaining stages
	if st.StageIndex < len(stages) {
		fmt.Printf("\n%sRemaining:%s\n", Bold, Reset)
		for i := st.StageIndex; i < len(stages); i++ {
			marker := "  "
			if i == st.StageIndex {
				marker = fmt.Sprintf("%s→%s ", Yellow, Reset)
			}
			fmt.Printf("  %s%s%d%s  %s\n", marker, Dim, i+1, Reset, stages[i])
		}
	}

	// Artifacts listing
	fmt.Printf("\n%sArtifacts:%s\n", Bold, Reset)
	entries, err := os.ReadDir(artifactsDir)
	if err != nil {
		fmt.Printf("  %s(none)%s\n", Dim, Reset)
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			subEntries, _ := os.ReadDir(filepath.Join(artifactsDir, e.Name()))
			if len(subEntries) > 0 {
				first := subEntries[0].Name()
				last := subEntries[len(subEntries)-1].Name()
				if first == last {
					fmt.Printf("  %s/%s/%s\n", artifactsDir, e.Name(), first)
				} else {
					fmt.Printf("  %s/%s/%s .. %s\n", artifactsDir, e.Name(), first, last)
				}
			}
		} else {
			fmt.Printf("  %s/%s\n", artifactsDir, e.Name())
		}
	}
	fmt.Println()
}

func findDuration(timing *state.Timing, stage string) string {
	if timing == nil {
		return ""
	}
	for i := len(timing.Entries) - 1; i >= 0; i-- {
		if timing.Entries[i].Stage == stage && timing.Entries[i].Duration != "" {
			return fmt.Sprintf("(%s)", timing.Entries[i].Duration)
		}
	}
	return ""
}
