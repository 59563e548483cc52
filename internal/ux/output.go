package ux

import (
	"fmt"
	"os"
	"time"
)

// ANSI color helpers
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
)

func timestamp() string {
	return time.Now().Format("15:04:05")
}

// StageHeader prints a timestamped stage header.
func StageHeader(index, total int, name, description string) {
	fmt.Printf("\n%s[%s]%s %s══════════════════════════════════════%s\n",
		Dim, timestamp(), Reset, Cyan, Reset)
	desc := ""
	if description != "" {
		desc = fmt.Sprintf(" — %s", description)
	}
	fmt.Printf("%s[%s]%s  %sStage %d/%d: %s%s%s\n",
		Dim, timestamp(), Reset, Bold, index+1, total, name, desc, Reset)
	fmt.Printf("%s[%s]%s %s══════════════════════════════════════%s\n",
		Dim, timestamp(), Reset, Cyan, Reset)
}

// StageComplete prints a stage completion message.
func StageComplete(index int, duration time.Duration) {
	m := int(duration.Minutes())
	s := int(duration.Seconds()) % 60
	fmt.Printf("%s[%s]%s  %s✓ Stage %d complete (%dm %02ds)%s\n",
		Dim, timestamp(), Reset, Green, index+1, m, s, Reset)
}

// StageFail prints a stage failure message.
func StageFail(index int, name, errMsg string) {
	fmt.Printf("%s[%s]%s  %s✗ Stage %d (%s) failed: %s%s\n",
		Dim, timestamp(), Reset, Red, index+1, name, errMsg, Reset)
}

// StageSkip prints a message for a stage restored from its checkpoint.
func StageSkip(index int, name string) {
	fmt.Printf("%s[%s]%s  %s– Stage %d (%s) restored from checkpoint%s\n",
		Dim, timestamp(), Reset, Dim, index+1, name, Reset)
}

// Retrying prints a stage retry message.
func Retrying(name string, attempt, max int, reason string) {
	fmt.Printf("%s[%s]%s  %s↺ Stage %q failed: %s. Retrying (attempt %d/%d)%s\n",
		Dim, timestamp(), Reset, Yellow, name, reason, attempt, max, Reset)
}

// Info prints an indented progress line within a stage.
func Info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// Warn prints a non-fatal problem to stderr.
func Warn(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%swarning:%s %s\n", Yellow, Reset, fmt.Sprintf(format, args...))
}

// ResumeHint prints a resume command hint.
func ResumeHint(stage int) {
	fmt.Printf("\n%sResume:%s tutor run --retry %d\n", Yellow, Reset, stage+1)
}

// Success prints a final success message.
func Success(total int, outputPath string) {
	fmt.Printf("\n%s[%s]%s  %s%s══ All %d stages complete ══%s\n",
		Dim, timestamp(), Reset, Bold, Green, total, Reset)
	fmt.Printf("  Tutorial written to %s\n\n", outputPath)
}
