package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/llm"
	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/state"
	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/tutorial"
	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/ux"
)

// Stage is one step of the pipeline.
type Stage struct {
	Name        string
	Description string
	Run         func(ctx context.Context, s *tutorial.Shared) error
	// Output returns a pointer to the Shared field the stage fills. It is
	// checkpointed when the stage completes and restored on resume. Nil for
	// stages with no persistent result.
	Output func(s *tutorial.Shared) any
}

// Runner drives the stage state machine.
type Runner struct {
	Stages       []Stage
	Shared       *tutorial.Shared
	State        *state.State
	ArtifactsDir string
	Timing       *state.Timing

	// Retries is the number of extra attempts a failed stage gets when the
	// failure is a validation error or a transient model error.
	Retries   int
	RetryWait time.Duration
}

// StageNames returns the names of stages in order.
func StageNames(stages []Stage) []string {
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name
	}
	return names
}

// StageIndex returns the index of the named stage, or -1.
func StageIndex(stages []Stage, name string) int {
	for i, s := range stages {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// failAndHint sets the failure status, saves state (warning on error),
// flushes timing, prints a resume hint, and returns the given error.
func (r *Runner) failAndHint(status string, err error) error {
	r.State.Fail(err)
	r.State.Status = status
	if saveErr := r.State.Save(r.ArtifactsDir); saveErr != nil {
		ux.Warn("failed to save state: %v", saveErr)
	}
	if r.Timing != nil {
		if flushErr := r.Timing.Flush(r.ArtifactsDir); flushErr != nil {
			ux.Warn("failed to flush timing: %v", flushErr)
		}
	}
	ux.ResumeHint(r.State.StageIndex)
	return err
}

// Restore loads the checkpoints of every stage before the current one.
func (r *Runner) Restore() error {
	for i := 0; i < r.State.StageIndex && i < len(r.Stages); i++ {
		st := r.Stages[i]
		if st.Output != nil {
			if err := state.LoadCheckpoint(r.ArtifactsDir, st.Name, st.Output(r.Shared)); err != nil {
				return fmt.Errorf("restoring stage %q: %w", st.Name, err)
			}
		}
		ux.StageSkip(i, st.Name)
	}
	return nil
}

// Run executes the pipeline from the current state.
func (r *Runner) Run(ctx context.Context) error {
	if err := state.EnsureDir(r.ArtifactsDir); err != nil {
		return err
	}

	timing, err := state.LoadTiming(r.ArtifactsDir)
	if err != nil {
		return fmt.Errorf("loading timing: %w", err)
	}
	r.Timing = timing

	if err := r.Restore(); err != nil {
		return r.failAndHint(state.StatusFailed, err)
	}

	total := len(r.Stages)
	r.State.Status = state.StatusRunning
	r.State.LastError = ""
	if err := r.State.Save(r.ArtifactsDir); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}

	for r.State.StageIndex < total {
		i := r.State.StageIndex
		st := r.Stages[i]

		if ctx.Err() != nil {
			return r.failAndHint(state.StatusInterrupted, ctx.Err())
		}

		ux.StageHeader(i, total, st.Name, st.Description)
		r.Timing.AddStart(st.Name)
		start := time.Now()

		err := r.runWithRetry(ctx, st)

		if ctx.Err() != nil {
			return r.failAndHint(state.StatusInterrupted, ctx.Err())
		}
		if err != nil {
			ux.StageFail(i, st.Name, err.Error())
			return r.failAndHint(state.StatusFailed, fmt.Errorf("stage %q failed: %w", st.Name, err))
		}

		if st.Output != nil {
			if err := state.SaveCheckpoint(r.ArtifactsDir, st.Name, st.Output(r.Shared)); err != nil {
				return r.failAndHint(state.StatusFailed, fmt.Errorf("checkpointing stage %q: %w", st.Name, err))
			}
		}

		duration := time.Since(start)
		r.Timing.AddEnd(st.Name)
		if err := r.Timing.Flush(r.ArtifactsDir); err != nil {
			ux.Warn("failed to flush timing: %v", err)
		}
		r.State.Advance()
		r.State.Status = state.StatusRunning
		if err := r.State.Save(r.ArtifactsDir); err != nil {
			return fmt.Errorf("saving state after stage advance: %w", err)
		}
		ux.StageComplete(i, duration)
	}

	r.State.Status = state.StatusCompleted
	if err := r.State.Save(r.ArtifactsDir); err != nil {
		return fmt.Errorf("saving final state: %w", err)
	}
	if err := r.Timing.Flush(r.ArtifactsDir); err != nil {
		return fmt.Errorf("flushing timing: %w", err)
	}
	ux.Info("stage time: %s", r.Timing.Total().Round(time.Second))
	ux.Success(total, r.Shared.OutputPath())
	return nil
}

// runWithRetry runs a stage, repeating it while the failure is retryable.
// Repeated attempts bypass the response cache so the model is asked again.
func (r *Runner) runWithRetry(ctx context.Context, st Stage) error {
	max := r.Retries + 1
	runCtx := ctx
	for attempt := 1; ; attempt++ {
		err := st.Run(runCtx, r.Shared)
		if err == nil {
			return nil
		}
		if attempt >= max || ctx.Err() != nil || !Retryable(err) {
			return err
		}
		ux.Retrying(st.Name, attempt+1, max, err.Error())
		if r.RetryWait > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.RetryWait):
			}
		}
		runCtx = llm.WithoutCache(ctx)
	}
}

// Retryable reports whether asking the model again may fix err: the
// response failed validation, or the model call failed transiently.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if tutorial.IsValidation(err) {
		return true
	}
	var ge *GenerateError
	return errors.As(err, &ge) && !llm.IsPermanent(err)
}

// DryRunPrint prints the stage plan without executing.
func (r *Runner) DryRunPrint() {
	total := len(r.Stages)
	fmt.Printf("\n%sDry run — %d stages:%s\n\n", ux.Bold, total, ux.Reset)
	for i, st := range r.Stages {
		marker := ""
		if i < r.State.StageIndex {
			marker = fmt.Sprintf(" %s(from checkpoint)%s", ux.Dim, ux.Reset)
		}
		fmt.Printf("  %s%d.%s %s%s%s", ux.Cyan, i+1, ux.Reset, ux.Bold, st.Name, ux.Reset)
		if st.Description != "" {
			fmt.Printf(" — %s", st.Description)
		}
		fmt.Println(marker)
	}
	fmt.Printf("\n  source: %s\n", r.Shared.Source())
	fmt.Printf("  output: %s\n", r.Shared.OutputPath())
	fmt.Println()
}
