package runner

import (
	"context"
	"fmt"

	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/llm"
	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/publish"
	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/source"
	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/state"
	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/tutorial"
	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/ux"
)

// Stage names in pipeline order.
const (
	StageFetch    = "fetch"
	StageIdentify = tutorial.StageIdentify
	StageRelate   = tutorial.StageRelate
	StageOrder    = tutorial.StageOrder
	StageWrite    = tutorial.StageWrite
	StageCombine  = "combine"
)

// Deps holds what the default stages need beyond the shared run context.
type Deps struct {
	LLM          llm.Client
	Source       source.Options
	Publisher    publish.Writer
	ArtifactsDir string

	MaxAbstractions     int
	StrictRelationships bool
}

// DefaultStages returns the six tutorial stages in order.
func DefaultStages(d Deps) []Stage {
	return []Stage{
		{
			Name:        StageFetch,
			Description: "Fetch source files",
			Run:         d.fetch,
			Output:      func(s *tutorial.Shared) any { return &s.Files },
		},
		{
			Name:        StageIdentify,
			Description: "Identify core abstractions",
			Run:         d.identify,
			Output:      func(s *tutorial.Shared) any { return &s.Abstractions },
		},
		{
			Name:        StageRelate,
			Description: "Analyze relationships",
			Run:         d.relate,
			Output:      func(s *tutorial.Shared) any { return &s.Graph },
		},
		{
			Name:        StageOrder,
			Description: "Order chapters",
			Run:         d.order,
			Output:      func(s *tutorial.Shared) any { return &s.Order },
		},
		{
			Name:        StageWrite,
			Description: "Write chapters",
			Run:         d.write,
			Output:      func(s *tutorial.Shared) any { return &s.Chapters },
		},
		{
			Name:        StageCombine,
			Description: "Combine and publish the tutorial",
			Run:         d.combine,
		},
	}
}

func (d Deps) fetch(ctx context.Context, s *tutorial.Shared) error {
	opts := d.Source
	opts.RepoURL, opts.Dir = s.RepoURL, s.LocalDir
	files, err := source.Acquire(ctx, opts)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("fetch: no files matched the include/exclude patterns")
	}
	s.Files = files
	ux.Info("fetched %d files from %s", len(files), s.Source())
	return nil
}

func (d Deps) identify(ctx context.Context, s *tutorial.Shared) error {
	if err := s.RequireFiles(); err != nil {
		return err
	}
	abs, err := tutorial.IdentifyAbstractions(ctx, d.generator(StageIdentify, 0), s.Files, s.ProjectName,
		tutorial.IdentifyOptions{MaxAbstractions: d.MaxAbstractions})
	if err != nil {
		return err
	}
	s.Abstractions = abs
	for i, a := range abs {
		ux.Info("%d. %s (%d files)", i, a.Name, len(a.Files))
	}
	return nil
}

func (d Deps) relate(ctx context.Context, s *tutorial.Shared) error {
	if err := s.RequireAbstractions(); err != nil {
		return err
	}
	g, err := tutorial.AnalyzeRelationships(ctx, d.generator(StageRelate, 0), s.Abstractions, s.Files, s.ProjectName)
	if err != nil {
		return err
	}
	if d.StrictRelationships {
		if err := tutorial.CheckCoverage(g, len(s.Abstractions)); err != nil {
			return err
		}
	} else if missing := tutorial.Coverage(g, len(s.Abstractions)); len(missing) > 0 {
		ux.Warn("abstractions %v take part in no relationship", missing)
	}
	s.Graph = &g
	ux.Info("%d relationships", len(g.Edges))
	return nil
}

// order also discards partial chapters, which were written for an earlier
// chapter order.
func (d Deps) order(ctx context.Context, s *tutorial.Shared) error {
	if err := s.RequireGraph(); err != nil {
		return err
	}
	order, err := tutorial.OrderChapters(ctx, d.generator(StageOrder, 0), s.Abstractions, *s.Graph, s.ProjectName)
	if err != nil {
		return err
	}
	if err := state.ClearChapters(d.ArtifactsDir); err != nil {
		return fmt.Errorf("order: clearing partial chapters: %w", err)
	}
	s.Order = order
	ux.Info("order: %v", []int(order))
	return nil
}

func (d Deps) write(ctx context.Context, s *tutorial.Shared) error {
	if err := s.RequireOrder(); err != nil {
		return err
	}
	plans, err := tutorial.PlanChapters(s.Order, s.Abstractions)
	if err != nil {
		return err
	}
	done, err := state.LoadChapters(d.ArtifactsDir)
	if err != nil {
		return fmt.Errorf("write: loading partial chapters: %w", err)
	}
	if len(done) > len(plans) {
		ux.Warn("discarding %d partial chapters that do not match the chapter order", len(done))
		if err := state.ClearChapters(d.ArtifactsDir); err != nil {
			return err
		}
		done = nil
	}
	if len(done) > 0 {
		ux.Info("reusing %d chapters from the interrupted run", len(done))
	}

	rec := d.generator(StageWrite, len(done)+1)
	chapters, err := tutorial.WriteChapters(ctx, rec, plans, s.Abstractions, s.Files, s.ProjectName, tutorial.WriteOptions{
		Done: done,
		OnChapter: func(ch tutorial.Chapter) error {
			rec.n = ch.Number + 1
			ux.Info("chapter %d: %s", ch.Number, ch.Name)
			return state.SaveChapter(d.ArtifactsDir, ch.Number, ch.Text)
		},
	})
	if err != nil {
		return err
	}
	s.Chapters = chapters
	return nil
}

func (d Deps) combine(ctx context.Context, s *tutorial.Shared) error {
	if err := s.RequireChapters(); err != nil {
		return err
	}
	b := tutorial.Assemble(tutorial.AssembleInput{
		Project:      s.ProjectName,
		Source:       s.Source(),
		Abstractions: s.Abstractions,
		Graph:        *s.Graph,
		Order:        s.Order,
		Chapters:     s.Chapters,
	})
	for _, skip := range b.Skipped {
		ux.Warn("combine: %s", skip)
	}
	s.Bundle = &b

	w := d.Publisher
	if w == nil {
		w = publish.Dir{Path: s.OutputPath()}
	}
	loc, err := w.Write(ctx, b)
	if err != nil {
		return err
	}
	ux.Info("wrote index.md and %d chapters to %s", len(b.Chapters), loc)
	return nil
}

func (d Deps) generator(stage string, n int) *recorder {
	return &recorder{client: d.LLM, dir: d.ArtifactsDir, stage: stage, n: n}
}

// recorder saves each prompt and response under the artifacts dir and tags
// calls with the stage name.
type recorder struct {
	client llm.Client
	dir    string
	stage  string
	// n numbers the next exchange; 0 for stages with a single call.
	n int
}

// GenerateError marks a failure of the model call itself, as opposed to a
// failure validating its answer.
type GenerateError struct {
	Stage string
	Err   error
}

func (e *GenerateError) Error() string { return e.Err.Error() }
func (e *GenerateError) Unwrap() error { return e.Err }

func (r *recorder) Generate(ctx context.Context, prompt string) (string, error) {
	if r.client == nil {
		return "", &GenerateError{Stage: r.stage, Err: llm.NewPermanentError(fmt.Errorf("no model configured"))}
	}
	r.save(state.PromptPath(r.dir, r.stage, r.n), prompt)
	resp, err := r.client.Generate(llm.WithStage(ctx, r.stage), prompt)
	if err != nil {
		return "", &GenerateError{Stage: r.stage, Err: err}
	}
	r.save(state.ResponsePath(r.dir, r.stage, r.n), resp)
	return resp, nil
}

func (r *recorder) save(path, text string) {
	if r.dir == "" {
		return
	}
	if err := state.WriteFileAtomic(path, []byte(text), 0644); err != nil {
		ux.Warn("saving %s: %v", path, err)
	}
}
