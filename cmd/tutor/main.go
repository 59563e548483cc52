package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/urfave/cli/v3"

	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/docs"
	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/doctor"
	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/llm"
	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/runner"
	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/scaffold"
	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/state"
	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/ux"
)

func main() {
	// A missing .env is not an error.
	_ = godotenv.Load()

	app := &cli.Command{
		Name:        "tutor",
		Usage:       "Turn a codebase into a beginner-friendly tutorial",
		Description: "Run 'tutor docs' for documentation on configuration, stages, providers, and output.",
		Commands: []*cli.Command{
			initCmd(),
			runCmd(),
			statusCmd(),
			doctorCmd(),
			docsCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%serror:%s %v\n", ux.Red, ux.Reset, err)
		os.Exit(1)
	}
}

func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Generate a tutorial",
		Flags: append(configFlags(),
			&cli.IntFlag{Name: "retry", Usage: "Resume at stage N (1-indexed), reusing partial chapters"},
			&cli.IntFlag{Name: "from", Usage: "Re-run from stage N (1-indexed)"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Print the stage plan without executing"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := loadProject(cmd)
			if err != nil {
				return err
			}
			total := len(runner.DefaultStages(runner.Deps{}))

			st, err := p.loadState()
			if err != nil {
				return err
			}

			// Handle --retry and --from (mutually exclusive)
			retry := int(cmd.Int("retry"))
			from := int(cmd.Int("from"))
			if retry > 0 && from > 0 {
				return fmt.Errorf("--retry and --from are mutually exclusive")
			}
			if retry > total {
				return fmt.Errorf("--retry %d exceeds stage count (%d)", retry, total)
			}
			if from > total {
				return fmt.Errorf("--from %d exceeds stage count (%d)", from, total)
			}
			if retry > 0 {
				st.SetStage(retry - 1)
			}
			if from > 0 {
				st.SetStage(from - 1)
			}

			r := &runner.Runner{
				Shared:       p.shared,
				State:        st,
				ArtifactsDir: p.artifactsDir,
				Retries:      p.cfg.Pipeline.Retries,
				RetryWait:    time.Duration(p.cfg.Pipeline.RetryWait) * time.Second,
			}

			if cmd.Bool("dry-run") {
				r.Stages = runner.DefaultStages(runner.Deps{})
				r.DryRunPrint()
				return nil
			}

			if err := state.EnsureDir(p.artifactsDir); err != nil {
				return err
			}
			if from > 0 {
				if err := state.ClearChapters(p.artifactsDir); err != nil {
					return fmt.Errorf("clearing partial chapters: %w", err)
				}
			}

			if err := llm.Preflight(p.cfg.LLM); err != nil {
				return err
			}
			publisher, err := p.publisher()
			if err != nil {
				return err
			}
			client, err := llm.New(ctx, p.cfg.LLM, llm.NewLogger())
			if err != nil {
				return err
			}
			defer client.Close()

			r.Stages = runner.DefaultStages(runner.Deps{
				LLM:                 client,
				Source:              p.sourceOptions(),
				Publisher:           publisher,
				ArtifactsDir:        p.artifactsDir,
				MaxAbstractions:     p.cfg.MaxAbstractions,
				StrictRelationships: p.cfg.Pipeline.StrictRelationships,
			})

			if err := st.Save(p.artifactsDir); err != nil {
				return err
			}

			// Set up signal handling
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
			defer stop()

			return r.Run(ctx)
		},
	}
}

func statusCmd() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the state of the last run",
		Flags: configFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := loadProject(cmd)
			if err != nil {
				return err
			}
			if !state.Exists(p.artifactsDir) {
				fmt.Printf("No run found for %s (looked in %s).\n", p.shared.ProjectName, p.artifactsDir)
				return nil
			}
			st, err := state.Load(p.artifactsDir)
			if err != nil {
				return fmt.Errorf("loading state: %w", err)
			}
			ux.RenderStatus(runner.StageNames(runner.DefaultStages(runner.Deps{})), st, p.artifactsDir)
			return nil
		},
	}
}

func doctorCmd() *cli.Command {
	return &cli.Command{
		Name:  "doctor",
		Usage: "Diagnose a failed run using the configured model",
		Flags: configFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := loadProject(cmd)
			if err != nil {
				return err
			}
			st, err := state.Load(p.artifactsDir)
			if err != nil {
				return fmt.Errorf("loading state: %w", err)
			}
			client, err := llm.New(ctx, p.cfg.LLM, llm.NewLogger())
			if err != nil {
				return err
			}
			defer client.Close()

			names := runner.StageNames(runner.DefaultStages(runner.Deps{}))
			return doctor.Run(llm.WithStage(ctx, "doctor"), p.artifactsDir, names, st, client)
		},
	}
}

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write an example .tutor.yaml in the current directory",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "repo", Usage: "GitHub repository URL to document"},
			&cli.StringFlag{Name: "dir", Usage: "Local directory to document (default \".\")"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir, err := os.Getwd()
			if err != nil {
				return err
			}
			return scaffold.Init(dir, scaffold.Options{Repo: cmd.String("repo"), Dir: cmd.String("dir")})
		},
	}
}

func docsCmd() *cli.Command {
	return &cli.Command{
		Name:      "docs",
		Usage:     "Show documentation",
		ArgsUsage: "[topic]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				fmt.Print("\nAvailable topics:\n\n")
				for _, t := range docs.All() {
					fmt.Printf("  %-14s %s\n", t.Name, t.Summary)
				}
				fmt.Println("\nRun 'tutor docs <topic>' to read a topic.")
				return nil
			}
			t, err := docs.Get(name)
			if err != nil {
				return err
			}
			fmt.Print(t.Content)
			return nil
		},
	}
}
