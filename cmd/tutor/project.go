package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cli "github.com/urfave/cli/v3"

	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/config"
	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/publish"
	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/source"
	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/state"
	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/tutorial"
)

// configFlags override .tutor.yaml values.
func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Usage: "Path to the config file (default: nearest .tutor.yaml)"},
		&cli.StringFlag{Name: "repo", Usage: "GitHub repository URL"},
		&cli.StringFlag{Name: "dir", Usage: "Local source directory"},
		&cli.StringFlag{Name: "name", Usage: "Project name (default: derived from repo or dir)"},
		&cli.StringFlag{Name: "output", Usage: "Output directory"},
		&cli.StringSliceFlag{Name: "include", Usage: "Include pattern (repeatable)"},
		&cli.StringSliceFlag{Name: "exclude", Usage: "Exclude pattern (repeatable)"},
		&cli.IntFlag{Name: "max-file-size", Usage: "Skip files larger than this many bytes"},
		&cli.IntFlag{Name: "max-abstractions", Usage: "Maximum number of abstractions"},
		&cli.StringFlag{Name: "provider", Usage: "Model provider (gemini, ollama, openai, script)"},
		&cli.StringFlag{Name: "model", Usage: "Model name"},
		&cli.BoolFlag{Name: "no-cache", Usage: "Disable the LLM response cache"},
		&cli.BoolFlag{Name: "strict-relationships", Usage: "Fail when an abstraction takes part in no relationship"},
	}
}

type project struct {
	cfg          *config.Config
	shared       *tutorial.Shared
	artifactsDir string
}

// loadProject reads the config file, applies flag overrides and validates
// the result.
func loadProject(cmd *cli.Command) (*project, error) {
	path := cmd.String("config")
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		path = config.Find(cwd)
	}
	cfg, err := config.LoadOptional(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if path != "" {
		resolveRelative(cfg, filepath.Dir(path))
	}
	applyFlags(cfg, cmd)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	name := cfg.Name
	if name == "" {
		name = source.ProjectName(cfg.Repo, cfg.Dir)
	}
	return &project{
		cfg: cfg,
		shared: &tutorial.Shared{
			ProjectName: name,
			RepoURL:     cfg.Repo,
			LocalDir:    cfg.Dir,
			OutputDir:   cfg.Output,
		},
		artifactsDir: state.ArtifactsDir(cfg.Output, name),
	}, nil
}

// resolveRelative makes paths from the config file relative to its directory.
func resolveRelative(cfg *config.Config, base string) {
	for _, p := range []*string{&cfg.Dir, &cfg.Output, &cfg.LLM.Script, &cfg.LLM.Cache.Dir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

func applyFlags(cfg *config.Config, cmd *cli.Command) {
	if cmd.IsSet("repo") {
		cfg.Repo, cfg.Dir = cmd.String("repo"), ""
	}
	if cmd.IsSet("dir") {
		cfg.Dir, cfg.Repo = cmd.String("dir"), ""
	}
	if cmd.IsSet("name") {
		cfg.Name = cmd.String("name")
	}
	if cmd.IsSet("output") {
		cfg.Output = cmd.String("output")
	}
	if cmd.IsSet("include") {
		cfg.Include = cmd.StringSlice("include")
	}
	if cmd.IsSet("exclude") {
		cfg.Exclude = cmd.StringSlice("exclude")
	}
	if cmd.IsSet("max-file-size") {
		cfg.MaxFileSize = int64(cmd.Int("max-file-size"))
	}
	if cmd.IsSet("max-abstractions") {
		cfg.MaxAbstractions = int(cmd.Int("max-abstractions"))
	}
	if cmd.IsSet("provider") {
		// Provider defaults apply to the new provider.
		cfg.LLM.Provider = cmd.String("provider")
		cfg.LLM.Model, cfg.LLM.BaseURL, cfg.LLM.APIKeyEnv = "", "", ""
	}
	if cmd.IsSet("model") {
		cfg.LLM.Model = cmd.String("model")
	}
	if cmd.Bool("no-cache") {
		off := false
		cfg.LLM.Cache.Enabled = &off
	}
	if cmd.Bool("strict-relationships") {
		cfg.Pipeline.StrictRelationships = true
	}
}

// loadState resumes an unfinished run, or starts a new one.
func (p *project) loadState() (*state.State, error) {
	if !state.Exists(p.artifactsDir) {
		return state.New(p.shared.ProjectName), nil
	}
	st, err := state.Load(p.artifactsDir)
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	if st.Status == state.StatusCompleted || st.Project != p.shared.ProjectName {
		return state.New(p.shared.ProjectName), nil
	}
	return st, nil
}

func (p *project) sourceOptions() source.Options {
	exclude := p.cfg.Exclude
	if rel, ok := within(p.cfg.Dir, p.cfg.Output); ok {
		// Never feed earlier tutorials back in.
		exclude = append(append([]string{}, exclude...), filepath.ToSlash(rel)+"/**")
	}
	return source.Options{
		Token:       p.cfg.GitHubToken(),
		Include:     p.cfg.Include,
		Exclude:     exclude,
		MaxFileSize: p.cfg.MaxFileSize,
	}
}

// within returns target relative to dir when target lies inside dir.
func within(dir, target string) (string, bool) {
	if dir == "" {
		return "", false
	}
	absDir, err1 := filepath.Abs(dir)
	absTarget, err2 := filepath.Abs(target)
	if err1 != nil || err2 != nil {
		return "", false
	}
	rel, err := filepath.Rel(absDir, absTarget)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

// publisher writes to the output directory and, when configured, to S3.
func (p *project) publisher() (publish.Writer, error) {
	w := publish.Multi{publish.Dir{Path: p.shared.OutputPath()}}
	s3 := p.cfg.Publish.S3
	if s3 == nil {
		return w, nil
	}
	remote, err := publish.NewS3(publish.S3Config{
		Endpoint:  s3.Endpoint,
		Region:    s3.Region,
		AccessKey: os.Getenv(s3.AccessKeyEnv),
		SecretKey: os.Getenv(s3.SecretKeyEnv),
		Bucket:    s3.Bucket,
		Prefix:    s3.Prefix,
		UseSSL:    *s3.UseSSL,
	}, p.shared.ProjectName)
	if err != nil {
		return nil, err
	}
	return append(w, remote), nil
}
