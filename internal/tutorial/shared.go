package tutorial

import (
	"errors"
	"path/filepath"
)

// ErrMissingInput is returned when a stage runs before the stage that
// produces its input.
var ErrMissingInput = errors.New("missing stage input")

// Shared is the run context each stage reads from and adds to.
type Shared struct {
	ProjectName string `json:"project_name"`
	RepoURL     string `json:"repo_url,omitempty"`
	LocalDir    string `json:"local_dir,omitempty"`
	OutputDir   string `json:"output_dir"`

	Files        []FileRecord  `json:"files,omitempty"`
	Abstractions []Abstraction `json:"abstractions,omitempty"`
	Graph        *Graph        `json:"graph,omitempty"`
	Order        ChapterOrder  `json:"order,omitempty"`
	Chapters     []Chapter     `json:"chapters,omitempty"`
	Bundle       *Bundle       `json:"-"`
}

// Source is the repository origin linked from the index.
func (s *Shared) Source() string {
	if s.RepoURL != "" {
		return s.RepoURL
	}
	return s.LocalDir
}

// OutputPath is the directory the tutorial is written to.
func (s *Shared) OutputPath() string {
	return filepath.Join(s.OutputDir, s.ProjectName)
}

func (s *Shared) RequireFiles() error {
	if len(s.Files) == 0 {
		return missing("files", "fetch")
	}
	return nil
}

func (s *Shared) RequireAbstractions() error {
	if err := s.RequireFiles(); err != nil {
		return err
	}
	if s.Abstractions == nil {
		return missing("abstractions", StageIdentify)
	}
	return nil
}

func (s *Shared) RequireGraph() error {
	if err := s.RequireAbstractions(); err != nil {
		return err
	}
	if s.Graph == nil {
		return missing("relationships", StageRelate)
	}
	return nil
}

func (s *Shared) RequireOrder() error {
	if err := s.RequireGraph(); err != nil {
		return err
	}
	if s.Order == nil {
		return missing("chapter order", StageOrder)
	}
	return nil
}

func (s *Shared) RequireChapters() error {
	if err := s.RequireOrder(); err != nil {
		return err
	}
	if s.Chapters == nil {
		return missing("chapters", StageWrite)
	}
	return nil
}

func missing(what, stage string) error {
	return &missingError{what: what, stage: stage}
}

type missingError struct {
	what, stage string
}

func (e *missingError) Error() string {
	return e.what + " not available; run the " + e.stage + " stage first"
}

func (e *missingError) Unwrap() error { return ErrMissingInput }
