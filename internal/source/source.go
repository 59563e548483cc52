// Package source fetches the files a tutorial is generated from, either from
// a local directory or from a GitHub repository.
package source

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"

	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/tutorial"
	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/ux"
)

// Options selects what to fetch. Exactly one of RepoURL and Dir is set.
type Options struct {
	RepoURL string
	Dir     string
	Token   string // GitHub token, optional

	Include     []string
	Exclude     []string
	MaxFileSize int64 // 0 means no limit

	// Warn reports skipped files. Defaults to ux.Warn.
	Warn func(format string, args ...any)

	HTTPClient *http.Client
	APIBase    string // defaults to https://api.github.com
	RawBase    string // defaults to https://raw.githubusercontent.com
}

func (o *Options) warn(format string, args ...any) {
	if o.Warn != nil {
		o.Warn(format, args...)
		return
	}
	ux.Warn(format, args...)
}

// Acquire fetches the selected files, sorted by path.
func Acquire(ctx context.Context, opts Options) ([]tutorial.FileRecord, error) {
	var (
		files []tutorial.FileRecord
		err   error
	)
	switch {
	case opts.RepoURL != "" && opts.Dir != "":
		return nil, fmt.Errorf("source: repo URL and directory are mutually exclusive")
	case opts.RepoURL != "":
		files, err = crawlGitHub(ctx, &opts)
	case opts.Dir != "":
		files, err = crawlLocal(ctx, &opts)
	default:
		return nil, fmt.Errorf("source: no repo URL or directory given")
	}
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// ProjectName derives a project name from the repository URL or directory.
func ProjectName(repoURL, dir string) string {
	if repoURL != "" {
		u := strings.TrimRight(repoURL, "/")
		if ref, err := parseRepoURL(u); err == nil {
			return ref.Repo
		}
		return strings.TrimSuffix(path.Base(u), ".git")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	return filepath.Base(abs)
}

// selected reports whether rel passes the include and exclude patterns.
func (o *Options) selected(rel string) bool {
	if len(o.Include) > 0 && !matchAny(o.Include, rel) {
		return false
	}
	return !matchAny(o.Exclude, rel)
}

// matchAny matches rel against doublestar patterns. A pattern without a
// slash is also tried against the base name, so "*.py" selects Python
// files at any depth.
func matchAny(patterns []string, rel string) bool {
	base := path.Base(rel)
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if !strings.Contains(p, "/") {
			if ok, _ := doublestar.Match(p, base); ok {
				return true
			}
		}
	}
	return false
}
