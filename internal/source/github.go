package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/tutorial"
)

const (
	defaultAPIBase = "https://api.github.com"
	defaultRawBase = "https://raw.githubusercontent.com"
)

// repoRef is a parsed GitHub repository URL.
type repoRef struct {
	Owner, Repo string
	Ref         string // empty means the default branch
	Subdir      string
}

// parseRepoURL accepts https://github.com/owner/repo[.git][/tree/ref[/subdir]].
func parseRepoURL(raw string) (repoRef, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return repoRef{}, fmt.Errorf("source: parsing repo URL: %w", err)
	}
	if u.Host != "github.com" && u.Host != "www.github.com" {
		return repoRef{}, fmt.Errorf("source: %q is not a github.com URL", raw)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return repoRef{}, fmt.Errorf("source: %q does not name an owner and repository", raw)
	}
	ref := repoRef{Owner: parts[0], Repo: strings.TrimSuffix(parts[1], ".git")}
	if len(parts) >= 4 && (parts[2] == "tree" || parts[2] == "blob") {
		ref.Ref = parts[3]
		ref.Subdir = strings.Join(parts[4:], "/")
	}
	return ref, nil
}

type treeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

type treeResponse struct {
	Tree      []treeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

type github struct {
	opts   *Options
	client *http.Client
	api    string
	raw    string
}

func crawlGitHub(ctx context.Context, opts *Options) ([]tutorial.FileRecord, error) {
	ref, err := parseRepoURL(opts.RepoURL)
	if err != nil {
		return nil, err
	}
	gh := &github{opts: opts, client: opts.HTTPClient, api: opts.APIBase, raw: opts.RawBase}
	if gh.client == nil {
		gh.client = http.DefaultClient
	}
	if gh.api == "" {
		gh.api = defaultAPIBase
	}
	if gh.raw == "" {
		gh.raw = defaultRawBase
	}

	if ref.Ref == "" {
		var repo struct {
			DefaultBranch string `json:"default_branch"`
		}
		if err := gh.getJSON(ctx, fmt.Sprintf("%s/repos/%s/%s", gh.api, ref.Owner, ref.Repo), &repo); err != nil {
			return nil, err
		}
		ref.Ref = repo.DefaultBranch
	}

	var tree treeResponse
	treeURL := fmt.Sprintf("%s/repos/%s/%s/git/trees/%s?recursive=1", gh.api, ref.Owner, ref.Repo, url.PathEscape(ref.Ref))
	if err := gh.getJSON(ctx, treeURL, &tree); err != nil {
		return nil, err
	}
	if tree.Truncated {
		opts.warn("github tree listing for %s/%s is truncated; some files are missing", ref.Owner, ref.Repo)
	}

	prefix := ""
	if ref.Subdir != "" {
		prefix = strings.TrimSuffix(ref.Subdir, "/") + "/"
	}
	var files []tutorial.FileRecord
	for _, e := range tree.Tree {
		if e.Type != "blob" || !strings.HasPrefix(e.Path, prefix) {
			continue
		}
		rel := strings.TrimPrefix(e.Path, prefix)
		if !opts.selected(rel) {
			continue
		}
		if opts.MaxFileSize > 0 && e.Size > opts.MaxFileSize {
			continue
		}
		content, err := gh.download(ctx, ref, e.Path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			opts.warn("skipping %s: %v", rel, err)
			continue
		}
		files = append(files, tutorial.FileRecord{Path: rel, Content: content})
	}
	return files, nil
}

func (gh *github) newRequest(ctx context.Context, u string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if gh.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+gh.opts.Token)
	}
	return req, nil
}

func (gh *github) getJSON(ctx context.Context, u string, v any) error {
	req, err := gh.newRequest(ctx, u)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := gh.client.Do(req)
	if err != nil {
		return fmt.Errorf("source: github request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return fmt.Errorf("source: github: %s not found (private repositories need a token)", u)
	case http.StatusUnauthorized:
		return fmt.Errorf("source: github: unauthorized; check the token")
	case http.StatusForbidden, http.StatusTooManyRequests:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return fmt.Errorf("source: github: rate limit exceeded (resets at %s); set a token to raise the limit",
				resp.Header.Get("X-RateLimit-Reset"))
		}
		return fmt.Errorf("source: github: access forbidden (%s)", resp.Status)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("source: github: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("source: decoding github response: %w", err)
	}
	return nil
}

func (gh *github) download(ctx context.Context, ref repoRef, filePath string) (string, error) {
	u := fmt.Sprintf("%s/%s/%s/%s/%s", gh.raw, ref.Owner, ref.Repo, url.PathEscape(ref.Ref), filePath)
	req, err := gh.newRequest(ctx, u)
	if err != nil {
		return "", err
	}
	resp, err := gh.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download returned %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	content, ok := decodeText(data)
	if !ok {
		return "", fmt.Errorf("not valid UTF-8 text")
	}
	return content, nil
}
