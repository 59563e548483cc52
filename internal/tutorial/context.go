package tutorial

import (
	"fmt"
	"sort"
	"strings"
)

// BuildContext concatenates files into one index-tagged text block and returns
// it with a parallel "- index # path" listing, one line per file.
func BuildContext(files []FileRecord) (text, listing string) {
	var body, list strings.Builder
	for i, f := range files {
		fmt.Fprintf(&body, "--- File Index %d: %s ---\n%s\n\n", i, f.Path, f.Content)
		if i > 0 {
			list.WriteByte('\n')
		}
		fmt.Fprintf(&list, "- %d # %s", i, f.Path)
	}
	return body.String(), list.String()
}

// Snippet is the content of one selected file.
type Snippet struct {
	Index   int
	Path    string
	Content string
}

// Key returns the self-describing "index # path" key used in prompts.
func (s Snippet) Key() string {
	return fmt.Sprintf("%d # %s", s.Index, s.Path)
}

// Snippets is an ordered selection of file contents.
type Snippets []Snippet

// Map returns the selection keyed by "index # path".
func (ss Snippets) Map() map[string]string {
	m := make(map[string]string, len(ss))
	for _, s := range ss {
		m[s.Key()] = s.Content
	}
	return m
}

// SelectContent returns the files at the given indices, in the order given.
// Indices outside the file list are skipped.
func SelectContent(files []FileRecord, indices []int) Snippets {
	var out Snippets
	for _, i := range indices {
		if i < 0 || i >= len(files) {
			continue
		}
		out = append(out, Snippet{Index: i, Path: files[i].Path, Content: files[i].Content})
	}
	return out
}

// sortedUnique returns the distinct values of xs in ascending order.
func sortedUnique(xs []int) []int {
	seen := make(map[int]bool, len(xs))
	out := make([]int, 0, len(xs))
	for _, x := range xs {
		if seen[x] {
			continue
		}
		seen[x] = true
		out = append(out, x)
	}
	sort.Ints(out)
	return out
}
