package tutorial

import (
	"context"
	"fmt"
)

// DefaultMaxAbstractions caps how many abstractions the model is asked for.
const DefaultMaxAbstractions = 10

// IdentifyOptions tunes the abstraction prompt.
type IdentifyOptions struct {
	MaxAbstractions int
}

// IdentifyAbstractions asks the model for the core abstractions of the
// project and validates the answer against the fetched files.
func IdentifyAbstractions(ctx context.Context, gen Generator, files []FileRecord, project string, opts IdentifyOptions) ([]Abstraction, error) {
	resp, err := gen.Generate(ctx, identifyPrompt(files, project, opts))
	if err != nil {
		return nil, fmt.Errorf("%s: generating: %w", StageIdentify, err)
	}
	return ParseAbstractions(resp, len(files))
}

// ParseAbstractions validates an identify response. Each abstraction's Files
// is the sorted, de-duplicated set of its file indices.
func ParseAbstractions(response string, fileCount int) ([]Abstraction, error) {
	v, err := decodeYAML(StageIdentify, response)
	if err != nil {
		return nil, err
	}
	items, ok := v.([]any)
	if !ok {
		return nil, newError(StageIdentify, ErrSchema, nil, "top-level value is %s, want a sequence", kindOf(v))
	}

	out := make([]Abstraction, 0, len(items))
	for i, item := range items {
		m, ok := asMap(item)
		if !ok {
			return nil, newError(StageIdentify, ErrSchema, nil, "entry %d is %s, want a mapping: %v", i, kindOf(item), item)
		}
		if k := missingKey(m, "name", "description", "file_indices"); k != "" {
			return nil, newError(StageIdentify, ErrSchema, nil, "entry %d is missing %q: %v", i, k, item)
		}
		name := text(m["name"])
		desc, ok := m["description"].(string)
		if !ok {
			return nil, newError(StageIdentify, ErrSchema, nil, "description of %q is %s, want a string", name, kindOf(m["description"]))
		}
		rawIndices, ok := m["file_indices"].([]any)
		if !ok {
			return nil, newError(StageIdentify, ErrSchema, nil, "file_indices of %q is %s, want a sequence", name, kindOf(m["file_indices"]))
		}

		indices := make([]int, 0, len(rawIndices))
		for _, entry := range rawIndices {
			idx, err := ParseIndex(entry)
			if err != nil {
				return nil, newError(StageIdentify, ErrParse, nil, "file index entry %v in abstraction %q: %v", entry, name, err)
			}
			if idx < 0 || idx >= fileCount {
				return nil, newError(StageIdentify, ErrRange, []int{idx},
					"file index %d in abstraction %q is outside the valid range [0, %d)", idx, name, fileCount)
			}
			indices = append(indices, idx)
		}

		out = append(out, Abstraction{
			Name:        name,
			Description: desc,
			Files:       sortedUnique(indices),
		})
	}
	return out, nil
}

func identifyPrompt(files []FileRecord, project string, opts IdentifyOptions) string {
	hi := opts.MaxAbstractions
	if hi <= 0 {
		hi = DefaultMaxAbstractions
	}
	lo := 5
	if hi < lo {
		lo = hi
	}
	body, listing := BuildContext(files)
	return fmt.Sprintf(identifyTemplate, project, body, lo, hi, listing, hi)
}

const identifyTemplate = `
For the project ` + "`%s`" + `:

Codebase Context:
%s

Analyze the codebase context.
Identify the top %d-%d core most important abstractions to help those new to the codebase.

For each abstraction, provide:
1. A concise ` + "`name`" + `.
2. A beginner-friendly ` + "`description`" + ` explaining what it is with a simple analogy, in around 100 words.
3. A list of relevant ` + "`file_indices`" + ` (integers) using the format ` + "`idx # path/comment`" + `.

List of file indices and paths present in the context:
%s

Format the output as a YAML list of dictionaries:

` + "```yaml" + `
- name: Query Processing
  description: |
    Explains what the abstraction does.
    It's like a central dispatcher routing requests.
  file_indices:
    - 0 # path/to/file1.py
    - 3 # path/to/related.py
- name: Query Optimization
  description: |
    Another core concept, similar to a blueprint for objects.
  file_indices:
    - 5 # path/to/another.js
# ... up to %d abstractions
` + "```"
