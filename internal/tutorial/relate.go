package tutorial

import (
	"context"
	"fmt"
	"strings"
)

// AnalyzeRelationships asks the model for a project summary and the directed
// interactions between abstractions.
func AnalyzeRelationships(ctx context.Context, gen Generator, abstractions []Abstraction, files []FileRecord, project string) (Graph, error) {
	resp, err := gen.Generate(ctx, relatePrompt(abstractions, files, project))
	if err != nil {
		return Graph{}, fmt.Errorf("%s: generating: %w", StageRelate, err)
	}
	return ParseRelationships(resp, len(abstractions))
}

// ParseRelationships validates a relate response against n abstractions.
// It does not check that every abstraction takes part in an edge; see Coverage.
func ParseRelationships(response string, n int) (Graph, error) {
	v, err := decodeYAML(StageRelate, response)
	if err != nil {
		return Graph{}, err
	}
	m, ok := asMap(v)
	if !ok {
		return Graph{}, newError(StageRelate, ErrSchema, nil, "top-level value is %s, want a mapping", kindOf(v))
	}
	if k := missingKey(m, "summary", "relationships"); k != "" {
		return Graph{}, newError(StageRelate, ErrSchema, nil, "missing %q", k)
	}
	summary, ok := m["summary"].(string)
	if !ok {
		return Graph{}, newError(StageRelate, ErrSchema, nil, "summary is %s, want a string", kindOf(m["summary"]))
	}
	rels, ok := m["relationships"].([]any)
	if !ok {
		return Graph{}, newError(StageRelate, ErrSchema, nil, "relationships is %s, want a sequence", kindOf(m["relationships"]))
	}

	edges := make([]Relationship, 0, len(rels))
	for i, item := range rels {
		rel, ok := asMap(item)
		if !ok {
			return Graph{}, newError(StageRelate, ErrSchema, nil, "relationship %d is %s, want a mapping: %v", i, kindOf(item), item)
		}
		if k := missingKey(rel, "from_abstraction", "to_abstraction", "label"); k != "" {
			return Graph{}, newError(StageRelate, ErrSchema, nil, "relationship %d is missing %q: %v", i, k, item)
		}
		label, ok := rel["label"].(string)
		if !ok {
			return Graph{}, newError(StageRelate, ErrSchema, nil, "relationship %d label is %s, want a string: %v", i, kindOf(rel["label"]), item)
		}
		from, err := ParseIndex(rel["from_abstraction"])
		if err != nil {
			return Graph{}, newError(StageRelate, ErrParse, nil, "relationship %d from_abstraction: %v", i, err)
		}
		to, err := ParseIndex(rel["to_abstraction"])
		if err != nil {
			return Graph{}, newError(StageRelate, ErrParse, nil, "relationship %d to_abstraction: %v", i, err)
		}
		if from < 0 || from >= n || to < 0 || to >= n {
			return Graph{}, newError(StageRelate, ErrRange, []int{from, to},
				"relationship %d: from=%d, to=%d outside the valid range [0, %d)", i, from, to, n)
		}
		edges = append(edges, Relationship{From: from, To: to, Label: label})
	}
	return Graph{Summary: summary, Edges: edges}, nil
}

// Coverage returns the abstraction indices in [0, n) that appear in no edge.
func Coverage(g Graph, n int) []int {
	seen := make([]bool, n)
	for _, e := range g.Edges {
		if e.From >= 0 && e.From < n {
			seen[e.From] = true
		}
		if e.To >= 0 && e.To < n {
			seen[e.To] = true
		}
	}
	var missing []int
	for i, ok := range seen {
		if !ok {
			missing = append(missing, i)
		}
	}
	return missing
}

// CheckCoverage fails with ErrCompleteness when some abstraction has no edge.
func CheckCoverage(g Graph, n int) error {
	if missing := Coverage(g, n); len(missing) > 0 {
		return newError(StageRelate, ErrCompleteness, missing, "abstractions %v take part in no relationship", missing)
	}
	return nil
}

func relatePrompt(abstractions []Abstraction, files []FileRecord, project string) string {
	var ctxb strings.Builder
	ctxb.WriteString("Identified Abstractions:\n")
	var listing []string
	var referenced []int
	for i, a := range abstractions {
		fmt.Fprintf(&ctxb, "- Index %d: %s (Relevant file indices: [%s])\n  Description: %s\n",
			i, a.Name, joinInts(a.Files), a.Description)
		listing = append(listing, fmt.Sprintf("%d # %s", i, a.Name))
		referenced = append(referenced, a.Files...)
	}

	ctxb.WriteString("\nRelevant File Snippets (Referenced by Index and Path):\n")
	snippets := SelectContent(files, sortedUnique(referenced))
	for i, s := range snippets {
		if i > 0 {
			ctxb.WriteString("\n\n")
		}
		fmt.Fprintf(&ctxb, "--- File: %s ---\n%s", s.Key(), s.Content)
	}

	return fmt.Sprintf(relateTemplate, project, strings.Join(listing, "\n"), ctxb.String())
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ", ")
}

const relateTemplate = `
Based on the following abstractions and relevant code snippets from the project ` + "`%s`" + `:

List of Abstraction Indices and Names:
%s

Context (Abstractions, Descriptions, Code):
%s

Please provide:
1. A high-level ` + "`summary`" + ` of the project's main purpose and functionality in a few beginner-friendly sentences. Use markdown formatting with **bold** and *italic* text to highlight important concepts.
2. A list (` + "`relationships`" + `) describing the key interactions between these abstractions. For each relationship, specify:
    - ` + "`from_abstraction`" + `: Index of the source abstraction (e.g., ` + "`0 # AbstractionName1`" + `)
    - ` + "`to_abstraction`" + `: Index of the target abstraction (e.g., ` + "`1 # AbstractionName2`" + `)
    - ` + "`label`" + `: A brief label for the interaction **in just a few words** (e.g., "Manages", "Inherits", "Uses").
    Ideally the relationship should be backed by one abstraction calling or passing parameters to another.
    Simplify the relationship and exclude those non-important ones.

IMPORTANT: Make sure EVERY abstraction is involved in at least ONE relationship (either as source or target). Each abstraction index must appear at least once across all relationships.

Format the output as YAML:

` + "```yaml" + `
summary: |
  A brief, simple explanation of the project.
  Can span multiple lines with **bold** and *italic* for emphasis.
relationships:
  - from_abstraction: 0 # AbstractionName1
    to_abstraction: 1 # AbstractionName2
    label: "Manages"
  - from_abstraction: 2 # AbstractionName3
    to_abstraction: 0 # AbstractionName1
    label: "Provides config"
  # ... other relationships
` + "```" + `

Now, provide the YAML output:
`
