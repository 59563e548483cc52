package tutorial

import (
	"context"
	"fmt"
	"strings"
)

// OrderChapters asks the model for the teaching order of the abstractions.
func OrderChapters(ctx context.Context, gen Generator, abstractions []Abstraction, g Graph, project string) (ChapterOrder, error) {
	resp, err := gen.Generate(ctx, orderPrompt(abstractions, g, project))
	if err != nil {
		return nil, fmt.Errorf("%s: generating: %w", StageOrder, err)
	}
	return ParseOrder(resp, len(abstractions))
}

// ParseOrder validates an order response: every entry must parse, lie in
// [0, n), and appear once, and all n indices must be present.
func ParseOrder(response string, n int) (ChapterOrder, error) {
	v, err := decodeYAML(StageOrder, response)
	if err != nil {
		return nil, err
	}
	items, ok := v.([]any)
	if !ok {
		return nil, newError(StageOrder, ErrSchema, nil, "top-level value is %s, want a sequence", kindOf(v))
	}

	order := make(ChapterOrder, 0, len(items))
	seen := make(map[int]bool, len(items))
	for _, entry := range items {
		idx, err := ParseIndex(entry)
		if err != nil {
			return nil, newError(StageOrder, ErrParse, nil, "order entry %v: %v", entry, err)
		}
		if idx < 0 || idx >= n {
			return nil, newError(StageOrder, ErrRange, []int{idx}, "index %d is outside the valid range [0, %d)", idx, n)
		}
		if seen[idx] {
			return nil, newError(StageOrder, ErrDuplicate, []int{idx}, "index %d appears more than once", idx)
		}
		seen[idx] = true
		order = append(order, idx)
	}

	if len(order) != n {
		var missing []int
		for i := 0; i < n; i++ {
			if !seen[i] {
				missing = append(missing, i)
			}
		}
		return nil, newError(StageOrder, ErrCompleteness, missing,
			"order lists %d of %d abstractions; missing %v", len(order), n, missing)
	}
	return order, nil
}

func orderPrompt(abstractions []Abstraction, g Graph, project string) string {
	listing := make([]string, len(abstractions))
	for i, a := range abstractions {
		listing[i] = fmt.Sprintf("- %d # %s", i, a.Name)
	}

	var ctxb strings.Builder
	fmt.Fprintf(&ctxb, "Project Summary:\n%s\n\n", g.Summary)
	ctxb.WriteString("Relationships (Indices refer to abstractions above):\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&ctxb, "- From %d (%s) to %d (%s): %s\n",
			e.From, nameAt(abstractions, e.From), e.To, nameAt(abstractions, e.To), e.Label)
	}

	return fmt.Sprintf(orderTemplate, project, strings.Join(listing, "\n"), ctxb.String(), project)
}

func nameAt(abstractions []Abstraction, i int) string {
	if i < 0 || i >= len(abstractions) {
		return "?"
	}
	return abstractions[i].Name
}

const orderTemplate = `
Given the following project abstractions and their relationships for the project ` + "`%s`" + `:

Abstractions (Index # Name):
%s

Context about relationships and project summary:
%s

If you are going to make a tutorial for ` + "`%s`" + `, what is the best order to explain these abstractions, from first to last?
Ideally, first explain those that are the most important or foundational, perhaps user-facing concepts or entry points. Then move to more detailed, lower-level implementation details or supporting concepts.

Output the ordered list of abstraction indices, including the name in a comment for clarity. Use the format ` + "`idx # AbstractionName`" + `.

` + "```yaml" + `
- 2 # FoundationalConcept
- 0 # CoreClassA
- 1 # CoreClassB (uses CoreClassA)
- ...
` + "```" + `

Now, provide the YAML output:
`
