package tutorial

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// ChapterRef identifies a chapter for links between chapters.
type ChapterRef struct {
	Number   int
	Name     string
	Filename string
}

// ChapterPlan is everything precomputed for one position of the order.
type ChapterPlan struct {
	ChapterRef
	Abstraction int
	Prev, Next  *ChapterRef // nil at the ends of the order
	// Listing links every chapter in final order; identical across plans.
	Listing string
}

// SafeName lowercases name and replaces every non-alphanumeric rune with '_'.
func SafeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// ChapterFilename returns the file name for the chapter at 0-based position pos.
func ChapterFilename(pos int, name string) string {
	return fmt.Sprintf("%02d_%s.md", pos+1, SafeName(name))
}

// PlanChapters precomputes numbering, file names, the shared chapter listing
// and neighbour links for every position of order.
func PlanChapters(order ChapterOrder, abstractions []Abstraction) ([]ChapterPlan, error) {
	refs := make([]ChapterRef, len(order))
	lines := make([]string, len(order))
	for pos, idx := range order {
		if idx < 0 || idx >= len(abstractions) {
			return nil, newError(StageWrite, ErrRange, []int{idx},
				"order position %d names abstraction %d, have %d", pos, idx, len(abstractions))
		}
		name := abstractions[idx].Name
		refs[pos] = ChapterRef{Number: pos + 1, Name: name, Filename: ChapterFilename(pos, name)}
		lines[pos] = fmt.Sprintf("%d. [%s](%s)", pos+1, name, refs[pos].Filename)
	}
	listing := strings.Join(lines, "\n")

	plans := make([]ChapterPlan, len(order))
	for pos, idx := range order {
		p := ChapterPlan{ChapterRef: refs[pos], Abstraction: idx, Listing: listing}
		if pos > 0 {
			prev := refs[pos-1]
			p.Prev = &prev
		}
		if pos < len(order)-1 {
			next := refs[pos+1]
			p.Next = &next
		}
		plans[pos] = p
	}
	return plans, nil
}

// WriteOptions controls a WriteChapters run.
type WriteOptions struct {
	// Done holds chapter texts already written by an earlier, interrupted run.
	// They seed the fold and are not regenerated.
	Done []string
	// OnChapter is called after each newly written chapter.
	OnChapter func(Chapter) error
}

// WriteChapters writes one chapter per plan, strictly in order. Each prompt
// sees the text of every earlier chapter and none of the later ones.
func WriteChapters(ctx context.Context, gen Generator, plans []ChapterPlan, abstractions []Abstraction, files []FileRecord, project string, opts WriteOptions) ([]Chapter, error) {
	if len(opts.Done) > len(plans) {
		return nil, fmt.Errorf("%s: %d chapters already written but only %d planned", StageWrite, len(opts.Done), len(plans))
	}

	written := make([]string, 0, len(plans))
	chapters := make([]Chapter, 0, len(plans))
	for pos, p := range plans {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		newlyWritten := pos >= len(opts.Done)
		var body string
		if newlyWritten {
			var err error
			body, err = writeChapter(ctx, gen, p, abstractions[p.Abstraction], files, project, written)
			if err != nil {
				return nil, err
			}
		} else {
			body = opts.Done[pos]
		}
		written = append(written, body)

		ch := Chapter{
			Number:      p.Number,
			Abstraction: p.Abstraction,
			Name:        p.Name,
			Filename:    p.Filename,
			Text:        body,
		}
		chapters = append(chapters, ch)
		if newlyWritten && opts.OnChapter != nil {
			if err := opts.OnChapter(ch); err != nil {
				return nil, err
			}
		}
	}
	return chapters, nil
}

// writeChapter renders one chapter given the texts of all previous chapters.
func writeChapter(ctx context.Context, gen Generator, p ChapterPlan, a Abstraction, files []FileRecord, project string, previous []string) (string, error) {
	resp, err := gen.Generate(ctx, chapterPrompt(p, a, files, project, previous))
	if err != nil {
		return "", fmt.Errorf("%s: chapter %d (%s): generating: %w", StageWrite, p.Number, p.Name, err)
	}
	return NormalizeHeading(resp, p.Number, p.Name), nil
}

// NormalizeHeading makes text start with a "# Chapter n" heading. A chapter
// that already has one is left alone; otherwise a leading heading line is
// replaced, or the heading is prepended.
func NormalizeHeading(text string, number int, name string) string {
	heading := fmt.Sprintf("# Chapter %d: %s", number, name)
	trimmed := strings.TrimSpace(text)
	if hasChapterHeading(trimmed, number) {
		return text
	}
	lines := strings.Split(trimmed, "\n")
	if strings.HasPrefix(strings.TrimSpace(lines[0]), "#") {
		lines[0] = heading
		return strings.Join(lines, "\n")
	}
	return heading + "\n\n" + text
}

// hasChapterHeading reports whether s begins with "# Chapter n" for exactly n,
// so "# Chapter 10" does not count as chapter 1.
func hasChapterHeading(s string, number int) bool {
	prefix := fmt.Sprintf("# Chapter %d", number)
	if !strings.HasPrefix(s, prefix) {
		return false
	}
	rest := s[len(prefix):]
	return rest == "" || rest[0] == ':' || unicode.IsSpace(rune(rest[0]))
}

func chapterPrompt(p ChapterPlan, a Abstraction, files []FileRecord, project string, previous []string) string {
	var snippets strings.Builder
	for i, s := range SelectContent(files, a.Files) {
		if i > 0 {
			snippets.WriteString("\n\n")
		}
		fmt.Fprintf(&snippets, "--- File: %s ---\n%s", s.Path, s.Content)
	}
	code := snippets.String()
	if code == "" {
		code = "No specific code snippets provided for this abstraction."
	}

	prev := strings.Join(previous, "\n---\n")
	if prev == "" {
		prev = "This is the first chapter."
	}

	transition := ""
	if p.Prev != nil {
		transition = fmt.Sprintf("\n- The previous chapter is [%s](%s).\n", p.Prev.Name, p.Prev.Filename)
	}
	if p.Next != nil {
		transition += fmt.Sprintf("\n- The next chapter is [%s](%s).\n", p.Next.Name, p.Next.Filename)
	}

	return fmt.Sprintf(chapterTemplate,
		project, p.Name, p.Number,
		a.Description,
		p.Listing,
		prev,
		code,
		p.Number, p.Name,
		transition,
	)
}

const chapterTemplate = `
Write a very beginner-friendly tutorial chapter (in Markdown format) for the project ` + "`%s`" + ` about the concept: "%s". This is Chapter %d.

Concept Details:
- Description:
%s

Complete Tutorial Structure:
%s

Context from previous chapters (summary):
%s

Relevant Code Snippets:
%s

Instructions for the chapter:
- Start with a clear heading (e.g., ` + "`# Chapter %d: %s`" + `).
%s
- If this is not the first chapter, begin with a brief transition from the previous chapter, referencing it with a proper Markdown link.

- Begin with a high-level motivation explaining what problem this abstraction solves. Start with a central use case as a concrete example. The whole chapter should guide the reader to understand how to solve this use case. Make it very minimal and friendly to beginners.

- If the abstraction is complex, break it down into key concepts. Explain each concept one-by-one in a very beginner-friendly way.

- Explain how to use this abstraction to solve the use case. Give example inputs and outputs for code snippets (if the output isn't values, describe at a high level what will happen).

- Each code block should be BELOW 20 lines! If longer code blocks are needed, break them down into smaller pieces and walk through them one-by-one. Aggressively simplify the code to make it minimal. Use comments to skip non-important implementation details. Each code block should have a beginner friendly explanation right after it.

- Describe the internal implementation to help understand what's under the hood. First provide a non-code or code-light walkthrough on what happens step-by-step when the abstraction is called. It's recommended to use a simple sequenceDiagram with a dummy example - keep it minimal with at most 5 participants to ensure clarity. If participant name has space, use:
` + "`participant QP as Query Processing`" + `

- Then dive deeper into code for the internal implementation with references to files. Provide example code blocks, but make them similarly simple and beginner-friendly.

- IMPORTANT: When you need to refer to other core abstractions covered in other chapters, ALWAYS use proper Markdown links like this: [Chapter Title](filename.md). Use the Complete Tutorial Structure above to find the correct filename. Example: "we will talk about [Query Processing](03_query_processing.md) in Chapter 3".

- Use mermaid diagrams to illustrate complex concepts (` + "```mermaid```" + ` format).

- Heavily use analogies and examples throughout to help beginners understand.

- End the chapter with a brief conclusion that summarizes what was learned and provides a transition to the next chapter. If there is a next chapter, use a proper Markdown link: [Next Chapter Title](next_chapter_filename).

- Ensure the tone is welcoming and easy for a newcomer to understand.

- Output *only* the Markdown content for this chapter.

Now, directly provide a super beginner-friendly Markdown output (DON'T need ` + "```markdown```" + ` tags):
`
