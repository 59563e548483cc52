package tutorial

import (
	"fmt"
	"strings"
)

// Footer ends every published document.
const Footer = "---\n\nGenerated by [AI Codebase Knowledge Builder](https://github.com/The-Pocket/Tutorial-Codebase-Knowledge)"

const maxLabelLen = 30

// Diagram renders the abstraction graph as a mermaid flowchart.
func Diagram(abstractions []Abstraction, g Graph) string {
	lines := []string{"flowchart TD"}
	for i, a := range abstractions {
		lines = append(lines, fmt.Sprintf(`    A%d["%s"]`, i, strings.ReplaceAll(a.Name, `"`, "")))
	}
	for _, e := range g.Edges {
		lines = append(lines, fmt.Sprintf(`    A%d -- "%s" --> A%d`, e.From, edgeLabel(e.Label), e.To))
	}
	return strings.Join(lines, "\n")
}

func edgeLabel(s string) string {
	s = strings.ReplaceAll(s, `"`, "")
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) > maxLabelLen {
		return string(r[:maxLabelLen-3]) + "..."
	}
	return s
}

// AssembleInput is everything the final documents are built from.
type AssembleInput struct {
	Project      string
	Source       string // repository URL or local directory
	Abstractions []Abstraction
	Graph        Graph
	Order        ChapterOrder
	Chapters     []Chapter
}

// Assemble builds the index and chapter documents. Positions of the order
// without a matching chapter are recorded in Skipped instead of failing.
func Assemble(in AssembleInput) Bundle {
	var idx strings.Builder
	fmt.Fprintf(&idx, "# Tutorial: %s\n\n", in.Project)
	fmt.Fprintf(&idx, "%s\n\n", in.Graph.Summary)
	fmt.Fprintf(&idx, "**Source Repository:** [%s](%s)\n\n", in.Source, in.Source)
	idx.WriteString("```mermaid\n")
	idx.WriteString(Diagram(in.Abstractions, in.Graph))
	idx.WriteString("\n```\n\n")
	idx.WriteString("## Chapters\n\n")

	var b Bundle
	for pos, ai := range in.Order {
		if ai < 0 || ai >= len(in.Abstractions) || pos >= len(in.Chapters) {
			b.Skipped = append(b.Skipped, fmt.Sprintf(
				"position %d (abstraction %d): have %d abstractions and %d chapters",
				pos, ai, len(in.Abstractions), len(in.Chapters)))
			continue
		}
		name := in.Abstractions[ai].Name
		filename := ChapterFilename(pos, name)
		fmt.Fprintf(&idx, "%d. [%s](%s)\n", pos+1, name, filename)
		b.Chapters = append(b.Chapters, Document{
			Filename: filename,
			Content:  withFooter(in.Chapters[pos].Text),
		})
	}
	idx.WriteString("\n\n")
	idx.WriteString(Footer)
	b.Index = idx.String()
	return b
}

func withFooter(text string) string {
	return strings.TrimRight(text, " \t\r\n") + "\n\n" + Footer
}
