package fileblocks

import (
	"strings"
)

// Block represents a single fenced code block extracted from LLM output.
type Block struct {
	Lang    string // info-string language, e.g. "yaml"; empty when absent
	Content string // content between the fences
}

// Parse extracts fenced code blocks from text. It recognizes opening fences like:
//
//	```yaml
//	```mermaid
//	```
//
// Returns closed blocks in order of appearance. An unclosed trailing block is dropped.
func Parse(text string) []Block {
	blocks, _ := scan(text)
	return blocks
}

// First returns the interior of the first block whose language is lang
// (case-insensitive). When no closed block matches, an unclosed trailing block
// with that language is accepted, since models often stop before the closing fence.
// Failing both, an opening fence in the middle of a line is honored.
func First(text, lang string) (string, bool) {
	blocks, open := scan(text)
	for _, b := range blocks {
		if strings.EqualFold(b.Lang, lang) {
			return b.Content, true
		}
	}
	if open != nil && strings.EqualFold(open.Lang, lang) {
		return open.Content, true
	}
	return inline(text, lang)
}

// inline finds an opening fence anywhere in text, including mid-line, and
// returns everything up to the next fence or the end of text.
func inline(text, lang string) (string, bool) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for off := 0; ; {
		i := strings.Index(text[off:], "```")
		if i < 0 {
			return "", false
		}
		start := off + i + 3
		if end := start + len(lang); end <= len(text) && strings.EqualFold(text[start:end], lang) {
			rest := text[end:]
			if j := strings.Index(rest, "```"); j >= 0 {
				rest = rest[:j]
			}
			return strings.Trim(rest, " \t\n"), true
		}
		off = start
	}
}

func scan(text string) ([]Block, *Block) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var blocks []Block
	var current *Block
	var buf strings.Builder

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if current != nil {
			// Inside a block: look for the closing fence
			if trimmed == "```" {
				current.Content = buf.String()
				blocks = append(blocks, *current)
				current = nil
				buf.Reset()
				continue
			}
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(line)
			continue
		}

		if strings.HasPrefix(trimmed, "```") {
			current = &Block{Lang: infoLang(trimmed[3:])}
			buf.Reset()
		}
	}

	if current != nil {
		current.Content = buf.String()
	}
	return blocks, current
}

// infoLang returns the first word of a fence info string.
func infoLang(info string) string {
	fields := strings.Fields(strings.TrimLeft(info, "`"))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
