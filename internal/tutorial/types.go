package tutorial

import "context"

// Generator issues a single free-form generative call.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// FileRecord is one fetched source file. Its position in the file list is its
// index for the rest of the run.
type FileRecord struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Abstraction is a core concept of the analyzed repository. Files holds file
// indices, ascending and without duplicates.
type Abstraction struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Files       []int  `json:"files"`
}

// Relationship is a directed, labeled edge between two abstraction indices.
type Relationship struct {
	From  int    `json:"from"`
	To    int    `json:"to"`
	Label string `json:"label"`
}

// Graph is the project summary plus the relationship edges.
type Graph struct {
	Summary string         `json:"summary"`
	Edges   []Relationship `json:"edges"`
}

// ChapterOrder is a permutation of abstraction indices in teaching order.
type ChapterOrder []int

// Chapter is one rendered chapter, aligned with its position in the order.
type Chapter struct {
	Number      int    `json:"number"`
	Abstraction int    `json:"abstraction"`
	Name        string `json:"name"`
	Filename    string `json:"filename"`
	Text        string `json:"text"`
}

// Document is a named output file.
type Document struct {
	Filename string
	Content  string
}

// Bundle is the final tutorial handed to a publisher.
type Bundle struct {
	Index    string
	Chapters []Document
	// Skipped describes order positions that had no matching chapter.
	Skipped []string
}
