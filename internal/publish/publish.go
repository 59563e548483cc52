// Package publish persists a finished tutorial bundle.
package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/state"
	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/tutorial"
)

// IndexFile is the name of the tutorial's entry document.
const IndexFile = "index.md"

// Writer persists a whole bundle and returns where it was written.
type Writer interface {
	Write(ctx context.Context, b tutorial.Bundle) (string, error)
}

// documents lists the index followed by every chapter.
func documents(b tutorial.Bundle) []tutorial.Document {
	docs := make([]tutorial.Document, 0, len(b.Chapters)+1)
	docs = append(docs, tutorial.Document{Filename: IndexFile, Content: b.Index})
	return append(docs, b.Chapters...)
}

func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("publish: invalid document name %q", name)
	}
	return nil
}

// Dir writes documents into a local directory.
type Dir struct {
	Path string
}

func (d Dir) Write(ctx context.Context, b tutorial.Bundle) (string, error) {
	if err := os.MkdirAll(d.Path, 0755); err != nil {
		return "", fmt.Errorf("publish: creating %s: %w", d.Path, err)
	}
	for _, doc := range documents(b) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := checkName(doc.Filename); err != nil {
			return "", err
		}
		path := filepath.Join(d.Path, doc.Filename)
		if err := state.WriteFileAtomic(path, []byte(doc.Content), 0644); err != nil {
			return "", fmt.Errorf("publish: writing %s: %w", path, err)
		}
	}
	return d.Path, nil
}

// Multi writes to each writer in order and stops at the first error.
type Multi []Writer

func (m Multi) Write(ctx context.Context, b tutorial.Bundle) (string, error) {
	var locations []string
	for _, w := range m {
		loc, err := w.Write(ctx, b)
		if err != nil {
			return "", err
		}
		locations = append(locations, loc)
	}
	return strings.Join(locations, ", "), nil
}
