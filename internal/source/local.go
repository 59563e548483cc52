package source

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/tutorial"
)

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	".git":        true,
	".hg":         true,
	".svn":        true,
	".tutor":      true,
	"__pycache__": true,
}

func crawlLocal(ctx context.Context, opts *Options) ([]tutorial.FileRecord, error) {
	info, err := os.Stat(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source: %s is not a directory", opts.Dir)
	}

	var files []tutorial.FileRecord
	err = filepath.WalkDir(opts.Dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			opts.warn("could not read %s: %v", p, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if p != opts.Dir && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(opts.Dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !opts.selected(rel) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			opts.warn("could not stat %s: %v", rel, err)
			return nil
		}
		if opts.MaxFileSize > 0 && fi.Size() > opts.MaxFileSize {
			return nil
		}

		data, err := os.ReadFile(p)
		if err != nil {
			opts.warn("could not read file %s: %v", rel, err)
			return nil
		}
		content, ok := decodeText(data)
		if !ok {
			opts.warn("skipping %s: not valid UTF-8 text", rel)
			return nil
		}
		files = append(files, tutorial.FileRecord{Path: rel, Content: content})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText returns data as a string when it is UTF-8 text.
func decodeText(data []byte) (string, bool) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
		return "", false
	}
	return string(data), true
}
