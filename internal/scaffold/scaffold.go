package scaffold

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/config"
	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/ux"
)

const configTemplate = `# tutor configuration. Run 'tutor docs config' for every field.
%s
output: output
%s
max-abstractions: 10

llm:
  provider: gemini
  model: gemini-2.5-flash
  api-key-env: GEMINI_API_KEY
  rps: 1
  cache:
    enabled: true
    dir: .tutor-cache

pipeline:
  retries: 2
  retry-wait: 5
  strict-relationships: false

# publish:
#   s3:
#     endpoint: localhost:9000
#     bucket: tutorials
#     prefix: docs
`

// Options selects the source the generated config points at.
type Options struct {
	Repo string
	// Dir is the local source directory, relative to the target directory.
	// Defaults to ".".
	Dir string
}

// Init writes an example .tutor.yaml into targetDir.
func Init(targetDir string, opts Options) error {
	path := filepath.Join(targetDir, config.FileName)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists in %s", config.FileName, targetDir)
	}

	content := render(targetDir, opts)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", config.FileName, err)
	}

	fmt.Printf("\n%s%s✓ Initialized %s%s\n\n", ux.Bold, ux.Green, config.FileName, ux.Reset)
	fmt.Printf("  Next steps:\n")
	fmt.Printf("    1. Edit %s%s%s to pick the files and model\n", ux.Cyan, config.FileName, ux.Reset)
	fmt.Printf("    2. Export %sGEMINI_API_KEY%s (or add it to .env)\n", ux.Cyan, ux.Reset)
	fmt.Printf("    3. Run %stutor run --dry-run%s to preview\n\n", ux.Cyan, ux.Reset)
	return nil
}

func render(targetDir string, opts Options) string {
	var src string
	var include string
	if opts.Repo != "" {
		src = fmt.Sprintf("repo: %s", opts.Repo)
	} else {
		dir := opts.Dir
		if dir == "" {
			dir = "."
		}
		src = fmt.Sprintf("dir: %s", dir)
		include = includeBlock(detectIncludes(filepath.Join(targetDir, dir)))
	}
	return fmt.Sprintf(configTemplate, src, include)
}

func includeBlock(patterns []string) string {
	if len(patterns) == 0 {
		return "# include: [\"*.go\", \"*.py\"]   # defaults cover common languages"
	}
	quoted := make([]string, len(patterns))
	for i, p := range patterns {
		quoted[i] = fmt.Sprintf("%q", p)
	}
	return fmt.Sprintf("include: [%s]", strings.Join(quoted, ", "))
}

// ignoredDirs are never scanned when guessing include patterns.
var ignoredDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true, "venv": true, ".venv": true,
	"dist": true, "build": true, "output": true, ".tutor-cache": true,
}

const maxScanned = 5000

// detectIncludes returns the default include patterns that match files
// under dir, most frequent first.
func detectIncludes(dir string) []string {
	counts := make(map[string]int)
	scanned := 0
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && (ignoredDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		scanned++
		if scanned > maxScanned {
			return filepath.SkipAll
		}
		for _, p := range config.DefaultInclude {
			if ok, _ := filepath.Match(p, d.Name()); ok {
				counts[p]++
				break
			}
		}
		return nil
	})

	patterns := make([]string, 0, len(counts))
	for p := range counts {
		patterns = append(patterns, p)
	}
	sort.Slice(patterns, func(i, j int) bool {
		if counts[patterns[i]] != counts[patterns[j]] {
			return counts[patterns[i]] > counts[patterns[j]]
		}
		return patterns[i] < patterns[j]
	})
	return patterns
}
