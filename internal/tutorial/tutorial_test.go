package tutorial

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

// fakeGen returns canned responses in order and records every prompt.
type fakeGen struct {
	responses []string
	prompts   []string
	err       error
}

func (f *fakeGen) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.prompts) > len(f.responses) {
		return "", fmt.Errorf("unexpected call %d", len(f.prompts))
	}
	return f.responses[len(f.prompts)-1], nil
}

func sampleFiles() []FileRecord {
	return []FileRecord{
		{Path: "a.py", Content: "print('a')"},
		{Path: "b.py", Content: "print('b')"},
		{Path: "c.py", Content: "print('c')"},
	}
}

func TestBuildContext(t *testing.T) {
	text, listing := BuildContext(sampleFiles())

	lines := strings.Split(listing, "\n")
	if len(lines) != 3 {
		t.Fatalf("listing has %d lines, want 3: %q", len(lines), listing)
	}
	for i, want := range []string{"- 0 # a.py", "- 1 # b.py", "- 2 # c.py"} {
		if lines[i] != want {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want)
		}
	}
	if !strings.HasPrefix(text, "--- File Index 0: a.py ---\nprint('a')\n\n") {
		t.Fatalf("unexpected context start: %q", text)
	}
	if strings.Index(text, "b.py") > strings.Index(text, "c.py") {
		t.Fatal("files out of order in context")
	}
}

func TestBuildContext_Empty(t *testing.T) {
	text, listing := BuildContext(nil)
	if text != "" || listing != "" {
		t.Fatalf("expected empty output, got %q / %q", text, listing)
	}
}

func TestSelectContent_SkipsOutOfRange(t *testing.T) {
	got := SelectContent(sampleFiles(), []int{2, -1, 0, 7}).Map()
	want := map[string]string{
		"0 # a.py": "print('a')",
		"2 # c.py": "print('c')",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestChapterFilename(t *testing.T) {
	cases := map[string]string{
		"Query Processing": "03_query_processing.md",
		"LLM-Caller (v2)":  "03_llm_caller__v2_.md",
		"Ünïcode":          "03_ünïcode.md",
	}
	for name, want := range cases {
		if got := ChapterFilename(2, name); got != want {
			t.Fatalf("ChapterFilename(2, %q) = %q, want %q", name, got, want)
		}
	}
}

func TestSafeName_KeepsNumericRunes(t *testing.T) {
	if got := SafeName("Step ½ Ⅷ"); got != "step_½_ⅷ" {
		t.Fatalf("SafeName = %q", got)
	}
}

func TestChapterFilename_Injective(t *testing.T) {
	seen := map[string]bool{}
	for pos, name := range []string{"Flow", "flow", "Fl.ow", "Fl ow"} {
		fn := ChapterFilename(pos, name)
		if seen[fn] {
			t.Fatalf("filename %q produced twice", fn)
		}
		seen[fn] = true
	}
}

func TestPlanChapters(t *testing.T) {
	abs := []Abstraction{{Name: "X"}, {Name: "Y"}, {Name: "Z"}}
	plans, err := PlanChapters(ChapterOrder{2, 0, 1}, abs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plans[0].Prev != nil || plans[2].Next != nil {
		t.Fatal("boundary plans should have no prev/next")
	}
	if plans[1].Prev.Filename != "01_z.md" || plans[1].Next.Filename != "03_y.md" {
		t.Fatalf("middle links wrong: %+v %+v", plans[1].Prev, plans[1].Next)
	}
	wantListing := "1. [Z](01_z.md)\n2. [X](02_x.md)\n3. [Y](03_y.md)"
	for _, p := range plans {
		if p.Listing != wantListing {
			t.Fatalf("listing = %q", p.Listing)
		}
	}
	if plans[0].Abstraction != 2 || plans[0].Number != 1 {
		t.Fatalf("first plan = %+v", plans[0])
	}

	if _, err := PlanChapters(ChapterOrder{0, 3}, abs); !errors.Is(err, ErrRange) {
		t.Fatalf("expected range error, got: %v", err)
	}
}

func TestNormalizeHeading(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"kept", "# Chapter 1: Flow\n\nBody", "# Chapter 1: Flow\n\nBody"},
		{"kept other title", "# Chapter 1 - The Flow\nBody", "# Chapter 1 - The Flow\nBody"},
		{"replaced heading", "# The Flow\n\nBody", "# Chapter 1: Flow\n\nBody"},
		{"prefix of later chapter", "# Chapter 10: Flow\nBody", "# Chapter 1: Flow\nBody"},
		{"prepended", "Body text", "# Chapter 1: Flow\n\nBody text"},
	}
	for _, tc := range cases {
		if got := NormalizeHeading(tc.in, 1, "Flow"); got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestWriteChapters_FoldSeesOnlyEarlierChapters(t *testing.T) {
	files := sampleFiles()
	abs := []Abstraction{
		{Name: "X", Description: "first idea", Files: []int{0, 1}},
		{Name: "Y", Description: "second idea", Files: nil},
	}
	plans, err := PlanChapters(ChapterOrder{1, 0}, abs)
	if err != nil {
		t.Fatal(err)
	}
	gen := &fakeGen{responses: []string{"about Y", "# Chapter 2: X\nabout X"}}

	var callbacks []int
	chapters, err := WriteChapters(context.Background(), gen, plans, abs, files, "demo", WriteOptions{
		OnChapter: func(c Chapter) error {
			callbacks = append(callbacks, c.Number)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chapters) != 2 || chapters[0].Filename != "01_y.md" || chapters[1].Filename != "02_x.md" {
		t.Fatalf("chapters = %+v", chapters)
	}
	if chapters[0].Text != "# Chapter 1: Y\n\nabout Y" {
		t.Fatalf("first chapter text = %q", chapters[0].Text)
	}
	if !reflect.DeepEqual(callbacks, []int{1, 2}) {
		t.Fatalf("callbacks = %v", callbacks)
	}

	first, second := gen.prompts[0], gen.prompts[1]
	if !strings.Contains(first, "This is the first chapter.") {
		t.Fatal("first prompt should carry the first-chapter marker")
	}
	if !strings.Contains(first, "No specific code snippets provided for this abstraction.") {
		t.Fatal("first prompt should carry the no-snippets marker")
	}
	if strings.Contains(first, "about X") {
		t.Fatal("first prompt must not see later chapters")
	}
	if !strings.Contains(second, "# Chapter 1: Y\n\nabout Y") {
		t.Fatal("second prompt should include the first chapter's text")
	}
	if !strings.Contains(second, "--- File: a.py ---\nprint('a')") {
		t.Fatal("second prompt should include X's snippets")
	}
	if !strings.Contains(second, "[Y](01_y.md)") {
		t.Fatal("second prompt should link the previous chapter")
	}
}

func TestWriteChapters_ResumesFromDone(t *testing.T) {
	abs := []Abstraction{{Name: "X"}, {Name: "Y"}}
	plans, _ := PlanChapters(ChapterOrder{0, 1}, abs)
	gen := &fakeGen{responses: []string{"# Chapter 2: Y\nnew"}}

	var called int
	chapters, err := WriteChapters(context.Background(), gen, plans, abs, nil, "demo", WriteOptions{
		Done:      []string{"# Chapter 1: X\nold"},
		OnChapter: func(Chapter) error { called++; return nil },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gen.prompts) != 1 {
		t.Fatalf("expected 1 generation, got %d", len(gen.prompts))
	}
	if !strings.Contains(gen.prompts[0], "# Chapter 1: X\nold") {
		t.Fatal("resumed chapter should feed the fold")
	}
	if called != 1 {
		t.Fatalf("OnChapter called %d times, want 1", called)
	}
	if chapters[0].Text != "# Chapter 1: X\nold" {
		t.Fatalf("done chapter changed: %q", chapters[0].Text)
	}
}

func TestWriteChapters_GenerationError(t *testing.T) {
	abs := []Abstraction{{Name: "X"}}
	plans, _ := PlanChapters(ChapterOrder{0}, abs)
	boom := errors.New("boom")
	_, err := WriteChapters(context.Background(), &fakeGen{err: boom}, plans, abs, nil, "demo", WriteOptions{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got: %v", err)
	}
}

func TestDiagram_Scenario(t *testing.T) {
	abs := []Abstraction{{Name: "X", Files: []int{0, 1}}, {Name: "Y", Files: []int{2}}}
	g := Graph{Summary: "s", Edges: []Relationship{{From: 0, To: 1, Label: "uses"}}}
	want := "flowchart TD\n    A0[\"X\"]\n    A1[\"Y\"]\n    A0 -- \"uses\" --> A1"
	if got := Diagram(abs, g); got != want {
		t.Fatalf("diagram:\n%s\nwant:\n%s", got, want)
	}
}

func TestDiagram_SanitizesAndTruncates(t *testing.T) {
	abs := []Abstraction{{Name: `Say "hi"`}, {Name: "B"}}
	g := Graph{Edges: []Relationship{
		{From: 0, To: 1, Label: "This is a very long descriptive interaction label exceeding thirty chars"},
		{From: 1, To: 0, Label: "say \"ok\"\nthen"},
	}}
	got := Diagram(abs, g)
	for _, want := range []string{
		`    A0["Say hi"]`,
		`    A0 -- "This is a very long descrip..." --> A1`,
		`    A1 -- "say ok then" --> A0`,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("diagram missing %q:\n%s", want, got)
		}
	}
}

func scenarioInput() AssembleInput {
	return AssembleInput{
		Project:      "demo",
		Source:       "https://github.com/acme/demo",
		Abstractions: []Abstraction{{Name: "X", Files: []int{0, 1}}, {Name: "Y", Files: []int{2}}},
		Graph:        Graph{Summary: "A demo.", Edges: []Relationship{{From: 0, To: 1, Label: "uses"}}},
		Order:        ChapterOrder{1, 0},
		Chapters: []Chapter{
			{Number: 1, Abstraction: 1, Name: "Y", Filename: "01_y.md", Text: "# Chapter 1: Y\n\nbody\n\n\n"},
			{Number: 2, Abstraction: 0, Name: "X", Filename: "02_x.md", Text: "# Chapter 2: X\nbody"},
		},
	}
}

func TestAssemble_Scenario(t *testing.T) {
	b := Assemble(scenarioInput())

	if len(b.Skipped) != 0 {
		t.Fatalf("unexpected skips: %v", b.Skipped)
	}
	var names []string
	for _, d := range b.Chapters {
		names = append(names, d.Filename)
	}
	if !reflect.DeepEqual(names, []string{"01_y.md", "02_x.md"}) {
		t.Fatalf("filenames = %v", names)
	}
	for _, want := range []string{
		"# Tutorial: demo\n\nA demo.\n\n",
		"**Source Repository:** [https://github.com/acme/demo](https://github.com/acme/demo)",
		"```mermaid\nflowchart TD\n",
		"## Chapters\n\n1. [Y](01_y.md)\n2. [X](02_x.md)\n",
	} {
		if !strings.Contains(b.Index, want) {
			t.Fatalf("index missing %q:\n%s", want, b.Index)
		}
	}
	if !strings.HasSuffix(b.Index, "\n\n"+Footer) {
		t.Fatal("index must end with the footer")
	}
	if b.Chapters[0].Content != "# Chapter 1: Y\n\nbody\n\n"+Footer {
		t.Fatalf("chapter 1 = %q", b.Chapters[0].Content)
	}
	if b.Chapters[1].Content != "# Chapter 2: X\nbody\n\n"+Footer {
		t.Fatalf("chapter 2 = %q", b.Chapters[1].Content)
	}
}

func TestAssemble_Idempotent(t *testing.T) {
	a, b := Assemble(scenarioInput()), Assemble(scenarioInput())
	if !reflect.DeepEqual(a, b) {
		t.Fatal("assembling identical inputs produced different bundles")
	}
}

func TestAssemble_SkipsMismatchedPositions(t *testing.T) {
	in := scenarioInput()
	in.Chapters = in.Chapters[:1]
	b := Assemble(in)
	if len(b.Chapters) != 1 || len(b.Skipped) != 1 {
		t.Fatalf("chapters=%d skipped=%v", len(b.Chapters), b.Skipped)
	}
	if strings.Contains(b.Index, "02_x.md") {
		t.Fatal("skipped chapter should not be linked from the index")
	}
}

func TestPipeline_Scenario(t *testing.T) {
	ctx := context.Background()
	files := sampleFiles()
	gen := &fakeGen{responses: []string{
		fenced("- name: X\n  description: the x\n  file_indices: [1, 0, 1]\n- name: Y\n  description: the y\n  file_indices: [\"2 # c.py\"]"),
		fenced("summary: Demo project.\nrelationships:\n  - from_abstraction: 0 # X\n    to_abstraction: 1 # Y\n    label: uses"),
		fenced("- 1 # Y\n- 0 # X"),
		"Y body",
		"X body",
	}}

	abs, err := IdentifyAbstractions(ctx, gen, files, "demo", IdentifyOptions{})
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	if !reflect.DeepEqual(abs[0].Files, []int{0, 1}) || !reflect.DeepEqual(abs[1].Files, []int{2}) {
		t.Fatalf("files = %v %v", abs[0].Files, abs[1].Files)
	}
	if !strings.Contains(gen.prompts[0], "- 2 # c.py") || !strings.Contains(gen.prompts[0], "5-10") {
		t.Fatal("identify prompt missing listing or abstraction range")
	}

	g, err := AnalyzeRelationships(ctx, gen, abs, files, "demo")
	if err != nil {
		t.Fatalf("relate: %v", err)
	}
	if !strings.Contains(gen.prompts[1], "- Index 0: X (Relevant file indices: [0, 1])") {
		t.Fatalf("relate prompt missing abstraction line:\n%s", gen.prompts[1])
	}

	order, err := OrderChapters(ctx, gen, abs, g, "demo")
	if err != nil {
		t.Fatalf("order: %v", err)
	}

	plans, err := PlanChapters(order, abs)
	if err != nil {
		t.Fatal(err)
	}
	chapters, err := WriteChapters(ctx, gen, plans, abs, files, "demo", WriteOptions{})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	b := Assemble(AssembleInput{
		Project: "demo", Source: "/src/demo",
		Abstractions: abs, Graph: g, Order: order, Chapters: chapters,
	})
	if b.Chapters[0].Filename != "01_y.md" || b.Chapters[1].Filename != "02_x.md" {
		t.Fatalf("unexpected filenames: %v, %v", b.Chapters[0].Filename, b.Chapters[1].Filename)
	}
	if !strings.Contains(b.Index, `    A0 -- "uses" --> A1`) {
		t.Fatalf("index diagram missing edge:\n%s", b.Index)
	}
}

func TestShared_Require(t *testing.T) {
	s := &Shared{ProjectName: "demo", OutputDir: "out", LocalDir: "/src/demo"}
	if err := s.RequireOrder(); !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected missing input, got: %v", err)
	}
	s.Files = sampleFiles()
	s.Abstractions = []Abstraction{}
	if err := s.RequireGraph(); err == nil || !strings.Contains(err.Error(), "relate") {
		t.Fatalf("expected relate stage hint, got: %v", err)
	}
	s.Graph = &Graph{}
	if err := s.RequireGraph(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Source() != "/src/demo" {
		t.Fatalf("Source = %q", s.Source())
	}
	s.RepoURL = "https://github.com/acme/demo"
	if s.Source() != s.RepoURL {
		t.Fatalf("Source should prefer the repo URL")
	}
	if s.OutputPath() != "out/demo" {
		t.Fatalf("OutputPath = %q", s.OutputPath())
	}
}
