package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func writePages(t *testing.T, dir, root string, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		writeFile(t, dir, root+"_page_"+string(rune('0'+i))+".png", "png")
	}
}

func graphWithSources(sources ...any) string {
	graph := make([]map[string]any, 0, len(sources))
	for _, s := range sources {
		graph = append(graph, map[string]any{"@id": "n", "source": s})
	}
	data, _ := json.Marshal(map[string]any{"@context": "https://schema.org", "@graph": graph})
	return string(data)
}

func newTestAuditor(dir string) *Auditor {
	return New(Config{OutputDir: dir, MinSourcesPerPage: 0.5, MaxSourcesPerPage: 1.0})
}

func entriesByFile(entries []Entry) map[string]Entry {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		m[e.File] = e
	}
	return m
}

func TestAnalyze_Scenarios(t *testing.T) {
	dir := t.TempDir()

	// A: empty graph with one page image
	writeFile(t, dir, "A.pdf.jsonld", `{"@graph": []}`)
	writePages(t, dir, "A", 1)

	// B: two pages, two page-referencing sources
	writeFile(t, dir, "B.pdf.jsonld", graphWithSources("text (Page 1)", "text (Page 2)"))
	writePages(t, dir, "B", 2)

	// C: three pages, one valid source
	writeFile(t, dir, "C.pdf.jsonld", graphWithSources("text (Page 1)", "no page ref", 42))
	writePages(t, dir, "C", 3)

	// D: no page images at all
	writeFile(t, dir, "D.pdf.jsonld", graphWithSources("text (Page 1)"))

	// E: not parseable
	writeFile(t, dir, "E.pdf.jsonld", `{"@graph": [`)
	writePages(t, dir, "E", 1)

	// Unrelated files are ignored.
	writeFile(t, dir, "notes.txt", "hello")
	writeFile(t, dir, "F.jsonld", `{}`)

	n, entries, err := newTestAuditor(dir).Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if n != 5 {
		t.Errorf("expected 5 documents, got %d", n)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d: %+v", len(entries), entries)
	}

	byFile := entriesByFile(entries)

	if got := byFile["A.pdf.jsonld"].Status; got != StatusGraphEmpty {
		t.Errorf("A: expected %q, got %q", StatusGraphEmpty, got)
	}

	if _, ok := byFile["B.pdf.jsonld"]; ok {
		t.Errorf("B: expected no diagnosis, got %+v", byFile["B.pdf.jsonld"])
	}

	c := byFile["C.pdf.jsonld"]
	if c.Status != StatusInvalidSources {
		t.Errorf("C: expected %q, got %q", StatusInvalidSources, c.Status)
	}
	if c.Pages == nil || *c.Pages != 3 {
		t.Errorf("C: expected 3 pages, got %v", c.Pages)
	}
	if c.Sources == nil || *c.Sources != 1 {
		t.Errorf("C: expected 1 source, got %v", c.Sources)
	}
	if c.SourcesPerPage == nil || *c.SourcesPerPage > 0.34 || *c.SourcesPerPage < 0.33 {
		t.Errorf("C: expected ratio ~0.333, got %v", c.SourcesPerPage)
	}

	if got := byFile["D.pdf.jsonld"].Status; got != StatusNoPageImages {
		t.Errorf("D: expected %q, got %q", StatusNoPageImages, got)
	}

	e := byFile["E.pdf.jsonld"]
	if !strings.HasPrefix(e.Status, StatusParseFailure+": ") {
		t.Errorf("E: expected parse failure status, got %q", e.Status)
	}
	if e.Error == "" || !strings.Contains(e.Status, e.Error) {
		t.Errorf("E: status %q should embed error %q", e.Status, e.Error)
	}
	if e.Pages != nil || e.Sources != nil {
		t.Error("E: parse failures carry no source counts")
	}

	// Directory order is preserved.
	want := []string{"A.pdf.jsonld", "C.pdf.jsonld", "D.pdf.jsonld", "E.pdf.jsonld"}
	for i, file := range want {
		if entries[i].File != file {
			t.Errorf("entry %d: expected %s, got %s", i, file, entries[i].File)
		}
	}
}

func TestInspect_RatioBand(t *testing.T) {
	tests := []struct {
		name    string
		pages   int
		sources int
		invalid bool
	}{
		{"exactly half", 2, 1, false},
		{"exactly one", 2, 2, false},
		{"between", 4, 3, false},
		{"below half", 3, 1, true},
		{"above one", 1, 2, true},
		{"no sources", 2, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			sources := make([]any, tt.sources)
			for i := range sources {
				sources[i] = "para (Page 1)"
			}
			writeFile(t, dir, "doc.pdf.jsonld", graphWithSources(sources...))
			writePages(t, dir, "doc", tt.pages)

			docs, err := Discover(dir)
			if err != nil {
				t.Fatalf("Discover failed: %v", err)
			}
			found := newTestAuditor(dir).Inspect(docs[0])

			if tt.invalid {
				if len(found) != 1 || found[0].Status != StatusInvalidSources {
					t.Fatalf("expected invalid sources, got %+v", found)
				}
				if *found[0].Pages != tt.pages || *found[0].Sources != tt.sources {
					t.Errorf("expected %d/%d, got %d/%d", tt.sources, tt.pages, *found[0].Sources, *found[0].Pages)
				}
			} else if len(found) != 0 {
				t.Errorf("expected no diagnosis, got %+v", found)
			}
		})
	}
}

func TestInspect_IndependentFlags(t *testing.T) {
	t.Run("empty graph and no images keeps both in order", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "X.pdf.jsonld", `{"@graph": []}`)

		docs, _ := Discover(dir)
		found := newTestAuditor(dir).Inspect(docs[0])
		if len(found) != 2 {
			t.Fatalf("expected 2 diagnoses, got %+v", found)
		}
		if found[0].Status != StatusGraphEmpty || found[1].Status != StatusNoPageImages {
			t.Errorf("unexpected order: %q, %q", found[0].Status, found[1].Status)
		}

		_, entries, err := newTestAuditor(dir).Analyze(context.Background())
		if err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
		if len(entries) != 1 || entries[0].Status != StatusGraphEmpty {
			t.Errorf("expected only the first diagnosis in the report, got %+v", entries)
		}
	})

	t.Run("empty graph with images also fails the ratio", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "Y.pdf.jsonld", `{"@graph": []}`)
		writePages(t, dir, "Y", 2)

		docs, _ := Discover(dir)
		found := newTestAuditor(dir).Inspect(docs[0])
		if len(found) != 2 || found[1].Status != StatusInvalidSources {
			t.Fatalf("expected graph-empty then invalid sources, got %+v", found)
		}
	})

	t.Run("missing graph key is not empty", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "Z.pdf.jsonld", `{"name": "no graph"}`)
		writePages(t, dir, "Z", 1)

		docs, _ := Discover(dir)
		found := newTestAuditor(dir).Inspect(docs[0])
		if len(found) != 1 || found[0].Status != StatusInvalidSources {
			t.Fatalf("expected only invalid sources, got %+v", found)
		}
	})

	t.Run("top-level array has no graph", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "W.pdf.jsonld", `[1, 2, 3]`)

		docs, _ := Discover(dir)
		found := newTestAuditor(dir).Inspect(docs[0])
		if len(found) != 1 || found[0].Status != StatusNoPageImages {
			t.Fatalf("expected only no page images, got %+v", found)
		}
	})
}

func TestInspect_ParseFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty file", ""},
		{"truncated", `{"@graph": [{"source": "x"`},
		{"trailing garbage", `{"@graph": []} extra`},
		{"not json", "<html></html>"},
		{"invalid utf-8", "{\"@graph\":[{\"source\":\"x\xff (Page 1)\"}]}"},
		{"null document", "null"},
		{"number document", "42"},
		{"string naming the graph", `"see @graph"`},
		{"array holding the graph key", `["@graph"]`},
		{"null graph entry", `{"@graph": [null]}`},
		{"number graph entry", `{"@graph": [{"source": "a (Page 1)"}, 7]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "bad.pdf.jsonld", tt.content)
			writePages(t, dir, "bad", 1)

			docs, _ := Discover(dir)
			found := newTestAuditor(dir).Inspect(docs[0])
			if len(found) != 1 {
				t.Fatalf("expected a single diagnosis, got %+v", found)
			}
			if !strings.HasPrefix(found[0].Status, "Failed to open/parse: ") {
				t.Errorf("unexpected status %q", found[0].Status)
			}
		})
	}

	t.Run("invalid utf-8 names the offset", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "U.pdf.jsonld", "{\"@graph\":[{\"source\":\"x\xff (Page 1)\"}]}")
		writePages(t, dir, "U", 1)

		docs, _ := Discover(dir)
		found := newTestAuditor(dir).Inspect(docs[0])
		if len(found) != 1 || found[0].Error != "invalid UTF-8 at byte 23" {
			t.Errorf("unexpected diagnoses %+v", found)
		}
	})

	t.Run("unreadable entry", func(t *testing.T) {
		dir := t.TempDir()
		// A directory with the suffix cannot be read as a file.
		if err := os.Mkdir(filepath.Join(dir, "dir.pdf.jsonld"), 0o755); err != nil {
			t.Fatal(err)
		}

		_, entries, err := newTestAuditor(dir).Analyze(context.Background())
		if err != nil {
			t.Fatalf("Analyze should recover per-file errors: %v", err)
		}
		if len(entries) != 1 || !strings.HasPrefix(entries[0].Status, StatusParseFailure) {
			t.Errorf("expected parse failure entry, got %+v", entries)
		}
	})
}

func TestCountPageSources(t *testing.T) {
	tests := []struct {
		name     string
		graph    any
		expected int
		wantErr  bool
	}{
		{"nil", nil, 0, false},
		{"object", map[string]any{"source": "a (Page 1)"}, 0, false},
		{"mixed", []any{
			map[string]any{"source": "intro (Page 1)"},
			map[string]any{"source": "Page 2"},
			map[string]any{"source": "(Page x)"},
			map[string]any{"source": 7.0},
			map[string]any{"other": "(Page 3)"},
			"(Page 4)",
			map[string]any{"source": "multi (Page 12) and (Page 13)"},
			[]any{"other"},
		}, 2, false},
		{"null entry", []any{map[string]any{"source": "(Page 1)"}, nil}, 0, true},
		{"number entry", []any{3.0}, 0, true},
		{"string naming source", []any{"source (Page 1)"}, 0, true},
		{"list holding source", []any{[]any{"source"}}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CountPageSources(tt.graph)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if got != tt.expected {
				t.Errorf("got %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "A.pdf.jsonld", "{}")
	writeFile(t, dir, "AB.pdf.jsonld", "{}")
	writeFile(t, dir, "A_page_1.png", "")
	writeFile(t, dir, "AB_page_1.png", "")
	writeFile(t, dir, "A_page_1.jpg", "")

	docs, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}

	if docs[0].Root != "A" || docs[0].Path != filepath.Join(dir, "A.pdf.jsonld") {
		t.Errorf("unexpected first document %+v", docs[0])
	}
	// Prefix matching lets "A" claim AB's page too.
	if len(docs[0].PageImages) != 2 {
		t.Errorf("expected A to match 2 images, got %v", docs[0].PageImages)
	}
	if len(docs[1].PageImages) != 1 || docs[1].PageImages[0] != "AB_page_1.png" {
		t.Errorf("expected AB to match its own image, got %v", docs[1].PageImages)
	}

	if _, err := Discover(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestRun_WritesReport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "A.pdf.jsonld", `{"@graph": []}`)
	writePages(t, dir, "A", 1)

	reportPath := filepath.Join(t.TempDir(), "debug", "RDFS1")
	auditor := newTestAuditor(dir)

	result, err := auditor.Run(context.Background(), reportPath)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.ReportPath != reportPath || result.Documents != 1 || len(result.Entries) != 1 {
		t.Errorf("unexpected result %+v", result)
	}

	first, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(first, &decoded); err != nil {
		t.Fatalf("report is not JSON: %v", err)
	}
	if len(decoded) != 1 || decoded[0]["file"] != "A.pdf.jsonld" || decoded[0]["status"] != "@graph is empty" {
		t.Errorf("unexpected report contents: %s", first)
	}
	if _, ok := decoded[0]["pages"]; ok {
		t.Error("graph-empty entry should not carry page counts")
	}

	// Re-running on unchanged input yields an identical report.
	if _, err := auditor.Run(context.Background(), reportPath); err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	second, _ := os.ReadFile(reportPath)
	if !bytes.Equal(first, second) {
		t.Errorf("reports differ:\n%s\n---\n%s", first, second)
	}
}

func TestRun_OverwritesReport(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(t.TempDir(), "RDFS1")
	writeFile(t, filepath.Dir(reportPath), "RDFS1", `[{"file": "old.pdf.jsonld", "status": "stale"}]`)

	if _, err := newTestAuditor(dir).Run(context.Background(), reportPath); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	data, _ := os.ReadFile(reportPath)
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("expected empty report, got %s", data)
	}
}

func TestAnalyze_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "A.pdf.jsonld", "{}")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := newTestAuditor(dir).Analyze(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestEncodeReport(t *testing.T) {
	data, err := EncodeReport(nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[]\n" {
		t.Errorf("expected []\\n, got %q", data)
	}

	data, err = EncodeReport([]Entry{{File: "a<b>.pdf.jsonld", Status: StatusNoPageImages}})
	if err != nil {
		t.Fatal(err)
	}
	want := "[\n    {\n        \"file\": \"a<b>.pdf.jsonld\",\n        \"status\": \"No corresponding PNG files found\"\n    }\n]\n"
	if string(data) != want {
		t.Errorf("unexpected encoding:\n%s", data)
	}
}
