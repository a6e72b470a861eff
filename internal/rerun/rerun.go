// Package rerun derives the list of documents to reprocess from an audit report.
package rerun

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jackzampolin/pagecheck/internal/audit"
)

//go:embed report.schema.json
var reportSchema []byte

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// Request contains the parameters for building a rerun list.
type Request struct {
	ReportPath string
	ListPath   string
	Logger     *slog.Logger // Optional logger for progress updates
}

// Result contains the outcome of a successful build.
type Result struct {
	ReportPath string   `json:"report_path" yaml:"report_path"`
	ListPath   string   `json:"list_path" yaml:"list_path"`
	Entries    int      `json:"entries" yaml:"entries"`
	Files      []string `json:"files" yaml:"files"`
}

// Build reads the report, collects each distinct file identifier once, and
// overwrites the rerun list with one sorted identifier per line.
func Build(req Request) (*Result, error) {
	log := req.Logger
	if log == nil {
		log = slog.Default()
	}

	entries, err := ReadReport(req.ReportPath)
	if err != nil {
		return nil, err
	}

	files := UniqueFiles(entries)
	if err := WriteList(req.ListPath, files); err != nil {
		return nil, err
	}

	log.Info("rerun list written", "path", req.ListPath, "entries", len(entries), "files", len(files))
	return &Result{
		ReportPath: req.ReportPath,
		ListPath:   req.ListPath,
		Entries:    len(entries),
		Files:      files,
	}, nil
}

// ReadReport loads and validates a debug report.
func ReadReport(path string) ([]audit.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read debug report: %w", err)
	}
	if err := validateReport(data); err != nil {
		return nil, err
	}

	var entries []audit.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse debug report: %w", err)
	}
	return entries, nil
}

// UniqueFiles returns the distinct file identifiers of entries, sorted.
func UniqueFiles(entries []audit.Entry) []string {
	seen := make(map[string]struct{}, len(entries))
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.File]; ok {
			continue
		}
		seen[e.File] = struct{}{}
		files = append(files, e.File)
	}
	sort.Strings(files)
	return files
}

// WriteList overwrites path with one identifier per line.
func WriteList(path string, files []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create rerun list directory: %w", err)
	}

	var sb strings.Builder
	for _, f := range files {
		sb.WriteString(f)
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write rerun list: %w", err)
	}
	return nil
}

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("report.schema.json", bytes.NewReader(reportSchema)); err != nil {
			compileErr = fmt.Errorf("failed to load report schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile("report.schema.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("failed to compile report schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

func validateReport(data []byte) error {
	s, err := schema()
	if err != nil {
		return err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse debug report: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("debug report does not match schema: %w", err)
	}
	return nil
}
