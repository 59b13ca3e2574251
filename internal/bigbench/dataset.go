package bigbench

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"
)

const (
	promptsDir = "cot-prompts"
	testsDir   = "bbh"
)

// Dataset reads prompt and test files laid out as
//
//	<root>/cot-prompts/<subject>.txt
//	<root>/bbh/<subject>.json
type Dataset struct {
	fsys fs.FS
}

// Open returns the dataset rooted at dir.
func Open(dir string) *Dataset {
	return NewDataset(os.DirFS(dir))
}

// NewDataset returns a dataset backed by fsys.
func NewDataset(fsys fs.FS) *Dataset {
	return &Dataset{fsys: fsys}
}

// PromptFile returns the slash-separated path of a subject's CoT prompt file.
func PromptFile(subject string) string {
	return path.Join(promptsDir, subject+".txt")
}

// TestFile returns the slash-separated path of a subject's test file.
func TestFile(subject string) string {
	return path.Join(testsDir, subject+".json")
}

// LoadPrompt reads and parses the subject's few-shot CoT prompt.
func (d *Dataset) LoadPrompt(subject string) (*CoTPrompt, error) {
	data, err := fs.ReadFile(d.fsys, PromptFile(subject))
	if err != nil {
		return nil, fmt.Errorf("failed to read CoT prompt for %s: %w", subject, err)
	}
	p, err := ParseCoTPrompt(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse CoT prompt for %s: %w", subject, err)
	}
	return p, nil
}

// LoadExamples reads the subject's test examples.
func (d *Dataset) LoadExamples(subject string) ([]Example, error) {
	data, err := fs.ReadFile(d.fsys, TestFile(subject))
	if err != nil {
		return nil, fmt.Errorf("failed to read test file for %s: %w", subject, err)
	}
	var file struct {
		Examples []Example `json:"examples"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse test file for %s: %w", subject, err)
	}
	return file.Examples, nil
}

// TestSubjects lists subject names that have a test file, in directory
// order. Non-JSON entries are skipped.
func (d *Dataset) TestSubjects() ([]string, error) {
	entries, err := fs.ReadDir(d.fsys, testsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list test files: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, ok := strings.CutSuffix(e.Name(), ".json")
		if !ok {
			slog.Debug("skipping non-json file", "file", e.Name())
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// Available lists the subjects with both a prompt and a test file.
func (d *Dataset) Available() []string {
	var names []string
	for _, s := range Subjects {
		if _, err := fs.Stat(d.fsys, PromptFile(s)); err != nil {
			continue
		}
		if _, err := fs.Stat(d.fsys, TestFile(s)); err != nil {
			continue
		}
		names = append(names, s)
	}
	return names
}
