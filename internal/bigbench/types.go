package bigbench

import (
	"time"

	"github.com/giantswarm/llm-bench/internal/llm"
)

// Example is one test item of a subject file.
type Example struct {
	Input  string `json:"input"`
	Target string `json:"target"`
}

// Record is one persisted chain-of-thought completion. Prompt holds exactly
// what was sent: a string for completion models, messages for chat models.
type Record struct {
	Index      int        `json:"index"`
	TestName   string     `json:"test_name"`
	Prompt     llm.Prompt `json:"prompt"`
	Completion string     `json:"completion"`
}

// Answer is the final answer extracted from a Record.
type Answer struct {
	Index      int    `json:"index"`
	TestName   string `json:"test_name"`
	Completion string `json:"completion"`
}

// Run is the metadata of one benchmark run across subjects.
type Run struct {
	ID        string        `json:"id"`
	Style     string        `json:"style"`
	Model     string        `json:"model"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"-"`
	Subjects  []SubjectRun  `json:"subjects"`
}

// SubjectRun summarizes the results of a single subject.
type SubjectRun struct {
	Subject     string        `json:"subject"`
	Examples    int           `json:"examples"`
	Completed   int           `json:"completed"`
	Duration    time.Duration `json:"-"`
	ResultsFile string        `json:"results_file"`
}
