// Package scorer extracts final answers from chain-of-thought results and
// scores them against the benchmark targets by exact match.
package scorer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/giantswarm/llm-bench/internal/bigbench"
)

// OverallKey is the Scores entry aggregating all scored subjects.
const OverallKey = "overall"

// SubjectScore is the exact-match accuracy of one subject. Missing counts
// examples without an answer; they are scored as incorrect.
type SubjectScore struct {
	Correct int     `json:"correct"`
	Total   int     `json:"total"`
	Score   float64 `json:"score"`
	Missing int     `json:"missing,omitempty"`
}

// Scores maps subject names, plus OverallKey, to their score.
type Scores map[string]SubjectScore

// InvalidAnswersError reports an answers file that cannot be aligned with the
// subject's examples.
type InvalidAnswersError struct {
	Index    int
	Examples int
	Reason   string
}

func (e *InvalidAnswersError) Error() string {
	return fmt.Sprintf("answer index %d %s (%d examples)", e.Index, e.Reason, e.Examples)
}

// Score compares each answer to the target of the example at its Index.
// Examples without an answer, such as requests that failed during the run,
// count against the total.
func Score(examples []bigbench.Example, answers []bigbench.Answer) (SubjectScore, error) {
	seen := make([]bool, len(examples))
	correct := 0
	for _, a := range answers {
		if a.Index < 0 || a.Index >= len(examples) {
			return SubjectScore{}, &InvalidAnswersError{Index: a.Index, Examples: len(examples), Reason: "out of range"}
		}
		if seen[a.Index] {
			return SubjectScore{}, &InvalidAnswersError{Index: a.Index, Examples: len(examples), Reason: "is duplicated"}
		}
		seen[a.Index] = true
		if examples[a.Index].Target == a.Completion {
			correct++
		}
	}

	s := newSubjectScore(correct, len(examples))
	s.Missing = len(examples) - len(answers)
	return s, nil
}

func newSubjectScore(correct, total int) SubjectScore {
	s := SubjectScore{Correct: correct, Total: total}
	if total > 0 {
		s.Score = float64(correct) / float64(total)
	}
	return s
}

// ScoreDir scores every subject in the dataset that has an answers file of
// the given style under outputDir. Subjects without an answers file are not
// scored; subjects whose answers cannot be aligned with the examples are
// skipped with a warning.
func ScoreDir(dataset *bigbench.Dataset, outputDir, style string) (Scores, error) {
	subjects, err := dataset.TestSubjects()
	if err != nil {
		return nil, err
	}

	scores := Scores{}
	totalCorrect, total, missing := 0, 0, 0
	for _, subject := range subjects {
		answerPath := bigbench.AnswersFile(outputDir, subject, style)
		answers, err := loadAnswers(answerPath)
		if errors.Is(err, fs.ErrNotExist) {
			slog.Info("answer file does not exist", "file", answerPath)
			continue
		}
		if err != nil {
			return nil, err
		}

		examples, err := dataset.LoadExamples(subject)
		if err != nil {
			return nil, err
		}

		s, err := Score(examples, answers)
		if err != nil {
			slog.Warn("skipping subject with invalid answers", "subject", subject, "file", answerPath, "error", err)
			continue
		}
		if s.Missing > 0 {
			slog.Warn("examples without answers scored as incorrect", "subject", subject, "missing", s.Missing)
		}
		scores[subject] = s
		totalCorrect += s.Correct
		total += s.Total
		missing += s.Missing
		slog.Debug("subject scored", "subject", subject, "correct", s.Correct, "total", s.Total)
	}

	overall := newSubjectScore(totalCorrect, total)
	overall.Missing = missing
	scores[OverallKey] = overall
	return scores, nil
}

func loadAnswers(path string) ([]bigbench.Answer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var answers []bigbench.Answer
	if err := json.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("failed to parse answers file %s: %w", path, err)
	}
	return answers, nil
}

// ScoreFileName returns the name of a score file written at t.
func ScoreFileName(style string, t time.Time) string {
	return fmt.Sprintf("bigbench_scores_%s_%s.json", style, t.Format("20060102-150405"))
}

// WriteScoreFile writes scores as JSON into dir and returns the file path.
func WriteScoreFile(scores Scores, dir, style string, t time.Time) (string, error) {
	data, err := json.MarshalIndent(scores, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal scores: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create scores directory: %w", err)
	}
	path := filepath.Join(dir, ScoreFileName(style, t))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write scores file: %w", err)
	}
	return path, nil
}
