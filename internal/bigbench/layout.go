package bigbench

import (
	"fmt"
	"path/filepath"
)

// ResultSetFile is the run metadata file written next to CoT results.
const ResultSetFile = "resultset.json"

// ResultsDir is where CoT results for an API style are written.
func ResultsDir(outputDir, style string) string {
	return filepath.Join(outputDir, "cot_results", style)
}

// ResultsFile is the CoT results file of a subject.
func ResultsFile(outputDir, subject, style string) string {
	return filepath.Join(ResultsDir(outputDir, style), fmt.Sprintf("%s_%s_cot_results.json", subject, style))
}

// AnswersDir is where extracted answers are written.
func AnswersDir(outputDir string) string {
	return filepath.Join(outputDir, "answers")
}

// AnswersFile is the extracted answers file of a subject.
func AnswersFile(outputDir, subject, style string) string {
	return filepath.Join(AnswersDir(outputDir), fmt.Sprintf("%s_%s_answers.json", subject, style))
}
