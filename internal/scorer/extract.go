package scorer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/giantswarm/llm-bench/internal/bigbench"
)

var answerPattern = regexp.MustCompile(`(?i)so the answer is`)

// ExtractAnswer returns the final answer of a chain-of-thought completion:
// the text after the last "So the answer is" up to the end of its line,
// without the closing period. Completions without the phrase are returned
// trimmed.
func ExtractAnswer(completion string) string {
	locs := answerPattern.FindAllStringIndex(completion, -1)
	if locs == nil {
		return strings.TrimSpace(completion)
	}
	answer := completion[locs[len(locs)-1][1]:]
	if i := strings.IndexByte(answer, '\n'); i >= 0 {
		answer = answer[:i]
	}
	answer = strings.TrimSpace(answer)
	return strings.TrimSpace(strings.TrimSuffix(answer, "."))
}

// ExtractSubject reads a subject's CoT results and writes its answers file.
// It returns the path written.
func ExtractSubject(outputDir, subject, style string) (string, error) {
	data, err := os.ReadFile(bigbench.ResultsFile(outputDir, subject, style))
	if err != nil {
		return "", fmt.Errorf("failed to read results for %s: %w", subject, err)
	}
	var records []bigbench.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return "", fmt.Errorf("failed to parse results for %s: %w", subject, err)
	}

	answers := make([]bigbench.Answer, 0, len(records))
	for _, r := range records {
		answers = append(answers, bigbench.Answer{
			Index:      r.Index,
			TestName:   r.TestName,
			Completion: ExtractAnswer(r.Completion),
		})
	}

	out, err := json.MarshalIndent(answers, "", "    ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal answers: %w", err)
	}
	path := bigbench.AnswersFile(outputDir, subject, style)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create answers directory: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return "", fmt.Errorf("failed to write answers for %s: %w", subject, err)
	}
	return path, nil
}

// ExtractAll extracts answers for every subject with a results file. Subjects
// without results are skipped.
func ExtractAll(outputDir, style string, subjects []string) ([]string, error) {
	var written []string
	for _, subject := range subjects {
		if _, err := os.Stat(bigbench.ResultsFile(outputDir, subject, style)); err != nil {
			slog.Debug("no results for subject", "subject", subject, "style", style)
			continue
		}
		path, err := ExtractSubject(outputDir, subject, style)
		if err != nil {
			return written, err
		}
		slog.Info("answers extracted", "subject", subject, "file", path)
		written = append(written, path)
	}
	return written, nil
}
