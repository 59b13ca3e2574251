package runner

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/llm-bench/internal/bigbench"
	"github.com/giantswarm/llm-bench/internal/llm"
	"github.com/giantswarm/llm-bench/internal/testutil"
)

const testPrompt = "canary\n-----\nSolve the puzzle.\n\nQ: 1+1\nA: Let's think step by step.\nSo the answer is 2.\n"

func testDataset() *bigbench.Dataset {
	return bigbench.NewDataset(fstest.MapFS{
		"cot-prompts/object_counting.txt": {Data: []byte(testPrompt)},
		"bbh/object_counting.json": {Data: []byte(`{"examples":[
			{"input":"q0","target":"0"},
			{"input":"q1","target":"1"},
			{"input":"q2","target":"2"},
			{"input":"q3","target":"3"},
			{"input":"q4","target":"4"}]}`)},
		"cot-prompts/navigate.txt": {Data: []byte(testPrompt)},
		"bbh/navigate.json":        {Data: []byte(`{"examples":[{"input":"go","target":"Yes"}]}`)},
	})
}

func readRecords(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var records []map[string]any
	require.NoError(t, json.Unmarshal(data, &records))
	return records
}

func TestRunnerWritesSortedRecords(t *testing.T) {
	tmpDir := t.TempDir()
	client := &testutil.MockCompleter{DefaultResponse: "So the answer is 3."}

	r := NewRunner(client, &ChatStrategy{}, testDataset(), tmpDir, Options{MaxThread: 3})
	sr, err := r.RunSubject(context.Background(), "object_counting")
	require.NoError(t, err)

	assert.Equal(t, 5, sr.Examples)
	assert.Equal(t, 5, sr.Completed)
	assert.Equal(t, bigbench.ResultsFile(tmpDir, "object_counting", "chat"), sr.ResultsFile)
	assert.Equal(t, 5, client.Calls())

	records := readRecords(t, sr.ResultsFile)
	require.Len(t, records, 5)
	for i, rec := range records {
		assert.Equal(t, float64(i), rec["index"])
		assert.Equal(t, "object_counting", rec["test_name"])
		assert.Equal(t, "So the answer is 3.", rec["completion"])
		messages, ok := rec["prompt"].([]any)
		require.True(t, ok, "chat prompt is persisted as messages")
		last := messages[len(messages)-1].(map[string]any)
		assert.Equal(t, "Q: q"+string(rune('0'+i)), last["content"])
	}
}

func TestRunnerDropsFailedExamples(t *testing.T) {
	tmpDir := t.TempDir()
	client := &testutil.MockCompleter{
		Fail: func(req llm.Request) (string, bool) {
			return `{"error":"not found"}`, strings.Contains(req.Prompt.String(), "Q: q3")
		},
	}

	r := NewRunner(client, &CompletionStrategy{}, testDataset(), tmpDir, Options{})
	sr, err := r.RunSubject(context.Background(), "object_counting")
	require.NoError(t, err)

	assert.Equal(t, 5, sr.Examples)
	assert.Equal(t, 4, sr.Completed)

	records := readRecords(t, sr.ResultsFile)
	require.Len(t, records, 4)
	var indexes []float64
	for _, rec := range records {
		indexes = append(indexes, rec["index"].(float64))
		_, isString := rec["prompt"].(string)
		assert.True(t, isString, "completion prompt is persisted as text")
	}
	assert.Equal(t, []float64{0, 1, 2, 4}, indexes)
}

func TestRunnerAppliesOptions(t *testing.T) {
	client := &testutil.MockCompleter{}
	r := NewRunner(client, &CompletionStrategy{}, testDataset(), t.TempDir(), Options{
		Model:     "custom-model",
		MaxTokens: 99,
		MaxTrial:  7,
		LogFile:   "transcript.log",
	})

	_, err := r.RunSubject(context.Background(), "navigate")
	require.NoError(t, err)

	reqs := client.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "custom-model", reqs[0].Model)
	assert.Equal(t, 99, reqs[0].MaxTokens)
	assert.Equal(t, 7, reqs[0].MaxTrial)
	assert.Equal(t, "transcript.log", reqs[0].LogFile)
	assert.Equal(t, "custom-model", r.Model())
}

func TestRunnerMissingSubjectFiles(t *testing.T) {
	r := NewRunner(&testutil.MockCompleter{}, &ChatStrategy{}, testDataset(), t.TempDir(), Options{})
	_, err := r.RunSubject(context.Background(), "snarks")
	assert.Error(t, err)
}

func TestRunnerRunWritesMetadata(t *testing.T) {
	tmpDir := t.TempDir()
	client := &testutil.MockCompleter{}

	r := NewRunner(client, &ChatStrategy{}, testDataset(), tmpDir, Options{MaxThread: 2})

	var mu sync.Mutex
	progress := map[string]int{}
	r.SetProgressFunc(func(subject string, done, total int) {
		mu.Lock()
		defer mu.Unlock()
		progress[subject] = done
	})

	run, err := r.Run(context.Background(), []string{"object_counting", "snarks", "navigate"})
	require.NoError(t, err)

	// snarks has no dataset files and is dropped.
	require.Len(t, run.Subjects, 2)
	assert.Equal(t, "object_counting", run.Subjects[0].Subject)
	assert.Equal(t, "navigate", run.Subjects[1].Subject)
	assert.Equal(t, "chat", run.Style)
	assert.Equal(t, "gpt-4-1106-preview", run.Model)
	assert.Equal(t, map[string]int{"object_counting": 5, "navigate": 1}, progress)

	data, err := os.ReadFile(filepath.Join(bigbench.ResultsDir(tmpDir, "chat"), bigbench.ResultSetFile))
	require.NoError(t, err)
	var metadata map[string]any
	require.NoError(t, json.Unmarshal(data, &metadata))
	assert.Equal(t, run.ID, metadata["id"])
	assert.Len(t, metadata["subjects"], 2)
}

func TestRunnerNoSubjects(t *testing.T) {
	r := NewRunner(&testutil.MockCompleter{}, &ChatStrategy{}, testDataset(), t.TempDir(), Options{})
	_, err := r.Run(context.Background(), nil)
	assert.Error(t, err)
}

func TestRunnerCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &testutil.MockCompleter{Err: context.Canceled}
	r := NewRunner(client, &ChatStrategy{}, testDataset(), t.TempDir(), Options{})

	sr, err := r.RunSubject(ctx, "object_counting")
	require.NoError(t, err)
	assert.Equal(t, 0, sr.Completed)
	assert.Empty(t, readRecords(t, sr.ResultsFile))
}
