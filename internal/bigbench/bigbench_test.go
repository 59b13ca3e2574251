package bigbench

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/llm-bench/internal/llm"
)

const samplePrompt = `BIG-Bench Hard canary string
-----
Evaluate the result of a random Boolean expression.

Q: not ( ( not not True ) ) is
A: Let's think step by step.
Remember that (i) expressions inside brackets are always evaluated first. So the answer is False.

Q: True and False and not True and True is
A: Let's think step by step.
So the answer is False.
`

func sampleFS() fstest.MapFS {
	return fstest.MapFS{
		"cot-prompts/boolean_expressions.txt": {Data: []byte(samplePrompt)},
		"bbh/boolean_expressions.json": {Data: []byte(`{"examples":[
			{"input":"True and True is","target":"True"},
			{"input":"not True is","target":"False"}]}`)},
		"bbh/navigate.json": {Data: []byte(`{"examples":[]}`)},
		"bbh/README.md":     {Data: []byte("docs")},
	}
}

func TestResolveSubjects(t *testing.T) {
	all, err := ResolveSubjects(AllSubjects)
	require.NoError(t, err)
	assert.Len(t, all, 27)
	assert.Equal(t, "boolean_expressions", all[0])

	// The result must not alias the package list.
	all[0] = "changed"
	assert.Equal(t, "boolean_expressions", Subjects[0])

	one, err := ResolveSubjects("snarks")
	require.NoError(t, err)
	assert.Equal(t, []string{"snarks"}, one)

	_, err = ResolveSubjects("chess")
	var unknown *UnknownSubjectError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "chess", unknown.Name)
}

func TestParseCoTPrompt(t *testing.T) {
	p, err := ParseCoTPrompt(samplePrompt)
	require.NoError(t, err)

	assert.Equal(t, "Evaluate the result of a random Boolean expression.", p.Instruction)
	require.Len(t, p.Shots, 2)
	assert.Equal(t, "Q: not ( ( not not True ) ) is", p.Shots[0].Question)
	assert.Equal(t, "A: Let's think step by step.\nRemember that (i) expressions inside brackets are always evaluated first. So the answer is False.", p.Shots[0].Answer)
	assert.Equal(t, "A: Let's think step by step.\nSo the answer is False.", p.Shots[1].Answer)

	assert.True(t, len(p.Text) > 0)
	assert.NotContains(t, p.Text, "canary")
	assert.Equal(t, p.Text[len(p.Text)-1], byte('.'), "completion text is trimmed")
}

func TestParseCoTPromptRejectsShotWithoutAnswer(t *testing.T) {
	_, err := ParseCoTPrompt("header\n-----\nInstruction\n\nQ: question without answer")
	assert.Error(t, err)
}

func TestChatMessages(t *testing.T) {
	p, err := ParseCoTPrompt(samplePrompt)
	require.NoError(t, err)

	messages := p.ChatMessages("True or False is")
	require.Len(t, messages, 6)
	assert.Equal(t, openai.ChatMessageRoleSystem, messages[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, messages[1].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, messages[2].Role)
	assert.Equal(t, llm.Message{Role: openai.ChatMessageRoleUser, Content: "Q: True or False is"}, messages[5])
}

func TestCompletionText(t *testing.T) {
	p := &CoTPrompt{Text: "few shot"}
	assert.Equal(t, "few shot\n\nQ: 1 + 1\nA: Let's think step by step.\n", p.CompletionText("1 + 1"))
}

func TestDatasetLoad(t *testing.T) {
	d := NewDataset(sampleFS())

	p, err := d.LoadPrompt("boolean_expressions")
	require.NoError(t, err)
	assert.Len(t, p.Shots, 2)

	examples, err := d.LoadExamples("boolean_expressions")
	require.NoError(t, err)
	assert.Equal(t, []Example{
		{Input: "True and True is", Target: "True"},
		{Input: "not True is", Target: "False"},
	}, examples)

	_, err = d.LoadPrompt("navigate")
	assert.Error(t, err)
}

func TestDatasetListing(t *testing.T) {
	d := NewDataset(sampleFS())

	names, err := d.TestSubjects()
	require.NoError(t, err)
	assert.Equal(t, []string{"boolean_expressions", "navigate"}, names)

	assert.Equal(t, []string{"boolean_expressions"}, d.Available())
}

func TestRecordPromptEncoding(t *testing.T) {
	chat := Record{
		Index:    1,
		TestName: "snarks",
		Prompt:   llm.MessagesPrompt(llm.Message{Role: "user", Content: "Q: x"}),
	}
	data, err := json.Marshal(chat)
	require.NoError(t, err)
	assert.JSONEq(t, `{"index":1,"test_name":"snarks","prompt":[{"role":"user","content":"Q: x"}],"completion":""}`, string(data))

	completion := Record{Prompt: llm.TextPrompt("Q: x")}
	data, err = json.Marshal(completion)
	require.NoError(t, err)
	assert.JSONEq(t, `{"index":0,"test_name":"","prompt":"Q: x","completion":""}`, string(data))
}

func TestLayout(t *testing.T) {
	assert.Equal(t, filepath.Join("results", "cot_results", "chat", "snarks_chat_cot_results.json"),
		ResultsFile("results", "snarks", "chat"))
	assert.Equal(t, filepath.Join("results", "answers", "snarks_completion_answers.json"),
		AnswersFile("results", "snarks", "completion"))
}
