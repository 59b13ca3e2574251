package bigbench

import (
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/giantswarm/llm-bench/internal/llm"
)

// headerLines is the number of leading lines (canary string and separator)
// in every CoT prompt file.
const headerLines = 2

const answerMarker = "\nA: "

// Shot is one worked few-shot example.
type Shot struct {
	Question string
	Answer   string
}

// CoTPrompt is a parsed chain-of-thought prompt file.
type CoTPrompt struct {
	// Text is the file body without header lines, used verbatim by
	// completion models.
	Text string

	// Instruction is the task description preceding the first shot.
	Instruction string
	Shots       []Shot
}

// ParseCoTPrompt parses a prompt file. The body is split on blank lines: the
// first block is the instruction and each further block a "Q: ...\nA: ..."
// shot.
func ParseCoTPrompt(contents string) (*CoTPrompt, error) {
	lines := strings.Split(contents, "\n")
	if len(lines) < headerLines {
		return nil, fmt.Errorf("prompt file has %d lines, expected a %d line header", len(lines), headerLines)
	}
	body := strings.Join(lines[headerLines:], "\n")

	blocks := strings.Split(body, "\n\n")
	p := &CoTPrompt{
		Text:        strings.TrimSpace(body),
		Instruction: blocks[0],
	}
	for i, block := range blocks[1:] {
		if strings.TrimSpace(block) == "" {
			continue
		}
		question, answer, ok := strings.Cut(block, answerMarker)
		if !ok {
			return nil, fmt.Errorf("shot %d has no answer", i+1)
		}
		if j := strings.Index(answer, answerMarker); j >= 0 {
			answer = answer[:j]
		}
		p.Shots = append(p.Shots, Shot{
			Question: strings.TrimSpace(question),
			Answer:   "A: " + strings.TrimSpace(answer),
		})
	}
	return p, nil
}

// ChatMessages renders the few-shot conversation followed by the question.
func (p *CoTPrompt) ChatMessages(input string) []llm.Message {
	messages := make([]llm.Message, 0, 2+2*len(p.Shots))
	messages = append(messages, llm.Message{Role: openai.ChatMessageRoleSystem, Content: p.Instruction})
	for _, s := range p.Shots {
		messages = append(messages,
			llm.Message{Role: openai.ChatMessageRoleUser, Content: s.Question},
			llm.Message{Role: openai.ChatMessageRoleAssistant, Content: s.Answer},
		)
	}
	return append(messages, llm.Message{Role: openai.ChatMessageRoleUser, Content: "Q: " + input})
}

// CompletionText renders the prompt for completion models.
func (p *CoTPrompt) CompletionText(input string) string {
	return fmt.Sprintf("%s\n\nQ: %s\nA: Let's think step by step.\n", p.Text, input)
}
