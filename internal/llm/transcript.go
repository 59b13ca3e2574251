package llm

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// transcriptMu serializes appends from concurrent requests in this process.
var transcriptMu sync.Mutex

// appendTranscript appends a human-readable record of the call to path.
// Failures are rendered as NONE.
func appendTranscript(path string, req Request, result *Result) error {
	var b strings.Builder
	b.WriteString("########## Prompt ##########\n")
	fmt.Fprintf(&b, "%s\nmax_tokens=%d\n", req.Prompt, req.MaxTokens)
	b.WriteString("########## Response ##########\n")
	text := "NONE"
	if result.Success() {
		text = result.Text.String()
	}
	b.WriteString(text + "\n")

	transcriptMu.Lock()
	defer transcriptMu.Unlock()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open transcript: %w", err)
	}
	if _, err := f.WriteString(b.String()); err != nil {
		_ = f.Close()
		return fmt.Errorf("append transcript: %w", err)
	}
	return f.Close()
}
