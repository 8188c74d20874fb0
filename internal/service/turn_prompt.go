package service

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/taskchat/taskchat/internal/domain/task"
)

//go:embed templates/system_prompt.tmpl
var promptFS embed.FS

var systemPromptTmpl = template.Must(template.ParseFS(promptFS, "templates/system_prompt.tmpl"))

// renderSystemPrompt produces the routing contract handed to the reasoning
// provider on every turn. Field limits are injected from the domain package
// so the prompt cannot drift from what validation enforces.
func renderSystemPrompt() (string, error) {
	data := struct {
		MaxTitleLen int
	}{
		MaxTitleLen: task.MaxTitleLen,
	}

	var buf bytes.Buffer
	if err := systemPromptTmpl.ExecuteTemplate(&buf, "system_prompt.tmpl", data); err != nil {
		return "", fmt.Errorf("render system prompt: %w", err)
	}
	return buf.String(), nil
}
