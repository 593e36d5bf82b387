// Package prompt renders the language-specific chat prompts for question
// answering and profile extraction.
package prompt

import (
	"context"
	"fmt"
	"strings"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/Ayutada/bluesky-analyzer/internal/domain"
)

// Purpose distinguishes the two template families.
type Purpose string

const (
	PurposeQA         Purpose = "qa"
	PurposeExtraction Purpose = "extraction"
)

// Template variables. Template bodies use Python-style {name} placeholders;
// literal braces must be doubled.
const (
	VarContext            = "context"
	VarInput              = "input"
	VarLangInstruction    = "lang_instruction"
	VarFormatInstructions = "format_instructions"
)

// Template is a system/user message pair plus fixed variables.
type Template struct {
	Language domain.Language
	Purpose  Purpose
	System   string
	User     string
	Vars     map[string]string
}

// Set holds everything language-specific the pipeline renders.
type Set struct {
	QA              Template
	Extraction      Template
	FallbackMessage string
	CannotAnswer    string
}

// ContextSeparator joins retrieved chunk texts.
const ContextSeparator = "\n\n"

// RenderContext joins chunk texts, most relevant first.
func RenderContext(texts []string) string {
	return strings.Join(texts, ContextSeparator)
}

// Compose substitutes the retrieved context and the user input into tpl.
// Blank input is rejected with domain.ErrEmptyInput.
func Compose(ctx context.Context, tpl Template, contextTexts []string, userInput string) ([]*schema.Message, error) {
	if strings.TrimSpace(userInput) == "" {
		return nil, fmt.Errorf("compose %s/%s prompt: %w", tpl.Language, tpl.Purpose, domain.ErrEmptyInput)
	}
	vars := make(map[string]any, len(tpl.Vars)+2)
	for k, v := range tpl.Vars {
		vars[k] = v
	}
	vars[VarContext] = RenderContext(contextTexts)
	vars[VarInput] = userInput

	templates := make([]schema.MessagesTemplate, 0, 2)
	if tpl.System != "" {
		templates = append(templates, schema.SystemMessage(tpl.System))
	}
	templates = append(templates, schema.UserMessage(tpl.User))

	msgs, err := einoprompt.FromMessages(schema.FString, templates...).Format(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("compose %s/%s prompt: %w", tpl.Language, tpl.Purpose, err)
	}
	return msgs, nil
}
