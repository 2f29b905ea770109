// Package llm - extractor.go builds prompts that ask for a single JSON object.
package llm

import (
	"fmt"
	"strings"
)

// ExtractionSchema describes the JSON object the model must return.
type ExtractionSchema struct {
	Name        string        // Schema name, e.g. "ApplicationUpdate"
	Description string        // Task preamble
	Fields      []SchemaField // Expected output fields
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string   // JSON field name
	Description string   // Description for the LLM
	Enum        []string // Allowed values, if restricted
	MaxWords    int      // Word limit for free text, 0 for none
	Required    bool
}

// BuildExtractionPrompt constructs the LLM prompt from schema and input text.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	sb.WriteString(schema.Description)
	sb.WriteString("\n\nReturn ONLY a JSON object with these fields:\n")
	for _, field := range schema.Fields {
		sb.WriteString(fmt.Sprintf("- %q: string", field.Name))
		var notes []string
		if field.Required {
			notes = append(notes, "required")
		}
		if len(field.Enum) > 0 {
			notes = append(notes, "one of "+strings.Join(field.Enum, ", "))
		}
		if field.MaxWords > 0 {
			notes = append(notes, fmt.Sprintf("at most %d words", field.MaxWords))
		}
		if len(notes) > 0 {
			sb.WriteString(" (" + strings.Join(notes, "; ") + ")")
		}
		if field.Description != "" {
			sb.WriteString(" - " + field.Description)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\nNo markdown, no explanation, no code blocks.\n\n")
	sb.WriteString("Input text:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}
