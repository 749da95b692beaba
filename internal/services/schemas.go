package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema describes the JSON a structured generation must return.
// Definition is a JSON Schema document; required lists are []any so the same
// map can be handed to both the validator and the provider.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

var schemaCache sync.Map // map[string]*jsonschema.Schema

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description, "minLength": 1}
}

func SummarySchema() *Schema {
	return &Schema{
		Name:        "summary",
		Description: "Document summary",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"briefSummary": stringProp("A brief 2-3 sentence summary"),
				"keyTakeaways": map[string]any{
					"type":        "array",
					"description": "List of 3-5 key points to remember",
					"items":       map[string]any{"type": "string"},
					"minItems":    1,
				},
				"detailedSummary": stringProp("A longer, more detailed summary (100-150 words)"),
			},
			"required": []any{"briefSummary", "keyTakeaways", "detailedSummary"},
		},
	}
}

func StudyAidsSchema() *Schema {
	return &Schema{
		Name:        "studyaids",
		Description: "Mind map and flashcards",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"mindMap": stringProp("A valid mermaid.js graph definition string"),
				"flashcards": map[string]any{
					"type":        "array",
					"description": "A list of flashcards for studying",
					"minItems":    1,
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"front": stringProp("Question or term"),
							"back":  stringProp("Answer or definition"),
						},
						"required": []any{"front", "back"},
					},
				},
			},
			"required": []any{"mindMap", "flashcards"},
		},
	}
}

// ExamSchema pins the question count, so each count compiles to its own schema.
func ExamSchema(numQuestions int) *Schema {
	options := map[string]any{}
	keys := []any{}
	for _, k := range []string{"A", "B", "C", "D"} {
		options[k] = stringProp("Answer option " + k)
		keys = append(keys, k)
	}

	return &Schema{
		Name:        fmt.Sprintf("exam-%d", numQuestions),
		Description: "Multiple-choice exam",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"questions": map[string]any{
					"type":        "array",
					"description": fmt.Sprintf("Array of exactly %d exam questions", numQuestions),
					"minItems":    numQuestions,
					"maxItems":    numQuestions,
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"question": stringProp("The question text"),
							"options": map[string]any{
								"type":                 "object",
								"description":          "Four answer options",
								"properties":           options,
								"required":             keys,
								"additionalProperties": false,
							},
							"correctAnswer": map[string]any{
								"type":        "string",
								"description": "The letter of the correct answer",
								"enum":        keys,
							},
							"explanation": stringProp("Explanation of why this answer is correct"),
						},
						"required": []any{"question", "options", "correctAnswer", "explanation"},
					},
				},
			},
			"required": []any{"questions"},
		},
	}
}

// validateResponse checks raw model output against schema. Failures are
// returned as plain errors; the generator wraps them.
func validateResponse(schema *Schema, raw json.RawMessage) error {
	if schema == nil {
		return nil
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	compiled, err := getCompiledSchema(schema)
	if err != nil {
		return fmt.Errorf("compile schema %q: %w", schema.Name, err)
	}

	if err := compiled.Validate(parsed); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

func getCompiledSchema(schema *Schema) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(schema.Name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The compiler wants decoded JSON values, not Go maps with typed slices.
	defBytes, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	var defParsed any
	if err := json.Unmarshal(defBytes, &defParsed); err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	schemaURL := fmt.Sprintf("schema://%s.json", schema.Name)
	if err := c.AddResource(schemaURL, defParsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}

	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	schemaCache.Store(schema.Name, compiled)
	return compiled, nil
}

// stripJSONFence removes a markdown code fence some models wrap JSON in.
func stripJSONFence(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}
