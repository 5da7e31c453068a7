package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/docufin/docufin/internal/document"
)

// responseSchema constrains the model's output: one entry per recognized
// field, each with a nullable value and a 0-1 confidence. The same schema
// is sent as the response_format and enforced locally before any merge.
const responseSchema = `{
  "type": "object",
  "properties": {
    "fields": {
      "type": "object",
      "properties": {
        "doc_type":       {"$ref": "#/$defs/field"},
        "doc_id":         {"$ref": "#/$defs/field"},
        "date":           {"$ref": "#/$defs/field"},
        "bank_name":      {"$ref": "#/$defs/field"},
        "client_name":    {"$ref": "#/$defs/field"},
        "account_number": {"$ref": "#/$defs/field"},
        "amount":         {"$ref": "#/$defs/field"},
        "currency":       {"$ref": "#/$defs/field"}
      },
      "required": ["doc_type", "doc_id", "date", "bank_name", "client_name", "account_number", "amount", "currency"],
      "additionalProperties": false
    }
  },
  "required": ["fields"],
  "additionalProperties": false,
  "$defs": {
    "field": {
      "type": "object",
      "properties": {
        "value":      {"type": ["string", "null"]},
        "confidence": {"type": "number", "minimum": 0, "maximum": 1}
      },
      "required": ["value", "confidence"],
      "additionalProperties": false
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("document_fields.json", responseSchema)

// schemaAsAny returns the schema decoded for the request's response_format.
func schemaAsAny() any {
	var v any
	if err := json.Unmarshal([]byte(responseSchema), &v); err != nil {
		panic(err) // schema is a compile-time constant
	}
	return v
}

// fieldGuess is one field entry in the model's response.
type fieldGuess struct {
	Value      *string `json:"value"`
	Confidence float64 `json:"confidence"`
}

// response is the model's full structured reply.
type response struct {
	Fields map[string]fieldGuess `json:"fields"`
}

// parseResponse parses and schema-validates the model output, with
// lightweight recovery for markdown code fences around the JSON.
func parseResponse(content string) (*response, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty response")
	}

	candidates := []string{content}
	if stripped := stripCodeFences(content); stripped != content {
		candidates = append(candidates, stripped)
	}

	var lastErr error
	for _, candidate := range candidates {
		var raw any
		if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
			lastErr = fmt.Errorf("invalid JSON: %w", err)
			continue
		}
		if err := compiledSchema.Validate(raw); err != nil {
			lastErr = fmt.Errorf("schema violation: %w", err)
			continue
		}
		var resp response
		if err := json.Unmarshal([]byte(candidate), &resp); err != nil {
			lastErr = err
			continue
		}
		return &resp, nil
	}
	return nil, lastErr
}

// stripCodeFences removes a surrounding ```json ... ``` block if present.
func stripCodeFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// buildPrompt renders the user message: truncated document text plus the
// current heuristic guesses.
func buildPrompt(text string, fields document.FieldSet, maxTextBytes int) string {
	if maxTextBytes > 0 && len(text) > maxTextBytes {
		cut := text[:maxTextBytes]
		// Back up to a rune boundary so the cut never splits a UTF-8
		// sequence: trim continuation bytes, then a dangling lead byte.
		for len(cut) > 0 && !utf8.RuneStart(cut[len(cut)-1]) {
			cut = cut[:len(cut)-1]
		}
		if len(cut) > 0 && cut[len(cut)-1] >= utf8.RuneSelf {
			cut = cut[:len(cut)-1]
		}
		text = cut + "..."
	}

	var b strings.Builder
	b.WriteString("OCR text of the document (may contain recognition errors; languages: English, Russian, Kazakh):\n\n")
	b.WriteString(text)
	b.WriteString("\n\nCurrent extracted fields (value may be empty if not found):\n")
	for _, f := range fields.Ordered() {
		fmt.Fprintf(&b, "%s: %s\n", f.Name, f.Value)
	}
	b.WriteString("\nCorrect any OCR or extraction mistakes and fill in missing fields when the text supports it. Respond with the JSON object only.")
	return b.String()
}

const systemPrompt = "You are an assistant that corrects OCR extraction errors in financial documents written in English, Russian, or Kazakh. You respond with a single JSON object matching the provided schema. Use null for fields the document does not contain. Confidence reflects how certain you are of each value."
