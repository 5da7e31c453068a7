// Package llm reconciles heuristically extracted fields against an
// OpenAI-compatible chat-completion endpoint.
//
// The post-processor is an optional enhancement stage and always fails
// open: on any transport, parse, or schema failure the heuristic field
// set is returned untouched with a single warning.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/docufin/docufin/internal/document"
)

// Error is an LLM post-processing failure. It never propagates to the
// caller as fatal; it only annotates the result as a warning.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("llm post-processing: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("llm post-processing: %s", e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Config holds post-processor settings. APIKey and BaseURL come from the
// LLM_API_KEY / LLM_API_URL environment configuration by default.
type Config struct {
	Enabled bool
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// MaxTextBytes truncates the document text sent in the prompt.
	MaxTextBytes int

	Logger *slog.Logger

	// HTTPClient overrides the default client; used by tests.
	HTTPClient *http.Client
}

// elevatedTrust is the confidence assigned to an LLM value filling a
// field the heuristics missed entirely.
const elevatedTrust = 0.6

// PostProcessor merges LLM corrections into a heuristic field set.
type PostProcessor struct {
	enabled bool
	model   string
	client  openai.Client
	hasKey  bool
	maxText int
	logger  *slog.Logger
}

// New creates a PostProcessor. A disabled or credential-less processor is
// still usable; Reconcile just passes fields through.
func New(cfg Config) *PostProcessor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	maxText := cfg.MaxTextBytes
	if maxText == 0 {
		maxText = 8000
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(2),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &PostProcessor{
		enabled: cfg.Enabled,
		model:   model,
		client:  openai.NewClient(opts...),
		hasKey:  cfg.APIKey != "",
		maxText: maxText,
		logger:  logger,
	}
}

// Enabled reports whether the post-processing stage is switched on.
func (p *PostProcessor) Enabled() bool { return p.enabled }

// Reconcile sends the normalized text and current field guesses to the
// model and merges validated corrections.
//
// Merge rule (monotonic): a returned value replaces the heuristic one only
// when the call, parse, and schema validation all succeeded AND either the
// heuristic field was empty (accepted with elevated default trust) or the
// model's confidence strictly exceeds the heuristic confidence. On any
// failure the input is returned unchanged with exactly one warning.
func (p *PostProcessor) Reconcile(ctx context.Context, text string, fields document.FieldSet) (document.FieldSet, []document.Warning) {
	if !p.enabled {
		return fields, nil
	}
	if !p.hasKey {
		p.logger.Warn("llm post-processing skipped: no API key configured")
		return fields, []document.Warning{{
			Stage:   document.StageLLM,
			Page:    -1,
			Message: "llm post-processing skipped: no API key configured",
		}}
	}

	resp, err := p.call(ctx, text, fields)
	if err != nil {
		p.logger.Warn("llm post-processing failed open", "error", err)
		return fields, []document.Warning{{
			Stage:   document.StageLLM,
			Page:    -1,
			Message: err.Error(),
		}}
	}

	return p.merge(fields, resp), nil
}

func (p *PostProcessor) call(ctx context.Context, text string, fields document.FieldSet) (*response, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(systemPrompt),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(buildPrompt(text, fields, p.maxText)),
					},
				},
			},
		},
		Temperature: openai.Float(0.2),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "document_fields",
					Schema: schemaAsAny(),
					Strict: openai.Bool(true),
				},
			},
		},
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, &Error{Reason: "chat completion request failed", Err: err}
	}
	if len(completion.Choices) == 0 {
		return nil, &Error{Reason: "empty completion"}
	}

	resp, err := parseResponse(completion.Choices[0].Message.Content)
	if err != nil {
		return nil, &Error{Reason: "unparseable response", Err: err}
	}
	return resp, nil
}

func (p *PostProcessor) merge(fields document.FieldSet, resp *response) document.FieldSet {
	merged := fields.Clone()
	for _, name := range document.FieldNames() {
		guess, ok := resp.Fields[string(name)]
		if !ok || guess.Value == nil || *guess.Value == "" {
			continue
		}
		current := merged[name]
		if *guess.Value == current.Value {
			continue
		}

		switch {
		case !current.Found():
			conf := guess.Confidence
			if conf < elevatedTrust {
				conf = elevatedTrust
			}
			merged.Set(name, *guess.Value, conf, document.SourceLLM)
			p.logger.Debug("llm filled missing field", "field", string(name), "confidence", conf)
		case guess.Confidence > current.Confidence:
			merged.Set(name, *guess.Value, guess.Confidence, document.SourceLLM)
			p.logger.Debug("llm overrode field",
				"field", string(name),
				"heuristic_confidence", current.Confidence,
				"llm_confidence", guess.Confidence)
		}
	}
	return merged
}
