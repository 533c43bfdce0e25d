// Package groq classifies utterances into the intents of an NLU model's
// metadata by prompting Groq for structured JSON.
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/jinzhu/copier"
	"github.com/koscakluka/ema-tray/core/nlu"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultURL   = "https://api.groq.com/openai/v1/chat/completions"
	defaultModel = "openai/gpt-oss-20b"
)

var ErrNotInitialized = errors.New("nlu engine not initialized")

type Engine struct {
	apiKey string
	model  string
	url    string
	client *http.Client

	mu         sync.RWMutex
	metadata   *Metadata
	vocabulary vocabulary
	options    nlu.Options
}

type EngineOption func(*Engine)

// WithAPIKey overrides the GROQ_API_KEY environment variable.
func WithAPIKey(apiKey string) EngineOption {
	return func(e *Engine) {
		e.apiKey = apiKey
	}
}

func WithModel(model string) EngineOption {
	return func(e *Engine) {
		if model != "" {
			e.model = model
		}
	}
}

// WithURL sets the chat completions endpoint.
func WithURL(url string) EngineOption {
	return func(e *Engine) {
		if url != "" {
			e.url = url
		}
	}
}

func WithHTTPClient(client *http.Client) EngineOption {
	return func(e *Engine) {
		if client != nil {
			e.client = client
		}
	}
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		apiKey:  os.Getenv("GROQ_API_KEY"),
		model:   defaultModel,
		url:     defaultURL,
		client:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		options: nlu.NewOptions(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize loads the intents and vocabulary the classifier works with.
func (e *Engine) Initialize(_ context.Context, paths nlu.ModelPaths, opts ...nlu.Option) error {
	if paths.Model != "" {
		if _, err := os.Stat(paths.Model); err != nil {
			return fmt.Errorf("nlu model unavailable: %w", err)
		}
	}

	metadata, err := readMetadata(paths.Metadata)
	if err != nil {
		return err
	}

	var tokens vocabulary
	if paths.Vocabulary != "" {
		if tokens, err = readVocabulary(paths.Vocabulary); err != nil {
			return err
		}
	}

	e.mu.Lock()
	e.metadata = metadata
	e.vocabulary = tokens
	e.options = nlu.NewOptions(opts...)
	e.mu.Unlock()

	logger.Info("nlu initialized", "intents", len(metadata.Intents), "vocabulary", len(tokens))
	return nil
}

// Classify accepts the utterance and reports the result through the
// classification or error callback.
func (e *Engine) Classify(ctx context.Context, utterance string) error {
	e.mu.RLock()
	metadata := e.metadata
	tokens := e.vocabulary
	options := e.options
	e.mu.RUnlock()

	if metadata == nil {
		return ErrNotInitialized
	}

	go func() {
		if unknown := tokens.unknown(utterance); len(unknown) > 0 {
			options.TraceCallback("out of vocabulary: " + strings.Join(unknown, " "))
		}

		result, err := e.classify(ctx, metadata, utterance)
		if err != nil {
			options.ErrorCallback(err)
			return
		}
		if _, known := metadata.intent(result.Intent); !known {
			options.TraceCallback("unknown intent: " + result.Intent)
		}
		options.ClassificationCallback(result)
	}()
	return nil
}

type classification struct {
	Intent     string      `json:"intent" jsonschema:"description=Name of the matching intent"`
	Confidence float64     `json:"confidence" jsonschema:"minimum=0,maximum=1"`
	Slots      []slotValue `json:"slots"`
}

type slotValue struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Value    string `json:"value"`
	RawValue string `json:"raw_value" jsonschema:"description=Words of the utterance the value was read from"`
}

func (e *Engine) classify(ctx context.Context, metadata *Metadata, utterance string) (nlu.Result, error) {
	ctx, span := tracer.Start(ctx, "classify utterance")
	defer span.End()

	span.SetAttributes(attribute.String("request.model", e.model))
	response, err := e.prompt(ctx, systemPrompt(metadata), utterance)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "classification failed")
		return nlu.Result{}, err
	}

	result := nlu.Result{
		Intent:     response.Intent,
		Utterance:  utterance,
		Confidence: response.Confidence,
		Slots:      make(map[string]nlu.Slot, len(response.Slots)),
	}
	intent, _ := metadata.intent(response.Intent)
	for _, value := range response.Slots {
		var slot nlu.Slot
		if err := copier.Copy(&slot, &value); err != nil {
			return nlu.Result{}, fmt.Errorf("failed to copy slot %s: %w", value.Name, err)
		}
		if slot.Type == "" {
			for _, schema := range intent.Slots {
				if schema.Name == value.Name {
					slot.Type = schema.Type
				}
			}
		}
		result.Slots[value.Name] = slot
	}

	span.SetAttributes(attribute.String("response.intent", result.Intent))
	return result, nil
}

func systemPrompt(metadata *Metadata) string {
	return "You are the natural language understanding engine of a voice assistant. " +
		"Classify the user's utterance into exactly one of these intents and extract its slots:\n" +
		metadata.describe() +
		"Answer with the intent name, a confidence between 0 and 1 and every slot you found."
}

func (e *Engine) prompt(ctx context.Context, instructions, utterance string) (*classification, error) {
	reflector := jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(&classification{})

	reqBody := requestBody{
		Model: e.model,
		Messages: []message{
			{Role: "system", Content: instructions},
			{Role: "user", Content: utterance},
		},
		ResponseFormat: &responseFormat{
			Type: "json_schema",
			JSONSchema: &namedSchema{
				Name:   "classification",
				Schema: schema,
				Strict: true,
			},
		},
	}

	requestBodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(requestBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	respBodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("non-OK HTTP status: %s: %s", resp.Status, strings.TrimSpace(string(respBodyBytes)))
	}

	var responseBody chatResponse
	if err := json.Unmarshal(respBodyBytes, &responseBody); err != nil {
		return nil, fmt.Errorf("error unmarshalling response body: %w", err)
	}
	if len(responseBody.Choices) == 0 {
		return nil, errors.New("response contained no choices")
	}

	content := responseBody.Choices[0].Message.Content
	if split := strings.Split(content, "```"); len(split) > 1 {
		content = strings.TrimPrefix(split[1], "json")
	}

	var output classification
	if err := json.Unmarshal([]byte(content), &output); err != nil {
		return nil, fmt.Errorf("error unmarshalling classification: %w", err)
	}
	return &output, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type requestBody struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type       string       `json:"type"`
	JSONSchema *namedSchema `json:"json_schema,omitempty"`
}

type namedSchema struct {
	Name   string             `json:"name"`
	Schema *jsonschema.Schema `json:"schema"`
	Strict bool               `json:"strict"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
