// Package recap turns a parsed session into an LLM-written handoff note using
// the OpenAI Responses API with a strict JSON schema.
package recap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/berth-dev/recall/internal/transcript"
	"github.com/berth-dev/recall/prompts"
)

// ErrNoAPIKey is returned when no OpenAI API key is configured.
var ErrNoAPIKey = errors.New("no OpenAI API key configured")

// Recap is the structured note returned by the model.
type Recap struct {
	Title        string   `json:"title" jsonschema_description:"Short name for the work"`
	Summary      string   `json:"summary" jsonschema_description:"Two or three sentences on what the session was about"`
	Accomplished []string `json:"accomplished" jsonschema_description:"Things that appear to be done"`
	OpenThreads  []string `json:"openThreads" jsonschema_description:"Things that may be unfinished"`
	NextSteps    []string `json:"nextSteps" jsonschema_description:"Actions to take when resuming"`
}

var recapSchema = GenerateSchema[Recap]()

const (
	defaultModel       = "gpt-4.1-mini"
	defaultMaxMessages = 40
	maxOutputTokens    = 1200
)

// Options configures a Recapper.
type Options struct {
	APIKey      string
	Model       string
	MaxMessages int

	// BaseURL overrides the API endpoint.
	BaseURL string
}

// Recapper generates recaps for sessions.
type Recapper struct {
	client      *openai.Client
	model       string
	maxMessages int
	retry       RetryPolicy
}

// New creates a Recapper. It returns ErrNoAPIKey when opts.APIKey is empty.
func New(opts Options) (*Recapper, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrNoAPIKey
	}

	// CallWithRetry owns retries.
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := openai.NewClient(reqOpts...)

	r := &Recapper{
		client:      &client,
		model:       opts.Model,
		maxMessages: opts.MaxMessages,
		retry:       DefaultRetryPolicy(),
	}
	if r.model == "" {
		r.model = defaultModel
	}
	if r.maxMessages <= 0 {
		r.maxMessages = defaultMaxMessages
	}
	return r, nil
}

// APIKeyFromEnv reads the key from the named environment variable.
func APIKeyFromEnv(name string) string {
	if name == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(name))
}

// Model returns the model the Recapper sends requests to.
func (r *Recapper) Model() string {
	return r.model
}

// Recap asks the model for a handoff note on s.
func (r *Recapper) Recap(ctx context.Context, s *transcript.Session) (*Recap, error) {
	if s == nil {
		return nil, errors.New("recap: session is nil")
	}

	input, err := BuildInput(s, r.maxMessages)
	if err != nil {
		return nil, err
	}

	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        "SessionRecap",
			Schema:      recapSchema,
			Strict:      openai.Bool(true),
			Description: openai.String("Handoff note for a coding-agent session"),
			Type:        "json_schema",
		},
	}

	params := responses.ResponseNewParams{
		Model:           r.model,
		MaxOutputTokens: openai.Int(maxOutputTokens),
		Instructions:    openai.String(prompts.RecapSystemPrompt),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(input, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: format,
		},
	}

	resp, err := CallWithRetry(ctx, r.client, params, r.retry)
	if err != nil {
		return nil, fmt.Errorf("requesting recap: %w", err)
	}

	var out Recap
	if err := DecodeModelJSON(resp.OutputText(), &out); err != nil {
		return nil, fmt.Errorf("decoding recap: %w", err)
	}
	return &out, nil
}

// DecodeModelJSON unmarshals JSON from a model response. If the text is not
// valid JSON as-is, the outermost {...} span is tried.
func DecodeModelJSON(outputText string, v any) error {
	s := strings.TrimSpace(outputText)
	if s == "" {
		return io.ErrUnexpectedEOF
	}

	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end <= start {
		return fmt.Errorf("no JSON object found in model output (len=%d)", len(s))
	}

	sub := s[start : end+1]
	if err := json.Unmarshal([]byte(sub), v); err != nil {
		return fmt.Errorf("unmarshal extracted JSON (len=%d): %w", len(sub), err)
	}
	return nil
}
