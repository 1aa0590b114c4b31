package recap

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/berth-dev/recall/internal/transcript"
)

func sampleSession() *transcript.Session {
	return &transcript.Session{
		ID:           "4f1c2d3e-0a1b-4c5d-8e9f-0123456789ab",
		Dialect:      transcript.DialectClaude,
		Version:      "2.0.14",
		CWD:          "/home/dev/mailer",
		GitBranch:    "main",
		StartedAt:    time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		EndedAt:      time.Date(2026, 3, 2, 11, 30, 0, 0, time.UTC),
		MessageCount: 12,
		UserMessages: []string{"build an email filter", "add spam rules", "write tests for the   rules"},
		Tools:        []string{"Bash", "Edit"},
		Files:        []string{"src/api/email.ts", "src/rules.ts"},
	}
}

func TestGenerateSchemaIsStrict(t *testing.T) {
	schema := GenerateSchema[Recap]()

	if schema["type"] != "object" {
		t.Errorf("type: got %v, want object", schema["type"])
	}
	if schema["additionalProperties"] != false {
		t.Errorf("additionalProperties: got %v, want false", schema["additionalProperties"])
	}

	required, ok := schema["required"].([]string)
	if !ok {
		t.Fatalf("required: got %T, want []string", schema["required"])
	}
	sort.Strings(required)
	want := []string{"accomplished", "nextSteps", "openThreads", "summary", "title"}
	if strings.Join(required, ",") != strings.Join(want, ",") {
		t.Errorf("required: got %v, want %v", required, want)
	}
}

func TestNewWithoutKey(t *testing.T) {
	if _, err := New(Options{APIKey: "  "}); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("New: got %v, want ErrNoAPIKey", err)
	}
}

func TestNewDefaults(t *testing.T) {
	r, err := New(Options{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if r.Model() != defaultModel {
		t.Errorf("Model: got %q, want %q", r.Model(), defaultModel)
	}
	if r.maxMessages != defaultMaxMessages {
		t.Errorf("maxMessages: got %d, want %d", r.maxMessages, defaultMaxMessages)
	}
}

func TestAPIKeyFromEnv(t *testing.T) {
	t.Setenv("RECALL_TEST_KEY", " sk-abc \n")
	if got := APIKeyFromEnv("RECALL_TEST_KEY"); got != "sk-abc" {
		t.Errorf("APIKeyFromEnv: got %q, want %q", got, "sk-abc")
	}
	if got := APIKeyFromEnv(""); got != "" {
		t.Errorf("APIKeyFromEnv(\"\"): got %q, want empty", got)
	}
}

func TestBuildInput(t *testing.T) {
	input, err := BuildInput(sampleSession(), 0)
	if err != nil {
		t.Fatalf("BuildInput failed: %v", err)
	}

	for _, want := range []string{
		"Session: 4f1c2d3e-0a1b-4c5d-8e9f-0123456789ab (claude 2.0.14)",
		"Directory: /home/dev/mailer",
		"Branch: main",
		"2026-03-02 10:00 UTC to 2026-03-02 11:30 UTC (12 messages)",
		"1. build an email filter",
		"3. write tests for the rules",
		"Tools used: Bash, Edit",
		"- src/rules.ts",
	} {
		if !strings.Contains(input, want) {
			t.Errorf("input missing %q:\n%s", want, input)
		}
	}
	if strings.Contains(input, "omitted") {
		t.Errorf("input mentions omitted requests with no limit:\n%s", input)
	}
}

func TestBuildInputKeepsLastMessages(t *testing.T) {
	input, err := BuildInput(sampleSession(), 2)
	if err != nil {
		t.Fatalf("BuildInput failed: %v", err)
	}

	if strings.Contains(input, "build an email filter") {
		t.Errorf("oldest request should be dropped:\n%s", input)
	}
	if !strings.Contains(input, "(1 earlier requests omitted)") {
		t.Errorf("input missing omitted count:\n%s", input)
	}
	if !strings.Contains(input, "1. add spam rules") {
		t.Errorf("input should renumber kept requests:\n%s", input)
	}
}

func TestBuildInputTruncatesLongRequests(t *testing.T) {
	s := sampleSession()
	s.UserMessages = []string{strings.Repeat("x", maxRequestChars+50)}

	input, err := BuildInput(s, 0)
	if err != nil {
		t.Fatalf("BuildInput failed: %v", err)
	}
	if strings.Contains(input, strings.Repeat("x", maxRequestChars+1)) {
		t.Error("long request was not truncated")
	}
}

func TestDecodeModelJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"plain", `{"title":"A"}`, "A", false},
		{"wrapped", "Here you go:\n{\"title\":\"B\"}\nDone.", "B", false},
		{"empty", "   ", "", true},
		{"no object", "no json here", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Recap
			err := DecodeModelJSON(tt.in, &r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if r.Title != tt.want {
				t.Errorf("Title: got %q, want %q", r.Title, tt.want)
			}
		})
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		msg       string
		rateLimit bool
		server    bool
	}{
		{`POST "https://api.openai.com/v1/responses": 429 Too Many Requests`, true, false},
		{"Rate limit reached for gpt-4.1-mini", true, false},
		{`POST "https://api.openai.com/v1/responses": 500 Internal Server Error`, false, true},
		{"503 Service Unavailable", false, true},
		{"401 Unauthorized", false, false},
	}

	for _, tt := range tests {
		err := errors.New(tt.msg)
		if got := isRateLimitError(err); got != tt.rateLimit {
			t.Errorf("isRateLimitError(%q) = %v, want %v", tt.msg, got, tt.rateLimit)
		}
		if got := isServerError(err); got != tt.server {
			t.Errorf("isServerError(%q) = %v, want %v", tt.msg, got, tt.server)
		}
	}
	if isRateLimitError(nil) || isServerError(nil) {
		t.Error("nil error classified as retryable")
	}
}

// responseBody builds a minimal Responses API payload whose output text is text.
func responseBody(t *testing.T, text string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"id":         "resp_1",
		"object":     "response",
		"created_at": 1772445600,
		"status":     "completed",
		"model":      "gpt-4.1-mini",
		"output": []interface{}{
			map[string]interface{}{
				"type":   "message",
				"id":     "msg_1",
				"status": "completed",
				"role":   "assistant",
				"content": []interface{}{
					map[string]interface{}{
						"type":        "output_text",
						"text":        text,
						"annotations": []interface{}{},
					},
				},
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func TestRecapAgainstFakeAPI(t *testing.T) {
	want := Recap{
		Title:        "Email filter rules",
		Summary:      "Built an email filter and spam rules.",
		Accomplished: []string{"Email filter API"},
		OpenThreads:  []string{"Tests for spam rules"},
		NextSteps:    []string{"Finish rule tests"},
	}
	wantJSON, _ := json.Marshal(want)

	var (
		calls   int32
		gotBody map[string]interface{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if !strings.HasSuffix(r.URL.Path, "/responses") {
			t.Errorf("path: got %q, want .../responses", r.URL.Path)
		}
		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error":{"message":"boom","type":"server_error"}}`)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(responseBody(t, string(wantJSON)))
	}))
	defer srv.Close()

	r, err := New(Options{APIKey: "sk-test", Model: "gpt-4.1-mini", BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	r.retry = RetryPolicy{
		RateLimitWaits:   []time.Duration{time.Millisecond},
		ServerErrorWaits: []time.Duration{time.Millisecond},
	}

	got, err := r.Recap(context.Background(), sampleSession())
	if err != nil {
		t.Fatalf("Recap failed: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("calls: got %d, want 2", calls)
	}
	if got.Title != want.Title || len(got.NextSteps) != 1 || got.NextSteps[0] != "Finish rule tests" {
		t.Errorf("Recap: got %+v, want %+v", got, want)
	}

	if gotBody["model"] != "gpt-4.1-mini" {
		t.Errorf("request model: got %v", gotBody["model"])
	}
	text, _ := gotBody["text"].(map[string]interface{})
	format, _ := text["format"].(map[string]interface{})
	if format["type"] != "json_schema" || format["strict"] != true {
		t.Errorf("request format: got %v", format)
	}
}

func TestRecapGivesUpOnClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	r, err := New(Options{APIKey: "sk-test", BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	r.retry = RetryPolicy{
		RateLimitWaits:   []time.Duration{time.Millisecond},
		ServerErrorWaits: []time.Duration{time.Millisecond},
	}

	if _, err := r.Recap(context.Background(), sampleSession()); err == nil {
		t.Fatal("Recap: expected error, got nil")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}
