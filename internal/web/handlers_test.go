package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/berth-dev/recall/internal/log"
	"github.com/berth-dev/recall/internal/recap"
	"github.com/berth-dev/recall/internal/search"
	"github.com/berth-dev/recall/internal/testutil"
	"github.com/berth-dev/recall/internal/transcript"
)

// mockFinder implements Finder for testing
type mockFinder struct {
	SearchFunc func(ctx context.Context, opts search.Options) ([]search.Result, error)
	LookupFunc func(ctx context.Context, id string) (*search.Result, error)
}

func (m *mockFinder) Search(ctx context.Context, opts search.Options) ([]search.Result, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, opts)
	}
	return nil, nil
}

func (m *mockFinder) Lookup(ctx context.Context, id string) (*search.Result, error) {
	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, id)
	}
	return nil, search.ErrNotFound
}

type mockRecapper struct {
	got *transcript.Session
}

func (m *mockRecapper) Recap(ctx context.Context, s *transcript.Session) (*recap.Recap, error) {
	m.got = s
	return &recap.Recap{Title: "Email filter", NextSteps: []string{"ship it"}}, nil
}

func newTestServer(f Finder, r Recapper, logger *log.Logger) *Server {
	gin.SetMode(gin.TestMode)
	return NewServer(f, r, logger)
}

func doGet(t *testing.T, s *Server, target string) (int, map[string]interface{}) {
	t.Helper()
	return do(t, s, http.MethodGet, target)
}

func do(t *testing.T, s *Server, method, target string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return w.Code, body
}

func TestHealth(t *testing.T) {
	s := newTestServer(&mockFinder{}, nil, nil)
	code, body := doGet(t, s, "/healthz")
	if code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("healthz: got %d %v", code, body)
	}
}

func TestAPISearchParsesParams(t *testing.T) {
	var got search.Options
	f := &mockFinder{SearchFunc: func(ctx context.Context, opts search.Options) ([]search.Result, error) {
		got = opts
		return []search.Result{{Session: transcript.Session{ID: "abc"}, Score: 13}}, nil
	}}
	s := newTestServer(f, nil, nil)

	code, body := doGet(t, s, "/api/search?q=email&days=7&since=2026-03-01&tool=Bash,Edit&tool=Write&file=api/&limit=5&dialect=claude")
	if code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%v)", code, body)
	}
	if body["success"] != true || body["count"] != float64(1) {
		t.Errorf("body: got %v", body)
	}

	if got.Query != "email" || got.Days != 7 || got.FilePattern != "api/" || got.Limit != 5 {
		t.Errorf("options: got %+v", got)
	}
	if got.Since.IsZero() || !got.Until.IsZero() {
		t.Errorf("date bounds: got since=%v until=%v", got.Since, got.Until)
	}
	if len(got.Tools) != 3 || got.Tools[0] != "Bash" || got.Tools[2] != "Write" {
		t.Errorf("tools: got %v", got.Tools)
	}
	if got.Dialect != transcript.DialectClaude {
		t.Errorf("dialect: got %q", got.Dialect)
	}
}

func TestAPISearchDefaults(t *testing.T) {
	var got search.Options
	f := &mockFinder{SearchFunc: func(ctx context.Context, opts search.Options) ([]search.Result, error) {
		got = opts
		return nil, nil
	}}
	s := newTestServer(f, nil, nil)

	code, body := doGet(t, s, "/api/search")
	if code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", code)
	}
	if got.Limit != search.DefaultLimit {
		t.Errorf("limit: got %d, want %d", got.Limit, search.DefaultLimit)
	}
	results, ok := body["results"].([]interface{})
	if !ok || len(results) != 0 {
		t.Errorf("results: got %v, want empty array", body["results"])
	}
}

func TestAPISearchBadParams(t *testing.T) {
	s := newTestServer(&mockFinder{}, nil, nil)

	for _, target := range []string{
		"/api/search?days=abc",
		"/api/search?days=-1",
		"/api/search?since=yesterday",
		"/api/search?until=03/01/2026",
		"/api/search?limit=0",
		"/api/search?limit=5000",
		"/api/search?dialect=cursor",
	} {
		code, body := doGet(t, s, target)
		if code != http.StatusBadRequest {
			t.Errorf("%s: status got %d, want 400", target, code)
		}
		if body["success"] != false || body["error"] == "" {
			t.Errorf("%s: body got %v", target, body)
		}
	}
}

func TestAPISearchEngineError(t *testing.T) {
	f := &mockFinder{SearchFunc: func(ctx context.Context, opts search.Options) ([]search.Result, error) {
		return nil, errors.New("disk on fire")
	}}
	s := newTestServer(f, nil, nil)

	code, body := doGet(t, s, "/api/search?q=x")
	if code != http.StatusInternalServerError || body["error"] != "disk on fire" {
		t.Errorf("got %d %v", code, body)
	}
}

func TestAPISessionErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", search.ErrNotFound, http.StatusNotFound},
		{"ambiguous", &search.AmbiguousError{Prefix: "ab", Matches: []string{"ab1", "ab2"}}, http.StatusConflict},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &mockFinder{LookupFunc: func(ctx context.Context, id string) (*search.Result, error) {
				return nil, tt.err
			}}
			s := newTestServer(f, nil, nil)

			code, body := doGet(t, s, "/api/sessions/ab")
			if code != tt.want {
				t.Errorf("status: got %d, want %d", code, tt.want)
			}
			if body["success"] != false {
				t.Errorf("success: got %v, want false", body["success"])
			}
		})
	}
}

func TestAPIAgainstTranscripts(t *testing.T) {
	dir := testutil.TempTranscripts(t, map[string]string{
		testutil.ClaudeSessionID + ".jsonl": testutil.JSONL(
			testutil.ClaudeUser("2026-03-02T10:00:00Z", "Let's build an email filtering system"),
			testutil.ClaudeAssistant("2026-03-02T10:00:05Z", "claude-sonnet-4-5", "ok", nil,
				testutil.ToolUse{Name: "Edit", Args: map[string]interface{}{"file_path": "src/api/email.ts"}}),
		),
	})
	logger, err := log.NewLogger(t.TempDir())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	finder := search.NewSearcher([]search.Source{{Dir: dir, Dialect: transcript.DialectClaude}}, 2)
	s := newTestServer(finder, nil, logger)

	code, body := doGet(t, s, "/api/search?q=email")
	if code != http.StatusOK {
		t.Fatalf("search status: got %d (%v)", code, body)
	}
	results := body["results"].([]interface{})
	if len(results) != 1 {
		t.Fatalf("results: got %d, want 1", len(results))
	}
	first := results[0].(map[string]interface{})
	if first["id"] != testutil.ClaudeSessionID || first["score"] != float64(13) {
		t.Errorf("result: got id=%v score=%v", first["id"], first["score"])
	}

	code, body = doGet(t, s, "/api/sessions/4f1c2d3e")
	if code != http.StatusOK {
		t.Fatalf("session status: got %d (%v)", code, body)
	}
	sess := body["session"].(map[string]interface{})
	if sess["id"] != testutil.ClaudeSessionID {
		t.Errorf("session id: got %v", sess["id"])
	}

	events, err := logger.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(events) != 2 || events[0].Event != log.EventSearchComplete || events[1].Event != log.EventSessionShown {
		t.Errorf("events: got %+v", events)
	}
}

func TestAPIRecap(t *testing.T) {
	found := &search.Result{Session: transcript.Session{ID: "abc", UserMessages: []string{"hi"}}}
	f := &mockFinder{LookupFunc: func(ctx context.Context, id string) (*search.Result, error) {
		return found, nil
	}}

	s := newTestServer(f, nil, nil)
	code, _ := do(t, s, http.MethodPost, "/api/sessions/abc/recap")
	if code != http.StatusServiceUnavailable {
		t.Errorf("without recapper: got %d, want 503", code)
	}

	r := &mockRecapper{}
	s = newTestServer(f, r, nil)
	code, body := do(t, s, http.MethodPost, "/api/sessions/abc/recap")
	if code != http.StatusOK {
		t.Fatalf("with recapper: got %d (%v)", code, body)
	}
	rc := body["recap"].(map[string]interface{})
	if rc["title"] != "Email filter" {
		t.Errorf("recap title: got %v", rc["title"])
	}
	if r.got == nil || r.got.ID != "abc" {
		t.Errorf("recapper got session %+v", r.got)
	}
}

func TestAPISearchUntilCoversWholeDay(t *testing.T) {
	var got search.Options
	f := &mockFinder{SearchFunc: func(ctx context.Context, opts search.Options) ([]search.Result, error) {
		got = opts
		return nil, nil
	}}
	s := newTestServer(f, nil, nil)

	if code, body := doGet(t, s, "/api/search?until=2026-03-02"); code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%v)", code, body)
	}
	ended := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	if got.Until.Before(ended) {
		t.Errorf("until: got %v, want a bound after %v", got.Until, ended)
	}
	if next := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC); !got.Until.Before(next) {
		t.Errorf("until: got %v, want before %v", got.Until, next)
	}
}

func TestLogWriteFailureReportedWhenVerbose(t *testing.T) {
	dir := t.TempDir()
	logger, err := log.NewLogger(dir)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	// A directory where the log file should be makes every append fail.
	if err := os.Mkdir(filepath.Join(dir, "log.jsonl"), 0755); err != nil {
		t.Fatalf("blocking log file: %v", err)
	}

	var stderr bytes.Buffer
	saved := gin.DefaultErrorWriter
	gin.DefaultErrorWriter = &stderr
	t.Cleanup(func() { gin.DefaultErrorWriter = saved })

	f := &mockFinder{SearchFunc: func(ctx context.Context, opts search.Options) ([]search.Result, error) {
		return nil, nil
	}}
	s := newTestServer(f, nil, logger)

	if code, _ := doGet(t, s, "/api/search?q=x"); code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", code)
	}
	if stderr.Len() != 0 {
		t.Errorf("quiet server wrote %q", stderr.String())
	}

	s.Verbose = true
	if code, _ := doGet(t, s, "/api/search?q=x"); code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", code)
	}
	if !strings.Contains(stderr.String(), "Warning: writing event log") {
		t.Errorf("verbose server wrote %q, want a warning", stderr.String())
	}
}
