package log

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestNewLoggerCreatesDataDir(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "nested", ".recall")

	l, err := NewLogger(dataDir)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	if _, err := os.Stat(dataDir); err != nil {
		t.Errorf("data dir not created: %v", err)
	}
	if want := filepath.Join(dataDir, "log.jsonl"); l.Path() != want {
		t.Errorf("Path: got %q, want %q", l.Path(), want)
	}
}

func TestReadAllMissingFile(t *testing.T) {
	l, err := NewLogger(t.TempDir())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	events, err := l.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if events == nil || len(events) != 0 {
		t.Errorf("ReadAll: got %v, want empty non-nil slice", events)
	}
}

func TestAppendAndReadAll(t *testing.T) {
	l, err := NewLogger(t.TempDir())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	fixed := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	if err := l.Append(LogEvent{Time: fixed, Event: EventSearchStarted, Query: "email", Candidates: 12}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := l.Append(LogEvent{Event: EventSearchComplete, Query: "email", Results: 3, DurationMs: 41}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	events, err := l.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if !events[0].Time.Equal(fixed) {
		t.Errorf("events[0].Time: got %v, want %v", events[0].Time, fixed)
	}
	if events[0].Candidates != 12 {
		t.Errorf("events[0].Candidates: got %d, want 12", events[0].Candidates)
	}
	if events[1].Time.IsZero() {
		t.Error("events[1].Time was not stamped")
	}
	if events[1].Results != 3 {
		t.Errorf("events[1].Results: got %d, want 3", events[1].Results)
	}
}

func TestAppendConcurrent(t *testing.T) {
	l, err := NewLogger(t.TempDir())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Append(LogEvent{Event: EventSessionShown, SessionID: "abc"}); err != nil {
				t.Errorf("Append failed: %v", err)
			}
		}()
	}
	wg.Wait()

	events, err := l.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(events) != 20 {
		t.Errorf("got %d events, want 20", len(events))
	}
}

func TestReadAllMalformedLine(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLogger(dir)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	if err := os.WriteFile(l.Path(), []byte("{\"event\":\"search_started\"}\nnot json\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := l.ReadAll(); err == nil {
		t.Error("expected error for malformed line, got nil")
	}
}

func TestNilLoggerDiscards(t *testing.T) {
	var l *Logger
	if err := l.Append(LogEvent{Event: EventServerStarted}); err != nil {
		t.Errorf("nil Append: got %v, want nil", err)
	}
	if l.Path() != "" {
		t.Errorf("nil Path: got %q, want empty", l.Path())
	}
}

func TestFilter(t *testing.T) {
	events := []LogEvent{
		{Event: EventSearchStarted},
		{Event: EventSearchComplete, Results: 1},
		{Event: EventRecapGenerated},
		{Event: EventSearchComplete, Results: 2},
	}

	got := Filter(events, EventSearchComplete)
	if len(got) != 2 || got[0].Results != 1 || got[1].Results != 2 {
		t.Errorf("Filter: got %+v", got)
	}
	if got := Filter(events); len(got) != 0 {
		t.Errorf("Filter with no kinds: got %d events, want 0", len(got))
	}
}
