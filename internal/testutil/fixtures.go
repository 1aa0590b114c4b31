// Package testutil provides transcript fixtures for recall tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Session ids used across fixtures.
const (
	ClaudeSessionID  = "4f1c2d3e-0a1b-4c5d-8e9f-0123456789ab"
	CopilotSessionID = "9a8b7c6d-5e4f-4a3b-9c2d-1e0f9a8b7c6d"
)

// TempTranscripts creates a temporary directory with the given files and returns its path.
// Files is a map of relative path -> content. Directories are created as needed.
// The directory is automatically cleaned up when the test finishes.
func TempTranscripts(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	for relPath, content := range files {
		absPath := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			t.Fatalf("creating directory for %s: %v", relPath, err)
		}
		if err := os.WriteFile(absPath, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", relPath, err)
		}
	}

	return dir
}

// JSONL joins records into newline-delimited transcript content.
func JSONL(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

// Usage is a token usage fixture shared by both dialect builders.
type Usage struct {
	Input, Output, CacheWrite, CacheRead int64
}

// ToolUse is a tool invocation fixture.
type ToolUse struct {
	Name string
	Args map[string]interface{}
}

// ClaudeUser returns a Claude Code user record with plain string content.
func ClaudeUser(ts, text string) string {
	return mustJSON(map[string]interface{}{
		"type":      "user",
		"sessionId": ClaudeSessionID,
		"timestamp": ts,
		"cwd":       "/home/dev/mailer",
		"gitBranch": "main",
		"version":   "2.0.14",
		"message": map[string]interface{}{
			"role":    "user",
			"content": text,
		},
	})
}

// ClaudeAssistant returns a Claude Code assistant record. usage may be nil.
func ClaudeAssistant(ts, model, text string, usage *Usage, tools ...ToolUse) string {
	content := []interface{}{}
	if text != "" {
		content = append(content, map[string]interface{}{"type": "text", "text": text})
	}
	for i, tool := range tools {
		content = append(content, map[string]interface{}{
			"type":  "tool_use",
			"id":    "toolu_" + string(rune('a'+i)),
			"name":  tool.Name,
			"input": tool.Args,
		})
	}

	msg := map[string]interface{}{
		"role":    "assistant",
		"content": content,
	}
	if model != "" {
		msg["model"] = model
	}
	if usage != nil {
		msg["usage"] = map[string]interface{}{
			"input_tokens":                usage.Input,
			"output_tokens":               usage.Output,
			"cache_creation_input_tokens": usage.CacheWrite,
			"cache_read_input_tokens":     usage.CacheRead,
		}
	}

	return mustJSON(map[string]interface{}{
		"type":      "assistant",
		"sessionId": ClaudeSessionID,
		"timestamp": ts,
		"cwd":       "/home/dev/mailer",
		"gitBranch": "main",
		"message":   msg,
	})
}

// ClaudeSummary returns a Claude Code summary control record.
func ClaudeSummary(text string) string {
	return mustJSON(map[string]interface{}{
		"type":     "summary",
		"summary":  text,
		"leafUuid": "0b1c2d3e-aaaa-bbbb-cccc-000000000000",
	})
}

// CopilotStart returns the session.start event that opens a Copilot log.
func CopilotStart(ts, cwd string) string {
	return copilotEvent("session.start", ts, map[string]interface{}{
		"sessionId":      CopilotSessionID,
		"version":        1,
		"producer":       "copilot-agent",
		"copilotVersion": "0.0.342",
		"startTime":      ts,
		"context": map[string]interface{}{
			"cwd": cwd,
		},
	})
}

// CopilotModelChange returns a session.model_change event.
func CopilotModelChange(ts, model string) string {
	return copilotEvent("session.model_change", ts, map[string]interface{}{
		"newModel": model,
	})
}

// CopilotUser returns a user.message event.
func CopilotUser(ts, text string) string {
	return copilotEvent("user.message", ts, map[string]interface{}{
		"content": text,
	})
}

// CopilotAssistant returns an assistant.message event. usage may be nil.
func CopilotAssistant(ts, model, text string, usage *Usage, tools ...ToolUse) string {
	requests := []interface{}{}
	for i, tool := range tools {
		requests = append(requests, map[string]interface{}{
			"toolCallId": "call_" + string(rune('a'+i)),
			"name":       tool.Name,
			"arguments":  tool.Args,
		})
	}

	data := map[string]interface{}{
		"messageId":    "msg-" + ts,
		"content":      text,
		"toolRequests": requests,
	}
	if model != "" {
		data["model"] = model
	}
	if usage != nil {
		data["usage"] = map[string]interface{}{
			"inputTokens":      usage.Input,
			"outputTokens":     usage.Output,
			"cacheWriteTokens": usage.CacheWrite,
			"cacheReadTokens":  usage.CacheRead,
		}
	}
	return copilotEvent("assistant.message", ts, data)
}

// CopilotToolComplete returns a tool.execution_complete event.
func CopilotToolComplete(ts, toolName string) string {
	return copilotEvent("tool.execution_complete", ts, map[string]interface{}{
		"toolCallId": "call_x",
		"toolName":   toolName,
		"success":    true,
	})
}

func copilotEvent(typ, ts string, data map[string]interface{}) string {
	return mustJSON(map[string]interface{}{
		"type":      typ,
		"id":        typ + "-" + ts,
		"timestamp": ts,
		"data":      data,
	})
}

func mustJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
