package transcript

import (
	"encoding/json"
	"reflect"
	"sort"
	"testing"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("decoding fixture: %v", err)
	}
	return v
}

func collectPaths(args map[string]any) []string {
	var got []string
	scanPaths(args, func(p string) { got = append(got, p) })
	sort.Strings(got)
	return got
}

func TestFindToolCalls_ClaudeBlocks(t *testing.T) {
	content := decode(t, `[
		{"type": "text", "text": "reading"},
		{"type": "tool_use", "id": "1", "name": "Read", "input": {"file_path": "/src/a.go"}},
		{"type": "tool_use", "id": "2", "name": "Bash", "input": {"command": "go test ./..."}}
	]`)

	calls := findToolCalls(content)
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(calls))
	}
	if calls[0].Name != "Read" || calls[1].Name != "Bash" {
		t.Errorf("names = %q, %q; want Read, Bash", calls[0].Name, calls[1].Name)
	}
	if calls[0].Args["file_path"] != "/src/a.go" {
		t.Errorf("Read args = %v", calls[0].Args)
	}
}

func TestFindToolCalls_CopilotRequests(t *testing.T) {
	requests := decode(t, `[
		{"toolCallId": "c1", "name": "str_replace_editor", "arguments": {"command": "view", "path": "/repo/main.go"}},
		{"toolCallId": "c2", "name": "bash", "arguments": "{\"command\":\"ls\",\"path\":\"/repo/docs\"}"}
	]`)

	calls := findToolCalls(requests)
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(calls))
	}
	if calls[1].Args["path"] != "/repo/docs" {
		t.Errorf("string-encoded arguments not decoded: %v", calls[1].Args)
	}
}

func TestFindToolCalls_RequestsWithoutArguments(t *testing.T) {
	requests := decode(t, `[
		{"toolCallId": "c1", "name": "list_dir"},
		{"type": "function", "name": "get_time"},
		{"name": "label_only"}
	]`)

	calls := findToolCalls(requests)
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2: %+v", len(calls), calls)
	}
	if calls[0].Name != "list_dir" || calls[1].Name != "get_time" {
		t.Errorf("names = %q, %q; want list_dir, get_time", calls[0].Name, calls[1].Name)
	}
	if calls[0].Args != nil {
		t.Errorf("Args = %v, want nil", calls[0].Args)
	}
}

func TestFindToolCalls_IgnoresNonInvocations(t *testing.T) {
	v := decode(t, `{"name": "just a name", "content": [{"type": "text", "text": "x"}], "n": 3}`)
	if calls := findToolCalls(v); len(calls) != 0 {
		t.Errorf("got %d calls, want 0: %+v", len(calls), calls)
	}
	if calls := findToolCalls(nil); len(calls) != 0 {
		t.Errorf("findToolCalls(nil) = %+v, want none", calls)
	}
}

func TestScanPaths(t *testing.T) {
	args := decode(t, `{
		"file_path": "src/api/email.ts",
		"path": "README",
		"command": "cat /etc/hosts",
		"options": {"target_file": "C:\\work\\app.ts", "deeper": {"notebook_path": "nb/analysis.ipynb"}},
		"edits": [{"filePath": "pkg/a.go"}, "pkg/b.go", 7],
		"paths": ["pkg/c.go", "pkg/d.go"]
	}`).(map[string]any)

	want := []string{`C:\work\app.ts`, "nb/analysis.ipynb", "pkg/a.go", "src/api/email.ts"}
	if got := collectPaths(args); !reflect.DeepEqual(got, want) {
		t.Errorf("scanPaths = %v, want %v", got, want)
	}
}

func TestScanPaths_DepthIsBounded(t *testing.T) {
	root := map[string]any{}
	node := root
	for i := 0; i < maxScanDepth+10; i++ {
		child := map[string]any{}
		node["next"] = child
		node = child
	}
	node["file_path"] = "too/deep.go"
	root["file_path"] = "shallow/ok.go"

	want := []string{"shallow/ok.go"}
	if got := collectPaths(root); !reflect.DeepEqual(got, want) {
		t.Errorf("scanPaths = %v, want %v", got, want)
	}
}
