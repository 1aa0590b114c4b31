// extract.go pulls tool invocations and file-path arguments out of nested
// message payloads. Both dialect normalizers share it.
package transcript

import (
	"encoding/json"
	"strings"
)

// maxScanDepth bounds the depth-first walks over decoded JSON.
const maxScanDepth = 32

// pathKeys are argument names whose string value is a file path.
var pathKeys = map[string]struct{}{
	"file_path":        {},
	"filePath":         {},
	"path":             {},
	"notebook_path":    {},
	"notebookPath":     {},
	"filename":         {},
	"file":             {},
	"target_file":      {},
	"targetFile":       {},
	"source_path":      {},
	"destination_path": {},
	"old_path":         {},
	"new_path":         {},
}

// toolCall is one tool invocation found in a payload.
type toolCall struct {
	Name string
	Args map[string]any
}

// findToolCalls walks v depth-first and returns the tool invocations it
// contains. Array order is preserved. Two shapes are recognized:
//
//	{"type": "tool_use", "name": ..., "input": {...}}   (Claude content block)
//	{"name": ..., "arguments": {...} | "<json>"}        (Copilot tool request)
//
// A Copilot request without arguments counts when it has a toolCallId or
// type "function".
func findToolCalls(v any) []toolCall {
	var calls []toolCall
	walkToolCalls(v, 0, &calls)
	return calls
}

func walkToolCalls(v any, depth int, calls *[]toolCall) {
	if depth > maxScanDepth {
		return
	}
	switch node := v.(type) {
	case map[string]any:
		if call, ok := asToolCall(node); ok {
			*calls = append(*calls, call)
			return
		}
		for _, child := range node {
			walkToolCalls(child, depth+1, calls)
		}
	case []any:
		for _, elem := range node {
			walkToolCalls(elem, depth+1, calls)
		}
	}
}

// asToolCall reports whether node is a tool invocation and decodes it.
func asToolCall(node map[string]any) (toolCall, bool) {
	name, _ := node["name"].(string)
	if name == "" {
		return toolCall{}, false
	}

	if typ, _ := node["type"].(string); typ == "tool_use" {
		args, _ := node["input"].(map[string]any)
		return toolCall{Name: name, Args: args}, true
	}

	if raw, ok := node["arguments"]; ok {
		return toolCall{Name: name, Args: decodeArgs(raw)}, true
	}

	// A request with no arguments is still a call when it carries a call id.
	if id, _ := node["toolCallId"].(string); id != "" {
		return toolCall{Name: name}, true
	}
	if typ, _ := node["type"].(string); typ == "function" {
		return toolCall{Name: name}, true
	}
	return toolCall{}, false
}

// decodeArgs returns the argument object of a tool call. Some producers
// serialize arguments as a JSON string.
func decodeArgs(raw any) map[string]any {
	switch a := raw.(type) {
	case map[string]any:
		return a
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(a), &m); err != nil {
			return nil
		}
		return m
	}
	return nil
}

// scanPaths calls add for every allow-listed key in args whose value is a
// string containing a path separator. Nested objects are searched, including
// objects held in arrays. Arrays of primitives are ignored.
func scanPaths(args map[string]any, add func(string)) {
	scanPathsDepth(args, 0, add)
}

func scanPathsDepth(args map[string]any, depth int, add func(string)) {
	if args == nil || depth > maxScanDepth {
		return
	}
	for key, v := range args {
		switch val := v.(type) {
		case string:
			if isPathKey(key) && strings.ContainsAny(val, `/\`) {
				add(val)
			}
		case map[string]any:
			scanPathsDepth(val, depth+1, add)
		case []any:
			for _, elem := range val {
				if obj, ok := elem.(map[string]any); ok {
					scanPathsDepth(obj, depth+1, add)
				}
			}
		}
	}
}

func isPathKey(key string) bool {
	_, ok := pathKeys[key]
	return ok
}
