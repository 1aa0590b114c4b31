// copilot.go normalizes GitHub Copilot CLI session event logs.
package transcript

import "github.com/tidwall/gjson"

// Copilot event types.
const (
	copilotSessionStart = "session.start"
	copilotModelChange  = "session.model_change"
	copilotUserMessage  = "user.message"
	copilotAssistant    = "assistant.message"
	copilotToolStart    = "tool.execution_start"
	copilotToolComplete = "tool.execution_complete"
)

// normalizeCopilot builds a Session from Copilot CLI events. Session
// metadata, model switches and tool executions arrive as separate control
// events next to the user/assistant messages.
func normalizeCopilot(path string, lines [][]byte) *Session {
	b := newBuilder(DialectCopilot)

	for _, line := range lines {
		if !gjson.ValidBytes(line) {
			continue
		}
		rec := gjson.ParseBytes(line)
		if !rec.IsObject() {
			continue
		}

		data := rec.Get("data")
		switch rec.Get("type").String() {
		case copilotSessionStart:
			b.noteID(data.Get("sessionId").String())
			cwd := data.Get("context.cwd").String()
			if cwd == "" {
				cwd = data.Get("cwd").String()
			}
			b.noteCWD(cwd)
			version := data.Get("copilotVersion").String()
			if version == "" {
				version = data.Get("version").String()
			}
			b.noteVersion(version)

		case copilotModelChange:
			b.addModel(data.Get("newModel").String())

		case copilotToolStart, copilotToolComplete:
			// Tool executions are not turns but still count as tool usage.
			b.addTool(data.Get("toolName").String())
			if args := data.Get("arguments"); args.IsObject() {
				if m, ok := args.Value().(map[string]any); ok {
					scanPaths(m, b.addFile)
				}
			}

		case copilotUserMessage:
			b.turn(parseTimestamp(rec.Get("timestamp")))
			b.addUserText(data.Get("content").String())

		case copilotAssistant:
			b.turn(parseTimestamp(rec.Get("timestamp")))
			model := data.Get("model").String()
			b.addModel(model)
			if usage := data.Get("usage"); usage.IsObject() {
				b.addUsage(model, TokenUsage{
					Input:      usage.Get("inputTokens").Int(),
					Output:     usage.Get("outputTokens").Int(),
					CacheWrite: usage.Get("cacheWriteTokens").Int(),
					CacheRead:  usage.Get("cacheReadTokens").Int(),
				})
			}
			b.scanToolCalls(data.Get("toolRequests").Value())
		}
	}

	return b.finish(path)
}
