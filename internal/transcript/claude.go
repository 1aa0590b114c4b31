// claude.go normalizes Claude Code project transcripts.
package transcript

import (
	"strings"

	"github.com/tidwall/gjson"
)

// normalizeClaude builds a Session from Claude Code records. Every line is a
// standalone record; user and assistant records are the conversation, the
// rest (summary, system, file-history-snapshot, ...) only feed metadata.
func normalizeClaude(path string, lines [][]byte) *Session {
	b := newBuilder(DialectClaude)

	for _, line := range lines {
		if !gjson.ValidBytes(line) {
			continue
		}
		rec := gjson.ParseBytes(line)
		if !rec.IsObject() {
			continue
		}

		b.noteID(rec.Get("sessionId").String())
		b.noteCWD(rec.Get("cwd").String())
		b.noteBranch(rec.Get("gitBranch").String())
		b.noteVersion(rec.Get("version").String())

		msg := rec.Get("message")
		switch rec.Get("type").String() {
		case "user":
			b.turn(parseTimestamp(rec.Get("timestamp")))
			b.addUserText(claudeText(msg.Get("content")))
		case "assistant":
			b.turn(parseTimestamp(rec.Get("timestamp")))
			model := msg.Get("model").String()
			b.addModel(model)
			if usage := msg.Get("usage"); usage.IsObject() {
				b.addUsage(model, TokenUsage{
					Input:      usage.Get("input_tokens").Int(),
					Output:     usage.Get("output_tokens").Int(),
					CacheWrite: usage.Get("cache_creation_input_tokens").Int(),
					CacheRead:  usage.Get("cache_read_input_tokens").Int(),
				})
			}
			b.scanToolCalls(msg.Get("content").Value())
		}
	}

	return b.finish(path)
}

// claudeText returns the user-authored text of a message content field,
// which is either a plain string or an array of typed blocks. Tool results
// carry no user text.
func claudeText(content gjson.Result) string {
	if content.Type == gjson.String {
		return content.Str
	}
	if !content.IsArray() {
		return ""
	}

	var parts []string
	for _, block := range content.Array() {
		if block.Get("type").String() != "text" {
			continue
		}
		if text := block.Get("text").String(); strings.TrimSpace(text) != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}
