// parse.go is the single entry point from raw transcript bytes to a Session.
package transcript

import (
	"bytes"
	"os"

	"github.com/tidwall/gjson"
)

// ParseFile reads and parses the transcript at path. An unreadable file
// yields nil, the same as any other transcript that produces no session.
func ParseFile(path string) *Session {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return Parse(path, data)
}

// Parse normalizes the transcript in data. path is only used to derive the
// session id and may be empty. It returns nil when the dialect is not
// recognized or when no conversational turn survives.
func Parse(path string, data []byte) *Session {
	lines := splitLines(data)
	first := firstRecord(lines)
	if first == nil {
		return nil
	}

	switch Detect(first) {
	case DialectClaude:
		return normalizeClaude(path, lines)
	case DialectCopilot:
		return normalizeCopilot(path, lines)
	default:
		return nil
	}
}

// firstRecord returns the first line that parses as a JSON object. Corrupt
// leading lines are treated like any other malformed line.
func firstRecord(lines [][]byte) []byte {
	for _, line := range lines {
		if gjson.ValidBytes(line) && gjson.ParseBytes(line).IsObject() {
			return line
		}
	}
	return nil
}

// splitLines returns the non-blank lines of data. There is no line length
// limit, so bufio.Scanner is not used.
func splitLines(data []byte) [][]byte {
	var lines [][]byte
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
