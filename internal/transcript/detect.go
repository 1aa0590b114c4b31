// detect.go classifies a transcript by the shape of its first record.
package transcript

import "github.com/tidwall/gjson"

// Detect returns the dialect of a transcript given its first record line.
// The decision is structural: a Copilot log opens with a session.start event
// carrying a version marker, a Claude log opens directly with a turn.
func Detect(line []byte) Dialect {
	if !gjson.ValidBytes(line) {
		return DialectUnknown
	}
	rec := gjson.ParseBytes(line)
	if !rec.IsObject() {
		return DialectUnknown
	}

	switch rec.Get("type").String() {
	case "session.start":
		if hasVersionMarker(rec.Get("data")) {
			return DialectCopilot
		}
	case "user", "assistant":
		return DialectClaude
	}
	return DialectUnknown
}

func hasVersionMarker(data gjson.Result) bool {
	return data.Get("copilotVersion").Exists() ||
		data.Get("version").Exists() ||
		data.Get("producer").Exists()
}
