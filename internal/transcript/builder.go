// builder.go accumulates normalizer output into a Session.
package transcript

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// sessionIDRe matches the 8-4-4-4-12 hex session id used in transcript file names.
var sessionIDRe = regexp.MustCompile(
	`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`,
)

// builder collects the pieces of a Session while the lines of a transcript
// are walked. Sets are kept as maps and flattened in finish.
type builder struct {
	sess       Session
	embeddedID string
	tools      map[string]struct{}
	files      map[string]struct{}
	models     map[string]struct{}
}

func newBuilder(d Dialect) *builder {
	return &builder{
		sess: Session{
			Dialect:     d,
			ModelTokens: make(map[string]TokenUsage),
		},
		tools:  make(map[string]struct{}),
		files:  make(map[string]struct{}),
		models: make(map[string]struct{}),
	}
}

// turn registers one conversational record. Records without a usable
// timestamp still count toward MessageCount.
func (b *builder) turn(ts time.Time) {
	b.sess.MessageCount++
	if ts.IsZero() {
		return
	}
	if b.sess.StartedAt.IsZero() {
		b.sess.StartedAt = ts
	}
	b.sess.EndedAt = ts
}

func (b *builder) noteID(id string) {
	if b.embeddedID == "" {
		b.embeddedID = strings.TrimSpace(id)
	}
}

func (b *builder) noteCWD(cwd string) {
	if b.sess.CWD == "" {
		b.sess.CWD = cwd
	}
}

func (b *builder) noteBranch(branch string) {
	if b.sess.GitBranch == "" {
		b.sess.GitBranch = branch
	}
}

func (b *builder) noteVersion(v string) {
	if b.sess.Version == "" {
		b.sess.Version = v
	}
}

func (b *builder) addUserText(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	b.sess.UserMessages = append(b.sess.UserMessages, text)
}

func (b *builder) addModel(model string) {
	if model == "" {
		return
	}
	b.models[model] = struct{}{}
}

// addUsage adds u to the session totals and to the bucket of model, so the
// totals always equal the sum of ModelTokens.
func (b *builder) addUsage(model string, u TokenUsage) {
	if model == "" {
		model = unknownModel
	}
	b.sess.Tokens.Add(u)
	bucket := b.sess.ModelTokens[model]
	bucket.Add(u)
	b.sess.ModelTokens[model] = bucket
}

func (b *builder) addTool(name string) {
	if name == "" {
		return
	}
	b.tools[name] = struct{}{}
}

func (b *builder) addFile(path string) {
	b.files[path] = struct{}{}
}

// scanToolCalls records every tool invocation nested in payload together
// with the file paths found in its arguments.
func (b *builder) scanToolCalls(payload any) {
	for _, call := range findToolCalls(payload) {
		b.addTool(call.Name)
		scanPaths(call.Args, b.addFile)
	}
}

// finish returns the Session, or nil when no conversational turn was seen.
func (b *builder) finish(path string) *Session {
	if b.sess.MessageCount == 0 {
		return nil
	}

	s := b.sess
	s.ID = sessionID(path, b.embeddedID)
	if s.EndedAt.Before(s.StartedAt) {
		s.EndedAt = s.StartedAt
	}
	s.Tools = sortedKeys(b.tools)
	s.Files = sortedKeys(b.files)
	s.Models = sortedKeys(b.models)
	if s.UserMessages == nil {
		s.UserMessages = []string{}
	}
	return &s
}

// sessionID prefers the id in the file name, then the parent directory name
// (Copilot's <id>/events.jsonl layout), then the id found in the records.
func sessionID(path, embedded string) string {
	if path != "" {
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if id := sessionIDRe.FindString(stem); id != "" {
			return strings.ToLower(id)
		}
		parent := filepath.Base(filepath.Dir(path))
		if sessionIDRe.MatchString(parent) && len(parent) == 36 {
			return strings.ToLower(parent)
		}
	}
	if embedded != "" {
		return embedded
	}
	return unknownID
}

// parseTimestamp accepts RFC 3339 strings and epoch milliseconds.
func parseTimestamp(r gjson.Result) time.Time {
	switch r.Type {
	case gjson.String:
		t, err := time.Parse(time.RFC3339Nano, r.Str)
		if err != nil {
			return time.Time{}
		}
		return t
	case gjson.Number:
		return time.UnixMilli(r.Int()).UTC()
	}
	return time.Time{}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
