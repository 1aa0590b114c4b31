package recap

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/berth-dev/recall/internal/transcript"
	"github.com/berth-dev/recall/prompts"
)

// maxRequestChars bounds one user message in the prompt.
const maxRequestChars = 600

var sessionTmpl = template.Must(template.New("session").Funcs(template.FuncMap{
	"inc":  func(i int) int { return i + 1 },
	"join": strings.Join,
}).Parse(prompts.RecapSessionTemplate))

type sessionView struct {
	ID           string
	Dialect      string
	Version      string
	CWD          string
	GitBranch    string
	Started      string
	Ended        string
	MessageCount int
	Omitted      int
	Requests     []string
	Tools        []string
	Files        []string
}

// BuildInput renders the user-turn prompt for s, keeping only the last
// maxMessages user messages.
func BuildInput(s *transcript.Session, maxMessages int) (string, error) {
	msgs := s.UserMessages
	omitted := 0
	if maxMessages > 0 && len(msgs) > maxMessages {
		omitted = len(msgs) - maxMessages
		msgs = msgs[omitted:]
	}

	requests := make([]string, len(msgs))
	for i, m := range msgs {
		requests[i] = truncate(strings.Join(strings.Fields(m), " "), maxRequestChars)
	}

	view := sessionView{
		ID:           s.ID,
		Dialect:      string(s.Dialect),
		Version:      s.Version,
		CWD:          s.CWD,
		GitBranch:    s.GitBranch,
		Started:      s.StartedAt.UTC().Format("2006-01-02 15:04 MST"),
		Ended:        s.EndedAt.UTC().Format("2006-01-02 15:04 MST"),
		MessageCount: s.MessageCount,
		Omitted:      omitted,
		Requests:     requests,
		Tools:        s.Tools,
		Files:        s.Files,
	}

	var b strings.Builder
	if err := sessionTmpl.Execute(&b, view); err != nil {
		return "", fmt.Errorf("rendering recap input: %w", err)
	}
	return b.String(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
