// sources.go enumerates candidate transcript files under source directories.
package search

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/berth-dev/recall/internal/transcript"
)

// Source is one directory of transcripts. Dialect narrows which dialect
// selector it answers to; empty means it may hold any dialect.
type Source struct {
	Dir     string             `json:"dir" yaml:"dir"`
	Dialect transcript.Dialect `json:"dialect" yaml:"dialect"`
}

// Enumerator lists the candidate transcript paths under dir in a stable order.
type Enumerator func(dir string) []string

// ListTranscripts walks dir and returns every *.jsonl file in lexical order.
// Claude subagent side files (agent-*.jsonl) are skipped. Unreadable entries
// and a missing dir are silently ignored.
func ListTranscripts(dir string) []string {
	var paths []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != dir {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if !strings.HasSuffix(name, ".jsonl") || strings.HasPrefix(name, "agent-") {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	return paths
}
