// Package cleanup implements pruning of the recall event log.
package cleanup

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PruneLog removes events older than cutoff from the JSONL log at path.
// If dryRun is true, the file is left untouched; the function only returns
// how many events would be removed. Lines that cannot be parsed are kept.
func PruneLog(path string, cutoff time.Time, dryRun bool) (int, error) {
	return rewrite(path, dryRun, func(lines []logLine) []bool {
		keep := make([]bool, len(lines))
		for i, l := range lines {
			keep[i] = !l.parsed || !l.time.Before(cutoff)
		}
		return keep
	})
}

// PruneKeepRecent removes all but the most recent keep events. If dryRun is
// true, the file is left untouched. Returns the number of events removed.
func PruneKeepRecent(path string, keep int, dryRun bool) (int, error) {
	return rewrite(path, dryRun, func(lines []logLine) []bool {
		flags := make([]bool, len(lines))
		// The log is append-only, so file order is chronological.
		for i := range lines {
			flags[i] = i >= len(lines)-keep
		}
		return flags
	})
}

type logLine struct {
	raw    []byte
	time   time.Time
	parsed bool
}

func rewrite(path string, dryRun bool, decide func([]logLine) []bool) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading log: %w", err)
	}

	var lines []logLine
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		l := logLine{raw: append([]byte(nil), raw...)}
		var ev struct {
			Time time.Time `json:"time"`
		}
		if json.Unmarshal(raw, &ev) == nil && !ev.Time.IsZero() {
			l.time = ev.Time
			l.parsed = true
		}
		lines = append(lines, l)
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("scanning log: %w", err)
	}

	keep := decide(lines)
	var out bytes.Buffer
	removed := 0
	for i, l := range lines {
		if !keep[i] {
			removed++
			continue
		}
		out.Write(l.raw)
		out.WriteByte('\n')
	}

	if dryRun || removed == 0 {
		return removed, nil
	}

	// Replace via rename in the same directory.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".log-*.jsonl")
	if err != nil {
		return 0, fmt.Errorf("creating temp log: %w", err)
	}
	_ = tmp.Chmod(0644)
	if _, err := tmp.Write(out.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("writing temp log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("closing temp log: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("replacing log: %w", err)
	}
	return removed, nil
}
