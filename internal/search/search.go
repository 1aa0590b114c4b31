// search.go implements the orchestrator that turns transcript sources into
// a ranked, bounded result list.
package search

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/berth-dev/recall/internal/transcript"
)

// Result is a session that survived filtering, with its relevance.
type Result struct {
	transcript.Session
	Score     int      `json:"score"`
	MatchedIn []string `json:"matchedIn,omitempty"`
	Path      string   `json:"path"`
}

// ProgressFunc is told how many candidates have been evaluated so far.
// Calls are serialized.
type ProgressFunc func(done, total int)

// Searcher runs searches over a fixed set of sources.
type Searcher struct {
	Sources []Source

	// Workers bounds concurrent parsing. Values below 1 use runtime.NumCPU.
	Workers int

	// Enumerate lists transcripts under a source dir. Defaults to ListTranscripts.
	Enumerate Enumerator

	// Now is the clock used for Days filtering. Defaults to time.Now.
	Now func() time.Time

	// Progress, when set, is called after each candidate is evaluated.
	Progress ProgressFunc
}

// NewSearcher creates a Searcher with default enumeration and clock.
func NewSearcher(sources []Source, workers int) *Searcher {
	return &Searcher{
		Sources: sources,
		Workers: workers,
	}
}

// Search evaluates every candidate transcript and returns the top results:
// score descending, then end time descending, ties in enumeration order.
// A transcript that cannot be parsed is skipped; only ctx cancellation
// produces an error.
func (s *Searcher) Search(ctx context.Context, opts Options) ([]Result, error) {
	now := s.now()
	candidates := s.candidates(opts)

	slots, err := s.parseAll(ctx, candidates, func(path string) *Result {
		return evaluate(path, opts, now)
	})
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].EndedAt.After(results[j].EndedAt)
	})

	if limit := opts.limit(); len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// evaluate parses one candidate and applies the liveness check, the
// filters and the scorer. It returns nil for anything that is not a hit.
func evaluate(path string, opts Options, now time.Time) *Result {
	sess := transcript.ParseFile(path)
	if sess == nil || len(sess.UserMessages) == 0 {
		return nil
	}
	if !opts.acceptsDialect(sess.Dialect) {
		return nil
	}
	if !Eligible(sess, opts, now) {
		return nil
	}

	score, matched := Score(sess, opts.Query)
	if opts.hasQuery() && score == 0 {
		return nil
	}

	return &Result{
		Session:   *sess,
		Score:     score,
		MatchedIn: matched,
		Path:      path,
	}
}

// candidates lists transcripts from every source the dialect selector admits,
// source by source in configuration order.
func (s *Searcher) candidates(opts Options) []string {
	enumerate := s.Enumerate
	if enumerate == nil {
		enumerate = ListTranscripts
	}

	var out []string
	for _, src := range s.Sources {
		if !opts.acceptsDialect(src.Dialect) {
			continue
		}
		out = append(out, enumerate(src.Dir)...)
	}
	return out
}

// parseAll runs fn over candidates with bounded parallelism. Each candidate
// owns slot i of the returned slice, so completion order never leaks into
// the output.
func (s *Searcher) parseAll(ctx context.Context, candidates []string, fn func(string) *Result) ([]*Result, error) {
	slots := make([]*Result, len(candidates))
	total := len(candidates)

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers())

	for i, path := range candidates {
		if gctx.Err() != nil {
			break
		}
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = fn(path)

			if s.Progress != nil {
				mu.Lock()
				done++
				s.Progress(done, total)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slots, nil
}

func (s *Searcher) workers() int {
	if s.Workers < 1 {
		return runtime.NumCPU()
	}
	return s.Workers
}

func (s *Searcher) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
