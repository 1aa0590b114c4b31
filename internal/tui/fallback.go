package tui

import (
	"context"
	"fmt"
	"io"

	"github.com/berth-dev/recall/internal/report"
)

// Fallback handles non-TTY execution by printing the results the browser
// would have shown, then pointing at the non-interactive commands.
func Fallback(ctx context.Context, w io.Writer, fn SearchFunc) error {
	results, err := fn(ctx)
	if err != nil {
		return err
	}

	fmt.Fprint(w, report.FormatResults(results))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Non-TTY environment detected; use 'recall show <id>' for details.")
	return nil
}
