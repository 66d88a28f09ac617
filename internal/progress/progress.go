// Package progress prints numbered pipeline stages to a writer.
package progress

import (
	"fmt"
	"io"
)

// Reporter writes stage progress in the form "[2/5] Detecting motifs...".
// A nil Reporter is valid and silent, so library callers can skip it.
type Reporter struct {
	w     io.Writer
	total int
	stage int
}

// New returns a Reporter over w with the given stage count.
func New(w io.Writer, total int) *Reporter {
	return &Reporter{w: w, total: total}
}

// Stage advances to the next numbered stage.
func (r *Reporter) Stage(msg string) {
	if r == nil || r.w == nil {
		return
	}
	r.stage++
	fmt.Fprintf(r.w, "[%d/%d] %s\n", r.stage, r.total, msg)
}

// Warning prints a non-fatal notice without advancing the stage.
func (r *Reporter) Warning(msg string) {
	if r == nil || r.w == nil {
		return
	}
	fmt.Fprintf(r.w, "  warning: %s\n", msg)
}

// Done prints the closing line.
func (r *Reporter) Done(msg string) {
	if r == nil || r.w == nil {
		return
	}
	fmt.Fprintf(r.w, "%s\n", msg)
}
