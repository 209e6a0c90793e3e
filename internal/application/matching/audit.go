// Package matching implements the medicine mention matching pipeline:
// normalization, tiered candidate retrieval, history re-ranking, and the
// post-match guardrail engine, coordinated by the Pipeline orchestrator.
package matching

import "fmt"

// Trail is an append-only audit log of human-readable pipeline decisions.
// Every normalization rule, retrieval tier, penalty, and override that fires
// appends one entry; entries are never removed or reordered.
//
// A Trail is confined to a single pipeline run and is not safe for
// concurrent use.
type Trail struct {
	lines []string
}

// NewTrail returns an empty trail.
func NewTrail() *Trail {
	return &Trail{}
}

// Append records one decision.
func (t *Trail) Append(line string) {
	t.lines = append(t.lines, line)
}

// Appendf records one formatted decision.
func (t *Trail) Appendf(format string, args ...any) {
	t.lines = append(t.lines, fmt.Sprintf(format, args...))
}

// Lines returns a copy of the recorded entries in append order.
func (t *Trail) Lines() []string {
	out := make([]string, len(t.lines))
	copy(out, t.lines)
	return out
}

// Len returns the number of recorded entries.
func (t *Trail) Len() int {
	return len(t.lines)
}

// Fork returns a new trail seeded with a copy of t's entries.  The pipeline
// forks the request-level trail into each mention's local trail so that
// request-wide decisions appear in every per-mention log.
func (t *Trail) Fork() *Trail {
	f := &Trail{lines: make([]string, len(t.lines), len(t.lines)+8)}
	copy(f.lines, t.lines)
	return f
}
