// Package types defines the data structures shared across repobundle packages.
package types

const (
	SinkKindFile      SinkKind = "file"
	SinkKindStdout    SinkKind = "stdout"
	SinkKindClipboard SinkKind = "clipboard"

	DefaultOutputFile = "packed-repo.xml"
)

// SinkKind names a document destination.
type SinkKind string

// RunSummary describes a completed bundle run.
type RunSummary struct {
	Files       int
	SizeBytes   uint64
	Tokens      int
	Model       string
	Destination string
	Sink        SinkKind
}

// Persisted reports whether the summary metrics were computed for a stored document.
func (summary RunSummary) Persisted() bool {
	return summary.Sink != SinkKindStdout
}
