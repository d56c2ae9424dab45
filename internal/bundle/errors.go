package bundle

import (
	"fmt"

	"github.com/temirov/repobundle/internal/types"
)

// SinkError reports that the document could not be written to its destination.
type SinkError struct {
	Sink types.SinkKind
	Err  error
}

func (sinkError *SinkError) Error() string {
	return fmt.Sprintf("write document to %s: %v", sinkError.Sink, sinkError.Err)
}

func (sinkError *SinkError) Unwrap() error {
	return sinkError.Err
}
