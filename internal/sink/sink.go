// Package sink delivers a finished document to its destination.
package sink

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"

	"github.com/temirov/repobundle/internal/types"
)

const (
	temporaryFilePattern = ".repobundle-*.tmp"
	outputFileMode       = 0o644
	clipboardDescription = "clipboard"
	stdoutDescription    = "stdout"
	createTemporaryError = "create temporary file in %s: %w"
	renameOutputError    = "move document into %s: %w"
)

// Sink is a document destination.
type Sink interface {
	Kind() types.SinkKind
	Destination() string
}

// Streaming sinks receive the document while it is being produced. Metrics are
// not computed for them.
type Streaming interface {
	Sink
	Stream(produce func(io.Writer) error) error
}

// Persisted sinks receive the finished document in one piece.
type Persisted interface {
	Sink
	Deliver(document []byte) error
}

// FileSink writes the document to Path, replacing it atomically.
type FileSink struct {
	Path string
}

func (fileSink FileSink) Kind() types.SinkKind { return types.SinkKindFile }

func (fileSink FileSink) Destination() string { return fileSink.Path }

// Deliver writes document to a temporary file next to Path and renames it into
// place, so a failed write never leaves a partial document at Path.
func (fileSink FileSink) Deliver(document []byte) error {
	targetDirectory := filepath.Dir(fileSink.Path)
	temporaryFile, createError := os.CreateTemp(targetDirectory, temporaryFilePattern)
	if createError != nil {
		return fmt.Errorf(createTemporaryError, targetDirectory, createError)
	}
	temporaryPath := temporaryFile.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(temporaryPath)
		}
	}()

	if _, writeError := temporaryFile.Write(document); writeError != nil {
		_ = temporaryFile.Close()
		return writeError
	}
	if closeError := temporaryFile.Close(); closeError != nil {
		return closeError
	}
	if chmodError := os.Chmod(temporaryPath, outputFileMode); chmodError != nil {
		return chmodError
	}
	if renameError := os.Rename(temporaryPath, fileSink.Path); renameError != nil {
		return fmt.Errorf(renameOutputError, fileSink.Path, renameError)
	}
	committed = true
	return nil
}

// StreamSink writes the document to Writer once it is complete, so a failed
// run writes nothing.
type StreamSink struct {
	Writer io.Writer
}

func (streamSink StreamSink) Kind() types.SinkKind { return types.SinkKindStdout }

func (streamSink StreamSink) Destination() string { return stdoutDescription }

// Stream collects produce's output in memory and copies it to Writer only
// when produce succeeds.
func (streamSink StreamSink) Stream(produce func(io.Writer) error) error {
	var documentBuffer bytes.Buffer
	if err := produce(&documentBuffer); err != nil {
		return err
	}
	_, err := documentBuffer.WriteTo(streamSink.Writer)
	return err
}

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// SystemClipboard implements Copier using github.com/atotto/clipboard.
type SystemClipboard struct{}

// Copy writes text to the system clipboard.
func (SystemClipboard) Copy(text string) error {
	return clipboard.WriteAll(text)
}

// ClipboardSink places the document on the clipboard through Copier.
type ClipboardSink struct {
	Copier Copier
}

// NewClipboardSink returns a ClipboardSink backed by the system clipboard.
func NewClipboardSink() ClipboardSink {
	return ClipboardSink{Copier: SystemClipboard{}}
}

func (clipboardSink ClipboardSink) Kind() types.SinkKind { return types.SinkKindClipboard }

func (clipboardSink ClipboardSink) Destination() string { return clipboardDescription }

func (clipboardSink ClipboardSink) Deliver(document []byte) error {
	if clipboardSink.Copier == nil {
		return fmt.Errorf("clipboard copier is not configured")
	}
	return clipboardSink.Copier.Copy(string(document))
}

var (
	_ Persisted = FileSink{}
	_ Persisted = ClipboardSink{}
	_ Streaming = StreamSink{}
	_ Copier    = SystemClipboard{}
)
