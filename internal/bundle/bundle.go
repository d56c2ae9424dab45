// Package bundle runs the repository bundling pipeline: walk, build, serialize, count.
package bundle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/temirov/repobundle/internal/document"
	"github.com/temirov/repobundle/internal/filetree"
	"github.com/temirov/repobundle/internal/patterns"
	"github.com/temirov/repobundle/internal/sink"
	"github.com/temirov/repobundle/internal/tokenizer"
	"github.com/temirov/repobundle/internal/types"
	"github.com/temirov/repobundle/internal/utils"
	"github.com/temirov/repobundle/internal/walker"
)

const (
	missingSinkMessage     = "no output sink configured"
	unsupportedSinkMessage = "unsupported sink type %T"
	compilePatternsFormat  = "compile exclude patterns: %w"
	walkRepositoryFormat   = "walk repository %s: %w"
)

// Options is the fully resolved input of one run.
type Options struct {
	Root        string
	Excludes    patterns.RuleSet
	LineNumbers bool
	ForceUTF8   bool
	Model       string
	Sink        sink.Sink
	Workers     int
	Logger      *zap.Logger
}

// Result holds the metrics of a run. SizeBytes and Tokens are zero for
// streaming sinks.
type Result struct {
	Files     int
	SizeBytes uint64
	Tokens    int
	Model     tokenizer.Model
}

// Summary combines the result with its destination.
func (result Result) Summary(destination sink.Sink) types.RunSummary {
	summary := types.RunSummary{
		Files:     result.Files,
		SizeBytes: result.SizeBytes,
		Tokens:    result.Tokens,
		Model:     result.Model.DisplayName,
	}
	if destination != nil {
		summary.Destination = destination.Destination()
		summary.Sink = destination.Kind()
	}
	return summary
}

// Run bundles the repository at options.Root into options.Sink. Per-file
// problems are recorded in the document; sink and tokenizer failures abort the run.
func Run(ctx context.Context, options Options) (Result, error) {
	logger := utils.LoggerOrNop(options.Logger)
	if options.Sink == nil {
		return Result{}, errors.New(missingSinkMessage)
	}
	selection, selectorError := tokenizer.ParseSelector(options.Model)
	if selectorError != nil {
		return Result{}, selectorError
	}

	matcher, compileError := patterns.Compile(options.Excludes, logger)
	if compileError != nil {
		return Result{}, fmt.Errorf(compilePatternsFormat, compileError)
	}
	relativePaths, walkError := walker.Walk(walker.Options{Root: options.Root, Matcher: matcher, Logger: logger})
	if walkError != nil {
		return Result{}, fmt.Errorf(walkRepositoryFormat, options.Root, walkError)
	}
	tree := filetree.Build(relativePaths)
	logger.Debug("collected files", zap.Int("files", len(tree.OrderedPaths)), zap.String("root", options.Root))

	serializer := document.NewSerializer(document.Options{
		Root:        options.Root,
		LineNumbers: options.LineNumbers,
		ForceUTF8:   options.ForceUTF8,
		Workers:     options.Workers,
		Logger:      logger,
	})
	result := Result{Files: len(tree.OrderedPaths), Model: selection.Model}

	switch destination := options.Sink.(type) {
	case sink.Streaming:
		streamError := destination.Stream(func(writer io.Writer) error {
			return serializer.Serialize(ctx, writer, tree)
		})
		if streamError != nil {
			if contextError := ctx.Err(); contextError != nil {
				return Result{}, contextError
			}
			return Result{}, &SinkError{Sink: destination.Kind(), Err: streamError}
		}
		return result, nil
	case sink.Persisted:
		var buffer bytes.Buffer
		if err := serializer.Serialize(ctx, &buffer, tree); err != nil {
			return Result{}, err
		}
		counter, loadError := tokenizer.NewCounter(selection)
		if loadError != nil {
			return Result{}, loadError
		}
		tokenCount, countError := tokenizer.CountTokens(counter, buffer.String())
		if countError != nil {
			return Result{}, countError
		}
		if deliverError := destination.Deliver(buffer.Bytes()); deliverError != nil {
			return Result{}, &SinkError{Sink: destination.Kind(), Err: deliverError}
		}
		result.SizeBytes = uint64(buffer.Len())
		result.Tokens = tokenCount
		return result, nil
	default:
		return Result{}, fmt.Errorf(unsupportedSinkMessage, options.Sink)
	}
}
