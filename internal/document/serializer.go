// Package document serializes a file tree into the bundled repository document.
package document

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/repobundle/internal/filetree"
	"github.com/temirov/repobundle/internal/utils"
)

const (
	documentHeader          = `<?xml version="1.0" encoding="utf-8"?>` + "\n" + "<repository>\n"
	documentFooter          = "</repository_files>\n</repository>\n"
	structureSummaryText    = "This node contains the hierarchical structure of the repository's files and folders."
	filesSectionOpening     = "\n\n<repository_files>\n<summary>This node contains a list of files with their full paths and raw contents.</summary>\n"
	binaryPlaceholder       = "\n<!-- This file is a binary file and not included -->\n</file>\n\n"
	fileBlockClosing        = "</file>\n\n"
	failureCommentFormat    = "<!-- Failed to read file: %s -->\n</file>\n\n"
	structureElementName    = "repository_structure"
	summaryElementName      = "summary"
	folderElementName       = "folder"
	fileElementName         = "file"
	nameAttributeName       = "name"
	pathAttributeName       = "path"
	readFailureLogMessage   = "failed to read file"
	commentTerminator       = "--"
	commentTerminatorEscape = "- -"
)

// Options configures a Serializer.
type Options struct {
	Root        string
	LineNumbers bool
	ForceUTF8   bool
	Workers     int
	Logger      *zap.Logger
}

// Serializer writes the bundled document for a file tree.
type Serializer struct {
	options Options
	logger  *zap.Logger
}

// NewSerializer constructs a Serializer.
func NewSerializer(options Options) *Serializer {
	return &Serializer{options: options, logger: utils.LoggerOrNop(options.Logger)}
}

// Serialize writes the complete document for tree to writer. Per-file read
// failures are recorded in the document; only writer and context errors are returned.
func (serializer *Serializer) Serialize(ctx context.Context, writer io.Writer, tree filetree.FileTree) error {
	if _, err := io.WriteString(writer, documentHeader); err != nil {
		return err
	}
	if _, err := io.WriteString(writer, Preamble(serializer.options.LineNumbers)); err != nil {
		return err
	}
	if err := writeStructure(writer, tree.Root); err != nil {
		return err
	}
	if _, err := io.WriteString(writer, filesSectionOpening); err != nil {
		return err
	}
	emit := func(record FileRecord) error {
		if record.Err != nil {
			serializer.logger.Warn(readFailureLogMessage, zap.String("path", record.Path), zap.Error(record.Err.Err))
		}
		return WriteFileBlock(writer, record)
	}
	if err := serializer.emitRecords(ctx, tree.OrderedPaths, emit); err != nil {
		return err
	}
	_, err := io.WriteString(writer, documentFooter)
	return err
}

func (serializer *Serializer) readRecord(relativePath string) FileRecord {
	return ReadRecord(serializer.options.Root, relativePath, serializer.options.LineNumbers, serializer.options.ForceUTF8)
}

// emitRecords prepares records in path order and hands them to emit in the same order.
// With more than one worker, records are read ahead by at most Workers goroutines.
func (serializer *Serializer) emitRecords(ctx context.Context, orderedPaths []string, emit func(FileRecord) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if serializer.options.Workers <= 1 {
		for _, relativePath := range orderedPaths {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := emit(serializer.readRecord(relativePath)); err != nil {
				return err
			}
		}
		return nil
	}

	group, groupContext := errgroup.WithContext(ctx)
	slots := make(chan struct{}, serializer.options.Workers)
	pending := make([]chan FileRecord, len(orderedPaths))
	for index := range pending {
		pending[index] = make(chan FileRecord, 1)
	}

	group.Go(func() error {
		for index, relativePath := range orderedPaths {
			relativePath := relativePath
			select {
			case slots <- struct{}{}:
			case <-groupContext.Done():
				return groupContext.Err()
			}
			resultChannel := pending[index]
			group.Go(func() error {
				resultChannel <- serializer.readRecord(relativePath)
				return nil
			})
		}
		return nil
	})

	group.Go(func() error {
		for index := range pending {
			select {
			case record := <-pending[index]:
				<-slots
				if err := groupContext.Err(); err != nil {
					return err
				}
				if err := emit(record); err != nil {
					return err
				}
			case <-groupContext.Done():
				return groupContext.Err()
			}
		}
		return nil
	})

	return group.Wait()
}

// WriteFileBlock writes one file element. Text content is written without escaping.
func WriteFileBlock(writer io.Writer, record FileRecord) error {
	escapedPath, err := escapeAttribute(record.Path)
	if err != nil {
		return err
	}
	if record.Err != nil {
		if _, err := io.WriteString(writer, openingTag(escapedPath, 0, 0)); err != nil {
			return err
		}
		_, err := fmt.Fprintf(writer, failureCommentFormat, sanitizeComment(record.Err.Err.Error()))
		return err
	}
	if record.IsBinary {
		if _, err := io.WriteString(writer, openingTag(escapedPath, record.SizeBytes, 0)); err != nil {
			return err
		}
		_, err := io.WriteString(writer, binaryPlaceholder)
		return err
	}
	if _, err := io.WriteString(writer, openingTag(escapedPath, record.SizeBytes, record.LineCount)+"\n"); err != nil {
		return err
	}
	if _, err := io.WriteString(writer, record.Content); err != nil {
		return err
	}
	_, err = io.WriteString(writer, fileBlockClosing)
	return err
}

func openingTag(escapedPath string, sizeBytes uint64, lineCount int) string {
	return `<file path="` + escapedPath + `" size="` + strconv.FormatUint(sizeBytes, 10) + `" lines="` + strconv.Itoa(lineCount) + `">`
}

func escapeAttribute(value string) (string, error) {
	var builder strings.Builder
	if err := xml.EscapeText(&builder, []byte(value)); err != nil {
		return "", err
	}
	return builder.String(), nil
}

// sanitizeComment keeps error text from closing the surrounding comment early.
func sanitizeComment(message string) string {
	return strings.ReplaceAll(message, commentTerminator, commentTerminatorEscape)
}

// writeStructure emits the repository_structure element with an indenting encoder.
func writeStructure(writer io.Writer, root *filetree.FolderNode) error {
	encoder := xml.NewEncoder(writer)
	encoder.Indent("", "  ")
	structureStart := xml.StartElement{Name: xml.Name{Local: structureElementName}}
	if err := encoder.EncodeToken(structureStart); err != nil {
		return err
	}
	if err := encoder.EncodeElement(structureSummaryText, xml.StartElement{Name: xml.Name{Local: summaryElementName}}); err != nil {
		return err
	}
	if root != nil {
		if err := writeFolder(encoder, root); err != nil {
			return err
		}
	}
	if err := encoder.EncodeToken(structureStart.End()); err != nil {
		return err
	}
	return encoder.Flush()
}

func writeFolder(encoder *xml.Encoder, node *filetree.FolderNode) error {
	for _, fileName := range node.Files {
		fileStart := xml.StartElement{
			Name: xml.Name{Local: fileElementName},
			Attr: []xml.Attr{{Name: xml.Name{Local: pathAttributeName}, Value: fileName}},
		}
		if err := encoder.EncodeToken(fileStart); err != nil {
			return err
		}
		if err := encoder.EncodeToken(fileStart.End()); err != nil {
			return err
		}
	}
	for _, folderName := range node.SortedSubfolderNames() {
		folderStart := xml.StartElement{
			Name: xml.Name{Local: folderElementName},
			Attr: []xml.Attr{{Name: xml.Name{Local: nameAttributeName}, Value: folderName}},
		}
		if err := encoder.EncodeToken(folderStart); err != nil {
			return err
		}
		if err := writeFolder(encoder, node.Subfolders[folderName]); err != nil {
			return err
		}
		if err := encoder.EncodeToken(folderStart.End()); err != nil {
			return err
		}
	}
	return nil
}
