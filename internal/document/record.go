package document

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/temirov/repobundle/internal/content"
	"github.com/temirov/repobundle/internal/utils"
)

// ReadError reports that one file could not be loaded. It is recorded in the
// document in place of the file content and never aborts a run.
type ReadError struct {
	Path string
	Err  error
}

func (readError *ReadError) Error() string {
	return fmt.Sprintf("failed to read file %s: %v", readError.Path, readError.Err)
}

func (readError *ReadError) Unwrap() error {
	return readError.Err
}

// FileRecord is the prepared form of one file in the files section.
type FileRecord struct {
	Path      string
	SizeBytes uint64
	LineCount int
	IsBinary  bool
	Content   string
	Err       *ReadError
}

// ReadRecord loads relativePath under rootDirectory and prepares its file block.
func ReadRecord(rootDirectory string, relativePath string, lineNumbers bool, forceUTF8 bool) FileRecord {
	record := FileRecord{Path: relativePath}
	absolutePath := filepath.Join(rootDirectory, filepath.FromSlash(relativePath))

	fileInfo, statError := os.Stat(absolutePath)
	if statError != nil {
		record.Err = &ReadError{Path: relativePath, Err: statError}
		return record
	}

	isBinary, detectionError := utils.IsFileBinary(absolutePath)
	if detectionError != nil {
		record.Err = &ReadError{Path: relativePath, Err: detectionError}
		return record
	}
	record.SizeBytes = uint64(fileInfo.Size())
	if isBinary {
		record.IsBinary = true
		return record
	}

	text, readError := content.ReadText(absolutePath, forceUTF8)
	if readError != nil {
		record.Err = &ReadError{Path: relativePath, Err: readError}
		return record
	}
	if lineNumbers {
		text = content.AddLineNumbers(text)
	}
	record.Content = text
	record.LineCount = content.CountLines(text)
	return record
}
