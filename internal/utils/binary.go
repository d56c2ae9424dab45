package utils

import (
	"errors"
	"io"
	"os"
)

const (
	// SniffLength is the maximum number of leading bytes inspected when classifying a file.
	SniffLength = 1024
	// nonPrintableNumerator and nonPrintableDenominator express the 30% threshold.
	nonPrintableNumerator   = 3
	nonPrintableDenominator = 10
)

// IsBinary classifies a sample of leading file bytes. A magic-number match
// decides directly: text categories are text, everything else is binary. When
// no signature matches, the sample is binary if more than 30% of its bytes
// fall outside tab..carriage-return and printable ASCII.
func IsBinary(sample []byte) bool {
	if mimeType, identified := DetectMimeType(sample); identified {
		return MimeCategory(mimeType) != textMimeCategory
	}
	nonPrintableCount := 0
	for _, byteValue := range sample {
		if !isPrintableByte(byteValue) {
			nonPrintableCount++
		}
	}
	return nonPrintableCount*nonPrintableDenominator > len(sample)*nonPrintableNumerator
}

// IsFileBinary reads up to SniffLength bytes from the file at path and classifies them with IsBinary.
//
// #nosec G304
func IsFileBinary(path string) (bool, error) {
	fileHandle, openError := os.Open(path)
	if openError != nil {
		return false, openError
	}
	defer fileHandle.Close()

	buffer := make([]byte, SniffLength)
	bytesRead, readError := io.ReadFull(fileHandle, buffer)
	if readError != nil && !errors.Is(readError, io.EOF) && !errors.Is(readError, io.ErrUnexpectedEOF) {
		return false, readError
	}
	return IsBinary(buffer[:bytesRead]), nil
}

func isPrintableByte(byteValue byte) bool {
	return (byteValue >= 0x09 && byteValue <= 0x0D) || (byteValue >= 0x20 && byteValue <= 0x7E)
}
