// Package content loads file text and decorates it with line numbers.
package content

import (
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const replacementCharacter = "\uFFFD"

// ReadText loads the file at path and decodes it to UTF-8 text. Only I/O
// failures are returned; decoding never fails.
//
// #nosec G304
func ReadText(path string, forceUTF8 bool) (string, error) {
	fileBytes, readError := os.ReadFile(path)
	if readError != nil {
		return "", readError
	}
	return DecodeText(fileBytes, forceUTF8), nil
}

// DecodeText converts raw bytes to text. With forceUTF8 the bytes are first
// taken as strict UTF-8 and, when invalid, transcoded from a byte-order mark
// if present or Windows-1252 otherwise. Without it, invalid UTF-8 sequences
// become U+FFFD.
func DecodeText(data []byte, forceUTF8 bool) string {
	if forceUTF8 {
		if utf8.Valid(data) {
			return string(data)
		}
		return transformOrReplace(unicode.BOMOverride(charmap.Windows1252.NewDecoder()), data)
	}
	return transformOrReplace(unicode.UTF8.NewDecoder(), data)
}

func transformOrReplace(transformer transform.Transformer, data []byte) string {
	decoded, _, transformError := transform.Bytes(transformer, data)
	if transformError != nil {
		return strings.ToValidUTF8(string(data), replacementCharacter)
	}
	return string(decoded)
}
