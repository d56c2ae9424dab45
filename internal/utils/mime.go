package utils

import (
	"strings"

	"github.com/h2non/filetype"
)

const textMimeCategory = "text"

// DetectMimeType matches sample against known magic-number signatures. The
// boolean reports whether a signature matched; plain text has no signature and
// is never identified here.
func DetectMimeType(sample []byte) (string, bool) {
	kind, matchError := filetype.Match(sample)
	if matchError != nil || kind == filetype.Unknown {
		return "", false
	}
	return kind.MIME.Value, true
}

// MimeCategory returns the top-level category of mimeType, e.g. "image" for "image/png".
func MimeCategory(mimeType string) string {
	category, _, _ := strings.Cut(mimeType, "/")
	return strings.ToLower(strings.TrimSpace(category))
}
