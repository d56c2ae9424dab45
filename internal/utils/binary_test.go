package utils_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/temirov/repobundle/internal/utils"
)

func TestIsBinary(t *testing.T) {
	testCases := []struct {
		name     string
		sample   []byte
		expected bool
	}{
		{name: "empty", sample: []byte{}, expected: false},
		{name: "plain_text", sample: []byte("hi"), expected: false},
		{name: "control_bytes", sample: []byte{0x00, 0x01, 0x02, 0x03}, expected: true},
		{name: "png_signature", sample: []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), expected: true},
		{name: "html_is_text", sample: []byte("<!DOCTYPE html><html></html>"), expected: false},
		{name: "mostly_printable_with_nul", sample: append([]byte(strings.Repeat("a", 9)), 0x00), expected: false},
		{name: "over_threshold", sample: append([]byte("abcdef"), 0x00, 0x01, 0x02, 0x03), expected: true},
		{name: "zip_signature", sample: []byte("PK\x03\x04\x14\x00\x00\x00\x08\x00"), expected: true},
		{name: "latin1_high_bytes", sample: highBytes(256), expected: true},
		{name: "utf8_cjk", sample: []byte(strings.Repeat("\u6f22\u5b57", 80)), expected: true},
		{name: "utf16le_bom", sample: utf16LittleEndian("package main\nfunc main() {}\n"), expected: true},
		{name: "mostly_ascii_with_accents", sample: []byte("caf\u00e9 " + strings.Repeat("plain words ", 10)), expected: false},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if result := utils.IsBinary(testCase.sample); result != testCase.expected {
				t.Fatalf("IsBinary(%q) = %t, expected %t", testCase.sample, result, testCase.expected)
			}
		})
	}
}

func highBytes(count int) []byte {
	sample := make([]byte, count)
	for index := range sample {
		sample[index] = byte(0x80 + index%0x80)
	}
	return sample
}

func utf16LittleEndian(text string) []byte {
	encoded := []byte{0xFF, 0xFE}
	for _, character := range []byte(text) {
		encoded = append(encoded, character, 0x00)
	}
	return encoded
}

func TestIsFileBinaryIsDeterministic(t *testing.T) {
	tempDir := t.TempDir()
	binaryPath := filepath.Join(tempDir, "b.bin")
	if err := os.WriteFile(binaryPath, []byte{0x00, 0x01, 0x02, 0x03}, 0o600); err != nil {
		t.Fatalf("write binary file: %v", err)
	}
	first, err := utils.IsFileBinary(binaryPath)
	if err != nil {
		t.Fatalf("IsFileBinary error: %v", err)
	}
	second, err := utils.IsFileBinary(binaryPath)
	if err != nil {
		t.Fatalf("IsFileBinary error: %v", err)
	}
	if !first || first != second {
		t.Fatalf("expected stable binary classification, got %t then %t", first, second)
	}
}

func TestIsFileBinaryReadsOnlyLeadingSample(t *testing.T) {
	tempDir := t.TempDir()
	textPath := filepath.Join(tempDir, "tail.txt")
	content := append([]byte(strings.Repeat("x", utils.SniffLength)), make([]byte, 4096)...)
	if err := os.WriteFile(textPath, content, 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	isBinary, err := utils.IsFileBinary(textPath)
	if err != nil {
		t.Fatalf("IsFileBinary error: %v", err)
	}
	if isBinary {
		t.Fatalf("expected trailing NUL bytes beyond the sample to be ignored")
	}
}

func TestIsFileBinaryMissingFile(t *testing.T) {
	if _, err := utils.IsFileBinary(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
