// Package config loads repobundle configuration files and exclude pattern files.
package config

import (
	"bufio"
	"os"
	"strings"
)

const commentPrefix = "#"

// LoadPatternFile reads one literal exclude pattern per line. Blank lines and
// lines starting with "#" are skipped.
//
// #nosec G304
func LoadPatternFile(patternFilePath string) ([]string, error) {
	fileHandle, openFileError := os.Open(patternFilePath)
	if openFileError != nil {
		return nil, openFileError
	}
	defer fileHandle.Close()

	patterns := []string{}
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		trimmedLine := strings.TrimSpace(scanner.Text())
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, commentPrefix) {
			continue
		}
		patterns = append(patterns, trimmedLine)
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, scanError
	}
	return patterns, nil
}

// DeduplicatePatterns trims patterns and drops blanks and repeats, keeping first occurrences.
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]struct{}, len(patterns))
	deduplicated := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		trimmedPattern := strings.TrimSpace(pattern)
		if trimmedPattern == "" {
			continue
		}
		if _, exists := seen[trimmedPattern]; exists {
			continue
		}
		seen[trimmedPattern] = struct{}{}
		deduplicated = append(deduplicated, trimmedPattern)
	}
	return deduplicated
}
