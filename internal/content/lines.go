package content

import (
	"strconv"
	"strings"
)

const (
	lineSeparator       = "\n"
	carriageReturn      = "\r"
	lineNumberSeparator = "  "
)

// SplitLines splits text on newlines. A trailing newline does not start an
// extra line and a trailing carriage return is removed from each line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, lineSeparator)
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for index, line := range lines {
		lines[index] = strings.TrimSuffix(line, carriageReturn)
	}
	return lines
}

// CountLines returns the number of lines SplitLines would produce.
func CountLines(text string) int {
	if text == "" {
		return 0
	}
	count := strings.Count(text, lineSeparator)
	if !strings.HasSuffix(text, lineSeparator) {
		count++
	}
	return count
}

// AddLineNumbers prefixes every line with its 1-based number, right-aligned to
// the width of the largest number and followed by two spaces. The result ends
// with exactly one newline. Applying it twice numbers the numbers.
func AddLineNumbers(text string) string {
	lines := SplitLines(text)
	width := len(strconv.Itoa(len(lines)))

	var builder strings.Builder
	for index, line := range lines {
		if index > 0 {
			builder.WriteString(lineSeparator)
		}
		number := strconv.Itoa(index + 1)
		builder.WriteString(strings.Repeat(" ", width-len(number)))
		builder.WriteString(number)
		builder.WriteString(lineNumberSeparator)
		builder.WriteString(line)
	}
	builder.WriteString(lineSeparator)
	return builder.String()
}
