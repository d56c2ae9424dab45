package utils

import (
	"fmt"
	"strings"
)

// FormatFileSize converts a byte length into a human-readable string such as "512 B" or "1.5 KB".
func FormatFileSize(bytes uint64) string {
	units := []string{"B", "KB", "MB", "GB", "TB", "PB"}
	value := float64(bytes)
	unitIndex := 0
	for value >= 1024 && unitIndex < len(units)-1 {
		value /= 1024
		unitIndex++
	}
	if unitIndex == 0 {
		return fmt.Sprintf("%d B", bytes)
	}
	formatted := strings.TrimSuffix(fmt.Sprintf("%.2f", value), "0")
	formatted = strings.TrimSuffix(formatted, "0")
	formatted = strings.TrimSuffix(formatted, ".")
	return formatted + " " + units[unitIndex]
}
