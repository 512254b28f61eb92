// Package human renders durations and byte counts for statistics reports.
package human

import (
	"fmt"
	"strings"
)

// FormatBytes converts a raw byte count into a human readable string.
// Below 1 KiB the count is reported verbatim; above it the value is scaled
// by binary (1024-based) units with redundant trailing zeros trimmed:
// 1536 -> "1.5 KB", 1100 -> "1.07 KB", 1073741824 -> "1 GB".
func FormatBytes(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d bytes", n)
	}
	units := []string{"KB", "MB", "GB"}
	value := float64(n) / 1024
	idx := 0
	for value >= 1024 && idx < len(units)-1 {
		value /= 1024
		idx++
	}
	return trimZeros(fmt.Sprintf("%.2f", value)) + " " + units[idx]
}

// FormatDuration converts a millisecond count into a human readable string:
// "Nms" below one second, "S.SSSs" below one minute (trailing zeros trimmed),
// "HH:MM:SS" below one day and "Dd HH:MM:SS" beyond.
func FormatDuration(ms int64) string {
	switch {
	case ms < 1000:
		return fmt.Sprintf("%dms", ms)
	case ms < 60_000:
		return trimZeros(fmt.Sprintf("%.3f", float64(ms)/1000)) + "s"
	}
	secs := ms / 1000
	days := secs / 86400
	hh := secs % 86400 / 3600
	mm := secs % 3600 / 60
	ss := secs % 60
	if days > 0 {
		return fmt.Sprintf("%dd %02d:%02d:%02d", days, hh, mm, ss)
	}
	return fmt.Sprintf("%02d:%02d:%02d", hh, mm, ss)
}

func trimZeros(s string) string {
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
