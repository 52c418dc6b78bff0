// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

package sizereport

import (
	"fmt"
	"time"
)

// FormatBytes renders a byte count for humans: raw integer below 1 KB,
// two decimals with a binary-scaled unit above.
func FormatBytes(bytes int64) string {
	units := [...]string{"B", "KB", "MB", "GB", "TB"}
	size := float64(bytes)
	unit := 0
	for size >= 1024 && unit < len(units)-1 {
		size /= 1024
		unit++
	}
	if unit == 0 {
		return fmt.Sprintf("%d B", bytes)
	}
	return fmt.Sprintf("%.2f %s", size, units[unit])
}

// FormatDuration renders a duration for humans: whole milliseconds
// under a second, one-decimal seconds under a minute, minutes and
// seconds beyond.
func FormatDuration(d time.Duration) string {
	millis := float64(d) / float64(time.Millisecond)
	switch {
	case millis < 1000:
		return fmt.Sprintf("%.0f ms", millis)
	case millis < 60000:
		return fmt.Sprintf("%.1f s", millis/1000)
	default:
		minutes := int(d / time.Minute)
		seconds := int(d/time.Second) % 60
		return fmt.Sprintf("%d min %d s", minutes, seconds)
	}
}
