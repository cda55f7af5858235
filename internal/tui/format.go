package tui

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatSize renders a byte count as "12 KiB".
func FormatSize(bytes int64) string {
	if bytes < 0 {
		return "unknown"
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatCreated renders a timestamp as "2025-03-01 10:20 (3 hours ago)".
// The zero time renders as "unknown".
func FormatCreated(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return fmt.Sprintf("%s (%s)", t.Local().Format("2006-01-02 15:04"), humanize.RelTime(t, now, "ago", "from now"))
}

// FormatUptime renders a duration as "Xh Ym" or "Xm Ys".
func FormatUptime(d time.Duration) string {
	seconds := int64(d.Seconds())
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds%60)
}
