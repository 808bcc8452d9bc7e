package monitor

import (
	"fmt"
	"math"
)

// FormatSeconds formats a duration in seconds as "X.Xms" or "X.Xs".
// NaN renders as "-".
func FormatSeconds(seconds float64) string {
	if math.IsNaN(seconds) {
		return "-"
	}
	if seconds < 1.0 {
		return fmt.Sprintf("%.1fms", seconds*1000)
	}
	return fmt.Sprintf("%.1fs", seconds)
}

// FormatAccuracy formats a percentage as "X.XX%".
func FormatAccuracy(pct float64) string {
	if math.IsNaN(pct) {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// FormatLoss formats a loss value with four decimals. NaN renders as "-".
func FormatLoss(loss float64) string {
	if math.IsNaN(loss) {
		return "-"
	}
	return fmt.Sprintf("%.4f", loss)
}

// FormatDuration formats a duration in seconds as "Xh Ym", "Xm Ys" or "Xs".
func FormatDuration(seconds int64) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, secs)
	}
	return fmt.Sprintf("%ds", secs)
}
