package utils

import (
	"fmt"
	"strings"
	"time"
)

// MessageType is a custom type used as a placeholder for various message types.
type MessageType int

// The message types used accross the CLI applications.
const (
	DefaultMessage MessageType = iota
	SuccessMessage
	ErrorMessage
	StatusMessage
)

// Colors used accross the CLI applications.
const (
	DefaultColor = "\x1b[0m"
	StatusColor  = "\x1b[36m"
	SuccessColor = "\x1b[32m"
	ErrorColor   = "\x1b[31m"
)

// ColorEnabled controls whether DecorateText emits ANSI escape sequences.
// The executables switch it off when the output is not a terminal.
var ColorEnabled = true

// DecorateText shows the message types in different colors.
func DecorateText(s string, msgType MessageType) string {
	if !ColorEnabled {
		return s
	}
	switch msgType {
	case DefaultMessage:
		s = DefaultColor + s
	case StatusMessage:
		s = StatusColor + s
	case SuccessMessage:
		s = SuccessColor + s
	case ErrorMessage:
		s = ErrorColor + s
	default:
		return s
	}
	return s + DefaultColor
}

// FormatTime returns a human readable duration, like "1.50s" or "2h 5m 0.00s".
// Once a larger unit is shown every smaller one follows it.
func FormatTime(d time.Duration) string {
	units := []struct {
		size   time.Duration
		suffix string
	}{
		{24 * time.Hour, "d"},
		{time.Hour, "h"},
		{time.Minute, "m"},
	}

	var sb strings.Builder
	for _, u := range units {
		if d >= u.size || sb.Len() > 0 {
			fmt.Fprintf(&sb, "%d%s ", d/u.size, u.suffix)
			d %= u.size
		}
	}
	fmt.Fprintf(&sb, "%.2fs", d.Seconds())
	return sb.String()
}

// FormatSeconds returns the duration as fractional seconds with microsecond precision.
func FormatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.6f", d.Seconds())
}

// FormatMillis returns the duration as fractional milliseconds.
func FormatMillis(d time.Duration) string {
	return fmt.Sprintf("%.3f", float64(d)/float64(time.Millisecond))
}
