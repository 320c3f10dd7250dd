package models

import (
	"fmt"
	"strings"
)

// MediaKind tags a payload with the Telegram send method it must go through
type MediaKind string

const (
	MediaText     MediaKind = "text"
	MediaPhoto    MediaKind = "photo"
	MediaVideo    MediaKind = "video"
	MediaDocument MediaKind = "document"
	MediaAudio    MediaKind = "audio"
)

// Uploadable reports whether kind may be added to an upload session
func (k MediaKind) Uploadable() bool {
	switch k {
	case MediaPhoto, MediaVideo, MediaDocument, MediaAudio:
		return true
	}
	return false
}

// Label is the capitalized kind name shown to the operator
func (k MediaKind) Label() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// FileItem is one manifest entry
type FileItem struct {
	FileID  string
	Kind    MediaKind
	Caption string
}

// Delete timer choices in minutes; 0 means never
const (
	DeleteNever = 0
	Delete5Min  = 5
	Delete1Hour = 60
	Delete1Day  = 1440
	Delete1Week = 10080
)

// DeleteTimerChoices is the closed set accepted for auto_delete_minutes, in menu order
var DeleteTimerChoices = []int{Delete5Min, Delete1Hour, Delete1Day, Delete1Week, DeleteNever}

// ValidDeleteTimer reports whether minutes is one of DeleteTimerChoices
func ValidDeleteTimer(minutes int) bool {
	for _, m := range DeleteTimerChoices {
		if m == minutes {
			return true
		}
	}
	return false
}

// FormatMinutes renders a delay for humans: "never", "5 minutes", "1 hour", "7 days"
func FormatMinutes(minutes int) string {
	if minutes <= 0 {
		return "never"
	}
	switch {
	case minutes < 60:
		return fmt.Sprintf("%d minute%s", minutes, plural(minutes))
	case minutes < 1440:
		hours := minutes / 60
		return fmt.Sprintf("%d hour%s", hours, plural(hours))
	default:
		days := minutes / 1440
		return fmt.Sprintf("%d day%s", days, plural(days))
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
