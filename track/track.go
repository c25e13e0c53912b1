// Package track describes a resolved, playable audio stream.
package track

import "fmt"

// Track is immutable once resolved.
type Track struct {
	// Locator is the direct stream URL handed to the decoder.
	Locator string `json:"locator" jsonschema:"description=Direct media stream URL"`
	// Source is what the user asked for, before resolution.
	Source string `json:"source" jsonschema:"description=Locator as supplied by the user"`
	Title  string `json:"title"`
	// Duration in whole seconds; 0 means unknown.
	Duration int `json:"duration" jsonschema:"minimum=0"`
}

// Known reports whether the duration is known.
func (t Track) Known() bool {
	return t.Duration > 0
}

// String returns the bolded title used in chat messages.
func (t Track) String() string {
	return fmt.Sprintf("**%s**", t.Title)
}

// Timestamp formats seconds as HH:MM:SS, or MM:SS below one hour.
func Timestamp(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	minutes, seconds := seconds/60, seconds%60
	hours, minutes := minutes/60, minutes%60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// Progress renders "elapsed / duration" for the now playing display.
func Progress(elapsed, duration int) string {
	return Timestamp(elapsed) + " / " + Timestamp(duration)
}
