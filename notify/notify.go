// Package notify posts and maintains the messages a session shows in its text channel.
package notify

import (
	"context"
	"errors"
)

// ErrGone is returned by Update when the message was deleted out from under us.
var ErrGone = errors.New("message no longer exists")

// Handle identifies a posted message.
type Handle struct {
	ChannelID string
	MessageID string
}

// Field is one named block of an embed.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Embed is a rich message body.
type Embed struct {
	Title       string
	Description string
	Fields      []Field
	Footer      string
	Color       int
}

// Controls is the playback button row under a now playing message.
type Controls struct {
	// Paused flips the first button to Resume.
	Paused bool
}

// Content is what a message shows. Any part may be empty.
type Content struct {
	Text     string
	Embed    *Embed
	Controls *Controls
}

// Channel is a place messages can be posted to.
type Channel interface {
	Post(ctx context.Context, c Content) (Handle, error)
	// Update replaces the content of h. Returns ErrGone if h no longer exists.
	Update(ctx context.Context, h Handle, c Content) error
	// Delete removes h. Deleting a missing message is not an error.
	Delete(ctx context.Context, h Handle) error
}

// Button custom IDs on the control row.
const (
	ButtonPause    = "cadence:pause"
	ButtonForward  = "cadence:forward"
	ButtonBackward = "cadence:backward"
	ButtonStop     = "cadence:stop"
	ButtonSkip     = "cadence:skip"
)
