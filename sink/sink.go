// Package sink is where frames go: a voice connection that accepts one stream at a time.
package sink

import (
	"context"

	"github.com/cadence-bot/cadence/frame"
)

// Sink plays frame streams into a voice channel.
type Sink interface {
	// Play starts streaming src, replacing any current stream.
	// The returned channel receives exactly one value, nil or the stream error, when the
	// stream ends for any reason (including Stop and replacement) and is then closed.
	Play(src frame.Reader) <-chan error
	// Stop ends the current stream.
	Stop()
	Pause()
	Resume()
	// Emitting reports whether a stream is attached and not paused.
	Emitting() bool
	Connected() bool
	Connect(ctx context.Context, channelID string) error
	Disconnect() error
	// ChannelID is the voice channel last connected to, kept across Disconnect for recovery.
	ChannelID() string
}
