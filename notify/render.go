package notify

import (
	"fmt"
	"strings"

	"github.com/cadence-bot/cadence/track"
	"github.com/samber/mo"
)

const (
	colorNowPlaying = 0x5865F2
	colorQueue      = 0x3498DB
)

// Field names of the now playing embed.
const (
	FieldDuration = "Duration"
	queueTitle    = "🎶 Music Queue"
	perField      = 10
)

// NowPlaying renders the now playing message for t at elapsed seconds.
func NowPlaying(t track.Track, elapsed int, paused bool) Content {
	return Content{
		Embed: &Embed{
			Title:       "🎶 Now Playing",
			Description: t.String(),
			Fields: []Field{
				{Name: FieldDuration, Value: track.Progress(elapsed, t.Duration), Inline: true},
			},
			Footer: "Use the buttons below to control playback.",
			Color:  colorNowPlaying,
		},
		Controls: &Controls{Paused: paused},
	}
}

// Queue renders the queue listing.
func Queue(current mo.Option[track.Track], queued []track.Track) Content {
	embed := &Embed{Title: queueTitle, Color: colorQueue}
	playing, isPlaying := current.Get()

	if len(queued) == 0 {
		if isPlaying {
			embed.Description = "**Currently Playing:**\n" + playing.String()
			embed.Fields = []Field{{Name: "Queue", Value: "No songs in queue"}}
		} else {
			embed.Description = "Nothing is playing and the queue is empty."
		}
		return Content{Embed: embed}
	}

	if isPlaying {
		embed.Description = "**Currently Playing:**\n" + playing.String()
	}

	var b strings.Builder
	for i, t := range queued {
		n := i + 1
		fmt.Fprintf(&b, "%d. %s (%s)\n", n, t, track.Timestamp(t.Duration))
		if n%perField == 0 {
			embed.Fields = append(embed.Fields, Field{Name: fmt.Sprintf("Queue (Songs %d-%d)", n-perField+1, n), Value: b.String()})
			b.Reset()
		}
	}
	if b.Len() > 0 {
		embed.Fields = append(embed.Fields, Field{Name: "Queue", Value: b.String()})
	}

	return Content{Embed: embed}
}

// Text is a plain message.
func Text(format string, args ...any) Content {
	if len(args) == 0 {
		return Content{Text: format}
	}
	return Content{Text: fmt.Sprintf(format, args...)}
}
