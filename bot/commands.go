package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cadence-bot/cadence/fault"
	"github.com/cadence-bot/cadence/notify"
	"github.com/cadence-bot/cadence/track"
	"github.com/samber/mo"
)

// Slash command names.
const (
	cmdPlay   = "play"
	cmdQueue  = "queue"
	cmdRemove = "remove"
	cmdVolume = "volume"
	cmdPing   = "ping"
	cmdStop   = "stop"
	cmdSkip   = "skip"
)

// Option names.
const (
	optURL      = "url"
	optPosition = "position"
	optLevel    = "level"
)

func definitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        cmdPlay,
			Description: "Play a song in a voice channel.",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        optURL,
				Description: "The YouTube URL of the song to play.",
				Required:    true,
			}},
		},
		{
			Name:        cmdQueue,
			Description: "Display the current song queue",
		},
		{
			Name:        cmdRemove,
			Description: "Remove a song from the queue",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        optPosition,
				Description: "Position of the song in the queue (use /queue to see positions)",
				Required:    true,
			}},
		},
		{
			Name:        cmdVolume,
			Description: "Set the volume of the player (0-100)",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        optLevel,
				Description: "Volume level from 0 to 100",
				Required:    true,
			}},
		},
		{
			Name:        cmdPing,
			Description: "Check the bot's latency",
		},
		{
			Name:        cmdStop,
			Description: "Stop playback, clear the queue and leave the voice channel",
		},
		{
			Name:        cmdSkip,
			Description: "Skip the current song",
		},
	}
}

// request is a slash command invocation stripped down to what the handlers read.
type request struct {
	GuildID        string
	TextChannelID  string
	VoiceChannelID string
	Options        map[string]*discordgo.ApplicationCommandInteractionDataOption
}

func (r request) String(name string) string {
	if o, ok := r.Options[name]; ok {
		return o.StringValue()
	}
	return ""
}

func (r request) Int(name string) int {
	if o, ok := r.Options[name]; ok {
		return int(o.IntValue())
	}
	return 0
}

type reply struct {
	Content   string
	Embed     *notify.Embed
	Ephemeral bool
}

func text(format string, args ...any) reply {
	return reply{Content: notify.Text(format, args...).Text}
}

func private(format string, args ...any) reply {
	r := text(format, args...)
	r.Ephemeral = true
	return r
}

// responder answers one command. After Defer, Reply edits the deferred response.
type responder interface {
	Defer(ctx context.Context) error
	Reply(ctx context.Context, r reply) error
}

type handler func(b *Bot, ctx context.Context, res responder, req request) reply

var handlers = map[string]handler{
	cmdPlay:   (*Bot).play,
	cmdQueue:  (*Bot).queue,
	cmdRemove: (*Bot).remove,
	cmdVolume: (*Bot).volume,
	cmdStop:   (*Bot).stop,
	cmdSkip:   (*Bot).skip,
}

func (b *Bot) dispatch(ctx context.Context, name string, res responder, req request) {
	h, ok := handlers[name]
	if !ok {
		b.log.Warnf("unknown command %q", name)
		return
	}

	r := h(b, ctx, res, req)
	if err := res.Reply(ctx, r); err != nil {
		b.log.WithError(err).Warnf("reply to /%s", name)
	}
}

func (b *Bot) play(ctx context.Context, res responder, req request) reply {
	if req.VoiceChannelID == "" {
		return private("You must be in a voice channel to use this command.")
	}

	g := b.guild(req.GuildID, req.TextChannelID)
	s := g.session.Sink
	switch {
	case !s.Connected():
		if err := s.Connect(ctx, req.VoiceChannelID); err != nil {
			b.log.WithError(err).Error("connect to voice channel")
			return private("Failed to connect to the voice channel.")
		}
	case s.ChannelID() != req.VoiceChannelID:
		return private("I'm already in a different voice channel. Use `/stop` first.")
	}
	g.channel.Retarget(req.TextChannelID)

	if err := res.Defer(ctx); err != nil {
		b.log.WithError(err).Warn("defer /play")
	}

	t, _, err := g.session.Controller.Play(ctx, req.String(optURL))
	switch {
	case errors.Is(err, fault.ErrUnsupportedInput):
		return text("%s", fault.Message(err))
	case err != nil:
		b.log.WithError(err).Error("play")
		return text("An error occurred: %s", fault.Message(err))
	}
	return text("Added to queue: %s", t)
}

func (b *Bot) queue(_ context.Context, _ responder, req request) reply {
	g, ok := b.lookup(req.GuildID)
	if !ok {
		return reply{Embed: notify.Queue(mo.None[track.Track](), nil).Embed}
	}
	l := g.session.Controller.Queue()
	return reply{Embed: notify.Queue(l.Current, l.Queued).Embed}
}

func (b *Bot) remove(_ context.Context, _ responder, req request) reply {
	g, ok := b.lookup(req.GuildID)
	if !ok {
		return private("The queue is empty!")
	}
	t, err := g.session.Controller.Remove(req.Int(optPosition))
	if err != nil {
		return private("%s", fault.Message(err))
	}
	return text("Removed %s from the queue.", t)
}

func (b *Bot) volume(ctx context.Context, _ responder, req request) reply {
	level := req.Int(optLevel)
	g := b.guild(req.GuildID, req.TextChannelID)

	applied, err := g.session.Controller.SetVolume(ctx, level)
	switch {
	case err != nil:
		return private("%s", fault.Message(err))
	case applied:
		return text("Volume set to %d%%", level)
	default:
		return private("Volume set to %d%% (will apply to next song)", level)
	}
}

func (b *Bot) stop(ctx context.Context, _ responder, req request) reply {
	g, ok := b.lookup(req.GuildID)
	if !ok || !g.session.Sink.Connected() {
		return private("I'm not in a voice channel.")
	}
	if err := g.session.Controller.Stop(ctx); err != nil {
		b.log.WithError(err).Warn("stop")
	}
	return text("Stopped playback and left the voice channel.")
}

func (b *Bot) skip(ctx context.Context, _ responder, req request) reply {
	g, ok := b.lookup(req.GuildID)
	if !ok {
		return private("Nothing is playing.")
	}
	skipped, err := g.session.Controller.Skip(ctx)
	switch {
	case err != nil:
		return text("%s", fault.Message(err))
	case !skipped:
		return private("Nothing to skip right now.")
	}
	return text("Skipped.")
}

// press runs a now playing button.
func (b *Bot) press(ctx context.Context, guildID, button string) {
	g, ok := b.lookup(guildID)
	if !ok {
		return
	}
	c := g.session.Controller

	var err error
	switch button {
	case notify.ButtonPause:
		_, _ = c.TogglePause(ctx)
	case notify.ButtonForward:
		_, err = c.Forward(ctx)
	case notify.ButtonBackward:
		_, err = c.Backward(ctx)
	case notify.ButtonStop:
		err = c.Stop(ctx)
	case notify.ButtonSkip:
		_, err = c.Skip(ctx)
	default:
		b.log.Warnf("unknown button %q", button)
		return
	}
	if err != nil {
		b.log.WithError(err).Warnf("button %s", button)
	}
}

func pong(rtt, heartbeat time.Duration) reply {
	return reply{Content: fmt.Sprintf("Pong! Latency: %.2fms | Discord API: %.2fms", millis(rtt), millis(heartbeat))}
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
