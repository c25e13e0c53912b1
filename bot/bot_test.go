package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cadence-bot/cadence/decoder"
	"github.com/cadence-bot/cadence/fault"
	"github.com/cadence-bot/cadence/frame"
	"github.com/cadence-bot/cadence/notify"
	"github.com/cadence-bot/cadence/playback"
	"github.com/cadence-bot/cadence/track"
	. "github.com/smartystreets/goconvey/convey"
)

type voice struct {
	mu         sync.Mutex
	channel    string
	connected  bool
	connectErr error
	playing    chan error
}

func (v *voice) Play(frame.Reader) <-chan error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopLocked()
	v.playing = make(chan error, 1)
	return v.playing
}

func (v *voice) stopLocked() {
	if v.playing != nil {
		close(v.playing)
		v.playing = nil
	}
}

func (v *voice) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopLocked()
}

func (v *voice) Pause() {}

func (v *voice) Resume() {}

func (v *voice) Emitting() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.playing != nil
}

func (v *voice) Connected() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.connected
}

func (v *voice) Connect(_ context.Context, channelID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.connectErr != nil {
		return v.connectErr
	}
	v.channel, v.connected = channelID, true
	return nil
}

func (v *voice) Disconnect() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopLocked()
	v.connected = false
	return nil
}

func (v *voice) ChannelID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.channel
}

type chat struct {
	mu     sync.Mutex
	target string
	posts  []notify.Content
}

func (c *chat) Retarget(channelID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = channelID
}

func (c *chat) Post(_ context.Context, content notify.Content) (notify.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.posts = append(c.posts, content)
	return notify.Handle{ChannelID: c.target, MessageID: fmt.Sprint(len(c.posts))}, nil
}

func (c *chat) Update(context.Context, notify.Handle, notify.Content) error { return nil }

func (c *chat) Delete(context.Context, notify.Handle) error { return nil }

type proc struct {
	req  decoder.Request
	once sync.Once
	exit chan struct{}
}

func (p *proc) PID() int { return 1 }

func (p *proc) Started() time.Time { return time.Now() }

func (p *proc) Request() decoder.Request { return p.req }

func (p *proc) Output() io.ReadCloser { return io.NopCloser(strings.NewReader("")) }

func (p *proc) Alive() bool {
	select {
	case <-p.exit:
		return false
	default:
		return true
	}
}

func (p *proc) Exited() <-chan struct{} { return p.exit }

func (p *proc) Terminate() error {
	p.once.Do(func() { close(p.exit) })
	return nil
}

type spawner struct {
	mu    sync.Mutex
	procs []*proc
}

func (s *spawner) Spawn(req decoder.Request) (decoder.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &proc{req: req, exit: make(chan struct{})}
	s.procs = append(s.procs, p)
	return p, nil
}

func (s *spawner) last() decoder.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.procs[len(s.procs)-1].req
}

type catalog map[string]track.Track

func (c catalog) Resolve(_ context.Context, locator string) (track.Track, error) {
	if locator == "list" {
		return track.Track{}, fault.Newf(fault.UnsupportedInput, "Playlists are not supported. Please provide a single video URL.")
	}
	t, ok := c[locator]
	if !ok {
		return track.Track{}, fault.New(fault.Resolution, "resolve "+locator, errors.New("video unavailable"))
	}
	return t, nil
}

type recorder struct {
	deferred bool
	replies  []reply
}

func (r *recorder) Defer(context.Context) error {
	r.deferred = true
	return nil
}

func (r *recorder) Reply(_ context.Context, rep reply) error {
	r.replies = append(r.replies, rep)
	return nil
}

func (r *recorder) last() reply {
	return r.replies[len(r.replies)-1]
}

type fixture struct {
	bot     *Bot
	voice   *voice
	chat    *chat
	spawner *spawner
	opened  int
}

func newFixture() *fixture {
	f := &fixture{voice: &voice{}, chat: &chat{}, spawner: &spawner{}}
	opts := playback.Options{
		Volume:   100,
		SeekStep: 10,
		Debounce: time.Millisecond,
		Frame:    frame.DefaultOptions,
		Tick:     time.Hour,
		Monitor:  playback.MonitorOptions{Interval: time.Hour},
	}
	f.bot = newBot(Config{Playback: opts})
	f.bot.open = func(guildID, textChannelID string) *guild {
		f.opened++
		f.chat.Retarget(textChannelID)
		session := playback.NewSession(guildID, playback.Deps{
			Sink:    f.voice,
			Channel: f.chat,
			Resolver: catalog{
				"a": {Locator: "https://cdn.example/a", Source: "a", Title: "A", Duration: 100},
				"b": {Locator: "https://cdn.example/b", Source: "b", Title: "B", Duration: 200},
			},
			Spawner: f.spawner,
		}, opts)
		return &guild{session: session, channel: f.chat}
	}
	return f
}

func (f *fixture) run(name string, req request) *recorder {
	if req.GuildID == "" {
		req.GuildID = "guild"
	}
	if req.TextChannelID == "" {
		req.TextChannelID = "text"
	}
	rec := &recorder{}
	f.bot.dispatch(context.Background(), name, rec, req)
	return rec
}

func (f *fixture) play(locator string) *recorder {
	return f.run(cmdPlay, request{VoiceChannelID: "voice", Options: opts(str(optURL, locator))})
}

func str(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionString, Value: value}
}

func num(name string, value int) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionInteger, Value: float64(value)}
}

func opts(o ...*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	return options(o)
}

func TestPlayCommand(t *testing.T) {
	Convey("Given a bot with no sessions", t, func() {
		f := newFixture()
		defer func() { _ = f.bot.Close(context.Background()) }()

		Convey("A user outside voice is turned away", func() {
			rec := f.run(cmdPlay, request{Options: opts(str(optURL, "a"))})
			So(rec.last(), ShouldResemble, private("You must be in a voice channel to use this command."))
			So(rec.deferred, ShouldBeFalse)
			So(f.opened, ShouldEqual, 0)
		})

		Convey("The first play joins the caller's channel and starts the track", func() {
			rec := f.play("a")
			So(rec.deferred, ShouldBeTrue)
			So(rec.last().Content, ShouldEqual, "Added to queue: **A**")
			So(rec.last().Ephemeral, ShouldBeFalse)

			So(f.voice.ChannelID(), ShouldEqual, "voice")
			So(f.spawner.last().Locator, ShouldEqual, "https://cdn.example/a")
			So(f.chat.posts[0].Embed.Title, ShouldEqual, "🎶 Now Playing")

			Convey("and a second play reuses the session", func() {
				rec := f.play("b")
				So(rec.last().Content, ShouldEqual, "Added to queue: **B**")
				So(f.opened, ShouldEqual, 1)
				So(f.spawner.procs, ShouldHaveLength, 1)
			})

			Convey("and a play from another voice channel is refused", func() {
				rec := f.run(cmdPlay, request{VoiceChannelID: "elsewhere", Options: opts(str(optURL, "b"))})
				So(rec.last(), ShouldResemble, private("I'm already in a different voice channel. Use `/stop` first."))
			})

			Convey("and a play from another text channel moves the announcements", func() {
				f.run(cmdPlay, request{TextChannelID: "music", VoiceChannelID: "voice", Options: opts(str(optURL, "b"))})
				So(f.chat.target, ShouldEqual, "music")
			})
		})

		Convey("A voice connection failure is reported", func() {
			f.voice.connectErr = fault.New(fault.SinkConnect, "join voice", errors.New("timeout"))
			rec := f.play("a")
			So(rec.last(), ShouldResemble, private("Failed to connect to the voice channel."))
			So(f.spawner.procs, ShouldBeEmpty)
		})

		Convey("Playlists are refused with their own message", func() {
			rec := f.play("list")
			So(rec.last().Content, ShouldEqual, "Playlists are not supported. Please provide a single video URL.")
		})

		Convey("Other failures are prefixed", func() {
			rec := f.play("missing")
			So(rec.last().Content, ShouldEqual, "An error occurred: resolve missing: video unavailable")
		})
	})
}

func TestQueueCommands(t *testing.T) {
	Convey("Given a bot", t, func() {
		f := newFixture()
		defer func() { _ = f.bot.Close(context.Background()) }()

		Convey("/queue without a session shows the empty state", func() {
			rec := f.run(cmdQueue, request{})
			So(rec.last().Embed.Description, ShouldEqual, "Nothing is playing and the queue is empty.")
		})

		Convey("/remove without a session reports an empty queue", func() {
			rec := f.run(cmdRemove, request{Options: opts(num(optPosition, 1))})
			So(rec.last(), ShouldResemble, private("The queue is empty!"))
		})

		Convey("With A playing and B queued", func() {
			f.play("a")
			f.play("b")

			Convey("/queue lists B under the current track", func() {
				e := f.run(cmdQueue, request{}).last().Embed
				So(e.Description, ShouldEqual, "**Currently Playing:**\n**A**")
				So(e.Fields[0].Value, ShouldEqual, "1. **B** (03:20)\n")
			})

			Convey("/remove checks the position", func() {
				rec := f.run(cmdRemove, request{Options: opts(num(optPosition, 2))})
				So(rec.last(), ShouldResemble, private("Invalid position. Please enter a number between 1 and 1."))
			})

			Convey("/remove 1 drops B", func() {
				rec := f.run(cmdRemove, request{Options: opts(num(optPosition, 1))})
				So(rec.last(), ShouldResemble, text("Removed **B** from the queue."))
			})

			Convey("/skip moves on to B", func() {
				rec := f.run(cmdSkip, request{})
				So(rec.last().Content, ShouldEqual, "Skipped.")
				So(f.spawner.last().Locator, ShouldEqual, "https://cdn.example/b")
			})

			Convey("/stop leaves the channel and forgets the queue", func() {
				rec := f.run(cmdStop, request{})
				So(rec.last().Content, ShouldEqual, "Stopped playback and left the voice channel.")
				So(f.voice.Connected(), ShouldBeFalse)

				e := f.run(cmdQueue, request{}).last().Embed
				So(e.Description, ShouldEqual, "Nothing is playing and the queue is empty.")

				Convey("and a second /stop has nothing to do", func() {
					rec := f.run(cmdStop, request{})
					So(rec.last(), ShouldResemble, private("I'm not in a voice channel."))
				})
			})
		})
	})
}

func TestVolumeCommand(t *testing.T) {
	Convey("Given a bot", t, func() {
		f := newFixture()
		defer func() { _ = f.bot.Close(context.Background()) }()

		Convey("Out of range levels are refused", func() {
			rec := f.run(cmdVolume, request{Options: opts(num(optLevel, 150))})
			So(rec.last(), ShouldResemble, private("Volume must be between 0 and 100"))
		})

		Convey("With nothing playing the level waits for the next song", func() {
			rec := f.run(cmdVolume, request{Options: opts(num(optLevel, 30))})
			So(rec.last(), ShouldResemble, private("Volume set to %d%% (will apply to next song)", 30))

			f.play("a")
			So(f.spawner.last().Volume, ShouldEqual, 30)
		})

		Convey("While playing the track restarts at the new level", func() {
			f.play("a")
			rec := f.run(cmdVolume, request{Options: opts(num(optLevel, 50))})
			So(rec.last(), ShouldResemble, text("Volume set to %d%%", 50))
			So(f.spawner.last().Gain(), ShouldEqual, 0.5)
		})
	})
}

func TestButtons(t *testing.T) {
	ctx := context.Background()

	Convey("Given A playing with B queued", t, func() {
		f := newFixture()
		defer func() { _ = f.bot.Close(ctx) }()
		f.play("a")
		f.play("b")
		g, _ := f.bot.lookup("guild")

		Convey("Pause toggles", func() {
			f.bot.press(ctx, "guild", notify.ButtonPause)
			So(g.session.State.Snapshot().Paused, ShouldBeTrue)
			f.bot.press(ctx, "guild", notify.ButtonPause)
			So(g.session.State.Snapshot().Paused, ShouldBeFalse)
		})

		Convey("Forward seeks by the step", func() {
			f.bot.press(ctx, "guild", notify.ButtonForward)
			So(f.spawner.last().Offset, ShouldEqual, 10)
		})

		Convey("Skip starts B", func() {
			f.bot.press(ctx, "guild", notify.ButtonSkip)
			So(g.session.State.Current().MustGet().Title, ShouldEqual, "B")
		})

		Convey("Stop disconnects", func() {
			f.bot.press(ctx, "guild", notify.ButtonStop)
			So(f.voice.Connected(), ShouldBeFalse)
		})

		Convey("Buttons for unknown guilds are ignored", func() {
			f.bot.press(ctx, "other", notify.ButtonStop)
			So(f.voice.Connected(), ShouldBeTrue)
		})
	})
}

func TestPong(t *testing.T) {
	Convey("pong formats both latencies in milliseconds", t, func() {
		r := pong(1500*time.Microsecond, 40*time.Millisecond)
		So(r.Content, ShouldEqual, "Pong! Latency: 1.50ms | Discord API: 40.00ms")
	})

	Convey("Every handled command is registered", t, func() {
		names := make(map[string]bool)
		for _, d := range definitions() {
			names[d.Name] = true
		}
		for name := range handlers {
			So(names[name], ShouldBeTrue)
		}
		So(names[cmdPing], ShouldBeTrue)
	})
}
