// Package bot connects per-guild playback sessions to Discord slash commands and
// the now playing buttons.
package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cadence-bot/cadence/decoder"
	"github.com/cadence-bot/cadence/log"
	"github.com/cadence-bot/cadence/network"
	"github.com/cadence-bot/cadence/notify"
	"github.com/cadence-bot/cadence/playback"
	"github.com/cadence-bot/cadence/resolver"
	"github.com/cadence-bot/cadence/sink"
	"github.com/cadence-bot/cadence/util"
)

// interactionTimeout bounds the work done for one command or button press.
const interactionTimeout = 2 * time.Minute

// Config is what a Bot needs to run.
type Config struct {
	Token string
	// ApplicationID registers the commands. The logged in user is used when empty.
	ApplicationID string
	// Bitrate of the Opus stream in bits per second.
	Bitrate  int
	Playback playback.Options

	Resolver resolver.Resolver
	Spawner  decoder.Spawner
	Sampler  decoder.Sampler
}

// retargeter is a notification channel that can follow the user to another text channel.
type retargeter interface {
	Retarget(channelID string)
}

type guild struct {
	session *playback.Session
	channel retargeter
}

// Bot owns the gateway connection and one playback session per guild.
type Bot struct {
	discord *discordgo.Session
	cfg     Config
	log     *log.Entry

	// open builds the session for a guild on first use.
	open func(guildID, textChannelID string) *guild
	// heartbeat reports the gateway heartbeat round trip.
	heartbeat func() time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	guilds map[string]*guild
}

// New prepares a bot. Nothing connects until Open.
func New(cfg Config) (*Bot, error) {
	discord, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	discord.Client = network.Client
	discord.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates

	b := newBot(cfg)
	b.discord = discord
	b.heartbeat = discord.HeartbeatLatency
	b.open = b.openDiscord
	return b, nil
}

func newBot(cfg Config) *Bot {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bot{
		cfg:       cfg,
		log:       log.WithFields(log.Fields{"component": "bot"}),
		heartbeat: func() time.Duration { return 0 },
		ctx:       ctx,
		cancel:    cancel,
		guilds:    make(map[string]*guild),
	}
}

func (b *Bot) openDiscord(guildID, textChannelID string) *guild {
	channel := notify.NewDiscord(b.discord, textChannelID)
	session := playback.NewSession(guildID, playback.Deps{
		Sink:     sink.NewDiscord(b.discord, guildID, b.cfg.Bitrate),
		Channel:  channel,
		Resolver: b.cfg.Resolver,
		Spawner:  b.cfg.Spawner,
		Sampler:  b.cfg.Sampler,
	}, b.cfg.Playback)
	session.Open()

	b.log.WithField("guild", guildID).Infof("opened session %s", session.ID)
	return &guild{session: session, channel: channel}
}

// Open connects to the gateway and registers the slash commands.
func (b *Bot) Open() error {
	b.discord.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.log.Infof("logged in as %s#%s", r.User.Username, r.User.Discriminator)
	})
	b.discord.AddHandler(b.onInteraction)

	if err := b.discord.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}

	appID := b.cfg.ApplicationID
	if appID == "" {
		appID = b.discord.State.User.ID
	}

	registered, err := b.discord.ApplicationCommandBulkOverwrite(appID, "", definitions())
	if err != nil {
		_ = b.discord.Close()
		return fmt.Errorf("register commands: %w", err)
	}
	b.log.Infof("registered %s", util.Quantify(len(registered), "command", "commands"))
	return nil
}

// Close tears down every session and the gateway connection.
func (b *Bot) Close(ctx context.Context) error {
	b.cancel()

	b.mu.Lock()
	guilds := b.guilds
	b.guilds = make(map[string]*guild)
	b.mu.Unlock()

	for id, g := range guilds {
		if err := g.session.Close(ctx); err != nil {
			b.log.WithError(err).WithField("guild", id).Warn("close session")
		}
	}

	if b.discord == nil {
		return nil
	}
	return b.discord.Close()
}

// guild returns the session for guildID, opening it on first use.
func (b *Bot) guild(guildID, textChannelID string) *guild {
	b.mu.Lock()
	defer b.mu.Unlock()

	g, ok := b.guilds[guildID]
	if !ok {
		g = b.open(guildID, textChannelID)
		b.guilds[guildID] = g
	}
	return g
}

// lookup returns an existing session without opening one.
func (b *Bot) lookup(guildID string) (*guild, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.guilds[guildID]
	return g, ok
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(b.ctx, interactionTimeout)
	defer cancel()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		res := &interaction{session: s, i: i.Interaction}
		if data.Name == cmdPing {
			b.ping(ctx, res)
			return
		}
		req := request{
			GuildID:        i.GuildID,
			TextChannelID:  i.ChannelID,
			VoiceChannelID: voiceChannel(s, i),
			Options:        options(data.Options),
		}
		b.dispatch(ctx, data.Name, res, req)

	case discordgo.InteractionMessageComponent:
		// Buttons only acknowledge; the now playing message itself shows the outcome.
		err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredMessageUpdate,
		})
		if err != nil {
			b.log.WithError(err).Warn("acknowledge button")
		}
		b.press(ctx, i.GuildID, i.MessageComponentData().CustomID)
	}
}

// voiceChannel is the voice channel the invoking member sits in, or "".
func voiceChannel(s *discordgo.Session, i *discordgo.InteractionCreate) string {
	if i.Member == nil || i.Member.User == nil {
		return ""
	}
	vs, err := s.State.VoiceState(i.GuildID, i.Member.User.ID)
	if err != nil {
		return ""
	}
	return vs.ChannelID
}

// ping replies first and then edits in the measured round trip.
func (b *Bot) ping(ctx context.Context, res *interaction) {
	start := time.Now()
	if err := res.Reply(ctx, reply{Content: "Pinging..."}); err != nil {
		b.log.WithError(err).Warn("reply to ping")
		return
	}
	rtt := time.Since(start)
	if err := res.Edit(ctx, pong(rtt, b.heartbeat())); err != nil {
		b.log.WithError(err).Warn("edit ping reply")
	}
}

// interaction answers one Discord interaction.
type interaction struct {
	session  *discordgo.Session
	i        *discordgo.Interaction
	deferred bool
}

func (r *interaction) Defer(ctx context.Context) error {
	r.deferred = true
	return r.session.InteractionRespond(r.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}, discordgo.WithContext(ctx))
}

func (r *interaction) Reply(ctx context.Context, rep reply) error {
	if r.deferred {
		return r.Edit(ctx, rep)
	}

	data := &discordgo.InteractionResponseData{
		Content: rep.Content,
		Embeds:  messageEmbeds(rep.Embed),
	}
	if rep.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return r.session.InteractionRespond(r.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}, discordgo.WithContext(ctx))
}

func (r *interaction) Edit(ctx context.Context, rep reply) error {
	content := rep.Content
	embeds := messageEmbeds(rep.Embed)
	_, err := r.session.InteractionResponseEdit(r.i, &discordgo.WebhookEdit{
		Content: &content,
		Embeds:  &embeds,
	}, discordgo.WithContext(ctx))
	return err
}

func messageEmbeds(e *notify.Embed) []*discordgo.MessageEmbed {
	return notify.MessageEmbeds(notify.Content{Embed: e})
}

func options(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}
