package sink

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/cadence-bot/cadence/constant"
	"github.com/cadence-bot/cadence/fault"
	"github.com/cadence-bot/cadence/frame"
	"github.com/cadence-bot/cadence/log"
	"layeh.com/gopus"
)

// Discord is a guild's voice connection.
type Discord struct {
	session *discordgo.Session
	guildID string
	bitrate int

	mu        sync.Mutex
	vc        *discordgo.VoiceConnection
	channelID string
	current   *stream
}

// NewDiscord returns a sink for guildID. bitrate is the Opus target in bits per second.
func NewDiscord(session *discordgo.Session, guildID string, bitrate int) *Discord {
	return &Discord{session: session, guildID: guildID, bitrate: bitrate}
}

func (d *Discord) Connect(ctx context.Context, channelID string) error {
	if err := ctx.Err(); err != nil {
		return fault.New(fault.SinkConnect, "join voice channel", err)
	}

	vc, err := d.session.ChannelVoiceJoin(d.guildID, channelID, false, true)
	if err != nil {
		return fault.New(fault.SinkConnect, fmt.Sprintf("join voice channel %s", channelID), err)
	}

	d.mu.Lock()
	d.vc = vc
	d.channelID = channelID
	d.mu.Unlock()

	log.Infof("joined voice channel %s in guild %s", channelID, d.guildID)
	return nil
}

func (d *Discord) Disconnect() error {
	d.Stop()

	d.mu.Lock()
	vc := d.vc
	d.vc = nil
	d.mu.Unlock()

	if vc == nil {
		return nil
	}
	if err := vc.Disconnect(); err != nil {
		return fmt.Errorf("leave voice channel: %w", err)
	}
	return nil
}

func (d *Discord) Connected() bool {
	d.mu.Lock()
	vc := d.vc
	d.mu.Unlock()

	if vc == nil {
		return false
	}
	vc.RLock()
	defer vc.RUnlock()
	return vc.Ready
}

func (d *Discord) ChannelID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.channelID
}

func (d *Discord) Play(src frame.Reader) <-chan error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current != nil {
		d.current.halt()
	}

	if d.vc == nil {
		src.Cleanup()
		done := make(chan error, 1)
		done <- fault.New(fault.SinkConnect, "play", errors.New("not connected to a voice channel"))
		close(done)
		return done
	}

	enc, err := gopus.NewEncoder(constant.SampleRate, constant.Channels, gopus.Audio)
	if err != nil {
		src.Cleanup()
		done := make(chan error, 1)
		done <- fmt.Errorf("create opus encoder: %w", err)
		close(done)
		return done
	}
	enc.SetBitrate(d.bitrate)

	vc := d.vc
	s := newStream(src, enc, vc.OpusSend, func(on bool) {
		if err := vc.Speaking(on); err != nil {
			log.Debugf("set speaking %t: %s", on, err)
		}
	})
	d.current = s
	go s.run()
	return s.done
}

func (d *Discord) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current != nil {
		d.current.halt()
		d.current = nil
	}
}

func (d *Discord) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current != nil {
		d.current.pause()
	}
}

func (d *Discord) Resume() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current != nil {
		d.current.resume()
	}
}

func (d *Discord) Emitting() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current != nil && d.current.emitting()
}
