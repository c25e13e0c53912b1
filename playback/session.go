// Package playback supervises one voice session: the queue, the decoder, the clock
// and the heartbeat that recovers stalled audio.
package playback

import (
	"context"
	"time"

	"github.com/cadence-bot/cadence/decoder"
	"github.com/cadence-bot/cadence/log"
	"github.com/cadence-bot/cadence/notify"
	"github.com/cadence-bot/cadence/resolver"
	"github.com/cadence-bot/cadence/sink"
	"github.com/google/uuid"
)

// Deps are a session's collaborators.
type Deps struct {
	Sink     sink.Sink
	Channel  notify.Channel
	Resolver resolver.Resolver
	Spawner  decoder.Spawner
	Sampler  decoder.Sampler
}

// Session wires one State, Controller, Clock and Monitor for a guild.
type Session struct {
	ID      string
	GuildID string

	State      *State
	Controller *Controller
	Clock      *Clock
	Monitor    *Monitor
	Board      *notify.Board
	Sink       sink.Sink

	cancel context.CancelFunc
}

func NewSession(guildID string, deps Deps, opts Options) *Session {
	id := uuid.NewString()
	entry := log.WithFields(log.Fields{"session": id, "guild": guildID})
	ctx, cancel := context.WithCancel(context.Background())

	state := NewState(opts.Volume)
	board := notify.NewBoard(deps.Channel)

	clock := &Clock{
		state:  state,
		sink:   deps.Sink,
		board:  board,
		period: opts.Tick,
		ctx:    ctx,
		log:    entry.WithField("component", "clock"),
	}

	ctrl := &Controller{
		state:    state,
		spawner:  deps.Spawner,
		sink:     deps.Sink,
		board:    board,
		resolver: deps.Resolver,
		clock:    clock,
		opts:     opts,
		log:      entry.WithField("component", "controller"),
		ctx:      ctx,
	}

	monitor := &Monitor{
		state:   state,
		ctrl:    ctrl,
		sink:    deps.Sink,
		sampler: deps.Sampler,
		opts:    opts.Monitor,
		ctx:     ctx,
		log:     entry.WithField("component", "monitor"),
		now:     time.Now,
	}

	return &Session{
		ID:         id,
		GuildID:    guildID,
		State:      state,
		Controller: ctrl,
		Clock:      clock,
		Monitor:    monitor,
		Board:      board,
		Sink:       deps.Sink,
		cancel:     cancel,
	}
}

// Open starts the heartbeat.
func (s *Session) Open() {
	s.Monitor.Start()
}

// Close stops playback and every background task of the session.
func (s *Session) Close(ctx context.Context) error {
	s.cancel()
	s.Monitor.Stop()
	err := s.Controller.Stop(ctx)
	s.Clock.Stop()
	return err
}
