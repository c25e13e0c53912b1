package playback

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cadence-bot/cadence/log"
	"github.com/cadence-bot/cadence/notify"
	"github.com/cadence-bot/cadence/sink"
)

// Clock advances elapsed once per period while audio is going out and mirrors it
// into the now playing message.
type Clock struct {
	state  *State
	sink   sink.Sink
	board  *notify.Board
	period time.Duration
	ctx    context.Context
	log    *log.Entry

	mu   sync.Mutex
	stop chan struct{}
}

// Running reports whether the clock goroutine is alive.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop != nil
}

// Start launches the clock unless it is already running.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		return
	}
	c.stop = make(chan struct{})
	go c.run(c.stop)
}

func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

func (c *Clock) run(stop chan struct{}) {
	ticker := time.NewTicker(c.period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		if c.Tick(c.ctx) {
			continue
		}
		if c.retire(stop) {
			return
		}
	}
}

// retire stops the clock from inside. A new message or connection that appeared
// since the failing tick keeps it alive.
func (c *Clock) retire(stop chan struct{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stop != stop {
		return true
	}
	if c.board.Showing() && c.sink.Connected() {
		return false
	}
	c.stop = nil
	c.log.Debug("clock stopped")
	return true
}

// Tick runs one clock step and reports whether the clock should keep going.
func (c *Clock) Tick(ctx context.Context) bool {
	snap := c.state.Snapshot()

	if c.sink.Emitting() && !snap.Paused && !snap.Busy() {
		elapsed, ok := c.state.advance()
		if !ok {
			return true
		}
		err := c.board.Progress(ctx, elapsed)
		switch {
		case errors.Is(err, notify.ErrGone):
			c.log.Warn("now playing message is gone, stopping updates")
			return false
		case err != nil:
			c.log.WithError(err).Warn("update now playing")
		}
		return true
	}

	if snap.Paused || snap.Busy() {
		return true
	}

	if !c.sink.Connected() {
		c.log.Warn("voice disconnected, stopping updates")
		return false
	}
	return true
}
