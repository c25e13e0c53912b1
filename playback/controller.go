package playback

import (
	"context"
	"sync"
	"time"

	"github.com/cadence-bot/cadence/decoder"
	"github.com/cadence-bot/cadence/fault"
	"github.com/cadence-bot/cadence/frame"
	"github.com/cadence-bot/cadence/log"
	"github.com/cadence-bot/cadence/notify"
	"github.com/cadence-bot/cadence/resolver"
	"github.com/cadence-bot/cadence/sink"
	"github.com/cadence-bot/cadence/track"
	"github.com/cadence-bot/cadence/util"
	"github.com/samber/mo"
)

// Controller owns the decoder handle and drives every change of what is playing.
//
// mu serializes starting and terminating decoders, so at most one handle is live.
// gen is bumped whenever the handle is replaced or dropped; a stream completion
// carrying an older gen is ignored.
type Controller struct {
	state    *State
	spawner  decoder.Spawner
	sink     sink.Sink
	board    *notify.Board
	resolver resolver.Resolver
	clock    *Clock
	opts     Options
	log      *log.Entry

	// ctx scopes work started from stream completions.
	ctx context.Context

	mu     sync.Mutex
	handle decoder.Process
	gen    uint64
}

// Handle returns the live decoder, if any.
func (c *Controller) Handle() mo.Option[decoder.Process] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle == nil {
		return mo.None[decoder.Process]()
	}
	return mo.Some(c.handle)
}

// Start plays t from offset seconds, replacing whatever is playing.
func (c *Controller) Start(ctx context.Context, t track.Track, offset int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startLocked(ctx, t, offset)
}

func (c *Controller) startLocked(ctx context.Context, t track.Track, offset int) error {
	c.terminateLocked()

	before := c.state.Snapshot()
	proc, err := c.spawner.Spawn(decoder.Request{
		Locator: t.Locator,
		Offset:  offset,
		Volume:  before.Volume,
	})
	if err != nil {
		c.log.WithError(err).Errorf("start %q at %ds", t.Title, offset)
		c.state.clearCurrent()
		c.clock.Stop()
		if clearErr := c.board.Clear(ctx); clearErr != nil {
			c.log.WithError(clearErr).Warn("delete now playing")
		}
		if sayErr := c.board.Say(ctx, "%s", fault.Message(err)); sayErr != nil {
			c.log.WithError(sayErr).Warn("report start failure")
		}
		return err
	}

	c.handle = proc
	gen := c.gen

	src := frame.NewSource(proc.Output(), proc.Output(), c.opts.Frame)
	done := c.sink.Play(src)
	if before.Paused {
		c.sink.Pause()
	}
	c.state.setPlaying(t, offset)
	go c.await(gen, done)

	c.log.WithField("pid", proc.PID()).Infof("playing %q from %ds", t.Title, offset)

	prev, had := before.Current.Get()
	if !had || prev != t {
		c.announce(ctx, t, offset, before.Paused)
	} else if err := c.board.Progress(ctx, offset); err != nil {
		c.announce(ctx, t, offset, before.Paused)
	}

	c.clock.Start()
	return nil
}

func (c *Controller) announce(ctx context.Context, t track.Track, elapsed int, paused bool) {
	if err := c.board.Announce(ctx, t, elapsed, paused); err != nil {
		c.log.WithError(err).Warn("post now playing")
	}
}

// terminateLocked drops the live handle and invalidates its pending completion.
func (c *Controller) terminateLocked() {
	c.gen++
	c.sink.Stop()
	if c.handle == nil {
		return
	}
	if err := c.handle.Terminate(); err != nil {
		c.log.WithError(err).Warn("terminate decoder")
	}
	c.handle = nil
}

// Terminate stops the sink stream and the decoder without touching state.
func (c *Controller) Terminate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.terminateLocked()
}

func (c *Controller) await(gen uint64, done <-chan error) {
	err := <-done
	c.finished(gen, err)
}

// finished runs when a stream ends. A natural end advances the queue.
func (c *Controller) finished(gen uint64, err error) {
	if err != nil {
		c.log.WithError(err).Error("playback error")
	}

	time.Sleep(c.opts.Debounce)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return
	}
	snap := c.state.Snapshot()
	if snap.Busy() || snap.Current.IsAbsent() {
		return
	}

	if err := c.advanceLocked(c.ctx); err != nil {
		c.log.WithError(err).Warn("advance queue")
	}
}

func (c *Controller) advanceLocked(ctx context.Context) error {
	next, ok := c.state.DequeueNext().Get()
	if ok {
		return c.startLocked(ctx, next, 0)
	}

	c.terminateLocked()
	c.state.clearCurrent()
	c.clock.Stop()
	c.log.Info("queue finished")
	return c.board.Say(ctx, "Queue is empty.")
}

// Play resolves locator and queues it, starting playback if nothing is playing.
func (c *Controller) Play(ctx context.Context, locator string) (t track.Track, position int, err error) {
	t, err = c.resolver.Resolve(ctx, locator)
	if err != nil {
		return t, 0, err
	}

	position = c.state.Enqueue(t)
	c.log.Infof("queued %q at %d", t.Title, position)

	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.state.Snapshot()
	if snap.Current.IsPresent() || snap.Busy() {
		return t, position, nil
	}
	return t, position, c.advanceLocked(ctx)
}

// Listing is the queue as shown to users.
type Listing struct {
	Current mo.Option[track.Track]
	Queued  []track.Track
}

func (c *Controller) Queue() Listing {
	return Listing{Current: c.state.Current(), Queued: c.state.Queued()}
}

// Remove drops the queued track at a 1-based position.
func (c *Controller) Remove(position int) (track.Track, error) {
	return c.state.RemoveAt(position)
}

// SetVolume stores level and, when possible, restarts the current track with it at the
// same position. applied is false when the level only takes effect from the next track.
func (c *Controller) SetVolume(ctx context.Context, level int) (applied bool, err error) {
	if err := c.state.SetVolume(level); err != nil {
		return false, err
	}
	if c.state.Current().IsAbsent() {
		return false, nil
	}
	if !c.state.TryBeginTransition() {
		return false, nil
	}
	defer c.state.EndTransition()

	return c.restart(ctx)
}

// Restart plays the current track again from the current position.
func (c *Controller) Restart(ctx context.Context) error {
	_, err := c.restart(ctx)
	return err
}

func (c *Controller) restart(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.state.Snapshot()
	t, ok := snap.Current.Get()
	if !ok {
		return false, nil
	}
	return true, c.startLocked(ctx, t, snap.Elapsed)
}

// resume restarts the current track after the voice connection was rebuilt. When
// playback was stopped while the connection was down, it leaves the channel again.
func (c *Controller) resume(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.state.Snapshot()
	t, ok := snap.Current.Get()
	if !ok {
		c.log.Info("stopped while reconnecting, leaving voice")
		return c.sink.Disconnect()
	}
	return c.startLocked(ctx, t, snap.Elapsed)
}

// Seek moves by delta seconds. moved is false when the request was dropped because
// another transition holds the gate, or when the clamped position equals the current one.
func (c *Controller) Seek(ctx context.Context, delta int) (moved bool, err error) {
	if !c.state.TryBeginTransition() {
		return false, nil
	}
	defer c.state.EndTransition()

	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.state.Snapshot()
	t, ok := snap.Current.Get()
	if !ok {
		return false, nil
	}

	target := util.Max(0, snap.Elapsed+delta)
	if t.Known() {
		target = util.Min(target, t.Duration)
	}
	if target == snap.Elapsed {
		return false, nil
	}

	c.log.Debugf("seek %+ds to %ds", delta, target)
	return true, c.startLocked(ctx, t, target)
}

func (c *Controller) Forward(ctx context.Context) (bool, error) {
	return c.Seek(ctx, c.opts.SeekStep)
}

func (c *Controller) Backward(ctx context.Context) (bool, error) {
	return c.Seek(ctx, -c.opts.SeekStep)
}

// TogglePause pauses or resumes the sink. ok is false when nothing is playing.
func (c *Controller) TogglePause(ctx context.Context) (paused, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.state.Snapshot()
	if snap.Current.IsAbsent() {
		return false, false
	}

	paused = !snap.Paused
	c.state.setPaused(paused)
	if paused {
		c.sink.Pause()
	} else {
		c.sink.Resume()
	}

	if err := c.board.SetPaused(ctx, paused); err != nil {
		c.log.WithError(err).Debug("flip pause button")
	}
	return paused, true
}

// Skip ends the current track and starts the next one.
func (c *Controller) Skip(ctx context.Context) (bool, error) {
	if !c.state.TryBeginTransition() {
		return false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Current().IsAbsent() {
		c.state.EndTransition()
		return false, nil
	}
	c.terminateLocked()
	if err := c.board.Clear(ctx); err != nil {
		c.log.WithError(err).Warn("delete now playing")
	}
	c.state.EndTransition()

	return true, c.advanceLocked(ctx)
}

// Stop ends playback, leaves the voice channel and forgets the queue.
func (c *Controller) Stop(ctx context.Context) error {
	c.clock.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.terminateLocked()
	err := c.sink.Disconnect()
	c.state.Clear()
	if clearErr := c.board.Clear(ctx); clearErr != nil {
		c.log.WithError(clearErr).Warn("delete now playing")
	}
	c.log.Info("stopped")
	return err
}
