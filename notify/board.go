package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/cadence-bot/cadence/track"
	"github.com/samber/mo"
)

// Board owns a session's now playing message.
type Board struct {
	ch Channel

	mu      sync.Mutex
	handle  mo.Option[Handle]
	track   track.Track
	elapsed int
	paused  bool
}

func NewBoard(ch Channel) *Board {
	return &Board{ch: ch}
}

// Announce replaces the now playing message with one for t.
func (b *Board) Announce(ctx context.Context, t track.Track, elapsed int, paused bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	_ = b.dropLocked(ctx)

	b.track, b.elapsed, b.paused = t, elapsed, paused
	h, err := b.ch.Post(ctx, NowPlaying(t, elapsed, paused))
	if err != nil {
		return err
	}
	b.handle = mo.Some(h)
	return nil
}

// Progress refreshes the Duration field. Returns ErrGone when nothing is shown.
func (b *Board) Progress(ctx context.Context, elapsed int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.elapsed = elapsed
	return b.refreshLocked(ctx)
}

// SetPaused flips the pause button label.
func (b *Board) SetPaused(ctx context.Context, paused bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.paused == paused {
		return nil
	}
	b.paused = paused
	return b.refreshLocked(ctx)
}

func (b *Board) refreshLocked(ctx context.Context) error {
	h, ok := b.handle.Get()
	if !ok {
		return ErrGone
	}

	err := b.ch.Update(ctx, h, NowPlaying(b.track, b.elapsed, b.paused))
	if errors.Is(err, ErrGone) {
		b.handle = mo.None[Handle]()
	}
	return err
}

// Clear deletes the now playing message if one is shown.
func (b *Board) Clear(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropLocked(ctx)
}

func (b *Board) dropLocked(ctx context.Context) error {
	h, ok := b.handle.Get()
	if !ok {
		return nil
	}
	b.handle = mo.None[Handle]()
	return b.ch.Delete(ctx, h)
}

// Showing reports whether a now playing message is on screen.
func (b *Board) Showing() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handle.IsPresent()
}

// Say posts a standalone message.
func (b *Board) Say(ctx context.Context, format string, args ...any) error {
	_, err := b.ch.Post(ctx, Text(format, args...))
	return err
}
