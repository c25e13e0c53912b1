// Package frame cuts a decoder's PCM output into fixed-size frames for the voice sink.
package frame

import (
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/cadence-bot/cadence/constant"
	"github.com/cadence-bot/cadence/fault"
	"github.com/cadence-bot/cadence/log"
)

// Reader is what a sink pulls frames from.
type Reader interface {
	// Read returns one full frame, or nil once the stream is over.
	Read() []byte
	// Cleanup releases the underlying stream. Safe to call more than once.
	Cleanup()
}

// Options tune a Source.
type Options struct {
	// Size is the frame length in bytes.
	Size int
	// Gap is the read interval above which a stutter is logged.
	Gap time.Duration
}

// DefaultOptions is one 20ms stereo frame with a 100ms stutter threshold.
var DefaultOptions = Options{Size: constant.FrameBytes, Gap: 100 * time.Millisecond}

// Source reads frames from a decoder's output stream.
type Source struct {
	r    io.Reader
	c    io.Closer
	opts Options
	now  func() time.Time

	mu   sync.Mutex
	last time.Time
	done bool

	once sync.Once
}

// NewSource wraps r. closer may be nil when r needs no cleanup.
func NewSource(r io.Reader, closer io.Closer, opts Options) *Source {
	if opts.Size <= 0 {
		opts.Size = DefaultOptions.Size
	}
	return &Source{r: r, c: closer, opts: opts, now: time.Now}
}

// Read returns the next frame. A short final frame is padded with silence.
func (s *Source) Read() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return nil
	}

	buf := make([]byte, s.opts.Size)
	n, err := io.ReadFull(s.r, buf)

	now := s.now()
	if !s.last.IsZero() && s.opts.Gap > 0 {
		if gap := now.Sub(s.last); gap > s.opts.Gap {
			log.Warnf("audio read delay: %.3fs", gap.Seconds())
		}
	}
	s.last = now

	switch {
	case err == nil:
		return buf
	case errors.Is(err, io.ErrUnexpectedEOF):
		// ReadFull leaves the tail zeroed.
		s.done = true
		return buf
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrClosedPipe), errors.Is(err, os.ErrClosed):
		s.done = true
		return nil
	}

	s.done = true
	log.Error(fault.New(fault.TransientRead, "read audio frame", err))
	if n == 0 {
		return nil
	}
	return buf
}

// Cleanup closes the underlying stream once.
func (s *Source) Cleanup() {
	s.once.Do(func() {
		if s.c != nil {
			_ = s.c.Close()
		}
	})
}
