package playback

import (
	"fmt"
	"sync"

	"github.com/cadence-bot/cadence/fault"
	"github.com/cadence-bot/cadence/track"
	"github.com/cadence-bot/cadence/util"
	"github.com/samber/mo"
)

// State is one session's queue and now playing state. Safe for concurrent use.
//
// transition and reconnecting together form the gate: while either is set no other
// seek, skip, volume restart, auto-advance or recovery may change what is playing.
type State struct {
	mu sync.Mutex

	queue   util.Queue[track.Track]
	current mo.Option[track.Track]
	elapsed int
	paused  bool
	volume  int

	transition   bool
	reconnecting bool
}

// NewState returns an idle state at the given volume.
func NewState(volume int) *State {
	return &State{volume: util.Clamp(volume, 0, 100)}
}

// Snapshot is a consistent copy of State.
type Snapshot struct {
	Current      mo.Option[track.Track]
	Elapsed      int
	Paused       bool
	Volume       int
	Queued       int
	Transition   bool
	Reconnecting bool
}

// Busy reports whether the gate is held.
func (s Snapshot) Busy() bool {
	return s.Transition || s.Reconnecting
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Current:      s.current,
		Elapsed:      s.elapsed,
		Paused:       s.paused,
		Volume:       s.volume,
		Queued:       s.queue.Len(),
		Transition:   s.transition,
		Reconnecting: s.reconnecting,
	}
}

// Enqueue appends t and returns its 1-based position.
func (s *State) Enqueue(t track.Track) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.Push(t)
	return s.queue.Len()
}

// DequeueNext pops the front of the queue.
func (s *State) DequeueNext() mo.Option[track.Track] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return mo.TupleToOption(s.queue.Pop())
}

// RemoveAt removes the track at a 1-based position.
func (s *State) RemoveAt(position int) (track.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.queue.Len()
	if n == 0 {
		return track.Track{}, fault.Newf(fault.OutOfRange, "The queue is empty!")
	}
	if position < 1 || position > n {
		return track.Track{}, fault.Newf(fault.OutOfRange, "Invalid position. Please enter a number between 1 and %d.", n)
	}

	t, _ := s.queue.RemoveAt(position - 1)
	return t, nil
}

// Queued returns a copy of the queue.
func (s *State) Queued() []track.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Items()
}

// Clear empties the queue and forgets the current track. It does not touch the decoder.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.Clear()
	s.current = mo.None[track.Track]()
	s.elapsed = 0
	s.paused = false
}

func (s *State) Current() mo.Option[track.Track] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *State) Volume() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// SetVolume stores the level used by the next decoder start.
func (s *State) SetVolume(level int) error {
	if level < 0 || level > 100 {
		return fault.Newf(fault.OutOfRange, "Volume must be between 0 and 100")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = level
	return nil
}

func (s *State) setPlaying(t track.Track, elapsed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = mo.Some(t)
	s.elapsed = elapsed
}

func (s *State) clearCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = mo.None[track.Track]()
	s.elapsed = 0
	s.paused = false
}

func (s *State) setPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = paused
}

// advance moves elapsed forward one second, never past a known duration.
func (s *State) advance() (elapsed int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.current.Get()
	if !ok {
		return 0, false
	}
	s.elapsed++
	if t.Known() && s.elapsed > t.Duration {
		s.elapsed = t.Duration
	}
	return s.elapsed, true
}

// TryBeginTransition takes the gate for a seek, skip or volume restart.
// It fails without waiting if the gate is held.
func (s *State) TryBeginTransition() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transition || s.reconnecting {
		return false
	}
	s.transition = true
	return true
}

func (s *State) EndTransition() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transition = false
}

// TryBeginReconnect takes the gate for recovery.
func (s *State) TryBeginReconnect() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transition || s.reconnecting {
		return false
	}
	s.reconnecting = true
	return true
}

func (s *State) EndReconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnecting = false
}

func (s *State) String() string {
	snap := s.Snapshot()
	title := "nothing"
	if t, ok := snap.Current.Get(); ok {
		title = t.Title
	}
	return fmt.Sprintf("%s at %ds, %d queued, volume %d%%", title, snap.Elapsed, snap.Queued, snap.Volume)
}
