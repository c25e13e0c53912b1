package playback

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cadence-bot/cadence/decoder"
	"github.com/cadence-bot/cadence/fault"
	"github.com/cadence-bot/cadence/frame"
	"github.com/cadence-bot/cadence/notify"
	"github.com/cadence-bot/cadence/track"
)

type fakeStream struct {
	done chan error
	once sync.Once
}

func (s *fakeStream) end(err error) {
	s.once.Do(func() {
		s.done <- err
		close(s.done)
	})
}

type fakeSink struct {
	mu          sync.Mutex
	connected   bool
	channel     string
	connectErr  error
	connects    int
	disconnects int
	plays       int
	current     *fakeStream
	paused      bool
	silent      bool
	onConnect   func()
}

func (s *fakeSink) Play(src frame.Reader) <-chan error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.end(nil)
	}
	st := &fakeStream{done: make(chan error, 1)}
	s.current = st
	s.paused = false
	s.plays++
	return st.done
}

func (s *fakeSink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.end(nil)
		s.current = nil
	}
}

// finish ends the current stream as if the track ran out.
func (s *fakeSink) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.end(err)
		s.current = nil
	}
}

func (s *fakeSink) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

func (s *fakeSink) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
}

func (s *fakeSink) isPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *fakeSink) Emitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil && !s.paused && !s.silent
}

// mute keeps the stream open but stops audio from going out.
func (s *fakeSink) mute() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.silent = true
}

// drop loses the voice connection without ending the stream.
func (s *fakeSink) drop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	s.silent = true
}

func (s *fakeSink) failConnect(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectErr = err
}

func (s *fakeSink) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// duringConnect runs fn inside the next Connect, before the connection is up.
func (s *fakeSink) duringConnect(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onConnect = fn
}

func (s *fakeSink) Connect(_ context.Context, channelID string) error {
	s.mu.Lock()
	fn := s.onConnect
	s.onConnect = nil
	s.mu.Unlock()
	if fn != nil {
		fn()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.connects++
	if s.connectErr != nil {
		return s.connectErr
	}
	s.connected = true
	s.silent = false
	s.channel = channelID
	return nil
}

func (s *fakeSink) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnects++
	if s.current != nil {
		s.current.end(nil)
		s.current = nil
	}
	s.connected = false
	return nil
}

func (s *fakeSink) ChannelID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel
}

func (s *fakeSink) counts() (connects, disconnects int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connects, s.disconnects
}

type fakeProcess struct {
	pid        int
	started    time.Time
	req        decoder.Request
	alive      atomic.Bool
	terminated atomic.Int32
	exited     chan struct{}
}

func (p *fakeProcess) PID() int { return p.pid }

func (p *fakeProcess) Started() time.Time { return p.started }

func (p *fakeProcess) Request() decoder.Request { return p.req }

func (p *fakeProcess) Alive() bool { return p.alive.Load() }

func (p *fakeProcess) Exited() <-chan struct{} { return p.exited }

func (p *fakeProcess) Output() io.ReadCloser {
	return io.NopCloser(strings.NewReader(""))
}

func (p *fakeProcess) Terminate() error {
	p.terminated.Add(1)
	if p.alive.CompareAndSwap(true, false) {
		close(p.exited)
	}
	return nil
}

type fakeSpawner struct {
	mu      sync.Mutex
	procs   []*fakeProcess
	err     error
	overlap bool
}

func (s *fakeSpawner) Spawn(req decoder.Request) (decoder.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, p := range s.procs {
		if p.Alive() {
			s.overlap = true
		}
	}
	p := &fakeProcess{pid: 1000 + len(s.procs), started: time.Now(), req: req, exited: make(chan struct{})}
	p.alive.Store(true)
	s.procs = append(s.procs, p)
	return p, nil
}

func (s *fakeSpawner) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.procs)
}

func (s *fakeSpawner) last() *fakeProcess {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.procs) == 0 {
		return nil
	}
	return s.procs[len(s.procs)-1]
}

func (s *fakeSpawner) live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.procs {
		if p.Alive() {
			n++
		}
	}
	return n
}

type fakeSampler struct {
	mu    sync.Mutex
	pct   float64
	err   error
	calls int
}

func (s *fakeSampler) Percent(int, time.Duration) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.pct, s.err
}

type fakeResolver map[string]track.Track

func (r fakeResolver) Resolve(_ context.Context, locator string) (track.Track, error) {
	t, ok := r[locator]
	if !ok {
		return track.Track{}, fault.Newf(fault.Resolution, "cannot resolve %s", locator)
	}
	return t, nil
}

type message struct {
	id      string
	content notify.Content
	deleted bool
}

type memoryChannel struct {
	mu       sync.Mutex
	messages []*message
}

func (m *memoryChannel) Post(_ context.Context, c notify.Content) (notify.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := &message{id: fmt.Sprint(len(m.messages) + 1), content: c}
	m.messages = append(m.messages, msg)
	return notify.Handle{ChannelID: "text", MessageID: msg.id}, nil
}

func (m *memoryChannel) find(id string) *message {
	for _, msg := range m.messages {
		if msg.id == id {
			return msg
		}
	}
	return nil
}

func (m *memoryChannel) Update(_ context.Context, h notify.Handle, c notify.Content) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := m.find(h.MessageID)
	if msg == nil || msg.deleted {
		return notify.ErrGone
	}
	msg.content = c
	return nil
}

func (m *memoryChannel) Delete(_ context.Context, h notify.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg := m.find(h.MessageID); msg != nil {
		msg.deleted = true
	}
	return nil
}

// texts returns every plain text message posted.
func (m *memoryChannel) texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, msg := range m.messages {
		if msg.content.Text != "" {
			out = append(out, msg.content.Text)
		}
	}
	return out
}

func (m *memoryChannel) said(text string) bool {
	for _, t := range m.texts() {
		if t == text {
			return true
		}
	}
	return false
}

// nowPlaying returns the visible now playing messages.
func (m *memoryChannel) nowPlaying() []notify.Content {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []notify.Content
	for _, msg := range m.messages {
		if !msg.deleted && msg.content.Controls != nil {
			out = append(out, msg.content)
		}
	}
	return out
}

// deleteAll removes every message, as a moderator might.
func (m *memoryChannel) deleteAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		msg.deleted = true
	}
}

var (
	songA = track.Track{Locator: "https://cdn.example/a", Source: "a", Title: "A", Duration: 100}
	songB = track.Track{Locator: "https://cdn.example/b", Source: "b", Title: "B", Duration: 200}
	songC = track.Track{Locator: "https://cdn.example/c", Source: "c", Title: "C", Duration: 300}
	live  = track.Track{Locator: "https://cdn.example/live", Source: "live", Title: "Live"}
)

type harness struct {
	sink    *fakeSink
	channel *memoryChannel
	spawner *fakeSpawner
	sampler *fakeSampler
	session *Session
	ctrl    *Controller
	state   *State
	monitor *Monitor
	clock   *Clock
	shift   atomic.Int64
}

func testOptions() Options {
	return Options{
		Volume:   100,
		SeekStep: 10,
		Debounce: 5 * time.Millisecond,
		Frame:    frame.DefaultOptions,
		Tick:     time.Hour,
		Monitor: MonitorOptions{
			Interval:     time.Hour,
			SilentStall:  3 * time.Second,
			HealthAge:    30 * time.Second,
			CPUThreshold: 0.1,
			CPUWindow:    time.Millisecond,
			Settle:       20 * time.Millisecond,
		},
	}
}

func newHarness() *harness {
	h := &harness{
		sink:    &fakeSink{connected: true, channel: "voice"},
		channel: &memoryChannel{},
		spawner: &fakeSpawner{},
		sampler: &fakeSampler{pct: 5},
	}
	h.session = NewSession("guild", Deps{
		Sink:     h.sink,
		Channel:  h.channel,
		Resolver: fakeResolver{"a": songA, "b": songB, "c": songC, "live": live},
		Spawner:  h.spawner,
		Sampler:  h.sampler,
	}, testOptions())
	h.ctrl = h.session.Controller
	h.state = h.session.State
	h.monitor = h.session.Monitor
	h.clock = h.session.Clock
	h.monitor.now = func() time.Time {
		return time.Now().Add(time.Duration(h.shift.Load()))
	}
	return h
}

// age makes every decoder look d older to the monitor.
func (h *harness) age(d time.Duration) {
	h.shift.Store(int64(d))
}

func (h *harness) close() {
	_ = h.session.Close(context.Background())
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}
