package playback

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cadence-bot/cadence/decoder"
	"github.com/cadence-bot/cadence/log"
	"github.com/cadence-bot/cadence/sink"
)

// Verdict is the outcome of one heartbeat.
type Verdict int

const (
	// Healthy means nothing needed doing.
	Healthy Verdict = iota
	// Skipped means a recovery is already underway.
	Skipped
	// Idle means there is no voice connection to watch.
	Idle
	// SilentStall is a live decoder whose audio stopped reaching the sink.
	SilentStall
	// ComputeStall is a sink that claims to emit while the decoder does no work.
	ComputeStall
	// Rejoin retries a voice connection that an earlier recovery failed to restore.
	Rejoin
)

func (v Verdict) String() string {
	switch v {
	case Healthy:
		return "healthy"
	case Skipped:
		return "skipped"
	case Idle:
		return "idle"
	case SilentStall:
		return "silent stall"
	case ComputeStall:
		return "compute stall"
	case Rejoin:
		return "rejoin"
	default:
		return "unknown"
	}
}

// Monitor is the heartbeat that notices stalled playback and reconnects.
type Monitor struct {
	state   *State
	ctrl    *Controller
	sink    sink.Sink
	sampler decoder.Sampler
	opts    MonitorOptions
	ctx     context.Context
	log     *log.Entry
	now     func() time.Time

	// inflight guards the single recovery task.
	inflight atomic.Bool
	// rejoin is set when a recovery could not reconnect.
	rejoin atomic.Bool
	tasks  sync.WaitGroup

	mu   sync.Mutex
	stop chan struct{}
}

func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stop != nil {
		return
	}
	m.stop = make(chan struct{})
	go m.run(m.stop)
}

// Stop ends the heartbeat and waits for a running recovery to finish.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.stop != nil {
		close(m.stop)
		m.stop = nil
	}
	m.mu.Unlock()
	m.tasks.Wait()
}

func (m *Monitor) run(stop chan struct{}) {
	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if v := m.Check(m.ctx); v != Healthy && v != Idle {
				m.log.Infof("heartbeat: %s", v)
			}
		}
	}
}

// Check runs one heartbeat, scheduling recovery if playback looks stuck.
func (m *Monitor) Check(ctx context.Context) Verdict {
	snap := m.state.Snapshot()
	if snap.Reconnecting {
		return Skipped
	}

	if m.rejoin.Load() && snap.Current.IsPresent() && !m.sink.Connected() {
		return m.recover(ctx, Rejoin)
	}
	if !m.sink.Connected() {
		return Idle
	}

	proc, ok := m.ctrl.Handle().Get()
	if !ok || !proc.Alive() {
		return Healthy
	}
	age := m.now().Sub(proc.Started())
	emitting := m.sink.Emitting()

	if !emitting && !snap.Paused && snap.Current.IsPresent() {
		if age > m.opts.SilentStall {
			m.log.Warnf("decoder %d alive for %s but no audio at %ds", proc.PID(), age.Round(time.Second), snap.Elapsed)
			return m.recover(ctx, SilentStall)
		}
		return Healthy
	}

	if age > m.opts.HealthAge && emitting {
		pct, err := m.sampler.Percent(proc.PID(), m.opts.CPUWindow)
		if err != nil {
			m.log.WithError(err).Warn("sample decoder cpu")
			return Healthy
		}
		if pct < m.opts.CPUThreshold {
			m.log.Warnf("decoder %d at %.2f%% cpu while playing", proc.PID(), pct)
			return m.recover(ctx, ComputeStall)
		}
	}
	return Healthy
}

func (m *Monitor) recover(ctx context.Context, v Verdict) Verdict {
	if m.inflight.Load() {
		return Skipped
	}
	if !m.state.TryBeginReconnect() {
		return Skipped
	}
	if !m.inflight.CompareAndSwap(false, true) {
		m.state.EndReconnect()
		return Skipped
	}

	m.ctrl.Terminate()

	m.tasks.Add(1)
	go m.reconnect(ctx)
	return v
}

// reconnect rejoins the voice channel and resumes the current track where it stalled.
func (m *Monitor) reconnect(ctx context.Context) {
	defer m.tasks.Done()
	defer m.state.EndReconnect()
	defer m.inflight.Store(false)

	channelID := m.sink.ChannelID()
	m.log.Infof("reconnecting to voice channel %s, resuming at %ds", channelID, m.state.Snapshot().Elapsed)

	if err := m.sink.Disconnect(); err != nil {
		m.log.WithError(err).Warn("disconnect before reconnect")
	}

	select {
	case <-time.After(m.opts.Settle):
	case <-ctx.Done():
		return
	}

	if m.state.Current().IsAbsent() {
		m.rejoin.Store(false)
		return
	}

	if err := m.sink.Connect(ctx, channelID); err != nil {
		m.log.WithError(err).Error("reconnect voice, will retry on the next heartbeat")
		m.rejoin.Store(true)
		return
	}
	m.rejoin.Store(false)

	if err := m.ctrl.resume(ctx); err != nil {
		m.log.WithError(err).Error("resume after reconnect")
	}
}
