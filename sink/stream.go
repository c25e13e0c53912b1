package sink

import (
	"encoding/binary"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cadence-bot/cadence/constant"
	"github.com/cadence-bot/cadence/frame"
)

// maxPacket bounds one encoded Opus packet.
const maxPacket = 4000

// sendTimeout is how long a packet may wait for the voice connection before it is dropped.
const sendTimeout = time.Second

type encoder interface {
	Encode(pcm []int16, frameSize, maxDataBytes int) ([]byte, error)
}

// stream pumps one frame source into an Opus packet channel.
type stream struct {
	src      frame.Reader
	enc      encoder
	out      chan<- []byte
	speaking func(bool)

	stop     chan struct{}
	stopOnce sync.Once
	wake     chan struct{}
	paused   atomic.Bool
	running  atomic.Bool
	done     chan error
}

func newStream(src frame.Reader, enc encoder, out chan<- []byte, speaking func(bool)) *stream {
	s := &stream{
		src:      src,
		enc:      enc,
		out:      out,
		speaking: speaking,
		stop:     make(chan struct{}),
		wake:     make(chan struct{}, 1),
		done:     make(chan error, 1),
	}
	s.running.Store(true)
	return s
}

func (s *stream) emitting() bool {
	return s.running.Load() && !s.paused.Load()
}

func (s *stream) halt() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *stream) pause() {
	s.paused.Store(true)
}

func (s *stream) resume() {
	s.paused.Store(false)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *stream) stopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

func (s *stream) run() {
	var err error
	defer func() {
		s.running.Store(false)
		s.src.Cleanup()
		if s.speaking != nil {
			s.speaking(false)
		}
		s.done <- err
		close(s.done)
	}()

	if s.speaking != nil {
		s.speaking(true)
	}

	pcm := make([]int16, constant.FrameSamples*constant.Channels)
	for {
		if s.stopped() {
			return
		}

		if s.paused.Load() {
			select {
			case <-s.stop:
				return
			case <-s.wake:
			}
			continue
		}

		buf := s.src.Read()
		if buf == nil {
			return
		}

		for i := range pcm {
			if 2*i+1 >= len(buf) {
				pcm[i] = 0
				continue
			}
			pcm[i] = int16(binary.LittleEndian.Uint16(buf[2*i:]))
		}

		packet, encErr := s.enc.Encode(pcm, constant.FrameSamples, maxPacket)
		if encErr != nil {
			err = encErr
			return
		}

		select {
		case s.out <- packet:
		case <-s.stop:
			return
		case <-time.After(sendTimeout):
		}
	}
}
