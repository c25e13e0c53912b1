// Package decoder owns the external ffmpeg process that turns a stream URL into raw PCM.
//
// A Process is launched for one (locator, offset, volume) triple and emits interleaved
// little-endian 16-bit stereo PCM at 48kHz on its output until the stream ends or it is
// terminated. ffmpeg is asked to ride out short network drops on its own before giving up.
package decoder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/cadence-bot/cadence/config"
	"github.com/cadence-bot/cadence/constant"
	"github.com/cadence-bot/cadence/fault"
	"github.com/cadence-bot/cadence/key"
	"github.com/cadence-bot/cadence/log"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Request is what a decoder is launched for.
type Request struct {
	Locator string
	// Offset in whole seconds from the start of the stream.
	Offset int
	// Volume in percent, applied as a linear gain of Volume/100.
	Volume int
}

// Gain returns the linear gain for the request's volume.
func (r Request) Gain() float64 {
	return float64(r.Volume) / 100
}

// Process is one running decoder.
type Process interface {
	PID() int
	Started() time.Time
	Request() Request
	// Output is the PCM stream. It reaches EOF after the process exits and the pipe drains.
	Output() io.ReadCloser
	Alive() bool
	// Exited is closed once the process has been reaped.
	Exited() <-chan struct{}
	// Terminate stops the process: SIGTERM, a bounded wait, then a forced kill.
	// Terminating a process that already exited is a no-op.
	Terminate() error
}

// Spawner starts decoders.
type Spawner interface {
	Spawn(req Request) (Process, error)
}

// FFmpeg spawns ffmpeg decoders.
type FFmpeg struct {
	// Path to the ffmpeg binary.
	Path string
	// Grace is how long Terminate waits after SIGTERM.
	Grace time.Duration
	// ReconnectDelayMax bounds ffmpeg's internal reconnect backoff, in seconds.
	ReconnectDelayMax int
}

// NewFFmpeg builds a spawner from configuration, locating the binary up front.
func NewFFmpeg() (*FFmpeg, error) {
	path, err := Locate(viper.GetString(key.DecoderPath))
	if err != nil {
		return nil, err
	}
	log.Infof("using ffmpeg at %s", path)

	return &FFmpeg{
		Path:              path,
		Grace:             config.Duration(key.DecoderGrace),
		ReconnectDelayMax: viper.GetInt(key.DecoderReconnectDelayMax),
	}, nil
}

// Args builds the ffmpeg command line for req.
func (f *FFmpeg) Args(req Request) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", strconv.Itoa(f.ReconnectDelayMax),
		"-ss", strconv.Itoa(req.Offset),
		"-i", req.Locator,
		"-filter:a", "volume=" + strconv.FormatFloat(req.Gain(), 'f', -1, 64),
		"-f", "s16le",
		"-ar", strconv.Itoa(constant.SampleRate),
		"-ac", strconv.Itoa(constant.Channels),
		"pipe:1",
		"-loglevel", "warning",
	}
}

// Spawn starts ffmpeg for req. All failures are fault.Spawn.
func (f *FFmpeg) Spawn(req Request) (Process, error) {
	locator, err := sanitizeMediaTarget(req.Locator)
	if err != nil {
		return nil, fault.New(fault.Spawn, "invalid media target", err)
	}
	req.Locator = locator

	if f.Path == "" {
		return nil, fault.New(fault.Spawn, "spawn decoder", exec.ErrNotFound)
	}

	cmd := exec.Command(f.Path, f.Args(req)...)
	return start(cmd, req, f.Grace)
}

// start launches cmd with its stdout on a pipe the caller owns.
func start(cmd *exec.Cmd, req Request, grace time.Duration) (*process, error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fault.New(fault.Spawn, "create output pipe", err)
	}

	stderr := log.Writer(logrus.WarnLevel)

	cmd.Stdin = nil
	cmd.Stdout = pw
	cmd.Stderr = stderr
	cmd.SysProcAttr = sysProcAttr()

	if err := cmd.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		closeWriter(stderr)
		return nil, fault.New(fault.Spawn, "start decoder", err)
	}
	// The child holds its own copy of the write end.
	_ = pw.Close()

	p := &process{
		cmd:     cmd,
		req:     req,
		out:     pr,
		started: time.Now(),
		exited:  make(chan struct{}),
		grace:   grace,
	}

	// Background goroutine to reap the process and prevent zombies
	go func() {
		_ = cmd.Wait()
		closeWriter(stderr)
		close(p.exited)
	}()

	log.Debugf("decoder %d started at %ds, volume %d%%", p.PID(), req.Offset, req.Volume)
	return p, nil
}

func closeWriter(w io.Writer) {
	if c, ok := w.(io.Closer); ok {
		_ = c.Close()
	}
}

type process struct {
	cmd     *exec.Cmd
	req     Request
	out     *os.File
	started time.Time
	exited  chan struct{}
	grace   time.Duration

	once sync.Once
	err  error
}

func (p *process) PID() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *process) Started() time.Time { return p.started }

func (p *process) Request() Request { return p.req }

func (p *process) Output() io.ReadCloser { return p.out }

func (p *process) Exited() <-chan struct{} { return p.exited }

func (p *process) Alive() bool {
	select {
	case <-p.exited:
		return false
	default:
		return true
	}
}

func (p *process) Terminate() error {
	p.once.Do(func() {
		if !p.Alive() {
			return
		}

		log.Infof("terminating decoder %d", p.PID())
		_ = interrupt(p.cmd)

		select {
		case <-p.exited:
			return
		case <-time.After(p.grace):
		}

		log.Warnf("decoder %d ignored SIGTERM for %s, killing it", p.PID(), p.grace)
		killErr := killProcess(p.cmd)
		if errors.Is(killErr, os.ErrProcessDone) {
			killErr = nil
		}

		// The reaper may still be closing exited after a successful group kill.
		select {
		case <-p.exited:
		case <-time.After(p.grace):
			if killErr != nil {
				p.err = fmt.Errorf("kill decoder %d: %w", p.PID(), killErr)
				return
			}
			p.err = fmt.Errorf("decoder %d still running after kill", p.PID())
		}
	})
	return p.err
}
