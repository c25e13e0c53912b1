package playback

import (
	"time"

	"github.com/cadence-bot/cadence/config"
	"github.com/cadence-bot/cadence/frame"
	"github.com/cadence-bot/cadence/key"
	"github.com/spf13/viper"
)

// Options tune a session.
type Options struct {
	// Volume is the starting volume in percent.
	Volume int
	// SeekStep is how far Forward and Backward move, in seconds.
	SeekStep int
	// Debounce delays queue advance after a stream ends.
	Debounce time.Duration
	Frame    frame.Options
	// Tick is the clock period.
	Tick    time.Duration
	Monitor MonitorOptions
}

// MonitorOptions are the heartbeat thresholds.
type MonitorOptions struct {
	Interval     time.Duration
	SilentStall  time.Duration
	HealthAge    time.Duration
	CPUThreshold float64
	CPUWindow    time.Duration
	Settle       time.Duration
}

// OptionsFromConfig reads the player, frame, ui and monitor keys.
func OptionsFromConfig() Options {
	return Options{
		Volume:   viper.GetInt(key.PlayerVolume),
		SeekStep: viper.GetInt(key.PlayerSeekStep),
		Debounce: config.Duration(key.PlayerDebounce),
		Frame: frame.Options{
			Size: viper.GetInt(key.FrameSize),
			Gap:  config.Duration(key.FrameGap),
		},
		Tick: config.Duration(key.UITick),
		Monitor: MonitorOptions{
			Interval:     config.Duration(key.MonitorInterval),
			SilentStall:  config.Duration(key.MonitorSilentStall),
			HealthAge:    config.Duration(key.MonitorHealthAge),
			CPUThreshold: viper.GetFloat64(key.MonitorCPUThreshold),
			CPUWindow:    config.Duration(key.MonitorCPUWindow),
			Settle:       config.Duration(key.MonitorSettle),
		},
	}
}
