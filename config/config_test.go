package config

import (
	"testing"
	"time"

	"github.com/cadence-bot/cadence/filesystem"
	"github.com/cadence-bot/cadence/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		Convey("Should initialize without error", func() {
			err := Setup()
			So(err, ShouldBeNil)
		})

		Convey("Should have default values populated", func() {
			_ = Setup()
			for name := range Default {
				So(viper.Get(name), ShouldNotBeNil)
			}
		})

		Convey("EnvKeyReplacer should convert dots to underscores", func() {
			result := EnvKeyReplacer.Replace("monitor.silent_stall")
			So(result, ShouldEqual, "monitor_silent_stall")
		})
	})
}

func TestField(t *testing.T) {
	Convey("Given a registered field", t, func() {
		field := Default[key.MonitorCPUThreshold]

		Convey("Env should be prefixed with the app name", func() {
			So(field.Env(), ShouldEqual, "CADENCE_MONITOR_CPU_THRESHOLD")
		})

		Convey("typeName should recognise floats", func() {
			So(field.typeName(), ShouldEqual, "float64")
		})
	})
}

func TestDuration(t *testing.T) {
	Convey("Duration reads milliseconds", t, func() {
		_ = Setup()
		So(Duration(key.MonitorSilentStall), ShouldEqual, 3*time.Second)

		viper.Set(key.PlayerDebounce, 250)
		So(Duration(key.PlayerDebounce), ShouldEqual, 250*time.Millisecond)
		viper.Set(key.PlayerDebounce, Default[key.PlayerDebounce].Value)
	})
}
