package playback

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestClock(t *testing.T) {
	ctx := context.Background()

	Convey("Given a track playing at 10 seconds", t, func() {
		h := newHarness()
		defer h.close()

		So(h.ctrl.Start(ctx, songA, 10), ShouldBeNil)

		Convey("A tick advances elapsed and the Duration field", func() {
			So(h.clock.Tick(ctx), ShouldBeTrue)
			So(h.state.Snapshot().Elapsed, ShouldEqual, 11)
			So(h.channel.nowPlaying()[0].Embed.Fields[0].Value, ShouldEqual, "00:11 / 01:40")
		})

		Convey("A paused track does not advance", func() {
			_, _ = h.ctrl.TogglePause(ctx)
			So(h.clock.Tick(ctx), ShouldBeTrue)
			So(h.state.Snapshot().Elapsed, ShouldEqual, 10)
		})

		Convey("A held gate does not advance", func() {
			So(h.state.TryBeginTransition(), ShouldBeTrue)
			So(h.clock.Tick(ctx), ShouldBeTrue)
			So(h.state.Snapshot().Elapsed, ShouldEqual, 10)
			h.state.EndTransition()
		})

		Convey("A deleted message stops the clock", func() {
			h.channel.deleteAll()
			So(h.clock.Tick(ctx), ShouldBeFalse)
			So(h.ctrl.board.Showing(), ShouldBeFalse)
		})

		Convey("A lost voice connection stops the clock", func() {
			h.sink.drop()
			So(h.clock.Tick(ctx), ShouldBeFalse)
		})

		Convey("A silent but connected sink keeps the clock waiting", func() {
			h.sink.mute()
			So(h.clock.Tick(ctx), ShouldBeTrue)
			So(h.state.Snapshot().Elapsed, ShouldEqual, 10)
		})
	})

	Convey("Elapsed stops at the track duration", t, func() {
		h := newHarness()
		defer h.close()

		So(h.ctrl.Start(ctx, songA, 100), ShouldBeNil)
		So(h.clock.Tick(ctx), ShouldBeTrue)
		So(h.state.Snapshot().Elapsed, ShouldEqual, 100)
	})

	Convey("A running clock", t, func() {
		h := newHarness()
		defer h.close()
		h.clock.period = 5 * time.Millisecond

		So(h.ctrl.Start(ctx, songB, 0), ShouldBeNil)
		So(h.clock.Running(), ShouldBeTrue)
		So(eventually(func() bool { return h.state.Snapshot().Elapsed >= 2 }), ShouldBeTrue)

		Convey("retires itself once the message is gone", func() {
			h.channel.deleteAll()
			So(eventually(func() bool { return !h.clock.Running() }), ShouldBeTrue)

			Convey("and a new track starts it again", func() {
				So(h.ctrl.Start(ctx, songC, 0), ShouldBeNil)
				So(h.clock.Running(), ShouldBeTrue)
			})
		})

		Convey("is stopped by Stop", func() {
			So(h.ctrl.Stop(ctx), ShouldBeNil)
			So(h.clock.Running(), ShouldBeFalse)
		})
	})
}
