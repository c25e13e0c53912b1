package resolver

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/cadence-bot/cadence/fault"
	"github.com/cadence-bot/cadence/filesystem"
	"github.com/cadence-bot/cadence/track"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func fixed(out string, err error) *YTDLP {
	return &YTDLP{run: func(context.Context, string) (string, error) { return out, err }}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	Convey("Given yt-dlp output", t, func() {
		Convey("A single line resolves to a track", func() {
			tr, err := fixed("https://cdn.example/a.webm\tSong A\t213.4\n", nil).Resolve(ctx, "https://youtu.be/a")
			So(err, ShouldBeNil)
			So(tr, ShouldResemble, track.Track{
				Locator:  "https://cdn.example/a.webm",
				Source:   "https://youtu.be/a",
				Title:    "Song A",
				Duration: 213,
			})
		})

		Convey("An unknown duration is zero", func() {
			tr, err := fixed("https://cdn.example/live\tLive\tNA", nil).Resolve(ctx, "https://youtu.be/live")
			So(err, ShouldBeNil)
			So(tr.Duration, ShouldEqual, 0)
			So(tr.Known(), ShouldBeFalse)
		})

		Convey("Several lines mean a playlist", func() {
			_, err := fixed("u1\tA\t1\nu2\tB\t2\n", nil).Resolve(ctx, "https://youtube.com/playlist?list=x")
			So(errors.Is(err, fault.ErrUnsupportedInput), ShouldBeTrue)
		})

		Convey("No output is a resolution failure", func() {
			_, err := fixed("\n", nil).Resolve(ctx, "https://youtu.be/none")
			So(errors.Is(err, fault.ErrResolution), ShouldBeTrue)
		})

		Convey("A failing extractor is a resolution failure", func() {
			_, err := fixed("", errors.New("exit status 1")).Resolve(ctx, "https://youtu.be/gone")
			So(errors.Is(err, fault.ErrResolution), ShouldBeTrue)
		})

		Convey("An empty locator never reaches yt-dlp", func() {
			_, err := fixed("", errors.New("should not run")).Resolve(ctx, "  ")
			So(errors.Is(err, fault.ErrResolution), ShouldBeTrue)
		})
	})
}

type counting struct {
	calls int
	err   error
}

func (c *counting) Resolve(_ context.Context, locator string) (track.Track, error) {
	c.calls++
	return track.Track{Locator: "stream:" + locator, Source: locator, Title: locator}, c.err
}

func TestCached(t *testing.T) {
	ctx := context.Background()

	Convey("Given a cached resolver", t, func() {
		next := &counting{}
		c := NewCached(next, filepath.Join(t.TempDir(), "resolved.json"), time.Hour)

		Convey("A repeated locator is resolved once", func() {
			a, err := c.Resolve(ctx, "a")
			So(err, ShouldBeNil)
			b, err := c.Resolve(ctx, "a")
			So(err, ShouldBeNil)
			So(b, ShouldResemble, a)
			So(next.calls, ShouldEqual, 1)

			_, err = c.Resolve(ctx, "b")
			So(err, ShouldBeNil)
			So(next.calls, ShouldEqual, 2)
		})

		Convey("Entries expire on their own age while others keep being written", func() {
			now := time.Now()
			c.lifetime = 300 * time.Millisecond
			c.now = func() time.Time { return now }

			_, err := c.Resolve(ctx, "a")
			So(err, ShouldBeNil)
			now = now.Add(200 * time.Millisecond)
			_, err = c.Resolve(ctx, "b")
			So(err, ShouldBeNil)
			now = now.Add(200 * time.Millisecond)

			_, err = c.Resolve(ctx, "b")
			So(err, ShouldBeNil)
			So(next.calls, ShouldEqual, 2)

			_, err = c.Resolve(ctx, "a")
			So(err, ShouldBeNil)
			So(next.calls, ShouldEqual, 3)
		})

		Convey("Failures are not cached", func() {
			next.err = fault.Newf(fault.Resolution, "nope")
			_, err := c.Resolve(ctx, "a")
			So(err, ShouldNotBeNil)
			_, _ = c.Resolve(ctx, "a")
			So(next.calls, ShouldEqual, 2)
		})
	})
}
