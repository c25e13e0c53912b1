package frame

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/cadence-bot/cadence/constant"
	. "github.com/smartystreets/goconvey/convey"
)

type countingCloser struct{ n int }

func (c *countingCloser) Close() error {
	c.n++
	return nil
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestSource(t *testing.T) {
	Convey("Given a stream of two and a half frames", t, func() {
		data := bytes.Repeat([]byte{1}, constant.FrameBytes*2+100)
		closer := &countingCloser{}
		src := NewSource(bytes.NewReader(data), closer, DefaultOptions)

		Convey("It yields full frames then a padded tail then nil", func() {
			So(src.Read(), ShouldHaveLength, constant.FrameBytes)
			So(src.Read(), ShouldHaveLength, constant.FrameBytes)

			tail := src.Read()
			So(tail, ShouldHaveLength, constant.FrameBytes)
			So(tail[99], ShouldEqual, 1)
			So(tail[100], ShouldEqual, 0)

			So(src.Read(), ShouldBeNil)
			So(src.Read(), ShouldBeNil)
		})

		Convey("Cleanup closes the stream exactly once", func() {
			src.Cleanup()
			src.Cleanup()
			So(closer.n, ShouldEqual, 1)
		})
	})

	Convey("Given an empty stream", t, func() {
		src := NewSource(bytes.NewReader(nil), nil, DefaultOptions)
		So(src.Read(), ShouldBeNil)
		So(func() { src.Cleanup() }, ShouldNotPanic)
	})

	Convey("Given a failing stream", t, func() {
		src := NewSource(failingReader{}, nil, DefaultOptions)
		So(src.Read(), ShouldBeNil)
	})

	Convey("Given slow reads", t, func() {
		clock := time.Unix(0, 0)
		src := NewSource(io.LimitReader(bytes.NewReader(make([]byte, 4*constant.FrameBytes)), 4*constant.FrameBytes), nil, Options{Size: constant.FrameBytes, Gap: 100 * time.Millisecond})
		src.now = func() time.Time {
			clock = clock.Add(250 * time.Millisecond)
			return clock
		}

		Convey("Frames are still delivered intact", func() {
			for i := 0; i < 4; i++ {
				So(src.Read(), ShouldHaveLength, constant.FrameBytes)
			}
			So(src.Read(), ShouldBeNil)
		})
	})

	Convey("A zero size falls back to the default frame", t, func() {
		src := NewSource(bytes.NewReader(make([]byte, constant.FrameBytes)), nil, Options{})
		So(src.Read(), ShouldHaveLength, constant.FrameBytes)
	})
}
