package version

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cadence-bot/cadence/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestCompare(t *testing.T) {
	Convey("Compare orders semantic versions", t, func() {
		So(must(Compare("1.2.3", "1.2.3")), ShouldEqual, 0)
		So(must(Compare("v1.3.0", "1.2.9")), ShouldEqual, 1)
		So(must(Compare("0.1.0", "0.10.0")), ShouldEqual, -1)

		_, err := Compare("one", "1.0.0")
		So(err, ShouldNotBeNil)
	})
}

func must(n int, err error) int {
	So(err, ShouldBeNil)
	return n
}

func TestLatest(t *testing.T) {
	Convey("Given a release endpoint", t, func() {
		hits := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			_, _ = w.Write([]byte(`{"tag_name":"v9.8.7"}`))
		}))
		defer srv.Close()

		prev := latestURL
		latestURL = srv.URL
		defer func() { latestURL = prev }()

		Convey("Latest strips the v prefix and caches the answer", func() {
			v, err := Latest()
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "9.8.7")

			v, err = Latest()
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "9.8.7")
			So(hits, ShouldEqual, 1)
		})
	})
}
