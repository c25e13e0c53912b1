package auth

import (
	"testing"

	"github.com/cadence-bot/cadence/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
)

func init() {
	keyring.MockInit()
}

func TestToken(t *testing.T) {
	Convey("Given an empty keyring and no configured token", t, func() {
		viper.Set(key.DiscordToken, "")
		_ = DeleteToken()

		Convey("Token reports that none is set", func() {
			_, err := Token()
			So(err, ShouldEqual, ErrNoToken)
		})

		Convey("A stored token is returned", func() {
			So(SetToken("stored"), ShouldBeNil)
			tok, err := Token()
			So(err, ShouldBeNil)
			So(tok, ShouldEqual, "stored")
		})

		Convey("The configured token wins over the keyring", func() {
			So(SetToken("stored"), ShouldBeNil)
			viper.Set(key.DiscordToken, "configured")
			tok, err := Token()
			So(err, ShouldBeNil)
			So(tok, ShouldEqual, "configured")
		})
	})
}
