package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cadence-bot/cadence/auth"
	"github.com/cadence-bot/cadence/bot"
	"github.com/cadence-bot/cadence/config"
	"github.com/cadence-bot/cadence/decoder"
	"github.com/cadence-bot/cadence/icon"
	"github.com/cadence-bot/cadence/key"
	"github.com/cadence-bot/cadence/log"
	"github.com/cadence-bot/cadence/playback"
	"github.com/cadence-bot/cadence/resolver"
	"github.com/cadence-bot/cadence/style"
	"github.com/cadence-bot/cadence/where"
	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// shutdownTimeout bounds how long sessions get to stop their decoders and leave voice.
const shutdownTimeout = 10 * time.Second

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("application-id", "", "Discord application ID used to register the slash commands")
	lo.Must0(viper.BindPFlag(key.DiscordApplicationID, serveCmd.Flags().Lookup("application-id")))
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect to Discord and serve slash commands until interrupted",
	Run: func(cmd *cobra.Command, args []string) {
		CheckDependencies()

		token, err := auth.Token()
		handleErr(err)

		spawner, err := decoder.NewFFmpeg()
		handleErr(err)

		b, err := bot.New(bot.Config{
			Token:         token,
			ApplicationID: viper.GetString(key.DiscordApplicationID),
			Bitrate:       viper.GetInt(key.SinkBitrate),
			Playback:      playback.OptionsFromConfig(),
			Resolver:      newResolver(),
			Spawner:       spawner,
			Sampler:       decoder.CPUSampler{},
		})
		handleErr(err)
		handleErr(b.Open())

		// Only the log level is applied live. Playback settings are read when a session opens.
		config.Watch(func(e fsnotify.Event) {
			log.ApplyLevel()
			log.Infof("reloaded %s", e.Name)
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("%s %s\n", icon.Get(icon.Success), style.Bold("Connected. Press Ctrl+C to stop."))
		<-ctx.Done()

		log.Info("shutting down")
		shutdown, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		handleErr(b.Close(shutdown))
	},
}

// newResolver builds the yt-dlp resolver, cached on disk unless the lifetime is 0.
func newResolver() resolver.Resolver {
	var r resolver.Resolver = resolver.NewYTDLP()
	if lifetime := config.Duration(key.ResolverCacheLifetime); lifetime > 0 {
		r = resolver.NewCached(r, where.Resolved(), lifetime)
	}
	return r
}
