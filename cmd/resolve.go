package cmd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/cadence-bot/cadence/color"
	"github.com/cadence-bot/cadence/style"
	"github.com/cadence-bot/cadence/track"
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON object")
	resolveCmd.Flags().DurationP("timeout", "t", time.Minute, "Give up on resolution after this long")
	resolveCmd.SetOut(os.Stdout)
}

var resolveCmd = &cobra.Command{
	Use:     "resolve <url>",
	Short:   "Resolve a URL the way /play does and print the result",
	Example: "cadence resolve https://www.youtube.com/watch?v=dQw4w9WgXcQ --json",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		timeout := lo.Must(cmd.Flags().GetDuration("timeout"))
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		t, err := newResolver().Resolve(ctx, args[0])
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("json")) {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(t))
			return
		}

		label := style.New().Bold(true).Foreground(color.Purple).Render
		cmd.Printf("%s %s\n", label("Title   "), t.Title)
		cmd.Printf("%s %s\n", label("Duration"), durationText(t))
		cmd.Printf("%s %s\n", label("Stream  "), style.Faint(t.Locator))
	},
}

func durationText(t track.Track) string {
	if !t.Known() {
		return style.Fg(color.Yellow)("unknown (live stream?)")
	}
	return track.Timestamp(t.Duration)
}

func init() {
	resolveCmd.AddCommand(resolveSchemaCmd)
	resolveSchemaCmd.SetOut(os.Stdout)
}

var resolveSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of `resolve --json` output",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		reflector := new(jsonschema.Reflector)
		reflector.Anonymous = true
		reflector.Namer = func(t reflect.Type) string {
			return filepath.Base(t.PkgPath()) + "." + t.Name()
		}

		handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(reflector.Reflect(&track.Track{})))
	},
}
