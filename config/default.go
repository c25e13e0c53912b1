// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/cadence-bot/cadence/color"
	"github.com/cadence-bot/cadence/constant"
	"github.com/cadence-bot/cadence/key"
	"github.com/cadence-bot/cadence/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Cadence + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

// typeName returns the string representation of the field's underlying value type.
func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case float64:
		return "float64"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	case []int:
		return "[]int"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	// register validates and adds a new configuration field to the global registry.
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		f := Field{Key: k, Value: v, Description: desc}
		Default[k] = f
		EnvExposed = append(EnvExposed, k)
	}

	register(key.DiscordToken, "", "Discord bot token.\nFalls back to the system keyring (see \"cadence token set\") when empty")
	register(key.DiscordApplicationID, "", "Discord application ID used to register slash commands and build the invite link.\nDefaults to the logged in bot user")

	register(key.DecoderPath, "", "Path to the ffmpeg binary.\nWhen empty, ffmpeg is looked up in PATH and then in the bin directory next to the config")
	register(key.DecoderGrace, 3000, "Milliseconds to wait for ffmpeg to exit after SIGTERM before killing it")
	register(key.DecoderReconnectDelayMax, 5, "Upper bound in seconds for ffmpeg's own network reconnect backoff")

	register(key.PlayerVolume, 100, "Initial volume for new sessions. From 0 to 100")
	register(key.PlayerSeekStep, 10, "Seconds moved by the Forward and Backward buttons")
	register(key.PlayerDebounce, 100, "Milliseconds to wait after a track ends before advancing the queue")

	register(key.FrameSize, 3840, "Bytes per PCM frame pulled from the decoder (3840 = 20ms of 48kHz stereo)")
	register(key.FrameGap, 100, "Read gaps longer than this many milliseconds are logged as stutter")

	register(key.UITick, 1000, "Milliseconds between now playing refreshes")

	register(key.MonitorInterval, 10000, "Milliseconds between liveness checks")
	register(key.MonitorSilentStall, 3000, "A live decoder that has not produced audio for this many milliseconds after start is stalled")
	register(key.MonitorHealthAge, 30000, "Decoder age in milliseconds after which CPU usage is checked")
	register(key.MonitorCPUThreshold, 0.1, "CPU percent below which a playing decoder is considered stuck")
	register(key.MonitorCPUWindow, 500, "Milliseconds over which decoder CPU usage is sampled")
	register(key.MonitorSettle, 2000, "Milliseconds to wait between voice disconnect and reconnect during recovery")

	register(key.ResolverCacheLifetime, 3600000, "Milliseconds a resolved stream URL is reused. 0 disables the cache")

	register(key.SinkBitrate, 128000, "Opus bitrate in bits per second")

	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, kaomoji, plain, squares, nerd (nerd-font required)")
	register(key.LogsWrite, true, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.LogsMaxSize, 0, "Rotate the log file after this many megabytes.\n0 writes one file per day instead")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, true, "Enable automatic version check")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
