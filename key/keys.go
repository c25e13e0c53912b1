// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Discord Gateway - these keys authenticate the bot and register its slash commands.
const (
	DiscordToken         = "discord.token"
	DiscordApplicationID = "discord.application_id"
)

// Decoder Process - these keys locate and tune the external ffmpeg decoder.
const (
	DecoderPath              = "decoder.path"
	DecoderGrace             = "decoder.grace"
	DecoderReconnectDelayMax = "decoder.reconnect_delay_max"
)

// Player Defaults - these keys seed the per-session player state and transport controls.
const (
	PlayerVolume   = "player.volume"
	PlayerSeekStep = "player.seek_step"
	PlayerDebounce = "player.debounce"
)

// Frame Streaming - these keys shape the PCM frames pulled from the decoder.
const (
	FrameSize = "frame.size"
	FrameGap  = "frame.gap"
)

// Now-Playing Display
const (
	UITick = "ui.tick"
)

// Liveness Monitor - heuristic thresholds for silent and compute stall detection.
const (
	MonitorInterval     = "monitor.interval"
	MonitorSilentStall  = "monitor.silent_stall"
	MonitorHealthAge    = "monitor.health_age"
	MonitorCPUThreshold = "monitor.cpu_threshold"
	MonitorCPUWindow    = "monitor.cpu_window"
	MonitorSettle       = "monitor.settle"
)

// Track Resolution
const (
	ResolverCacheLifetime = "resolver.cache_lifetime"
)

// Voice Sink
const (
	SinkBitrate = "sink.bitrate"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite   = "logs.write"
	LogsLevel   = "logs.level"
	LogsJson    = "logs.json"
	LogsMaxSize = "logs.max_size"
)

// CLI Execution Environment - these flags and settings govern the non-bot application behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
