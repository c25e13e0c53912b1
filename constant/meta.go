// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// Cadence is the canonical application identifier used for filesystem paths and CLI branding.
	Cadence = "cadence"

	// Version is the current application semantic version string.
	Version = "0.1.0"

	// UserAgent is sent with every HTTP request made outside the Discord gateway.
	UserAgent = "cadence (https://github.com/cadence-bot/cadence, " + Version + ")"
)

// Build metadata, overridden with -ldflags "-X".
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)
