// Package fault defines the error kinds every component boundary converts its failures into.
package fault

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Kind classifies a failure by how the session reacts to it.
type Kind uint8

const (
	_ Kind = iota
	// Resolution means a locator could not be turned into a playable stream.
	Resolution
	// UnsupportedInput means the locator resolved to more than one track.
	UnsupportedInput
	// Spawn means the decoder process could not be started.
	Spawn
	// SinkConnect means the voice connection could not be joined or rejoined.
	SinkConnect
	// TransientRead is a frame read hiccup.
	TransientRead
	// OutOfRange is an invalid queue position or volume level.
	OutOfRange
)

func (k Kind) String() string {
	switch k {
	case Resolution:
		return "resolution"
	case UnsupportedInput:
		return "unsupported input"
	case Spawn:
		return "spawn"
	case SinkConnect:
		return "sink connect"
	case TransientRead:
		return "transient read"
	case OutOfRange:
		return "out of range"
	default:
		return "unknown"
	}
}

// Error is a classified failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op == "" && e.Err == nil:
		return e.Kind.String()
	case e.Err == nil:
		return e.Op
	case e.Op == "":
		return e.Err.Error()
	default:
		return e.Op + ": " + e.Err.Error()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the bare sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrResolution       = &Error{Kind: Resolution}
	ErrUnsupportedInput = &Error{Kind: UnsupportedInput}
	ErrSpawn            = &Error{Kind: Spawn}
	ErrSinkConnect      = &Error{Kind: SinkConnect}
	ErrTransientRead    = &Error{Kind: TransientRead}
	ErrOutOfRange       = &Error{Kind: OutOfRange}
)

// New wraps err as a failure of the given kind. A nil err keeps only the op text.
func New(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf builds a failure with a formatted message and no cause.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Op: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first classified error in the chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// MessageLimit keeps user-visible errors inside a chat message.
const MessageLimit = 1900

// Message renders err for a user, truncated to MessageLimit bytes on a rune boundary.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) <= MessageLimit {
		return msg
	}
	cut := MessageLimit
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}
