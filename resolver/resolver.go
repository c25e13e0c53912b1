// Package resolver turns a user-supplied locator into a playable track.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cadence-bot/cadence/fault"
	"github.com/cadence-bot/cadence/log"
	"github.com/cadence-bot/cadence/track"
	"github.com/lrstanley/go-ytdlp"
)

// Resolver resolves one locator to one track.
// More than one result is fault.UnsupportedInput; any other failure is fault.Resolution.
type Resolver interface {
	Resolve(ctx context.Context, locator string) (track.Track, error)
}

// printTemplate is one tab-separated line per resolved item.
const printTemplate = "%(url)s\t%(title)s\t%(duration)s"

// YTDLP resolves through the yt-dlp executable.
type YTDLP struct {
	run func(ctx context.Context, locator string) (string, error)
}

func NewYTDLP() *YTDLP {
	return &YTDLP{run: runYTDLP}
}

func runYTDLP(ctx context.Context, locator string) (string, error) {
	res, err := ytdlp.New().
		Print(printTemplate).
		Format("bestaudio/best").
		NoPlaylist().
		FlatPlaylist().
		NoWarnings().
		IgnoreConfig().
		Run(ctx, locator)
	if err != nil {
		if res != nil && res.Stderr != "" {
			log.Warnf("yt-dlp: %s", strings.TrimSpace(res.Stderr))
		}
		return "", err
	}
	return res.Stdout, nil
}

func (y *YTDLP) Resolve(ctx context.Context, locator string) (track.Track, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return track.Track{}, fault.Newf(fault.Resolution, "empty locator")
	}

	out, err := y.run(ctx, locator)
	if err != nil {
		return track.Track{}, fault.New(fault.Resolution, fmt.Sprintf("resolve %s", locator), err)
	}

	t, err := parse(locator, out)
	if err != nil {
		return track.Track{}, err
	}

	log.Infof("resolved %s to %q (%ds)", locator, t.Title, t.Duration)
	return t, nil
}

func parse(source, out string) (track.Track, error) {
	var lines []string
	for _, l := range strings.Split(strings.TrimSpace(out), "\n") {
		if l = strings.TrimRight(l, "\r"); l != "" {
			lines = append(lines, l)
		}
	}

	switch {
	case len(lines) == 0:
		return track.Track{}, fault.New(fault.Resolution, source, errors.New("no results"))
	case len(lines) > 1:
		return track.Track{}, fault.Newf(fault.UnsupportedInput, "Playlists are not supported. Please provide a single video URL.")
	}

	parts := strings.Split(lines[0], "\t")
	if len(parts) < 3 || parts[0] == "" || parts[0] == "NA" {
		return track.Track{}, fault.New(fault.Resolution, source, fmt.Errorf("unexpected output %q", lines[0]))
	}

	title := parts[1]
	if title == "" || title == "NA" {
		title = source
	}

	return track.Track{
		Locator:  parts[0],
		Source:   source,
		Title:    title,
		Duration: seconds(parts[2]),
	}, nil
}

// seconds parses yt-dlp's duration field; unknown or unparsable is 0.
func seconds(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return 0
	}
	return int(f)
}
