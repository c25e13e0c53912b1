// Package version looks up the latest published release and tells the operator when theirs is behind.
package version

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cadence-bot/cadence/constant"
	"github.com/cadence-bot/cadence/filesystem"
	"github.com/cadence-bot/cadence/network"
	"github.com/cadence-bot/cadence/util"
	"github.com/cadence-bot/cadence/where"
	"github.com/metafates/gache"
)

// Releases is where release tags are published.
const Releases = "https://github.com/cadence-bot/cadence/releases"

var latestURL = "https://api.github.com/repos/cadence-bot/cadence/releases/latest"

var versionCacher = gache.New[string](&gache.Options{
	Path:       where.Release(),
	Lifetime:   time.Hour * 24 * 2,
	FileSystem: &filesystem.GacheFs{},
})

// Latest returns the newest release version without its "v" prefix.
// Results are cached for two days to stay clear of the GitHub rate limit.
func Latest() (version string, err error) {
	ver, expired, err := versionCacher.Get()
	if err != nil {
		return "", err
	}

	if !expired && ver != "" {
		return ver, nil
	}

	req, err := http.NewRequest(http.MethodGet, latestURL, nil)
	if err != nil {
		return
	}
	req.Header.Set("User-Agent", constant.UserAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := network.Client.Do(req)
	if err != nil {
		return
	}

	defer util.Ignore(resp.Body.Close)

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("release lookup: %s", resp.Status)
		return
	}

	var release struct {
		TagName string `json:"tag_name"`
	}

	err = json.NewDecoder(resp.Body).Decode(&release)
	if err != nil {
		return
	}

	if release.TagName == "" {
		err = errors.New("empty tag name")
		return
	}

	version = strings.TrimPrefix(release.TagName, "v")
	_ = versionCacher.Set(version)
	return
}
