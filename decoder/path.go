package decoder

import (
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/cadence-bot/cadence/constant"
	"github.com/cadence-bot/cadence/fault"
	"github.com/cadence-bot/cadence/filesystem"
	"github.com/cadence-bot/cadence/where"
	"github.com/samber/lo"
)

// Binary is the platform-specific ffmpeg executable name.
func Binary() string {
	if runtime.GOOS == constant.Windows {
		return "ffmpeg.exe"
	}
	return "ffmpeg"
}

// Locate finds ffmpeg: the configured path, then PATH, then the bundled bin directory.
func Locate(configured string) (string, error) {
	if configured != "" {
		if usable(configured) {
			return configured, nil
		}
		if p, err := exec.LookPath(configured); err == nil {
			return p, nil
		}
		return "", fault.Newf(fault.Spawn, "configured ffmpeg %q is not executable", configured)
	}

	if p, err := exec.LookPath(Binary()); err == nil {
		return p, nil
	}

	bundled := filepath.Join(where.Bin(), Binary())
	if usable(bundled) {
		return bundled, nil
	}

	return "", fault.New(fault.Spawn, "locate ffmpeg", exec.ErrNotFound)
}

func usable(path string) bool {
	if runtime.GOOS == constant.Windows {
		return lo.Must(filesystem.API().Exists(path))
	}
	return filesystem.Executable(path)
}
