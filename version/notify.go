package version

import (
	"fmt"

	"github.com/cadence-bot/cadence/color"
	"github.com/cadence-bot/cadence/constant"
	"github.com/cadence-bot/cadence/icon"
	"github.com/cadence-bot/cadence/key"
	"github.com/cadence-bot/cadence/style"
	"github.com/cadence-bot/cadence/util"
	"github.com/spf13/viper"
)

// Notify prints a notice if a newer release exists.
func Notify() {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	erase := util.PrintErasable(fmt.Sprintf("%s Checking if new version is available...", icon.Get(icon.Progress)))
	version, err := Latest()
	erase()
	if err != nil {
		return
	}

	if comp, err := Compare(version, constant.Version); err != nil || comp <= 0 {
		return
	}

	fmt.Printf(`
%s New version is available %s %s
%s

`,
		style.Fg(color.Green)("▇▇▇"),
		style.Bold(version),
		style.Faint(fmt.Sprintf("(You're on %s)", constant.Version)),
		style.Faint(Releases+"/tag/v"+version),
	)
}
