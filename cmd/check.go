package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/cadence-bot/cadence/constant"
	"github.com/cadence-bot/cadence/decoder"
	"github.com/cadence-bot/cadence/icon"
	"github.com/cadence-bot/cadence/key"
	"github.com/cadence-bot/cadence/style"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// dependency is an external program the bot shells out to.
type dependency struct {
	name    string
	locate  func() (string, error)
	install map[string]string
}

var dependencies = []dependency{
	{
		name: "ffmpeg",
		locate: func() (string, error) {
			return decoder.Locate(viper.GetString(key.DecoderPath))
		},
		install: map[string]string{
			constant.Darwin:  "brew install ffmpeg",
			constant.Linux:   "sudo apt install ffmpeg",
			constant.Windows: "scoop install ffmpeg",
		},
	},
	{
		name: "yt-dlp",
		locate: func() (string, error) {
			return exec.LookPath("yt-dlp")
		},
		install: map[string]string{
			constant.Darwin:  "brew install yt-dlp",
			constant.Linux:   "pipx install yt-dlp",
			constant.Windows: "scoop install yt-dlp",
		},
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.SetOut(os.Stdout)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that ffmpeg and yt-dlp can be found",
	Run: func(cmd *cobra.Command, args []string) {
		var missing bool
		for _, dep := range dependencies {
			path, err := dep.locate()
			if err != nil {
				missing = true
				cmd.Printf("%s %s %s\n", icon.Get(icon.Fail), style.Bold(dep.name), style.Faint("not found"))
				continue
			}
			cmd.Printf("%s %s %s\n", icon.Get(icon.Success), style.Bold(dep.name), style.Faint(path))
		}

		if missing {
			os.Exit(1)
		}
	},
}

// CheckDependencies exits with an install hint when a required program is missing.
func CheckDependencies() {
	for _, dep := range dependencies {
		if _, err := dep.locate(); err != nil {
			printMissingDependencyError(dep)
			os.Exit(1)
		}
	}
}

func printMissingDependencyError(dep dependency) {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.HiRed).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(style.HiRed).Render(fmt.Sprintf("%s Error: Missing Dependency", icon.Get(icon.Fail)))
	body := style.New().Foreground(style.Text).Render(fmt.Sprintf("The required dependency '%s' was not found in your PATH.", dep.name))

	suggestion := ""
	if installCmd, ok := dep.install[runtime.GOOS]; ok {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s", style.New().Foreground(style.AccentColor).Bold(true).Render(installCmd))
	}

	fmt.Println(box.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			body,
			suggestion,
		),
	))
}
