package cmd

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/cadence-bot/cadence/icon"
	"github.com/cadence-bot/cadence/key"
	"github.com/cadence-bot/cadence/open"
	"github.com/cadence-bot/cadence/style"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// invitePermissions is View Channels, Send Messages, Embed Links, Connect and Speak.
const invitePermissions = 1024 | 2048 | 16384 | 1048576 | 2097152

func init() {
	rootCmd.AddCommand(inviteCmd)
	inviteCmd.Flags().Bool("no-browser", false, "Only print the invite link")
}

var inviteCmd = &cobra.Command{
	Use:   "invite",
	Short: "Print the link that adds the bot to a server",
	Run: func(cmd *cobra.Command, args []string) {
		appID := viper.GetString(key.DiscordApplicationID)
		if appID == "" {
			handleErr(fmt.Errorf("%s is not set", key.DiscordApplicationID))
		}

		link := inviteURL(appID)
		fmt.Printf("%s %s\n", icon.Get(icon.Link), style.Bold(link))

		if noBrowser, _ := cmd.Flags().GetBool("no-browser"); noBrowser {
			return
		}

		confirm := survey.Confirm{
			Message: "Open it in the browser?",
			Default: false,
		}
		var response bool
		if err := survey.AskOne(&confirm, &response); err != nil || !response {
			return
		}
		handleErr(open.Start(link))
	},
}

func inviteURL(appID string) string {
	q := url.Values{}
	q.Set("client_id", appID)
	q.Set("scope", "bot applications.commands")
	q.Set("permissions", strconv.Itoa(invitePermissions))
	return "https://discord.com/oauth2/authorize?" + q.Encode()
}
