package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/cadence-bot/cadence/auth"
	"github.com/cadence-bot/cadence/icon"
	"github.com/cadence-bot/cadence/style"
	"github.com/spf13/cobra"
	"github.com/zalando/go-keyring"
)

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenSetCmd)
	tokenCmd.AddCommand(tokenGetCmd)
	tokenCmd.AddCommand(tokenDeleteCmd)

	tokenGetCmd.Flags().BoolP("reveal", "r", false, "Print the whole token")
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the bot token stored in the system keyring",
	Long: `The bot token is read from discord.token or CADENCE_DISCORD_TOKEN first.
When neither is set, the token saved in the system keyring is used.`,
}

var tokenSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save the bot token to the keyring",
	Run: func(cmd *cobra.Command, args []string) {
		prompt := survey.Password{
			Message: "Bot token:",
			Help:    "Found under Bot > Token in the Discord developer portal",
		}

		var token string
		handleErr(survey.AskOne(&prompt, &token, survey.WithValidator(survey.Required)))
		handleErr(auth.SetToken(strings.TrimSpace(token)))

		fmt.Printf("%s Token saved\n", icon.Get(icon.Success))
	},
}

var tokenGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the token the bot would use",
	Run: func(cmd *cobra.Command, args []string) {
		token, err := auth.Token()
		handleErr(err)

		reveal, _ := cmd.Flags().GetBool("reveal")
		if !reveal {
			token = mask(token)
		}
		fmt.Printf("%s %s\n", icon.Get(icon.Key), token)
	},
}

var tokenDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the bot token from the keyring",
	Run: func(cmd *cobra.Command, args []string) {
		err := auth.DeleteToken()
		if errors.Is(err, keyring.ErrNotFound) {
			fmt.Printf("%s %s\n", icon.Get(icon.Warn), style.Faint("No token stored"))
			return
		}
		handleErr(err)

		fmt.Printf("%s Token deleted\n", icon.Get(icon.Success))
	},
}

// mask keeps the first and last four characters.
func mask(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}
