// Package auth stores the bot token in the system keyring.
package auth

import (
	"errors"

	"github.com/cadence-bot/cadence/constant"
	"github.com/cadence-bot/cadence/key"
	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
)

const user = "discord-bot-token"

// ErrNoToken means neither the configuration nor the keyring holds a token.
var ErrNoToken = errors.New("no bot token: set discord.token, CADENCE_DISCORD_TOKEN, or run `cadence token set`")

// SetToken saves the bot token to the keyring.
func SetToken(token string) error {
	return keyring.Set(constant.Cadence, user, token)
}

// GetToken reads the bot token from the keyring.
func GetToken() (string, error) {
	return keyring.Get(constant.Cadence, user)
}

// DeleteToken removes the bot token from the keyring.
func DeleteToken() error {
	return keyring.Delete(constant.Cadence, user)
}

// Token returns the configured token, falling back to the keyring.
func Token() (string, error) {
	if t := viper.GetString(key.DiscordToken); t != "" {
		return t, nil
	}

	t, err := GetToken()
	if errors.Is(err, keyring.ErrNotFound) || (err == nil && t == "") {
		return "", ErrNoToken
	}
	return t, err
}
