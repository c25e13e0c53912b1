package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Discord posts to one guild text channel.
type Discord struct {
	session *discordgo.Session

	mu        sync.Mutex
	channelID string
}

func NewDiscord(session *discordgo.Session, channelID string) *Discord {
	return &Discord{session: session, channelID: channelID}
}

// Retarget moves future posts to channelID.
func (d *Discord) Retarget(channelID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.channelID = channelID
}

func (d *Discord) target() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.channelID
}

func (d *Discord) Post(ctx context.Context, c Content) (Handle, error) {
	channelID := d.target()
	msg, err := d.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    c.Text,
		Embeds:     MessageEmbeds(c),
		Components: components(c),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return Handle{}, fmt.Errorf("post message: %w", err)
	}
	return Handle{ChannelID: msg.ChannelID, MessageID: msg.ID}, nil
}

func (d *Discord) Update(ctx context.Context, h Handle, c Content) error {
	edit := discordgo.NewMessageEdit(h.ChannelID, h.MessageID).
		SetContent(c.Text).
		SetEmbeds(MessageEmbeds(c))
	comps := components(c)
	edit.Components = &comps

	_, err := d.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx))
	if unknownMessage(err) {
		return ErrGone
	}
	if err != nil {
		return fmt.Errorf("edit message %s: %w", h.MessageID, err)
	}
	return nil
}

func (d *Discord) Delete(ctx context.Context, h Handle) error {
	err := d.session.ChannelMessageDelete(h.ChannelID, h.MessageID, discordgo.WithContext(ctx))
	if err == nil || unknownMessage(err) {
		return nil
	}
	return fmt.Errorf("delete message %s: %w", h.MessageID, err)
}

func unknownMessage(err error) bool {
	var rest *discordgo.RESTError
	return errors.As(err, &rest) && rest.Message != nil && rest.Message.Code == discordgo.ErrCodeUnknownMessage
}

// MessageEmbeds converts the embed of c for the Discord API. It is never nil.
func MessageEmbeds(c Content) []*discordgo.MessageEmbed {
	if c.Embed == nil {
		return []*discordgo.MessageEmbed{}
	}

	e := &discordgo.MessageEmbed{
		Title:       c.Embed.Title,
		Description: c.Embed.Description,
		Color:       c.Embed.Color,
	}
	for _, f := range c.Embed.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	if c.Embed.Footer != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: c.Embed.Footer}
	}
	return []*discordgo.MessageEmbed{e}
}

func components(c Content) []discordgo.MessageComponent {
	if c.Controls == nil {
		return []discordgo.MessageComponent{}
	}

	pause := "Pause"
	if c.Controls.Paused {
		pause = "Resume"
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Label: pause, Style: discordgo.PrimaryButton, CustomID: ButtonPause},
				discordgo.Button{Label: "Forward", Style: discordgo.SuccessButton, CustomID: ButtonForward},
				discordgo.Button{Label: "Backward", Style: discordgo.SuccessButton, CustomID: ButtonBackward},
				discordgo.Button{Label: "Stop", Style: discordgo.DangerButton, CustomID: ButtonStop},
				discordgo.Button{Label: "Skip", Style: discordgo.DangerButton, CustomID: ButtonSkip},
			},
		},
	}
}
