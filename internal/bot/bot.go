// Package bot owns the Discord surface: slash commands, interaction
// handling and message delivery.
package bot

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/enzomtp/edtbot/internal/epsi"
	"github.com/enzomtp/edtbot/internal/notify"
	"github.com/enzomtp/edtbot/internal/render"
	"github.com/enzomtp/edtbot/internal/store"
)

// Bot wires the Discord session to the schedule client, the renderer
// and the user store.
type Bot struct {
	session  *discordgo.Session
	users    *store.UserStore
	client   *epsi.Client
	renderer *render.Renderer
}

// New creates the bot. The session stays closed until Start.
func New(token string, users *store.UserStore, client *epsi.Client, renderer *render.Renderer) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	b := &Bot{
		session:  session,
		users:    users,
		client:   client,
		renderer: renderer,
	}

	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("bot ready", "user", r.User.Username, "id", r.User.ID)
	})
	session.AddHandler(b.handleInteraction)

	return b, nil
}

// Start opens the gateway connection and registers the slash commands.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}

	_, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, "", commands)
	if err != nil {
		b.session.Close()
		return fmt.Errorf("register commands: %w", err)
	}
	slog.Info("commands registered", "count", len(commands))
	return nil
}

// Stop closes the gateway connection.
func (b *Bot) Stop() error {
	return b.session.Close()
}

// Alive reports whether the gateway connection is up; the notifier
// checks this at the top of every cycle.
func (b *Bot) Alive() bool {
	return b.session.DataReady
}

// Broadcast sends a message to a channel. Implements notify.Sender.
func (b *Bot) Broadcast(channelID, content string, files ...notify.Attachment) error {
	_, err := b.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		Files:   attachmentFiles(files),
	})
	if err != nil {
		return fmt.Errorf("send to channel %s: %w", channelID, err)
	}
	return nil
}

// DirectMessage sends a DM to a user. Implements notify.Sender.
func (b *Bot) DirectMessage(userID, content string, files ...notify.Attachment) error {
	ch, err := b.session.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("open dm channel for %s: %w", userID, err)
	}
	_, err = b.session.ChannelMessageSendComplex(ch.ID, &discordgo.MessageSend{
		Content: content,
		Files:   attachmentFiles(files),
	})
	if err != nil {
		return fmt.Errorf("send dm to %s: %w", userID, err)
	}
	return nil
}

func attachmentFiles(files []notify.Attachment) []*discordgo.File {
	var out []*discordgo.File
	for _, f := range files {
		out = append(out, &discordgo.File{
			Name:        f.Name,
			ContentType: "image/png",
			Reader:      bytes.NewReader(f.Data),
		})
	}
	return out
}

// interactionUser returns the invoking user in both guild and DM
// contexts.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}
