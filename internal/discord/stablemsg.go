package discord

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"melobot/internal/command"
	"melobot/internal/music/player"
	"melobot/internal/version"
)

// Each guild gets exactly one status message that the bot edits in place
// instead of spamming the channel. /setup chooses where it lives.

const panelPrefix = "panel:"

const (
	panelPlayPause = panelPrefix + "playpause"
	panelSkip      = panelPrefix + "skip"
	panelStop      = panelPrefix + "stop"
)

// EnsureStableMessage creates or refreshes the guild's status message.
// Satisfies command.Bot.
func (b *Bot) EnsureStableMessage(guildID string) error {
	channelID, messageID, err := b.storage.GuildSetup(guildID)
	if err != nil {
		return err
	}

	embed, components := b.renderStatus(guildID)

	if messageID != "" {
		_, err := b.dg.ChannelMessageEditComplex(&discordgo.MessageEdit{
			Channel:    channelID,
			ID:         messageID,
			Embeds:     &[]*discordgo.MessageEmbed{embed},
			Components: &components,
		})
		if err == nil {
			return nil
		}
		log.Debugf("[Bot] Stable message %s gone, recreating: %v", messageID, err)
	}

	msg, err := b.dg.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	})
	if err != nil {
		return fmt.Errorf("failed to send stable message: %w", err)
	}
	return b.storage.SetStableMessage(guildID, msg.ID)
}

// UpdateStableMessage is EnsureStableMessage for guilds that are already
// set up; it is called on every player status event.
func (b *Bot) UpdateStableMessage(guildID string) error {
	return b.EnsureStableMessage(guildID)
}

// renderStatus builds the embed and control row from live player state and
// stored history.
func (b *Bot) renderStatus(guildID string) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	var body strings.Builder
	paused := false

	b.mu.RLock()
	p := b.players[guildID]
	b.mu.RUnlock()

	if p != nil {
		if track, err := p.Current(); err == nil {
			paused = p.IsPaused()
			state := "▶️ Now playing"
			if paused {
				state = "⏸ Paused"
			}
			fmt.Fprintf(&body, "%s: [%s](%s) · %s\n", state, track.Title, track.URL, fmtDur(p.Elapsed()))
		}
		if queue := p.Queue(); len(queue) > 0 {
			body.WriteString("\n**Up next:**\n")
			for i, track := range queue {
				if i >= 5 {
					fmt.Fprintf(&body, "…and %d more\n", len(queue)-i)
					break
				}
				fmt.Fprintf(&body, "%d. %s\n", i+1, track.Title)
			}
		}
	}
	if body.Len() == 0 {
		body.WriteString("Nothing is playing. Use `/play` to queue a track.\n")
	}

	if history, err := b.storage.TrackHistory(guildID); err == nil && len(history) > 0 {
		body.WriteString("\n**Recently played:**\n")
		shown := 0
		for i := len(history) - 1; i >= 0 && shown < 5; i-- {
			fmt.Fprintf(&body, "• [%s](%s)\n", history[i].Title, history[i].URL)
			shown++
		}
	}

	playPauseLabel := "Pause"
	playPauseEmoji := "⏸"
	if paused {
		playPauseLabel = "Resume"
		playPauseEmoji = "▶️"
	}

	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    playPauseLabel,
					Style:    discordgo.SecondaryButton,
					CustomID: panelPlayPause,
					Emoji:    &discordgo.ComponentEmoji{Name: playPauseEmoji},
				},
				discordgo.Button{
					Label:    "Skip",
					Style:    discordgo.SecondaryButton,
					CustomID: panelSkip,
					Emoji:    &discordgo.ComponentEmoji{Name: "⏭"},
				},
				discordgo.Button{
					Label:    "Stop",
					Style:    discordgo.DangerButton,
					CustomID: panelStop,
					Emoji:    &discordgo.ComponentEmoji{Name: "⏹"},
				},
			},
		},
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🎵 " + version.AppName,
		Description: body.String(),
		Color:       command.EmbedColor,
		Footer: &discordgo.MessageEmbedFooter{
			Text: version.AppName + " " + version.AppVersion,
		},
	}
	return embed, components
}

// handlePanel routes stable-message button presses to the guild player.
func (b *Bot) handlePanel(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	// Acknowledge immediately; the message itself is refreshed afterwards.
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		return fmt.Errorf("failed to ack panel press: %w", err)
	}

	p := b.GetOrCreatePlayer(i.GuildID)
	customID := i.MessageComponentData().CustomID

	var err error
	switch customID {
	case panelPlayPause:
		if p.IsPaused() {
			err = p.Resume()
		} else {
			err = p.Pause()
		}
	case panelSkip:
		err = p.PlayNext("")
		if errors.Is(err, player.ErrNoTracksInQueue) {
			err = p.Stop(false)
		}
	case panelStop:
		err = p.Stop(true)
	}

	if err != nil && !errors.Is(err, player.ErrNoTrackPlaying) {
		log.Debugf("[Bot] Panel action %s: %v", customID, err)
	}
	return b.UpdateStableMessage(i.GuildID)
}

func fmtDur(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
