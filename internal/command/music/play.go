package music

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"melobot/internal/command"
	"melobot/internal/music/search"
)

const (
	searchTimeout  = 12 * time.Second
	resolveTimeout = 25 * time.Second
)

// PlayCommand handles /play: fast candidate search first, then full
// resolution of only the track the user actually picked.
type PlayCommand struct {
	Bot command.Bot
}

func (c *PlayCommand) Name() string        { return "play" }
func (c *PlayCommand) Description() string { return "Play a track by name or YouTube link" }
func (c *PlayCommand) Category() string    { return "🎵 Music" }

func (c *PlayCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "query",
				Description: "Song name or YouTube link",
				Required:    true,
			},
		},
	}
}

func (c *PlayCommand) Run(ctx interface{}) error {
	sctx, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}

	session := sctx.Session
	event := sctx.Event

	var query string
	for _, opt := range event.ApplicationCommandData().Options {
		if opt.Name == "query" {
			query = opt.StringValue()
		}
	}

	if _, err := c.Bot.FindUserVoiceState(event.GuildID, event.Member.User.ID); err != nil {
		return command.RespondEphemeral(session, event, "🎵 Join a voice channel first.")
	}

	if err := command.Defer(session, event, true); err != nil {
		return fmt.Errorf("failed to defer play response: %w", err)
	}

	searchCtx, cancel := context.WithTimeout(context.Background(), searchTimeout)
	defer cancel()

	candidates, err := c.Bot.Search().FastSearch(searchCtx, query)
	if err != nil {
		return command.Followup(session, event, searchFailureMessage(err))
	}
	if len(candidates) == 0 {
		return command.Followup(session, event, fmt.Sprintf("🎵 No results for **%s**.", query))
	}

	// A pasted link or a single match skips the picker.
	if len(candidates) == 1 {
		return c.playCandidate(sctx, candidates[0])
	}

	return c.presentPicker(sctx, query, candidates)
}

// presentPicker shows a select menu with the fast-search candidates. Only
// the picked one ever goes through full resolution.
func (c *PlayCommand) presentPicker(sctx *command.SlashContext, query string, candidates []search.Candidate) error {
	options := make([]discordgo.SelectMenuOption, 0, len(candidates))
	for _, cand := range candidates {
		label := cand.Title
		if label == "" {
			label = cand.URL
		}
		if len(label) > 100 {
			label = label[:97] + "..."
		}
		desc := cand.Uploader
		if cand.Duration > 0 {
			desc = strings.TrimSpace(desc + " · " + formatDuration(cand.Duration))
		}
		if len(desc) > 100 {
			desc = desc[:100]
		}
		options = append(options, discordgo.SelectMenuOption{
			Label:       label,
			Value:       cand.ID,
			Description: desc,
		})
	}

	_, err := sctx.Session.FollowupMessageCreate(sctx.Event.Interaction, true, &discordgo.WebhookParams{
		Content: fmt.Sprintf("🎵 Results for **%s**:", query),
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						CustomID:    c.Name() + ":pick",
						Placeholder: "Pick a track",
						Options:     options,
					},
				},
			},
		},
	})
	return err
}

// Component handles the picker selection.
func (c *PlayCommand) Component(ctx *command.ComponentContext) error {
	data := ctx.Event.MessageComponentData()
	if !strings.HasSuffix(data.CustomID, ":pick") || len(data.Values) == 0 {
		return nil
	}

	if err := command.Defer(ctx.Session, ctx.Event, true); err != nil {
		return fmt.Errorf("failed to defer pick response: %w", err)
	}

	videoID := data.Values[0]
	candidate := search.Candidate{
		ID:  videoID,
		URL: "https://www.youtube.com/watch?v=" + videoID,
	}

	sctx := &command.SlashContext{Session: ctx.Session, Event: ctx.Event, Storage: ctx.Storage}
	return c.playCandidate(sctx, candidate)
}

// playCandidate resolves the candidate to full metadata, queues it and
// starts playback if the player is idle.
func (c *PlayCommand) playCandidate(sctx *command.SlashContext, candidate search.Candidate) error {
	session := sctx.Session
	event := sctx.Event

	voiceState, err := c.Bot.FindUserVoiceState(event.GuildID, event.Member.User.ID)
	if err != nil {
		return command.Followup(session, event, "🎵 Join a voice channel first.")
	}

	resolveCtx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	track, err := c.Bot.Search().ResolveFull(resolveCtx, candidate)
	if err != nil {
		log.Warnf("[Play] Full resolution failed for %s: %v", candidate.ID, err)
		return command.Followup(session, event, "🎵 Couldn't prepare that track for playback. Try another result.")
	}

	p := c.Bot.GetOrCreatePlayer(event.GuildID)
	p.Enqueue(*track)

	if !p.IsPlaying() {
		if err := p.PlayNext(voiceState.ChannelID); err != nil {
			return command.Followup(session, event, fmt.Sprintf("🎵 Error: %v", err))
		}
		return command.FollowupEmbed(session, event, &discordgo.MessageEmbed{
			Title:       "▶️ Now Playing",
			Description: trackLine(track),
			Color:       command.EmbedColor,
		})
	}

	return command.FollowupEmbed(session, event, &discordgo.MessageEmbed{
		Title:       "🎶 Added to Queue",
		Description: trackLine(track),
		Color:       command.EmbedColor,
	})
}

func trackLine(track *search.FullTrack) string {
	switch {
	case track.Title != "" && track.URL != "":
		return fmt.Sprintf("[%s](%s)", track.Title, track.URL)
	case track.Title != "":
		return track.Title
	default:
		return track.URL
	}
}

// searchFailureMessage maps resolution failures to something a user can
// act on.
func searchFailureMessage(err error) string {
	if errors.Is(err, search.ErrInvalidQuery) {
		return "🎵 Give me something to search for."
	}

	var chainErr *search.ChainError
	if errors.As(err, &chainErr) {
		return "🎵 All search backends are struggling right now. Try again in a minute."
	}
	return fmt.Sprintf("🎵 Search failed: %v", err)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
