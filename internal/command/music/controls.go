package music

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"melobot/internal/command"
	"melobot/internal/music/player"
)

// The control commands share one shape: look up the guild player, poke it,
// answer ephemerally.

type PauseCommand struct {
	Bot command.Bot
}

func (c *PauseCommand) Name() string        { return "pause" }
func (c *PauseCommand) Description() string { return "Pause the current track" }
func (c *PauseCommand) Category() string    { return "🎵 Music" }

func (c *PauseCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return plainSlash(c.Name(), c.Description())
}

func (c *PauseCommand) Run(ctx interface{}) error {
	sctx, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}
	p := c.Bot.GetOrCreatePlayer(sctx.Event.GuildID)
	if err := p.Pause(); err != nil {
		return respondPlayerError(sctx, err)
	}
	return command.RespondEphemeral(sctx.Session, sctx.Event, "⏸ Paused.")
}

type ResumeCommand struct {
	Bot command.Bot
}

func (c *ResumeCommand) Name() string        { return "resume" }
func (c *ResumeCommand) Description() string { return "Resume paused playback" }
func (c *ResumeCommand) Category() string    { return "🎵 Music" }

func (c *ResumeCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return plainSlash(c.Name(), c.Description())
}

func (c *ResumeCommand) Run(ctx interface{}) error {
	sctx, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}
	p := c.Bot.GetOrCreatePlayer(sctx.Event.GuildID)
	if err := p.Resume(); err != nil {
		return respondPlayerError(sctx, err)
	}
	return command.RespondEphemeral(sctx.Session, sctx.Event, "▶️ Resumed.")
}

type SkipCommand struct {
	Bot command.Bot
}

func (c *SkipCommand) Name() string        { return "skip" }
func (c *SkipCommand) Description() string { return "Skip to the next queued track" }
func (c *SkipCommand) Category() string    { return "🎵 Music" }

func (c *SkipCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return plainSlash(c.Name(), c.Description())
}

func (c *SkipCommand) Run(ctx interface{}) error {
	sctx, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}
	p := c.Bot.GetOrCreatePlayer(sctx.Event.GuildID)
	if err := p.PlayNext(""); err != nil {
		if errors.Is(err, player.ErrNoTracksInQueue) {
			// Nothing queued: skipping just means stopping the current one.
			if stopErr := p.Stop(false); stopErr != nil {
				return respondPlayerError(sctx, stopErr)
			}
			return command.RespondEphemeral(sctx.Session, sctx.Event, "⏭ Queue is empty, playback stopped.")
		}
		return respondPlayerError(sctx, err)
	}
	return command.RespondEphemeral(sctx.Session, sctx.Event, "⏭ Skipped.")
}

type StopCommand struct {
	Bot command.Bot
}

func (c *StopCommand) Name() string        { return "stop" }
func (c *StopCommand) Description() string { return "Stop playback, clear the queue and leave" }
func (c *StopCommand) Category() string    { return "🎵 Music" }

func (c *StopCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return plainSlash(c.Name(), c.Description())
}

func (c *StopCommand) Run(ctx interface{}) error {
	sctx, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}
	p := c.Bot.GetOrCreatePlayer(sctx.Event.GuildID)
	if err := p.Stop(true); err != nil {
		return respondPlayerError(sctx, err)
	}
	return command.RespondEphemeral(sctx.Session, sctx.Event, "⏹ Stopped and left the voice channel.")
}

func plainSlash(name, description string) *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        name,
		Description: description,
		Type:        discordgo.ChatApplicationCommand,
	}
}

func respondPlayerError(sctx *command.SlashContext, err error) error {
	switch {
	case errors.Is(err, player.ErrNoTrackPlaying):
		return command.RespondEphemeral(sctx.Session, sctx.Event, "🎵 Nothing is playing.")
	case errors.Is(err, player.ErrNotPaused):
		return command.RespondEphemeral(sctx.Session, sctx.Event, "🎵 Playback is not paused.")
	default:
		return command.RespondEphemeral(sctx.Session, sctx.Event, fmt.Sprintf("🎵 Error: %v", err))
	}
}
