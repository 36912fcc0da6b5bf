package music

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"melobot/internal/command"
)

type QueueCommand struct {
	Bot command.Bot
}

func (c *QueueCommand) Name() string        { return "queue" }
func (c *QueueCommand) Description() string { return "Show the current track and queue" }
func (c *QueueCommand) Category() string    { return "🎵 Music" }

func (c *QueueCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return plainSlash(c.Name(), c.Description())
}

func (c *QueueCommand) Run(ctx interface{}) error {
	sctx, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}

	p := c.Bot.GetOrCreatePlayer(sctx.Event.GuildID)

	var b strings.Builder
	if track, err := p.Current(); err == nil {
		state := "▶️ Now playing"
		if p.IsPaused() {
			state = "⏸ Paused"
		}
		fmt.Fprintf(&b, "%s: %s (%s)\n", state, trackLine(track), formatDuration(p.Elapsed()))
	} else {
		b.WriteString("Nothing is playing.\n")
	}

	queue := p.Queue()
	if len(queue) > 0 {
		b.WriteString("\n**Up next:**\n")
		for i, track := range queue {
			if i >= 10 {
				fmt.Fprintf(&b, "…and %d more\n", len(queue)-i)
				break
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, trackLine(&track))
		}
	}

	return command.RespondEmbedEphemeral(sctx.Session, sctx.Event, &discordgo.MessageEmbed{
		Title:       "🎵 Queue",
		Description: b.String(),
		Color:       command.EmbedColor,
	})
}
