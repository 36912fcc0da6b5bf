package core

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"melobot/internal/command"
	"melobot/internal/version"
)

// StatsCommand reports search cache health so operators can see whether
// the cache is actually saving upstream calls.
type StatsCommand struct {
	Bot command.Bot
}

func (c *StatsCommand) Name() string        { return "stats" }
func (c *StatsCommand) Description() string { return "Show search cache statistics" }
func (c *StatsCommand) Category() string    { return "⚙️ Core" }

func (c *StatsCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *StatsCommand) Run(ctx interface{}) error {
	sctx, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}

	stats := c.Bot.Search().CacheStats()
	desc := fmt.Sprintf(
		"Entries: **%d** (~%d KiB)\nHits: **%d**\nMisses: **%d**\nHit rate: **%.1f%%**\nEvictions: **%d**",
		stats.Size, stats.EstimatedMemoryBytes/1024, stats.Hits, stats.Misses, stats.HitRate()*100, stats.Evictions,
	)

	return command.RespondEmbedEphemeral(sctx.Session, sctx.Event, &discordgo.MessageEmbed{
		Title:       "📊 Search Cache",
		Description: desc,
		Color:       command.EmbedColor,
		Footer: &discordgo.MessageEmbedFooter{
			Text: version.AppName + " " + version.GoVersion,
		},
	})
}
