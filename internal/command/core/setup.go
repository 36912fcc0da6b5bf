package core

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"melobot/internal/command"
)

// SetupCommand binds the bot's status message to a text channel. The bot
// keeps exactly one stable message per guild and edits it in place.
type SetupCommand struct {
	Bot command.Bot
}

func (c *SetupCommand) Name() string        { return "setup" }
func (c *SetupCommand) Description() string { return "Choose the channel for the music status message" }
func (c *SetupCommand) Category() string    { return "⚙️ Core" }

func (c *SetupCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionChannel,
				Name:        "channel",
				Description: "Text channel for the status message",
				Required:    true,
				ChannelTypes: []discordgo.ChannelType{
					discordgo.ChannelTypeGuildText,
				},
			},
		},
	}
}

func (c *SetupCommand) Run(ctx interface{}) error {
	sctx, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}

	var channelID string
	for _, opt := range sctx.Event.ApplicationCommandData().Options {
		if opt.Name == "channel" {
			channelID = opt.ChannelValue(sctx.Session).ID
		}
	}
	if channelID == "" {
		return command.RespondEphemeral(sctx.Session, sctx.Event, "⚙️ Pick a text channel.")
	}

	guildID := sctx.Event.GuildID
	if err := sctx.Storage.SetMusicChannel(guildID, channelID); err != nil {
		return fmt.Errorf("failed to store music channel: %w", err)
	}
	if err := c.Bot.EnsureStableMessage(guildID); err != nil {
		return command.RespondEphemeral(sctx.Session, sctx.Event,
			fmt.Sprintf("⚙️ Channel saved, but I couldn't post the status message: %v", err))
	}

	return command.RespondEphemeral(sctx.Session, sctx.Event,
		fmt.Sprintf("⚙️ Music status message lives in <#%s> now.", channelID))
}
