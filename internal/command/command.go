// Package command defines the command interface, registry and execution
// contexts shared by all slash commands.
package command

import (
	"github.com/bwmarrin/discordgo"

	"melobot/internal/music/player"
	"melobot/internal/music/search"
	"melobot/internal/storage"
)

type Command interface {
	Name() string
	Description() string
	Category() string
	Run(ctx interface{}) error
}

// SlashProvider is implemented by commands registered as slash commands.
type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

// ComponentHandler is implemented by commands that react to message
// components (buttons, select menus) whose custom ID starts with the
// command name.
type ComponentHandler interface {
	Component(*ComponentContext) error
}

// Bot is the surface commands need from the running bot instance.
type Bot interface {
	GetOrCreatePlayer(guildID string) *player.Player
	FindUserVoiceState(guildID, userID string) (*discordgo.VoiceState, error)
	Search() *search.Orchestrator
	// EnsureStableMessage creates or refreshes the guild's pinned status
	// message in the configured music channel.
	EnsureStableMessage(guildID string) error
}

// SlashContext is handed to Run for slash command interactions.
type SlashContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Storage *storage.Storage
}

// ComponentContext is handed to Component for component interactions.
type ComponentContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Storage *storage.Storage
}
