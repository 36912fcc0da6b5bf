// Package discord wires the session, slash commands and per-guild players
// together.
package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"melobot/internal/command"
	"melobot/internal/config"
	"melobot/internal/music/player"
	"melobot/internal/music/search"
	"melobot/internal/storage"
	"melobot/internal/version"
)

// Bot is the running Discord bot.
type Bot struct {
	dg      *discordgo.Session
	cfg     *config.Config
	storage *storage.Storage
	search  *search.Orchestrator

	mu      sync.RWMutex
	players map[string]*player.Player
}

func NewBot(cfg *config.Config, store *storage.Storage, orchestrator *search.Orchestrator) *Bot {
	return &Bot{
		cfg:     cfg,
		storage: store,
		search:  orchestrator,
		players: make(map[string]*player.Player),
	}
}

// Run opens the session and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	dg, err := discordgo.New("Bot " + b.cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	b.dg = dg

	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates

	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onGuildCreate)
	dg.AddHandler(b.onInteractionCreate)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer dg.Close()

	<-ctx.Done()
	log.Info("[Bot] Shutdown signal received, cleaning up")
	b.shutdownPlayers()
	return nil
}

// Session exposes the raw session for the health monitor.
func (b *Bot) Session() *discordgo.Session {
	return b.dg
}

// Search returns the search orchestrator, satisfying command.Bot.
func (b *Bot) Search() *search.Orchestrator {
	return b.search
}

// GetOrCreatePlayer returns the guild's player, creating it on first use
// and attaching the stable-message updater to its status events.
func (b *Bot) GetOrCreatePlayer(guildID string) *player.Player {
	b.mu.RLock()
	p, ok := b.players[guildID]
	b.mu.RUnlock()
	if ok {
		return p
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.players[guildID]; ok {
		return p
	}
	p = player.New(b.dg, guildID, b.storage)
	b.players[guildID] = p
	go b.watchPlayerStatus(guildID, p)
	return p
}

// Players returns a snapshot of all guild players.
func (b *Bot) Players() map[string]*player.Player {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]*player.Player, len(b.players))
	for id, p := range b.players {
		out[id] = p
	}
	return out
}

// FindUserVoiceState locates the voice channel the user currently sits in.
func (b *Bot) FindUserVoiceState(guildID, userID string) (*discordgo.VoiceState, error) {
	guild, err := b.dg.State.Guild(guildID)
	if err != nil {
		guild, err = b.dg.Guild(guildID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch guild: %w", err)
		}
	}
	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID {
			return vs, nil
		}
	}
	return nil, errors.New("you are not in a voice channel")
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	for _, g := range r.Guilds {
		if err := b.registerCommands(g.ID); err != nil {
			log.Errorf("[Bot] Failed to register commands for guild %s: %v", g.ID, err)
		}
		if err := b.EnsureStableMessage(g.ID); err != nil {
			log.Debugf("[Bot] No stable message for guild %s: %v", g.ID, err)
		}
	}
	log.Infof("[Bot] %s is running as %s", version.AppName, s.State.User.Username)
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	log.Infof("[Bot] Added to guild %s (%s)", g.Guild.ID, g.Guild.Name)
	if err := b.registerCommands(g.Guild.ID); err != nil {
		log.Errorf("[Bot] Failed to register commands for new guild %s: %v", g.Guild.ID, err)
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		cmd, ok := command.Get(name)
		if !ok {
			log.Warnf("[Bot] Unknown command: %s", name)
			return
		}
		ctx := &command.SlashContext{Session: s, Event: i, Storage: b.storage}
		if err := cmd.Run(ctx); err != nil {
			log.Errorf("[Bot] Command /%s failed: %v", name, err)
		}

	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID

		if strings.HasPrefix(customID, panelPrefix) {
			if err := b.handlePanel(s, i); err != nil {
				log.Errorf("[Bot] Panel interaction %s failed: %v", customID, err)
			}
			return
		}

		for _, cmd := range command.All() {
			if !strings.HasPrefix(customID, cmd.Name()+":") {
				continue
			}
			handler, ok := cmd.(command.ComponentHandler)
			if !ok {
				continue
			}
			ctx := &command.ComponentContext{Session: s, Event: i, Storage: b.storage}
			if err := handler.Component(ctx); err != nil {
				log.Errorf("[Bot] Component %s failed: %v", customID, err)
			}
			return
		}
		log.Warnf("[Bot] No handler for component: %s", customID)
	}
}

// watchPlayerStatus refreshes the guild's stable message on every player
// lifecycle event.
func (b *Bot) watchPlayerStatus(guildID string, p *player.Player) {
	for status := range p.StatusCh {
		log.Debugf("[Bot] Player event in guild %s: %s", guildID, status)
		if err := b.UpdateStableMessage(guildID); err != nil {
			log.Debugf("[Bot] Stable message update skipped for %s: %v", guildID, err)
		}
	}
}

func (b *Bot) shutdownPlayers() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for guildID, p := range b.players {
		if err := p.Stop(true); err != nil && !errors.Is(err, player.ErrNoTrackPlaying) {
			log.Warnf("[Bot] Failed to stop player for guild %s: %v", guildID, err)
		}
	}
}
