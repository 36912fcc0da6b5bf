package discord

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"melobot/internal/command"
)

// registerCommands reconciles the guild's slash commands with the registry.
// Hashes of previously pushed definitions are cached on disk so unchanged
// commands cost no API calls on restart.
func (b *Bot) registerCommands(guildID string) error {
	appID := b.dg.State.User.ID
	if appID == "" {
		user, err := b.dg.User("@me")
		if err != nil {
			return fmt.Errorf("failed to fetch application ID: %w", err)
		}
		appID = user.ID
	}

	wanted := make(map[string]*discordgo.ApplicationCommand)
	for _, cmd := range command.All() {
		slash, ok := cmd.(command.SlashProvider)
		if !ok {
			continue
		}
		def := slash.SlashDefinition()
		if def == nil {
			continue
		}
		wanted[def.Name] = def
	}

	localHashes := loadCommandHashes(guildID)
	syncCommands(b.dg, appID, guildID, wanted, localHashes)
	saveCommandHashes(guildID, localHashes)
	return nil
}

// commandAPI is the slice of the session used for command reconciliation.
type commandAPI interface {
	ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error
}

// syncCommands deletes remote commands no longer wanted and pushes wanted
// commands whose definitions changed since the last push, updating
// localHashes in place. When the remote listing fails the delete phase is
// skipped; a transient API error must not be mistaken for an empty guild.
func syncCommands(api commandAPI, appID, guildID string, wanted map[string]*discordgo.ApplicationCommand, localHashes map[string]string) {
	existing, err := api.ApplicationCommands(appID, guildID)
	if err != nil {
		log.Warnf("[Bot] [%s] Failed to list existing commands, skipping cleanup: %v", guildID, err)
	} else {
		for _, old := range existing {
			if _, ok := wanted[old.Name]; !ok {
				log.Infof("[Bot] [%s] Deleting obsolete command: %s", guildID, old.Name)
				if err := api.ApplicationCommandDelete(appID, guildID, old.ID); err != nil {
					log.Errorf("[Bot] [%s] Failed to delete %s: %v", guildID, old.Name, err)
				}
				delete(localHashes, old.Name)
			}
		}
	}

	for name, def := range wanted {
		hash := hashCommand(def)
		if localHashes[name] == hash {
			continue
		}
		if _, err := api.ApplicationCommandCreate(appID, guildID, def); err != nil {
			log.Errorf("[Bot] [%s] Failed to create command %s: %v", guildID, name, err)
			continue
		}
		log.Infof("[Bot] [%s] Registered command: %s", guildID, name)
		localHashes[name] = hash
	}
}

// hashCommand produces a deterministic fingerprint of a definition,
// ignoring runtime-only fields like IDs and versions.
func hashCommand(cmd *discordgo.ApplicationCommand) string {
	obj := map[string]interface{}{
		"name":        cmd.Name,
		"description": cmd.Description,
		"type":        cmd.Type,
	}
	if len(cmd.Options) > 0 {
		opts := make([]map[string]interface{}, len(cmd.Options))
		for i, o := range cmd.Options {
			opts[i] = map[string]interface{}{
				"name":        o.Name,
				"description": o.Description,
				"type":        o.Type,
				"required":    o.Required,
			}
		}
		sort.Slice(opts, func(i, j int) bool {
			return opts[i]["name"].(string) < opts[j]["name"].(string)
		})
		obj["options"] = opts
	}
	data, _ := json.Marshal(obj)
	return fmt.Sprintf("%x", sha1.Sum(data))
}

func commandHashPath(guildID string) string {
	return filepath.Join("data", "commands", guildID+".json")
}

func loadCommandHashes(guildID string) map[string]string {
	hashes := make(map[string]string)
	if raw, err := os.ReadFile(commandHashPath(guildID)); err == nil {
		_ = json.Unmarshal(raw, &hashes)
	}
	return hashes
}

func saveCommandHashes(guildID string, hashes map[string]string) {
	path := commandHashPath(guildID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return
	}
	raw, _ := json.MarshalIndent(hashes, "", "  ")
	_ = os.WriteFile(path, raw, 0644)
}
