package discord

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

type fakeCommandAPI struct {
	existing []*discordgo.ApplicationCommand
	listErr  error

	created []string
	deleted []string
}

func (f *fakeCommandAPI) ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	return f.existing, f.listErr
}

func (f *fakeCommandAPI) ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error) {
	f.created = append(f.created, cmd.Name)
	return cmd, nil
}

func (f *fakeCommandAPI) ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error {
	f.deleted = append(f.deleted, cmdID)
	return nil
}

func TestSyncCommandsDeletesObsolete(t *testing.T) {
	api := &fakeCommandAPI{
		existing: []*discordgo.ApplicationCommand{
			{ID: "1", Name: "play"},
			{ID: "2", Name: "oldcmd"},
		},
	}
	wanted := map[string]*discordgo.ApplicationCommand{
		"play": {Name: "play", Description: "play a track"},
	}
	hashes := map[string]string{"oldcmd": "stale"}

	syncCommands(api, "app", "guild", wanted, hashes)

	assert.Equal(t, []string{"2"}, api.deleted)
	assert.Equal(t, []string{"play"}, api.created)
	assert.NotContains(t, hashes, "oldcmd")
	assert.Contains(t, hashes, "play")
}

func TestSyncCommandsSkipsUnchanged(t *testing.T) {
	def := &discordgo.ApplicationCommand{Name: "play", Description: "play a track"}
	api := &fakeCommandAPI{}
	hashes := map[string]string{"play": hashCommand(def)}

	syncCommands(api, "app", "guild", map[string]*discordgo.ApplicationCommand{"play": def}, hashes)

	assert.Empty(t, api.created)
	assert.Empty(t, api.deleted)
}

// A failed remote listing must not look like an empty guild: nothing gets
// deleted and the local hashes survive for the next pass.
func TestSyncCommandsSkipsCleanupWhenListingFails(t *testing.T) {
	api := &fakeCommandAPI{listErr: errors.New("503 service unavailable")}
	wanted := map[string]*discordgo.ApplicationCommand{
		"play": {Name: "play", Description: "play a track"},
	}
	hashes := map[string]string{"oldcmd": "stale"}

	syncCommands(api, "app", "guild", wanted, hashes)

	assert.Empty(t, api.deleted)
	assert.Contains(t, hashes, "oldcmd")
	assert.Equal(t, []string{"play"}, api.created)
}
