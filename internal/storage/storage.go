package storage

import (
	"fmt"
	"time"

	"melobot/datastore"
)

// GuildRecord is everything the bot persists per guild: where the music
// channel lives, which message is the stable status message, and a short
// play history for the status embed.
type GuildRecord struct {
	MusicChannelID  string        `json:"music_channel_id"`
	StableMessageID string        `json:"stable_message_id"`
	History         []TrackRecord `json:"history,omitempty"`
}

// TrackRecord is one played track in a guild's history.
type TrackRecord struct {
	Title    string    `json:"title"`
	URL      string    `json:"url"`
	Uploader string    `json:"uploader,omitempty"`
	PlayedAt time.Time `json:"played_at"`
}

const trackHistoryLimit = 12

// Storage wraps the datastore with guild-centric accessors.
type Storage struct {
	ds *datastore.DataStore
}

func New(filePath string) (*Storage, error) {
	ds, err := datastore.New(filePath)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

func (s *Storage) guildRecord(guildID string) (*GuildRecord, error) {
	var record GuildRecord
	ok, err := s.ds.Get(guildID, &record)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &GuildRecord{}, nil
	}
	return &record, nil
}

// SetMusicChannel stores the channel the stable message lives in. Changing
// the channel invalidates the old stable message.
func (s *Storage) SetMusicChannel(guildID, channelID string) error {
	record, err := s.guildRecord(guildID)
	if err != nil {
		return err
	}
	if record.MusicChannelID != channelID {
		record.StableMessageID = ""
	}
	record.MusicChannelID = channelID
	return s.ds.Set(guildID, record)
}

// SetStableMessage stores the ID of the guild's single status message.
func (s *Storage) SetStableMessage(guildID, messageID string) error {
	record, err := s.guildRecord(guildID)
	if err != nil {
		return err
	}
	record.StableMessageID = messageID
	return s.ds.Set(guildID, record)
}

// GuildSetup returns the music channel and stable message IDs. An error is
// returned when the guild has not been set up yet.
func (s *Storage) GuildSetup(guildID string) (channelID, messageID string, err error) {
	record, err := s.guildRecord(guildID)
	if err != nil {
		return "", "", err
	}
	if record.MusicChannelID == "" {
		return "", "", fmt.Errorf("guild %s is not set up", guildID)
	}
	return record.MusicChannelID, record.StableMessageID, nil
}

// AppendTrackHistory records a played track, keeping only the most recent
// entries.
func (s *Storage) AppendTrackHistory(guildID string, track TrackRecord) error {
	record, err := s.guildRecord(guildID)
	if err != nil {
		return err
	}

	record.History = append(record.History, track)
	if len(record.History) > trackHistoryLimit {
		record.History = record.History[len(record.History)-trackHistoryLimit:]
	}
	return s.ds.Set(guildID, record)
}

// TrackHistory returns the guild's recent plays, newest last.
func (s *Storage) TrackHistory(guildID string) ([]TrackRecord, error) {
	record, err := s.guildRecord(guildID)
	if err != nil {
		return nil, err
	}
	return record.History, nil
}

// Guilds lists all guild IDs with stored records.
func (s *Storage) Guilds() []string {
	return s.ds.Keys()
}
