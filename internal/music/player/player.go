// Package player owns the per-guild playback queue. It consumes fully
// resolved tracks; search and metadata extraction happen before a track
// ever reaches the queue.
package player

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"melobot/internal/music/search"
	"melobot/internal/music/stream"
	"melobot/internal/storage"
)

type Status string

const (
	StatusPlaying Status = "Playing"
	StatusAdded   Status = "Track(s) Added"
	StatusStopped Status = "Playback Stopped"
	StatusPaused  Status = "Playback Paused"
	StatusResumed Status = "Playback Resumed"
	StatusError   Status = "Error"
)

func (s Status) Emoji() string {
	m := map[Status]string{
		StatusPlaying: "▶️",
		StatusAdded:   "🎶",
		StatusStopped: "⏹",
		StatusPaused:  "⏸",
		StatusResumed: "▶️",
		StatusError:   "❌",
	}
	return m[s]
}

var (
	ErrNoTrackPlaying  = errors.New("no track is currently playing")
	ErrNoTracksInQueue = errors.New("no tracks in queue")
	ErrNotPaused       = errors.New("playback is not paused")
)

// Player is one guild's queue and playback state. All public methods are
// safe for concurrent use.
type Player struct {
	mu        sync.Mutex
	playing   bool
	paused    bool
	current   *search.FullTrack
	queue     []search.FullTrack
	startedAt time.Time
	pausedAt  float64 // seconds into the track when paused

	// advance controls whether runPlayback moves to the next queued track
	// when the stream ends. Stop and Pause clear it before tearing the
	// stream down.
	advance bool

	stopPlayback chan struct{}
	playbackDone chan struct{}

	dg        *discordgo.Session
	store     *storage.Storage
	guildID   string
	channelID string
	vc        *discordgo.VoiceConnection

	// StatusCh carries player lifecycle events for the stable message
	// updater. Buffered; events are dropped rather than blocking playback.
	StatusCh chan Status
}

func New(dg *discordgo.Session, guildID string, store *storage.Storage) *Player {
	return &Player{
		dg:       dg,
		guildID:  guildID,
		store:    store,
		queue:    make([]search.FullTrack, 0),
		StatusCh: make(chan Status, 10),
	}
}

// Enqueue appends a resolved track to the queue.
func (p *Player) Enqueue(track search.FullTrack) {
	p.mu.Lock()
	p.queue = append(p.queue, track)
	queued := len(p.queue)
	playing := p.playing
	p.mu.Unlock()

	log.Infof("[Player] Queued %q | guild=%s queue=%d", track.Title, p.guildID, queued)
	if playing {
		p.emit(StatusAdded)
	}
}

// PlayNext stops the current track, if any, and starts the next queued
// one in the given voice channel.
func (p *Player) PlayNext(channelID string) error {
	for {
		p.mu.Lock()
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return ErrNoTracksInQueue
		}
		track := p.queue[0]
		p.queue = p.queue[1:]
		if channelID != "" {
			p.channelID = channelID
		}
		p.mu.Unlock()

		if p.IsPlaying() {
			p.stopStream(false)
		}

		if err := p.startTrack(&track, 0); err != nil {
			log.Warnf("[Player] Skipping %q: %v", track.Title, err)
			continue
		}

		p.mu.Lock()
		p.current = &track
		p.playing = true
		p.paused = false
		p.mu.Unlock()

		if p.store != nil {
			if err := p.store.AppendTrackHistory(p.guildID, storage.TrackRecord{
				Title:    track.Title,
				URL:      track.URL,
				Uploader: track.Uploader,
				PlayedAt: time.Now(),
			}); err != nil {
				log.Warnf("[Player] Failed to record history: %v", err)
			}
		}

		p.emit(StatusPlaying)
		log.Infof("[Player] Now playing %q | guild=%s", track.Title, p.guildID)
		return nil
	}
}

// Stop halts playback. With exitVC the queue is cleared and the voice
// connection dropped.
func (p *Player) Stop(exitVC bool) error {
	p.mu.Lock()
	active := p.playing || p.paused
	p.mu.Unlock()
	if !active {
		return ErrNoTrackPlaying
	}

	p.stopStream(false)

	p.mu.Lock()
	p.playing = false
	p.paused = false
	p.current = nil
	if exitVC {
		p.queue = nil
		p.channelID = ""
		if p.vc != nil {
			p.vc.Disconnect()
			p.vc = nil
		}
	}
	p.mu.Unlock()

	p.emit(StatusStopped)
	return nil
}

// Pause tears the stream down and remembers the playback offset so Resume
// can reopen at the same point.
func (p *Player) Pause() error {
	p.mu.Lock()
	if !p.playing || p.current == nil {
		p.mu.Unlock()
		return ErrNoTrackPlaying
	}
	p.pausedAt = time.Since(p.startedAt).Seconds()
	p.mu.Unlock()

	p.stopStream(false)

	p.mu.Lock()
	p.playing = false
	p.paused = true
	p.mu.Unlock()

	p.emit(StatusPaused)
	return nil
}

// Resume reopens the paused track at the recorded offset.
func (p *Player) Resume() error {
	p.mu.Lock()
	if !p.paused || p.current == nil {
		p.mu.Unlock()
		return ErrNotPaused
	}
	track := p.current
	seek := p.pausedAt
	p.mu.Unlock()

	if err := p.startTrack(track, seek); err != nil {
		p.emit(StatusError)
		return err
	}

	p.mu.Lock()
	p.playing = true
	p.paused = false
	p.mu.Unlock()

	p.emit(StatusResumed)
	return nil
}

func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *Player) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Current returns the track now playing or paused.
func (p *Player) Current() (*search.FullTrack, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil, ErrNoTrackPlaying
	}
	return p.current, nil
}

// Elapsed returns how far into the current track playback is.
func (p *Player) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused {
		return time.Duration(p.pausedAt * float64(time.Second))
	}
	if !p.playing {
		return 0
	}
	return time.Since(p.startedAt)
}

// Queue returns a copy of the pending tracks.
func (p *Player) Queue() []search.FullTrack {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.queue)
}

// ClearQueue drops all pending tracks without touching the current one.
func (p *Player) ClearQueue() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.queue)
	p.queue = nil
	return n
}

// Disconnect drops the voice connection if playback is idle. Used by the
// health monitor for idle cleanup.
func (p *Player) Disconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing || p.paused {
		return
	}
	if p.vc != nil {
		p.vc.Disconnect()
		p.vc = nil
	}
}

// startTrack opens the PCM stream and launches the playback goroutine.
func (p *Player) startTrack(track *search.FullTrack, seek float64) error {
	ts, cleanup, err := stream.Open(track, seek)
	if err != nil {
		p.emit(StatusError)
		return fmt.Errorf("failed to open stream for %q: %w", track.Title, err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})

	p.mu.Lock()
	p.stopPlayback = stop
	p.playbackDone = done
	p.startedAt = time.Now().Add(-time.Duration(seek * float64(time.Second)))
	p.advance = true
	p.mu.Unlock()

	go p.runPlayback(ts, cleanup, stop, done)
	return nil
}

// runPlayback streams one track to the voice connection and advances the
// queue when the track ends naturally.
func (p *Player) runPlayback(ts *stream.TrackStream, cleanup func(), stop, done chan struct{}) {
	defer cleanup()
	defer close(done)

	vc, err := p.voiceConnection()
	if err != nil {
		log.Errorf("[Player] Voice connection failed: %v", err)
		p.mu.Lock()
		p.playing = false
		p.mu.Unlock()
		p.emit(StatusError)
		return
	}

	if err := stream.StreamToDiscord(ts, stop, vc); err != nil {
		log.Errorf("[Player] Playback error for %q: %v", ts.Track().Title, err)
	}

	p.mu.Lock()
	shouldAdvance := p.advance
	if shouldAdvance {
		p.playing = false
		p.current = nil
	}
	hasNext := len(p.queue) > 0
	channelID := p.channelID
	p.mu.Unlock()

	if !shouldAdvance {
		return // Stop, Pause or Skip owns the state transition
	}

	if hasNext {
		if err := p.PlayNext(channelID); err != nil {
			log.Warnf("[Player] Failed to advance queue: %v", err)
			p.emit(StatusStopped)
		}
		return
	}
	p.emit(StatusStopped)
}

// stopStream closes the stop channel and waits for the playback goroutine
// to exit.
func (p *Player) stopStream(advance bool) {
	p.mu.Lock()
	stop := p.stopPlayback
	done := p.playbackDone
	p.advance = advance
	p.stopPlayback = nil
	p.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// voiceConnection joins the configured channel, reusing a live connection.
func (p *Player) voiceConnection() (*discordgo.VoiceConnection, error) {
	p.mu.Lock()
	channelID := p.channelID
	vc := p.vc
	p.mu.Unlock()

	if channelID == "" {
		return nil, errors.New("voice channel ID is not set")
	}
	if vc != nil && vc.ChannelID == channelID {
		return vc, nil
	}

	vc, err := p.dg.ChannelVoiceJoin(p.guildID, channelID, false, true)
	if err != nil {
		return nil, fmt.Errorf("failed to join voice channel: %w", err)
	}

	p.mu.Lock()
	p.vc = vc
	p.mu.Unlock()
	return vc, nil
}

func (p *Player) emit(status Status) {
	select {
	case p.StatusCh <- status:
	default:
		log.Debugf("[Player] Status event dropped (channel full): %s", status)
	}
}
