// Package monitor runs the bot's periodic upkeep: cache sweeps, cache
// health logging and idle voice disconnects.
package monitor

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"melobot/internal/music/player"
	"melobot/internal/music/search"
	"melobot/pkg/jobmgr"
)

const (
	jobCacheSweep     = "cache-sweep"
	jobCacheHealth    = "cache-health"
	jobIdleDisconnect = "idle-disconnect"
)

// PlayerHub is the slice of the bot the monitor needs.
type PlayerHub interface {
	Players() map[string]*player.Player
}

// Monitor schedules background upkeep jobs.
type Monitor struct {
	orchestrator *search.Orchestrator
	hub          PlayerHub
	jobs         *jobmgr.Manager

	sweepInterval  time.Duration
	healthInterval time.Duration
	idleInterval   time.Duration
}

func New(orchestrator *search.Orchestrator, hub PlayerHub, sweep, health, idle time.Duration) *Monitor {
	return &Monitor{
		orchestrator: orchestrator,
		hub:          hub,
		jobs: jobmgr.NewManager(func(msg string) {
			log.Debugf("[Monitor] %s", msg)
		}),
		sweepInterval:  sweep,
		healthInterval: health,
		idleInterval:   idle,
	}
}

// Start launches the upkeep jobs. They run until Stop.
func (m *Monitor) Start() error {
	if err := m.jobs.StartTicker(jobCacheSweep, m.sweepInterval, m.sweepCache); err != nil {
		return err
	}
	if err := m.jobs.StartTicker(jobCacheHealth, m.healthInterval, m.logCacheHealth); err != nil {
		return err
	}
	if m.hub != nil {
		if err := m.jobs.StartTicker(jobIdleDisconnect, m.idleInterval, m.disconnectIdle); err != nil {
			return err
		}
	}
	log.Infof("[Monitor] Started: %s", m.jobs.Status())
	return nil
}

// Stop cancels all upkeep jobs.
func (m *Monitor) Stop() {
	m.jobs.StopAll()
}

func (m *Monitor) sweepCache(ctx context.Context) {
	removed := m.orchestrator.SweepCache()
	if removed > 0 {
		log.Infof("[Monitor] Swept %d expired cache entries", removed)
	}
}

func (m *Monitor) logCacheHealth(ctx context.Context) {
	stats := m.orchestrator.CacheStats()
	log.Infof("[Monitor] Cache health: entries=%d mem=%dKiB hits=%d misses=%d hit_rate=%.1f%% evictions=%d",
		stats.Size, stats.EstimatedMemoryBytes/1024, stats.Hits, stats.Misses,
		stats.HitRate()*100, stats.Evictions)
}

// disconnectIdle drops voice connections for players that are neither
// playing nor paused. The player itself guards against racing playback.
func (m *Monitor) disconnectIdle(ctx context.Context) {
	for guildID, p := range m.hub.Players() {
		if p.IsPlaying() || p.IsPaused() {
			continue
		}
		log.Debugf("[Monitor] Disconnecting idle player in guild %s", guildID)
		p.Disconnect()
	}
}
