package search

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Chain tries resolvers strictly in configured priority order. The first
// resolver that answers without error wins, even with zero candidates;
// parallel probing would burn quota on answers that get discarded.
type Chain struct {
	resolvers []Resolver
	timeout   time.Duration
	cooldown  time.Duration

	mu            sync.Mutex
	cooldownUntil map[string]time.Time

	now func() time.Time
}

// NewChain builds a chain over resolvers in priority order. Each resolver
// call is bounded by timeout; a resolver that reports quota exhaustion is
// skipped for the cooldown window.
func NewChain(resolvers []Resolver, timeout, cooldown time.Duration) *Chain {
	return &Chain{
		resolvers:     resolvers,
		timeout:       timeout,
		cooldown:      cooldown,
		cooldownUntil: make(map[string]time.Time),
		now:           time.Now,
	}
}

// Search runs one traversal of the chain. It returns the first successful
// result along with the name of the resolver that produced it, or a
// ChainError naming every attempted resolver and its failure kind once all
// of them have failed.
func (c *Chain) Search(ctx context.Context, query string, limit int) ([]Candidate, string, error) {
	var attempts []*ResolveError

	for _, resolver := range c.resolvers {
		if c.coolingDown(resolver.Name()) {
			log.Debugf("[Chain] Skipping %s: quota cool-down active", resolver.Name())
			attempts = append(attempts, &ResolveError{
				Resolver: resolver.Name(),
				Kind:     FailQuota,
				Err:      ErrQuotaExceeded,
			})
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		candidates, err := resolver.Search(callCtx, query, limit)
		cancel()

		if err == nil {
			return candidates, resolver.Name(), nil
		}

		kind := KindOf(err)
		if kind == FailQuota {
			c.startCooldown(resolver.Name())
		}
		log.Warnf("[Chain] Resolver %s failed (%s): %v", resolver.Name(), kind, err)
		attempts = append(attempts, &ResolveError{Resolver: resolver.Name(), Kind: kind, Err: err})

		// A cancelled parent context means the whole request is gone, not
		// just this resolver.
		if errors.Is(ctx.Err(), context.Canceled) {
			break
		}
	}

	return nil, "", &ChainError{Attempts: attempts}
}

func (c *Chain) coolingDown(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	until, ok := c.cooldownUntil[name]
	return ok && c.now().Before(until)
}

func (c *Chain) startCooldown(name string) {
	if c.cooldown <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cooldownUntil[name] = c.now().Add(c.cooldown)
}
