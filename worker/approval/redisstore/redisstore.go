// Package redisstore persists allowAlways approval decisions in Redis so
// they survive process restarts, the way the teacher's registry package
// persists tool-result routing state in Redis for cross-node lookup
// (registry.ResultStreamManager).
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/zby/golem-forge-sub002/worker/approval"
)

// Store backs approval.Memory with a Redis hash, so allowAlways decisions
// recorded by one process are visible to another sharing the same Redis
// instance. DecisionAllowSession entries are intentionally never written
// here: session memory is process-scoped by definition (spec §3).
type Store struct {
	rdb *redis.Client
	key string
}

// New constructs a Store backed by rdb, storing decisions under a single
// Redis hash named key (for example "worker:approvals").
func New(rdb *redis.Client, key string) (*Store, error) {
	if rdb == nil {
		return nil, errors.New("redisstore: redis client is required")
	}
	if key == "" {
		key = "worker:approvals"
	}
	return &Store{rdb: rdb, key: key}, nil
}

// Lookup implements approval.Memory.
func (s *Store) Lookup(fingerprint string) (approval.Decision, bool) {
	val, err := s.rdb.HGet(context.Background(), s.key, fingerprint).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		return "", false
	}
	return approval.Decision(val), true
}

// Remember implements approval.Memory. Only DecisionAllowAlways is
// persisted; callers should layer an in-memory approval.Memory on top for
// DecisionAllowSession via a composite, since allowSession must not
// outlive the process.
func (s *Store) Remember(fingerprint string, decision approval.Decision) {
	if decision != approval.DecisionAllowAlways {
		return
	}
	_ = s.rdb.HSet(context.Background(), s.key, fingerprint, string(decision)).Err()
}

// Composite layers an in-process Memory in front of a durable Store:
// lookups check the fast in-process cache first, falling back to Redis;
// writes go to both so a restart recovers allowAlways decisions while
// allowSession decisions stay process-local.
type Composite struct {
	Session approval.Memory
	Durable *Store
}

// Lookup checks Session first, then Durable.
func (c *Composite) Lookup(fingerprint string) (approval.Decision, bool) {
	if d, ok := c.Session.Lookup(fingerprint); ok {
		return d, true
	}
	return c.Durable.Lookup(fingerprint)
}

// Remember writes allowSession decisions to Session only, and allowAlways
// decisions to both, so a subsequent Lookup hits the fast path.
func (c *Composite) Remember(fingerprint string, decision approval.Decision) {
	c.Session.Remember(fingerprint, decision)
	if decision == approval.DecisionAllowAlways {
		c.Durable.Remember(fingerprint, decision)
	}
}

var _ approval.Memory = (*Store)(nil)
var _ approval.Memory = (*Composite)(nil)

// Ping verifies Redis connectivity, useful at startup before wiring a
// Store into a Controller.
func Ping(ctx context.Context, rdb *redis.Client) error {
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redisstore: ping: %w", err)
	}
	return nil
}
