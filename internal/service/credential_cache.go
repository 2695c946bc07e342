package service

import (
	"context"
	"sync"
	"time"

	"avigram/internal/constants"
	"avigram/internal/errors"
	"avigram/pkg/marketplace/types"

	"github.com/sirupsen/logrus"
)

type credentialKey struct {
	clientID     string
	clientSecret string
}

type cacheEntry struct {
	token     string
	expiresAt time.Time
}

// CredentialCache holds short-lived marketplace access tokens keyed by
// client credentials. Entries are refreshed in place on expiry; concurrent
// refreshes for the same key may race, which is tolerated because token
// reuse has no destructive side effect.
type CredentialCache struct {
	gateway types.Client
	now     func() time.Time
	logger  *logrus.Logger
	mu      sync.RWMutex
	entries map[credentialKey]cacheEntry
}

func NewCredentialCache(gateway types.Client, logger *logrus.Logger) *CredentialCache {
	return NewCredentialCacheWithClock(gateway, logger, time.Now)
}

// NewCredentialCacheWithClock injects the time source, used by tests to
// drive expiry deterministically.
func NewCredentialCacheWithClock(gateway types.Client, logger *logrus.Logger, now func() time.Time) *CredentialCache {
	return &CredentialCache{
		gateway: gateway,
		now:     now,
		logger:  logger,
		entries: make(map[credentialKey]cacheEntry),
	}
}

// Acquire returns a live access token for the given credentials, calling the
// gateway's authenticate operation only on a miss or past expiry. A token is
// never returned at or past its expiry instant.
func (c *CredentialCache) Acquire(ctx context.Context, clientID, clientSecret string) (string, error) {
	key := credentialKey{clientID: clientID, clientSecret: clientSecret}

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && c.now().Before(entry.expiresAt) {
		return entry.token, nil
	}

	resp, err := c.gateway.Authenticate(ctx, clientID, clientSecret)
	if err != nil {
		return "", errors.NewAuthError(clientID, err)
	}

	lifetime := resp.ExpiresIn
	if lifetime <= 0 {
		lifetime = constants.DefaultTokenLifetimeSec
	}

	entry = cacheEntry{
		token:     resp.AccessToken,
		expiresAt: c.now().Add(time.Duration(lifetime) * time.Second),
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"clientId":  clientID,
		"expiresAt": entry.expiresAt,
	}).Debug("Refreshed marketplace access token")

	return entry.token, nil
}
