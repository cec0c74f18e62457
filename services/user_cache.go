package services

import (
	"sync"
	"time"

	"construction-tracking-api/config"
	"construction-tracking-api/models"

	"gorm.io/gorm"
)

// UserCache caches user display names for audit fields with a TTL. It is an
// explicit dependency passed into the components that need it, not a
// module-level singleton, and it exposes explicit invalidation for callers
// that mutate user rows.
type UserCache struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]cachedUser
}

type cachedUser struct {
	name      string
	expiresAt time.Time
}

func NewUserCache(db *gorm.DB, ttl time.Duration) *UserCache {
	if db == nil {
		db = config.DB
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &UserCache{
		db:      db,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedUser),
	}
}

// DisplayNameByEmail resolves the audit-facing name for an email, falling
// back to the email itself when no user row exists.
func (c *UserCache) DisplayNameByEmail(email string) string {
	if email == "" {
		return ""
	}

	c.mu.RLock()
	entry, ok := c.entries[email]
	c.mu.RUnlock()
	if ok && c.now().Before(entry.expiresAt) {
		return entry.name
	}

	name := email
	var user models.User
	err := c.db.Where("email = ? AND delete_at IS NULL", email).First(&user).Error
	if err == nil {
		name = user.DisplayName()
	}

	c.mu.Lock()
	c.entries[email] = cachedUser{name: name, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return name
}

// Prime stores an already-resolved display name, letting callers that hold
// the user row (the login path) warm the cache without a second lookup.
func (c *UserCache) Prime(email, name string) {
	if email == "" {
		return
	}
	c.mu.Lock()
	c.entries[email] = cachedUser{name: name, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Invalidate drops one cached entry.
func (c *UserCache) Invalidate(email string) {
	c.mu.Lock()
	delete(c.entries, email)
	c.mu.Unlock()
}

// Reset drops every cached entry.
func (c *UserCache) Reset() {
	c.mu.Lock()
	c.entries = make(map[string]cachedUser)
	c.mu.Unlock()
}
