package cache

import (
	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/hotelbook/booking-server/pkg/server/model"
)

// Cache is the cache for records which never change once created.
type Cache struct {
	users cmap.ConcurrentMap[string, *model.User]
}

// NewCache creates a new Cache.
func NewCache() *Cache {
	return &Cache{
		users: cmap.New[*model.User](),
	}
}

// Reset resets the cache.
func (c *Cache) Reset() {
	c.users.Clear()
}

// SaveUser saves a user to the cache.
func (c *Cache) SaveUser(user *model.User) {
	c.users.Set(user.UID, user)
}

// User returns the user with the given uid, or nil if it is not cached.
func (c *Cache) User(uid string) *model.User {
	user, ok := c.users.Get(uid)
	if !ok {
		return nil
	}
	return user
}

// UserCount returns the count of users in the cache.
func (c *Cache) UserCount() int {
	return c.users.Count()
}
