package memory

import (
	"time"

	"mindstorm-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

// SessionCache keeps slug lookups off the database. Entries are dropped when a session ends.
type SessionCache struct {
	cache *cache.Cache
}

func NewSessionCache() *SessionCache {
	// Expire after 1 hour, purge every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionCache{
		cache: c,
	}
}

func (r *SessionCache) Save(session *entity.Session) {
	cp := *session
	r.cache.Set(session.Slug, &cp, cache.DefaultExpiration)
}

func (r *SessionCache) Get(slug string) (*entity.Session, bool) {
	if x, found := r.cache.Get(slug); found {
		cp := *x.(*entity.Session)
		return &cp, true
	}
	return nil, false
}

func (r *SessionCache) Delete(slug string) {
	r.cache.Delete(slug)
}
