package common

import (
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
)

type Cache struct {
	*cache.Cache
}

func NewCache(expirationTime, cleanupTime time.Duration) *Cache {
	return &Cache{cache.New(expirationTime, cleanupTime)}
}

func (c *Cache) Set(key string, value interface{}, expiration ...time.Duration) {
	if len(expiration) > 0 {
		c.Cache.Set(key, value, expiration[0])
		return
	}
	c.Cache.Set(key, value, cache.DefaultExpiration)
}

func (c *Cache) Get(key string) (interface{}, bool) {
	return c.Cache.Get(key)
}

func (c *Cache) Flush() {
	c.Cache.Flush()
}

func CacheKeyPublishedBlogs(limit, offset int) string {
	return "published_blogs:" + strconv.Itoa(limit) + ":" + strconv.Itoa(offset)
}

func CacheKeyTrendingBlogs(limit int) string {
	return "trending_blogs:" + strconv.Itoa(limit)
}

func CacheKeyUserByAccessToken(token []byte) string {
	return "user_by_access_token:" + string(token)
}

// CacheKeyAccessTokenByUser is the reverse index: it lets auth mutations
// keyed by user id find and drop the token-keyed entry above.
func CacheKeyAccessTokenByUser(userId int) string {
	return "access_token_by_user:" + strconv.Itoa(userId)
}
