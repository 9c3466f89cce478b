package utils

import (
	"context"
	"encoding/json"
	"time"
)

const (
	defaultCacheTTL = time.Minute
	cacheOpTimeout  = 2 * time.Second

	// CacheKeyCatalog holds the encoded badge catalog envelope.
	CacheKeyCatalog = "cache:badges:catalog"
)

// SubjectCachePrefix is the prefix of every cached projection for one subject.
func SubjectCachePrefix(subjectID string) string {
	return "cache:subject:" + subjectID + ":"
}

// ProjectionKey names one cached view ("profile", "badges") of a subject.
func ProjectionKey(subjectID, view string) string {
	return SubjectCachePrefix(subjectID) + view
}

// CacheGet returns the bytes stored under key. Any Redis failure counts as a miss.
func CacheGet(ctx context.Context, key string) ([]byte, bool) {
	rc := GetRedis()
	if rc == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()
	b, err := rc.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

// CacheSet stores b under key for ttl, or for a minute when ttl <= 0.
func CacheSet(ctx context.Context, key string, b []byte, ttl time.Duration) {
	rc := GetRedis()
	if rc == nil {
		return
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()
	if err := rc.Set(ctx, key, b, ttl).Err(); err != nil {
		Sugar.Warnw("cache set failed", "key", key, "err", err)
	}
}

// CachedEnvelope returns the success envelope for key, building it with load on a miss.
// Load errors are returned as is and nothing is cached.
func CachedEnvelope(ctx context.Context, key string, ttl time.Duration, load func() (interface{}, error)) ([]byte, error) {
	if b, ok := CacheGet(ctx, key); ok {
		return b, nil
	}
	data, err := load()
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(JSONResponse{Code: 0, Message: "success", Data: data})
	if err != nil {
		return nil, err
	}
	CacheSet(ctx, key, b, ttl)
	return b, nil
}

// InvalidateSubject drops every cached projection of subjectID and reports how many keys went.
func InvalidateSubject(ctx context.Context, subjectID string) int {
	rc := GetRedis()
	if rc == nil {
		return 0
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var keys []string
	iter := rc.Scan(ctx, 0, SubjectCachePrefix(subjectID)+"*", 500).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		Sugar.Warnw("cache invalidate scan failed", "subject", subjectID, "err", err)
	}
	if len(keys) == 0 {
		return 0
	}
	n, err := rc.Del(ctx, keys...).Result()
	if err != nil {
		Sugar.Warnw("cache invalidate failed", "subject", subjectID, "err", err)
	}
	return int(n)
}
