package constants

import (
	"fmt"
	"time"
)

// Redis cache keys and TTLs.
// Pattern: easybus:{module}:{operation}:{identifier}

const (
	CACHE_PREFIX = "easybus"
)

// Dynamic data (short TTL)
const (
	TTL_REALTIME_SHORT = 30 * time.Second // live seat maps
	TTL_STATIC_SHORT   = 6 * time.Hour    // reference data such as cities
)

// ================== SEATS MODULE ==================

const (
	CACHE_KEY_SEAT_MAP       = CACHE_PREFIX + ":seats:map:schedule:" // + schedule-id:v{epoch}:v{gen}
	CACHE_KEY_SEAT_MAP_GEN   = CACHE_PREFIX + ":seats:map:gen:"      // + schedule-id
	CACHE_KEY_SEAT_MAP_EPOCH = CACHE_PREFIX + ":seats:map:epoch"     // bumped by the release sweep
)

// ================== FLEET MODULE ==================

const (
	CACHE_KEY_CITIES_ALL = CACHE_PREFIX + ":fleet:cities:all"
	CACHE_KEY_CITIES_GEN = CACHE_PREFIX + ":fleet:cities:gen"
)

// ================== RATE LIMIT ==================

const (
	CACHE_KEY_RATE_LIMIT = CACHE_PREFIX + ":ratelimit:" // + ip:type
)

// BuildSeatMapKey returns the seat map cache key of a schedule
func BuildSeatMapKey(scheduleID string) string {
	return CACHE_KEY_SEAT_MAP + scheduleID
}

// BuildSeatMapGenKey returns the counter every write to the schedule's seats bumps
func BuildSeatMapGenKey(scheduleID string) string {
	return CACHE_KEY_SEAT_MAP_GEN + scheduleID
}

// BuildRateLimitKey returns the sliding-window key for a client and route class
func BuildRateLimitKey(clientIP, limitType string) string {
	return fmt.Sprintf("%s%s:%s", CACHE_KEY_RATE_LIMIT, clientIP, limitType)
}
