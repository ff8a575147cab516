package utils

import (
	"os"
	"strconv"
	"time"
)

// GetCacheLifespan reads CACHE_LIFESPAN in minutes (default 60).
func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil || lifespan <= 0 {
		lifespan = 60
	}
	return time.Duration(lifespan) * time.Minute
}
