package helpers

import (
	"time"

	"github.com/rs/zerolog/log"
)

// ParseDuration parses a duration string, falling back to def when the
// string is empty or malformed.
func ParseDuration(durationStr string, def time.Duration) time.Duration {
	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		log.Warn().Err(err).Str("value", durationStr).Dur("default", def).Msg("Failed to parse duration string, using default")
		return def
	}
	return duration
}
