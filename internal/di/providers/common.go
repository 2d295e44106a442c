package providers

import "time"

const (
	// defaultShutdownTimeout bounds graceful shutdown when the config leaves it unset.
	defaultShutdownTimeout = 30 * time.Second
)

func shutdownTimeout(configured time.Duration) time.Duration {
	if configured <= 0 {
		return defaultShutdownTimeout
	}
	return configured
}
