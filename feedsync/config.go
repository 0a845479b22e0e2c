package feedsync

import "time"

const (
	DefaultPageSize        = 50
	DefaultPollInterval    = 2 * time.Second
	DefaultFetchTimeout    = 5 * time.Second
	DefaultBottomTolerance = 3
)

// Config tunes a Controller. Zero fields take the defaults above.
type Config struct {
	PageSize        int
	PollInterval    time.Duration
	FetchTimeout    time.Duration
	BottomTolerance int // Lines from the bottom still counted as "at bottom"
}

// DefaultConfig returns the stock polling configuration.
func DefaultConfig() Config {
	return Config{
		PageSize:        DefaultPageSize,
		PollInterval:    DefaultPollInterval,
		FetchTimeout:    DefaultFetchTimeout,
		BottomTolerance: DefaultBottomTolerance,
	}
}

func (c Config) withDefaults() Config {
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	if c.BottomTolerance < 0 {
		c.BottomTolerance = DefaultBottomTolerance
	}
	return c
}
