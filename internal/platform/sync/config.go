package sync

import (
	"errors"
	"time"
)

// Config holds configuration for one ingestion run
type Config struct {
	// Addresses are the owned addresses to download, in request order
	Addresses []string

	// FetchBalances enables the native balance snapshot of every address
	FetchBalances bool

	// Now returns the snapshot time; defaults to time.Now
	Now func() time.Time
}

// DefaultConfig returns the default ingestion configuration
func DefaultConfig(addresses []string) *Config {
	return &Config{
		Addresses:     addresses,
		FetchBalances: true,
		Now:           time.Now,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.Addresses) == 0 {
		return errors.New("at least one address must be configured")
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return nil
}
