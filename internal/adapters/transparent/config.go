package transparent

import (
	"errors"
	"sync"
)

// ErrMissingConfiguration is returned when a request is attempted before an API key is set.
var ErrMissingConfiguration = errors.New("transparent: apikey not configured")

// Configuration holds process-wide settings for the API. Set it once at startup
// and hand the same value to every client; Reset exists for tests.
type Configuration struct {
	mu     sync.RWMutex
	apikey string
	set    bool
}

func NewConfiguration(apikey string) *Configuration {
	c := &Configuration{}
	if apikey != "" {
		c.SetAPIKey(apikey)
	}
	return c
}

// SetAPIKey overwrites the key; last write wins.
func (c *Configuration) SetAPIKey(key string) {
	c.mu.Lock()
	c.apikey, c.set = key, true
	c.mu.Unlock()
}

func (c *Configuration) APIKey() (string, error) {
	if c == nil {
		return "", ErrMissingConfiguration
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.set {
		return "", ErrMissingConfiguration
	}
	return c.apikey, nil
}

func (c *Configuration) Reset() {
	c.mu.Lock()
	c.apikey, c.set = "", false
	c.mu.Unlock()
}
