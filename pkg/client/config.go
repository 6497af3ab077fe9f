package client

import "time"

// Config holds settings for the CRM API client.
type Config struct {
	// BaseURL is the API root, e.g. http://localhost:8080
	BaseURL string `yaml:"base_url" json:"base_url"`
	// Timeout is the per-request timeout; zero leaves it to the transport
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// UserAgent is sent on every request when set
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// DefaultConfig returns a configuration pointing at a local server.
func DefaultConfig() Config {
	return Config{
		BaseURL:   "http://localhost:8080",
		Timeout:   10 * time.Second,
		UserAgent: "crmctl",
	}
}
