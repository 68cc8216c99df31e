package config

import "os"

// Config holds service settings read from the environment at startup.
// It is immutable after startup; request handlers only read it.
type Config struct {
	// APIServerURL is the base URL of the warehouse inventory service.
	APIServerURL string
	// AgentAPIToken is the bearer token for the inventory service. Empty
	// means requests are sent unauthenticated.
	AgentAPIToken string
}

// DefaultAPIServerURL is used when API_SERVER_URL is not set.
const DefaultAPIServerURL = "http://localhost:8080"

// FromEnv reads the configuration from environment variables.
func FromEnv() *Config {
	return &Config{
		APIServerURL:  envOrDefault("API_SERVER_URL", DefaultAPIServerURL),
		AgentAPIToken: os.Getenv("AGENT_API_TOKEN"),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
