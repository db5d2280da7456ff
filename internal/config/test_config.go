package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	def := defaultConfig()
	return &Config{
		Client: ClientConfig{
			Endpoint:  "http://127.0.0.1:0/api/news",
			UserAgent: "newsmap-test/1.0",
		},
		Relay: RelayConfig{
			Addr:        "127.0.0.1:0",
			Mode:        "script",
			Script:      []string{"true"},
			MaxRecords:  10,
			CORSOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Path:    ":memory:",
			Timeout: 1 * time.Second,
		},
		Map:   def.Map,
		Share: def.Share,
		Lang: LangConfig{
			DefaultLanguage:     "en",
			ConfidenceThreshold: 0.6,
		},
		UI:   def.UI,
		Keys: def.Keys,
		Log:  LogConfig{Level: "off"},
	}
}
