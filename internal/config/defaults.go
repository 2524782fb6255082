package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Upstream.Endpoint == "" {
		cfg.Upstream.Endpoint = "http://localhost:3000/graphql"
	}
	if cfg.Upstream.TimeoutSeconds == 0 {
		cfg.Upstream.TimeoutSeconds = 10
	}
	if cfg.Upstream.RateLimit == 0 {
		cfg.Upstream.RateLimit = 5
	}
	if cfg.Upstream.RateBurst == 0 {
		cfg.Upstream.RateBurst = 10
	}
	if cfg.Search.ResultLimit == 0 {
		cfg.Search.ResultLimit = 10
	}
	if cfg.Search.Fuzziness == 0 {
		cfg.Search.Fuzziness = 2
	}
	if cfg.Search.RefreshIntervalSeconds == 0 {
		cfg.Search.RefreshIntervalSeconds = 300
	}
	if cfg.Schedules.PollIntervalSeconds == 0 {
		cfg.Schedules.PollIntervalSeconds = 15
	}
	// Three missed poll intervals before a row's poller is reaped.
	if cfg.Schedules.IdleTTLSeconds == 0 {
		cfg.Schedules.IdleTTLSeconds = 3 * cfg.Schedules.PollIntervalSeconds
	}
	if cfg.Cache.DatabasePath == "" {
		cfg.Cache.DatabasePath = "/usr/local/var/dagit/data/snapshots.db"
	}
}
