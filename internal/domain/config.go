package domain

import "time"

type Config struct {
	APIURL              string        `mapstructure:"api_url"`
	PlayerURL           string        `mapstructure:"player_url"`
	AniSkipURL          string        `mapstructure:"aniskip_url"`
	EpisodesUpstreamURL string        `mapstructure:"episodes_upstream_url"`
	ListenAddr          string        `mapstructure:"listen_addr"`
	UserAgent           string        `mapstructure:"user_agent"`
	RequestRate         float64       `mapstructure:"request_rate"`
	Debounce            time.Duration `mapstructure:"debounce"`
	LatestLimit         int           `mapstructure:"latest_limit"`
	BrowseLimit         int           `mapstructure:"browse_limit"`
	DatabasePath        string        `mapstructure:"database_path"`
	DiscordWebhookURL   string        `mapstructure:"discord_webhook_url"`
	LogLevel            string        `mapstructure:"log_level"`
	LogPath             string        `mapstructure:"log_path"`
	LogMaxSizeMB        int           `mapstructure:"log_max_size_mb"`
	LogMaxBackups       int           `mapstructure:"log_max_backups"`
}
