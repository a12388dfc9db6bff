package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/varoOP/anistream/internal/domain"
)

// Defaults for every configuration key.
var Defaults = map[string]any{
	"api_url":               "https://api.openani.me",
	"player_url":            "https://do7---ha-k8y3jyfa-8gcx.zyapbot.eu.org",
	"aniskip_url":           "https://api.aniskip.com/v2",
	"episodes_upstream_url": "",
	"listen_addr":           ":8080",
	"user_agent":            "anistream",
	"request_rate":          0.0,
	"debounce":              800 * time.Millisecond,
	"latest_limit":          32,
	"browse_limit":          50,
	"database_path":         "",
	"discord_webhook_url":   "",
	"log_level":             "info",
	"log_path":              "",
	"log_max_size_mb":       10,
	"log_max_backups":       3,
}

// SetDefaults registers Defaults on v.
func SetDefaults(v *viper.Viper) {
	for key, value := range Defaults {
		v.SetDefault(key, value)
	}
}

// Load loads configuration from multiple sources:
// 1. Config file (config.yaml, optional)
// 2. Environment variables (ANISTREAM_*)
// 3. Defaults
func Load() (*domain.Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*domain.Config, error) {
	SetDefaults(v)

	cfg := &domain.Config{
		APIURL:              strings.TrimRight(v.GetString("api_url"), "/"),
		PlayerURL:           strings.TrimRight(v.GetString("player_url"), "/"),
		AniSkipURL:          strings.TrimRight(v.GetString("aniskip_url"), "/"),
		EpisodesUpstreamURL: strings.TrimRight(v.GetString("episodes_upstream_url"), "/"),
		ListenAddr:          v.GetString("listen_addr"),
		UserAgent:           v.GetString("user_agent"),
		RequestRate:         v.GetFloat64("request_rate"),
		Debounce:            v.GetDuration("debounce"),
		LatestLimit:         v.GetInt("latest_limit"),
		BrowseLimit:         v.GetInt("browse_limit"),
		DatabasePath:        v.GetString("database_path"),
		DiscordWebhookURL:   v.GetString("discord_webhook_url"),
		LogLevel:            v.GetString("log_level"),
		LogPath:             v.GetString("log_path"),
		LogMaxSizeMB:        v.GetInt("log_max_size_mb"),
		LogMaxBackups:       v.GetInt("log_max_backups"),
	}

	if cfg.EpisodesUpstreamURL == "" {
		cfg.EpisodesUpstreamURL = cfg.APIURL
	}

	// Validate URLs
	for key, value := range map[string]string{
		"api_url":               cfg.APIURL,
		"player_url":            cfg.PlayerURL,
		"aniskip_url":           cfg.AniSkipURL,
		"episodes_upstream_url": cfg.EpisodesUpstreamURL,
	} {
		if err := validateURL(value); err != nil {
			return nil, fmt.Errorf("invalid %s: %w (set via config.yaml or ANISTREAM_%s environment variable)", key, err, strings.ToUpper(key))
		}
	}
	if cfg.DiscordWebhookURL != "" {
		if err := validateURL(cfg.DiscordWebhookURL); err != nil {
			return nil, fmt.Errorf("invalid discord_webhook_url: %w", err)
		}
	}

	if cfg.RequestRate < 0 {
		return nil, fmt.Errorf("request_rate must not be negative, got %v", cfg.RequestRate)
	}
	if cfg.Debounce < 0 {
		return nil, fmt.Errorf("debounce must not be negative, got %s", cfg.Debounce)
	}
	if cfg.LatestLimit <= 0 {
		return nil, fmt.Errorf("latest_limit must be positive, got %d", cfg.LatestLimit)
	}
	if cfg.BrowseLimit <= 0 {
		return nil, fmt.Errorf("browse_limit must be positive, got %d", cfg.BrowseLimit)
	}

	return cfg, nil
}

func validateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("value is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is missing in %q", raw)
	}
	return nil
}
