// Package config loads workweave settings from workweave.yaml and the
// environment. Environment variables (WORKWEAVE_JIRA_DOMAIN, ...) take
// precedence over the file.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/workweave/workweave/internal/notification"
	"github.com/workweave/workweave/internal/tracker"
)

// Config is the resolved runtime configuration.
type Config struct {
	Jira struct {
		Domain   string `mapstructure:"domain"`
		Email    string `mapstructure:"email"`
		APIToken string `mapstructure:"api_token"`
	} `mapstructure:"jira"`

	Workspace string `mapstructure:"workspace"`
	Space     string `mapstructure:"space"`

	Database struct {
		// Path to the sqlite file; ":memory:" keeps everything in process.
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`

	Notify struct {
		WebhookURL string              `mapstructure:"webhook_url"`
		Routes     map[string][]string `mapstructure:"routes"`
	} `mapstructure:"notify"`
}

// Load reads workweave.yaml from path (or the search path when empty) and
// applies environment overrides. A missing file is fine; env-only setups
// are supported.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("workweave")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.workweave")
	}

	v.SetEnvPrefix("WORKWEAVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database.path", "workweave.db")

	if err := v.ReadInConfig(); err != nil {
		// An explicit path must exist; the search path may come up empty.
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// AutomaticEnv only resolves keys viper already knows about, so bind
	// the ones we read explicitly.
	for _, key := range []string{
		"jira.domain", "jira.email", "jira.api_token",
		"workspace", "space",
		"database.path", "notify.webhook_url",
	} {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Credentials returns the tracker credentials from the Jira section.
func (c *Config) Credentials() tracker.Credentials {
	return tracker.Credentials{
		Domain:   c.Jira.Domain,
		Email:    c.Jira.Email,
		APIToken: c.Jira.APIToken,
	}
}

// NotificationConfig returns the dispatcher configuration, nil when no
// notification settings are present.
func (c *Config) NotificationConfig() *notification.Config {
	if c.Notify.WebhookURL == "" && len(c.Notify.Routes) == 0 {
		return nil
	}
	return &notification.Config{
		Routes:     c.Notify.Routes,
		WebhookURL: c.Notify.WebhookURL,
	}
}
