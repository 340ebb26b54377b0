package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultPluginName        = "ZohoFlowIntegration"
	defaultSettingsCacheTTL  = 30 * time.Second
	defaultResponseBodyLimit = 10 << 20 // 10 MiB
)

type TransportConfig struct {
	// InsecureSkipVerify disables TLS certificate verification on outbound
	// deliveries. It defaults to true to match the behavior hosts already rely on.
	InsecureSkipVerify   bool  `koanf:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
	MaxResponseBodyBytes int64 `koanf:"max_response_body_bytes" mapstructure:"max_response_body_bytes"`
}

type SettingsConfig struct {
	CacheTTL time.Duration `koanf:"cache_ttl" mapstructure:"cache_ttl"`
}

type ResponsesConfig struct {
	TablePrefix string `koanf:"table_prefix" mapstructure:"table_prefix"`
}

type Config struct {
	PluginName string          `koanf:"plugin_name" mapstructure:"plugin_name"`
	Transport  TransportConfig `koanf:"transport" mapstructure:"transport"`
	Settings   SettingsConfig  `koanf:"settings" mapstructure:"settings"`
	Responses  ResponsesConfig `koanf:"responses" mapstructure:"responses"`
}

func DefaultConfig() Config {
	return Config{
		PluginName: DefaultPluginName,
		Transport: TransportConfig{
			InsecureSkipVerify:   true,
			MaxResponseBodyBytes: defaultResponseBodyLimit,
		},
		Settings: SettingsConfig{
			CacheTTL: defaultSettingsCacheTTL,
		},
		Responses: ResponsesConfig{
			TablePrefix: "lime_",
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.PluginName) == "" {
		return fmt.Errorf("core: plugin_name is required")
	}
	if c.Transport.MaxResponseBodyBytes < 0 {
		return fmt.Errorf("core: transport.max_response_body_bytes must be >= 0")
	}
	if c.Settings.CacheTTL < 0 {
		return fmt.Errorf("core: settings.cache_ttl must be >= 0")
	}
	return nil
}
