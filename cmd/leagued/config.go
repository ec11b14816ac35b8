package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the daemon configuration. Values load from an optional YAML
// file, then environment variables override field by field.
type Config struct {
	HTTPAddr       string   `yaml:"http_addr"`
	GatewayAddr    string   `yaml:"gateway_addr"`
	WebhookSecret  string   `yaml:"webhook_secret"`
	NATSURL        string   `yaml:"nats_url"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	LogLevel       string   `yaml:"log_level"`
	AdminUsers     []string `yaml:"admin_users"`
	StaffUsers     []string `yaml:"staff_users"`
}

func defaultConfig() Config {
	return Config{
		HTTPAddr:       ":8080",
		GatewayAddr:    ":8081",
		NATSURL:        "nats://localhost:4222",
		AllowedOrigins: []string{"*"},
		LogLevel:       "info",
	}
}

// LoadConfig reads .env (when present), then the YAML file named by
// LEAGUE_CONFIG (when present), then environment overrides.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv("LEAGUE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("GATEWAY_ADDR"); v != "" {
		cfg.GatewayAddr = v
	}
	if v := os.Getenv("WEBHOOK_SECRET"); v != "" {
		cfg.WebhookSecret = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATSURL = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("ADMIN_USERS"); v != "" {
		cfg.AdminUsers = splitList(v)
	}
	if v := os.Getenv("STAFF_USERS"); v != "" {
		cfg.StaffUsers = splitList(v)
	}

	if cfg.WebhookSecret == "" {
		return cfg, fmt.Errorf("webhook secret is required (WEBHOOK_SECRET)")
	}
	return cfg, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
