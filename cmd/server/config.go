package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"holdem-engine/internal/auth"
	"holdem-engine/internal/table"
)

type serverConfig struct {
	Addr       string
	StoreMode  string
	Personas   string // optional persona JSON file
	SessionTTL time.Duration
	Table      table.Config
}

func loadConfig() (serverConfig, error) {
	cfg := serverConfig{
		Addr:      envOrDefault("HOLDEM_ADDR", ":8080"),
		StoreMode: envOrDefault("STORE_MODE", "memory"),
		Personas:  strings.TrimSpace(os.Getenv("NPC_PERSONAS")),
		Table:     table.DefaultConfig(),
	}
	cfg.Table.DefaultChips = envInt64OrDefault("DEFAULT_CHIPS", cfg.Table.DefaultChips)
	cfg.Table.SmallBlind = envInt64OrDefault("SMALL_BLIND", cfg.Table.SmallBlind)
	cfg.Table.BigBlind = envInt64OrDefault("BIG_BLIND", cfg.Table.BigBlind)

	var err error
	if cfg.Table.ActionTimeout, err = envDurationOrDefault("ACTION_TIMEOUT", cfg.Table.ActionTimeout); err != nil {
		return cfg, err
	}
	if cfg.Table.HandDelay, err = envDurationOrDefault("HAND_DELAY", 0); err != nil {
		return cfg, err
	}
	if cfg.SessionTTL, err = envDurationOrDefault("AUTH_SESSION_TTL", auth.DefaultSessionTTL); err != nil {
		return cfg, err
	}
	if cfg.Table.SmallBlind > cfg.Table.BigBlind {
		return cfg, fmt.Errorf("SMALL_BLIND %d exceeds BIG_BLIND %d", cfg.Table.SmallBlind, cfg.Table.BigBlind)
	}
	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt64OrDefault(key string, fallback int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// envDurationOrDefault accepts Go durations ("30s") or plain seconds ("30").
func envDurationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
