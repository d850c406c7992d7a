package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const defaultLocalDBName = "holdem_local.db"

func NewSQLiteStore(dbPath string) (Store, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// 单连接，:memory: 库也只存在于这一条连接上
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqlStore{db: db, driver: "sqlite"}, nil
}

var sqliteSchema = []string{
	`
CREATE TABLE IF NOT EXISTS players (
    id TEXT PRIMARY KEY,
    chips INTEGER NOT NULL,
    updated_at_ms INTEGER NOT NULL
)`,
	`
CREATE TABLE IF NOT EXISTS hands (
    hand_id TEXT PRIMARY KEY,
    table_id TEXT NOT NULL DEFAULT '',
    played_at_ms INTEGER NOT NULL,
    pot INTEGER NOT NULL,
    winners_json TEXT NOT NULL DEFAULT '[]',
    payouts_json TEXT NOT NULL DEFAULT '{}',
    tape BLOB
)`,
	`
CREATE TABLE IF NOT EXISTS hand_players (
    hand_id TEXT NOT NULL REFERENCES hands(hand_id) ON DELETE CASCADE,
    player_id TEXT NOT NULL,
    seat INTEGER NOT NULL,
    PRIMARY KEY (hand_id, player_id)
)`,
	`
CREATE TABLE IF NOT EXISTS accounts (
    username TEXT PRIMARY KEY,
    password_hash BLOB NOT NULL,
    created_at_ms INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_hand_players_player ON hand_players(player_id)`,
	`CREATE INDEX IF NOT EXISTS idx_hands_played_at ON hands(played_at_ms DESC)`,
}

func ensureSchema(ctx context.Context, db *sql.DB, statements []string) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func localDatabasePathFromEnv() (string, error) {
	if v := strings.TrimSpace(os.Getenv("SQLITE_PATH")); v != "" {
		if v == ":memory:" {
			return v, nil
		}
		return filepath.Clean(v), nil
	}
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userConfigDir, "holdem-engine", defaultLocalDBName), nil
}
