package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
)

const opTimeout = 3 * time.Second

// sqlStore is shared by the sqlite and postgres backends. Queries are written
// with '?' placeholders and rebound for the driver.
type sqlStore struct {
	db     *sql.DB
	driver string
}

func (s *sqlStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqlStore) q(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) LoadPlayer(ctx context.Context, id string) (Player, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var p Player
	var updatedMs int64
	err := s.db.QueryRowContext(ctx, s.q(`SELECT id, chips, updated_at_ms FROM players WHERE id = ?`), id).
		Scan(&p.ID, &p.Chips, &updatedMs)
	if errors.Is(err, sql.ErrNoRows) {
		return Player{}, ErrNotFound
	}
	if err != nil {
		return Player{}, err
	}
	p.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	return p, nil
}

func (s *sqlStore) SavePlayer(ctx context.Context, p Player) error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrInvalidID
	}
	if p.Chips < 0 {
		return ErrNegativeChips
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, s.q(`
INSERT INTO players (id, chips, updated_at_ms) VALUES (?, ?, ?)
ON CONFLICT (id) DO UPDATE SET chips = excluded.chips, updated_at_ms = excluded.updated_at_ms`),
		p.ID, p.Chips, time.Now().UTC().UnixMilli())
	if err != nil {
		log.Printf("[Store] save player %s failed: %v", p.ID, err)
	}
	return err
}

func (s *sqlStore) AppendHand(ctx context.Context, h HandRecord) error {
	if strings.TrimSpace(h.HandID) == "" {
		return ErrInvalidID
	}
	if h.PlayedAt.IsZero() {
		h.PlayedAt = time.Now().UTC()
	}
	winners, err := json.Marshal(nonNilStrings(h.Winners))
	if err != nil {
		return err
	}
	payouts, err := json.Marshal(h.Payouts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.q(`
INSERT INTO hands (hand_id, table_id, played_at_ms, pot, winners_json, payouts_json, tape)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (hand_id) DO UPDATE SET
    table_id = excluded.table_id,
    played_at_ms = excluded.played_at_ms,
    pot = excluded.pot,
    winners_json = excluded.winners_json,
    payouts_json = excluded.payouts_json,
    tape = excluded.tape`),
		h.HandID, h.TableID, h.PlayedAt.UnixMilli(), h.Pot, string(winners), string(payouts), h.Tape,
	); err != nil {
		log.Printf("[Store] append hand %s failed: %v", h.HandID, err)
		return err
	}
	if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM hand_players WHERE hand_id = ?`), h.HandID); err != nil {
		return err
	}
	for seat, id := range h.Players {
		if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO hand_players (hand_id, player_id, seat) VALUES (?, ?, ?)`),
			h.HandID, id, seat); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *sqlStore) GetHand(ctx context.Context, handID string) (HandRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	h, err := scanHand(s.db.QueryRowContext(ctx, s.q(`
SELECT hand_id, table_id, played_at_ms, pot, winners_json, payouts_json, tape
FROM hands WHERE hand_id = ?`), handID))
	if errors.Is(err, sql.ErrNoRows) {
		return HandRecord{}, ErrNotFound
	}
	if err != nil {
		return HandRecord{}, err
	}
	if h.Players, err = s.handPlayers(ctx, handID); err != nil {
		return HandRecord{}, err
	}
	return h, nil
}

func (s *sqlStore) ListHands(ctx context.Context, playerID string, limit int) ([]HandRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, s.q(`
SELECT h.hand_id, h.table_id, h.played_at_ms, h.pot, h.winners_json, h.payouts_json, h.tape
FROM hands h
JOIN hand_players hp ON hp.hand_id = h.hand_id
WHERE hp.player_id = ?
ORDER BY h.played_at_ms DESC, h.hand_id DESC
LIMIT ?`), playerID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]HandRecord, 0)
	for rows.Next() {
		h, err := scanHand(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Players, err = s.handPlayers(ctx, out[i].HandID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *sqlStore) handPlayers(ctx context.Context, handID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT player_id FROM hand_players WHERE hand_id = ? ORDER BY seat`), handID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *sqlStore) LoadAccount(ctx context.Context, username string) (Account, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var a Account
	var createdMs int64
	err := s.db.QueryRowContext(ctx, s.q(`SELECT username, password_hash, created_at_ms FROM accounts WHERE username = ?`), username).
		Scan(&a.Username, &a.PasswordHash, &createdMs)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, err
	}
	a.CreatedAt = time.UnixMilli(createdMs).UTC()
	return a, nil
}

func (s *sqlStore) CreateAccount(ctx context.Context, a Account) error {
	if strings.TrimSpace(a.Username) == "" {
		return ErrInvalidID
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, s.q(`
INSERT INTO accounts (username, password_hash, created_at_ms) VALUES (?, ?, ?)
ON CONFLICT (username) DO NOTHING`),
		a.Username, a.PasswordHash, a.CreatedAt.UnixMilli())
	if err != nil {
		log.Printf("[Store] create account %s failed: %v", a.Username, err)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAccountExists
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHand(row rowScanner) (HandRecord, error) {
	var (
		h                     HandRecord
		playedMs              int64
		winnersRaw, payoutRaw string
	)
	if err := row.Scan(&h.HandID, &h.TableID, &playedMs, &h.Pot, &winnersRaw, &payoutRaw, &h.Tape); err != nil {
		return HandRecord{}, err
	}
	h.PlayedAt = time.UnixMilli(playedMs).UTC()
	if err := json.Unmarshal([]byte(winnersRaw), &h.Winners); err != nil {
		return HandRecord{}, fmt.Errorf("decode winners of %s: %w", h.HandID, err)
	}
	if err := json.Unmarshal([]byte(payoutRaw), &h.Payouts); err != nil {
		return HandRecord{}, fmt.Errorf("decode payouts of %s: %w", h.HandID, err)
	}
	return h, nil
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
