// Package sqlite provides a SQLite-backed ledger.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"spinwheel/internal/storage"
	"spinwheel/internal/storage/sqlite/migrations"
)

const (
	tablePlayers      = "players"
	tableTransactions = "transactions"
	tableSpins        = "spins"
)

var spinColumns = []string{
	"id", "table_id", "player_id", "sector_index", "label", "payout",
	"server_seed_hash", "client_seed", "nonce", "draw", "created_at",
}

// Store persists wheel activity in SQLite.
type Store struct {
	db *sql.DB
}

var _ storage.Ledger = (*Store)(nil)

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

func nullMillis(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UTC().UnixMilli(), Valid: true}
}

// Open opens the database at path and applies the embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer at a time keeps SQLite from returning SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SavePlayer inserts the player or updates its balance, spins and departure.
func (s *Store) SavePlayer(ctx context.Context, p storage.Player) error {
	if p.ID == "" {
		return fmt.Errorf("player id is required")
	}
	created := toMillis(p.CreatedAt)
	updated := toMillis(p.UpdatedAt)
	query := sq.Insert(tablePlayers).
		Columns("id", "table_id", "username", "balance", "spins", "created_at", "updated_at", "left_at").
		Values(p.ID, p.TableID, p.Username, p.Balance, p.Spins, created, updated, nullMillis(p.LeftAt)).
		Suffix("ON CONFLICT(id) DO UPDATE SET username = excluded.username, balance = excluded.balance, " +
			"spins = excluded.spins, updated_at = excluded.updated_at, left_at = excluded.left_at")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("save player: %w", err)
	}
	return nil
}

// GetPlayer returns storage.ErrNotFound for an unknown id.
func (s *Store) GetPlayer(ctx context.Context, id string) (storage.Player, error) {
	query := sq.Select("id", "table_id", "username", "balance", "spins", "created_at", "updated_at", "left_at").
		From(tablePlayers).
		Where(sq.Eq{"id": id})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return storage.Player{}, err
	}
	var (
		p                storage.Player
		created, updated int64
		left             sql.NullInt64
	)
	err = s.db.QueryRowContext(ctx, sqlStr, args...).
		Scan(&p.ID, &p.TableID, &p.Username, &p.Balance, &p.Spins, &created, &updated, &left)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Player{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Player{}, fmt.Errorf("get player: %w", err)
	}
	p.CreatedAt = fromMillis(created)
	p.UpdatedAt = fromMillis(updated)
	if left.Valid {
		p.LeftAt = fromMillis(left.Int64)
	}
	return p, nil
}

// RecordTransaction appends a balance movement.
func (s *Store) RecordTransaction(ctx context.Context, tx storage.Transaction) error {
	query := sq.Insert(tableTransactions).
		Columns("id", "player_id", "amount", "kind", "created_at").
		Values(tx.ID, tx.PlayerID, tx.Amount, tx.Kind, toMillis(tx.CreatedAt))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("record transaction: %w", err)
	}
	return nil
}

// RecordSpin appends a settled spin.
func (s *Store) RecordSpin(ctx context.Context, sp storage.Spin) error {
	query := sq.Insert(tableSpins).
		Columns(spinColumns...).
		Values(sp.ID, sp.TableID, sp.PlayerID, sp.SectorIndex, sp.Label, sp.Payout,
			sp.ServerSeedHash, sp.ClientSeed, sp.Nonce, sp.Draw, toMillis(sp.CreatedAt))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("record spin: %w", err)
	}
	return nil
}

// RecentSpins returns up to limit spins of a table, newest first.
func (s *Store) RecentSpins(ctx context.Context, tableID string, limit int) ([]storage.Spin, error) {
	if limit <= 0 {
		limit = 20
	}
	query := sq.Select(spinColumns...).
		From(tableSpins).
		Where(sq.Eq{"table_id": tableID}).
		OrderBy("created_at DESC", "rowid DESC").
		Limit(uint64(limit))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("recent spins: %w", err)
	}
	defer rows.Close()

	var out []storage.Spin
	for rows.Next() {
		var (
			sp      storage.Spin
			created int64
		)
		if err := rows.Scan(&sp.ID, &sp.TableID, &sp.PlayerID, &sp.SectorIndex, &sp.Label, &sp.Payout,
			&sp.ServerSeedHash, &sp.ClientSeed, &sp.Nonce, &sp.Draw, &created); err != nil {
			return nil, fmt.Errorf("scan spin: %w", err)
		}
		sp.CreatedAt = fromMillis(created)
		out = append(out, sp)
	}
	return out, rows.Err()
}
