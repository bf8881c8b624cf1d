// Package storage defines the persisted records of the wheel: players, their
// balance movements and the spin ledger.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Transaction kinds.
const (
	KindPurchase = "purchase"
	KindPayout   = "payout"
)

// Player is a registered participant.
type Player struct {
	ID        string
	TableID   string
	Username  string
	Balance   int
	Spins     int
	CreatedAt time.Time
	UpdatedAt time.Time
	// LeftAt is set once the player has left the table.
	LeftAt time.Time
}

// Transaction is one balance movement.
type Transaction struct {
	ID        string
	PlayerID  string
	Amount    int
	Kind      string
	CreatedAt time.Time
}

// Spin is a settled spin with its fairness proof.
type Spin struct {
	ID             string
	TableID        string
	PlayerID       string
	SectorIndex    int
	Label          string
	Payout         int
	ServerSeedHash string
	ClientSeed     string
	Nonce          int
	Draw           float64
	CreatedAt      time.Time
}

// Ledger persists wheel activity.
type Ledger interface {
	SavePlayer(ctx context.Context, p Player) error
	GetPlayer(ctx context.Context, id string) (Player, error)
	RecordTransaction(ctx context.Context, tx Transaction) error
	RecordSpin(ctx context.Context, s Spin) error
	RecentSpins(ctx context.Context, tableID string, limit int) ([]Spin, error)
	Close() error
}
