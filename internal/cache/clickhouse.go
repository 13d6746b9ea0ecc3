package cache

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"solana-wallet-watcher/internal/models"
)

// ClickHouseStore persists admitted events for analytics. The pipeline
// treats it as optional: insert failures are logged, never fatal.
type ClickHouseStore struct {
	conn driver.Conn
}

type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

func NewClickHouseStore(cfg ClickHouseConfig) (*ClickHouseStore, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseStore{conn: conn}, nil
}

func (c *ClickHouseStore) InsertEvent(ctx context.Context, ev *models.ClassifiedEvent) error {
	query := `
		INSERT INTO wallet_events (
			signature, wallet, symbol, direction, sol_amount, amount_text, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	err := c.conn.Exec(ctx, query,
		ev.Signature,
		ev.Wallet,
		ev.Symbol,
		string(ev.Direction),
		ev.SolAmount,
		ev.AmountText,
		ev.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}
