package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/furniture-store/internal/model"
)

// OrderArchive is an append-only audit trail of placed orders. It is written
// by the order worker and never read back into the store.
type OrderArchive interface {
	EnsureSchema(ctx context.Context) error
	Archive(ctx context.Context, msg model.OrderMessage) (bool, error)
	Get(ctx context.Context, orderID uuid.UUID) (*model.OrderMessage, error)
}

type pgOrderArchive struct{ pool *pgxpool.Pool }

func NewOrderArchive(pool *pgxpool.Pool) OrderArchive {
	return &pgOrderArchive{pool: pool}
}

const archiveSchema = `
CREATE TABLE IF NOT EXISTS archived_orders (
	order_id    UUID PRIMARY KEY,
	username    TEXT NOT NULL,
	status      TEXT NOT NULL,
	total_price NUMERIC(12, 2) NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	archived_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS archived_order_lines (
	order_id   UUID NOT NULL REFERENCES archived_orders(order_id) ON DELETE CASCADE,
	item_id    INTEGER NOT NULL,
	title      TEXT NOT NULL,
	quantity   INTEGER NOT NULL,
	unit_price NUMERIC(12, 2) NOT NULL,
	PRIMARY KEY (order_id, item_id)
);`

func (r *pgOrderArchive) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, archiveSchema); err != nil {
		return fmt.Errorf("create archive schema: %w", err)
	}
	return nil
}

// Archive stores msg and its lines in one transaction. It reports false when
// the order was already archived.
func (r *pgOrderArchive) Archive(ctx context.Context, msg model.OrderMessage) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx,
		`INSERT INTO archived_orders (order_id, username, status, total_price, created_at)
		 VALUES ($1, $2, $3, $4, $5) ON CONFLICT (order_id) DO NOTHING`,
		msg.OrderID, msg.Username, string(msg.Status), msg.TotalPrice, msg.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert archived order: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return false, nil
	}

	for _, l := range msg.Lines {
		_, err = tx.Exec(ctx,
			`INSERT INTO archived_order_lines (order_id, item_id, title, quantity, unit_price)
			 VALUES ($1, $2, $3, $4, $5)`,
			msg.OrderID, l.ItemID, l.Title, l.Quantity, l.UnitPrice,
		)
		if err != nil {
			return false, fmt.Errorf("insert archived line: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	return true, nil
}

func (r *pgOrderArchive) Get(ctx context.Context, orderID uuid.UUID) (*model.OrderMessage, error) {
	msg := &model.OrderMessage{}
	var status string
	err := r.pool.QueryRow(ctx,
		`SELECT order_id, username, status, total_price, created_at FROM archived_orders WHERE order_id = $1`,
		orderID,
	).Scan(&msg.OrderID, &msg.Username, &status, &msg.TotalPrice, &msg.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get archived order: %w", err)
	}
	msg.Status = model.OrderStatus(status)

	rows, err := r.pool.Query(ctx,
		`SELECT item_id, title, quantity, unit_price FROM archived_order_lines WHERE order_id = $1 ORDER BY item_id`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("get archived lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l model.OrderMessageLine
		if err := rows.Scan(&l.ItemID, &l.Title, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan archived line: %w", err)
		}
		msg.Lines = append(msg.Lines, l)
	}
	return msg, rows.Err()
}
