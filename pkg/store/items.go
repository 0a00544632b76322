package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/cardledger/pricefeed-go/pkg/logging"
	"github.com/cardledger/pricefeed-go/pkg/pricing/refresh"
)

// ErrItemNotFound indicates that no item exists with the given id.
var ErrItemNotFound = errors.New("item not found")

// ItemStore reads item identities from the inventory table and writes
// computed prices back. It implements refresh.PersistenceGateway and
// refresh.HistorySink.
type ItemStore struct {
	pool   *pgxpool.Pool
	logger *logging.Logger
}

// NewItemStore creates an item store on an existing pool.
func NewItemStore(pool *pgxpool.Pool, logger *logging.Logger) *ItemStore {
	if logger == nil {
		logger = logging.NewNoopLogger()
	}
	return &ItemStore{pool: pool, logger: logger}
}

// ListItems returns every inventory item's identity and last update.
func (s *ItemStore) ListItems(ctx context.Context) ([]refresh.Item, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, set_name, variant, grade, last_price_update
		FROM items
		ORDER BY last_price_update NULLS FIRST`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []refresh.Item
	for rows.Next() {
		var item refresh.Item
		var variant, grade *string
		var lastUpdate *time.Time
		if err := rows.Scan(&item.ID, &item.Name, &item.Set, &variant, &grade, &lastUpdate); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		if variant != nil {
			item.Variant = *variant
		}
		if grade != nil {
			item.Grade = *grade
		}
		if lastUpdate != nil {
			item.LastPriceUpdate = *lastUpdate
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	return items, nil
}

// GetItem returns a single item by id.
func (s *ItemStore) GetItem(ctx context.Context, id uuid.UUID) (refresh.Item, error) {
	var item refresh.Item
	var variant, grade *string
	var lastUpdate *time.Time

	err := s.pool.QueryRow(ctx, `
		SELECT id, name, set_name, variant, grade, last_price_update
		FROM items
		WHERE id = $1`, id).
		Scan(&item.ID, &item.Name, &item.Set, &variant, &grade, &lastUpdate)
	if errors.Is(err, pgx.ErrNoRows) {
		return refresh.Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if err != nil {
		return refresh.Item{}, fmt.Errorf("get item: %w", err)
	}

	if variant != nil {
		item.Variant = *variant
	}
	if grade != nil {
		item.Grade = *grade
	}
	if lastUpdate != nil {
		item.LastPriceUpdate = *lastUpdate
	}
	return item, nil
}

// WritePrice writes the computed price back to the item row. The engine
// only ever touches these three columns.
func (s *ItemStore) WritePrice(ctx context.Context, itemID uuid.UUID, bestPrice, lowestListed decimal.NullDecimal, observedAt time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE items
		SET best_price = $2, lowest_listed = $3, last_price_update = $4
		WHERE id = $1`,
		itemID, bestPrice, lowestListed, observedAt)
	if err != nil {
		return fmt.Errorf("write price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	return nil
}

// Record appends a price history sample for sparklines.
func (s *ItemStore) Record(ctx context.Context, itemID uuid.UUID, price decimal.Decimal, observedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO price_history (item_id, price, observed_at)
		VALUES ($1, $2, $3)`,
		itemID, price, observedAt)
	if err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}
