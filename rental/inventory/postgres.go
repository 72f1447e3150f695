package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	contractx "github.com/metroequip/rentflow/rental/contract"
)

// PostgresConfig configures the bun-backed inventory store.
type PostgresConfig struct {
	DSN string `envconfig:"DSN" split_words:"true" required:"true"`
}

type itemRow struct {
	bun.BaseModel `bun:"table:inventory_items,alias:i"`

	ID           string  `bun:"id,pk"`
	Name         string  `bun:"name"`
	Category     string  `bun:"category"`
	DailyRate    float64 `bun:"daily_rate"`
	MaxRate      float64 `bun:"max_rate"`
	Status       string  `bun:"status"`
	RequiredCert string  `bun:"required_cert"`
	MinInsurance float64 `bun:"min_insurance"`
	Location     string  `bun:"location"`
	WeightClass  string  `bun:"weight_class"`
}

// PostgresStore keeps inventory in Postgres. The conditional UPDATE in
// TryReserve is the database's own atomic primitive, so reservations on
// different rows never block each other.
type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return &PostgresStore{db: bun.NewDB(sqldb, pgdialect.New())}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) ListAvailable(ctx context.Context, query string) ([]contractx.Item, error) {
	var rows []itemRow
	q := s.db.NewSelect().
		Model(&rows).
		Where("status = ?", string(contractx.StatusAvailable)).
		Order("id ASC")

	if trimmed := strings.TrimSpace(query); trimmed != "" {
		pattern := "%" + trimmed + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereOr("name ILIKE ?", pattern).
				WhereOr("category ILIKE ?", pattern).
				WhereOr("weight_class ILIKE ?", pattern)
		})
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list available items: %w", err)
	}

	snapshot := make([]contractx.Item, len(rows))
	for i, r := range rows {
		snapshot[i] = r.toItem()
	}
	// Re-rank in memory so multi-token relevance matches the other
	// store implementations.
	return rankAvailable(snapshot, query), nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (contractx.Item, error) {
	var row itemRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return contractx.Item{}, fmt.Errorf("%w: id=%s", contractx.ErrNotFound, id)
	}
	if err != nil {
		return contractx.Item{}, fmt.Errorf("get item: %w", err)
	}
	return row.toItem(), nil
}

// TryReserve issues a single conditional UPDATE: the row flips to
// RENTED only if it is still AVAILABLE, and RowsAffected tells us
// whether this caller won.
func (s *PostgresStore) TryReserve(ctx context.Context, id string) (contractx.Reservation, error) {
	res, err := s.db.NewUpdate().
		Model((*itemRow)(nil)).
		Set("status = ?", string(contractx.StatusRented)).
		Where("id = ?", id).
		Where("status = ?", string(contractx.StatusAvailable)).
		Exec(ctx)
	if err != nil {
		return contractx.Reservation{}, fmt.Errorf("reserve item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return contractx.Reservation{}, fmt.Errorf("reserve item rows affected: %w", err)
	}
	if affected == 1 {
		return contractx.Reservation{
			Committed: true,
			Ref:       newBookingRef(id),
		}, nil
	}

	// Lost the race or the id does not exist; report which.
	current, err := s.Get(ctx, id)
	if err != nil {
		return contractx.Reservation{}, err
	}
	return contractx.Reservation{CurrentStatus: current.Status}, nil
}

func (r itemRow) toItem() contractx.Item {
	return contractx.Item{
		ID:           r.ID,
		Name:         r.Name,
		Category:     r.Category,
		DailyRate:    r.DailyRate,
		MaxRate:      r.MaxRate,
		Status:       contractx.ItemStatus(r.Status),
		RequiredCert: r.RequiredCert,
		MinInsurance: r.MinInsurance,
		Location:     r.Location,
		WeightClass:  r.WeightClass,
	}
}
