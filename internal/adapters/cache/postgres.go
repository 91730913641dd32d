package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ride-dispatch-service/internal/domain"
)

// PostgresTravelCostCache is a SQL-backed cache for travel cost lookups.
// It persists across service restarts; correctness never depends on it
// (a cold table is always valid, only slower).
type PostgresTravelCostCache struct {
	DB *sql.DB
}

func NewPostgresTravelCostCache(db *sql.DB) *PostgresTravelCostCache {
	return &PostgresTravelCostCache{DB: db}
}

// Initialize the travel cost cache schema.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	q := `
	CREATE TABLE IF NOT EXISTS travel_cost_cache (
        origin TEXT NOT NULL,
        destination TEXT NOT NULL,
        duration_seconds INTEGER NOT NULL,
        distance_meters INTEGER NOT NULL,
        fetched_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        PRIMARY KEY (origin, destination)
    );
	`

	if _, err := db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("init schema: create travel_cost_cache: %w", err)
	}

	return nil
}

func (c *PostgresTravelCostCache) GetMany(
	ctx context.Context,
	pairs []domain.PairKey,
) (map[domain.PairKey]domain.TravelCost, error) {
	if c.DB == nil {
		return nil, errors.New("travel cost cache: db is nil")
	}

	if len(pairs) == 0 {
		return map[domain.PairKey]domain.TravelCost{}, nil
	}

	seen := map[string]struct{}{}
	keys := make([]string, 0, len(pairs))
	for _, p := range pairs {
		k := p.String()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}

	q := `
	SELECT origin, destination, duration_seconds, distance_meters
    FROM travel_cost_cache
    WHERE origin || '|' || destination = ANY($1::text[]);
	`

	rows, err := c.DB.QueryContext(ctx, q, keys)
	if err != nil {
		return nil, fmt.Errorf("get travel cost cache: query travel_cost_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.PairKey]domain.TravelCost, len(pairs))
	for rows.Next() {
		var origin, dest string
		var seconds, meters int
		if err := rows.Scan(&origin, &dest, &seconds, &meters); err != nil {
			return nil, fmt.Errorf("get travel cost cache: scan rows: %w", err)
		}
		out[domain.PairKey{From: domain.LocationKey(origin), To: domain.LocationKey(dest)}] = domain.TravelCost{
			DurationSeconds: seconds,
			DistanceMeters:  meters,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get travel cost cache: row iteration: %w", err)
	}

	return out, nil
}

func (c *PostgresTravelCostCache) PutMany(
	ctx context.Context,
	costs map[domain.PairKey]domain.TravelCost,
) error {
	if c.DB == nil {
		return errors.New("travel cost cache: db is nil")
	}

	if len(costs) == 0 {
		return nil
	}

	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert travel cost cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO travel_cost_cache (origin, destination, duration_seconds, distance_meters)
    VALUES ($1, $2, $3, $4)
	ON CONFLICT (origin, destination) DO UPDATE
	SET duration_seconds = EXCLUDED.duration_seconds,
		distance_meters = EXCLUDED.distance_meters,
		fetched_at = now();
	`)
	if err != nil {
		return fmt.Errorf("insert travel cost cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for p, tc := range costs {
		if _, err := stmt.ExecContext(ctx, string(p.From), string(p.To), tc.DurationSeconds, tc.DistanceMeters); err != nil {
			return fmt.Errorf("insert travel cost cache pair=%s: %w", p, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert travel cost cache commit: %w", err)
	}

	return nil
}
