package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BryServices/auradhom-v2/internal/infrastructure/persistence/gateway"
)

const Name = "postgres"

// Gateway stores every collection in the records table as JSONB documents.
type Gateway struct {
	pool *pgxpool.Pool
}

func NewGateway(pool *pgxpool.Pool) *Gateway {
	return &Gateway{pool: pool}
}

func (g *Gateway) Name() string { return Name }

func (g *Gateway) Put(ctx context.Context, c gateway.Collection, r gateway.Record) error {
	const query = `
		INSERT INTO records (collection, id, data, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (collection, id) DO UPDATE
		SET data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at;
	`
	_, err := g.pool.Exec(ctx, query, string(c), r.ID, []byte(r.Data), time.Now().UTC())
	if err != nil {
		return g.fail("put", c, err)
	}
	return nil
}

func (g *Gateway) GetAll(ctx context.Context, c gateway.Collection, f *gateway.Filter) ([]gateway.Record, error) {
	query := `SELECT id, data, updated_at FROM records WHERE collection = $1`
	args := []any{string(c)}
	if f != nil {
		query += ` AND data->>($2::text) = $3`
		args = append(args, f.Field, f.Value)
	}
	query += ` ORDER BY id`

	rows, err := g.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, g.fail("get_all", c, err)
	}
	defer rows.Close()

	var out []gateway.Record
	for rows.Next() {
		var (
			r    gateway.Record
			data []byte
		)
		if err := rows.Scan(&r.ID, &data, &r.UpdatedAt); err != nil {
			return nil, g.fail("get_all", c, err)
		}
		r.Data = json.RawMessage(data)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, g.fail("get_all", c, err)
	}
	return out, nil
}

func (g *Gateway) GetOne(ctx context.Context, c gateway.Collection, id string) (*gateway.Record, error) {
	const query = `
		SELECT id, data, updated_at
		FROM records
		WHERE collection = $1 AND id = $2;
	`
	var (
		r    gateway.Record
		data []byte
	)
	err := g.pool.QueryRow(ctx, query, string(c), id).Scan(&r.ID, &data, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, g.fail("get_one", c, err)
	}
	r.Data = json.RawMessage(data)
	return &r, nil
}

func (g *Gateway) Update(ctx context.Context, c gateway.Collection, id string, patch map[string]any) error {
	raw, err := json.Marshal(patch)
	if err != nil {
		return g.fail("update", c, err)
	}
	const query = `
		UPDATE records
		SET data = data || $3::jsonb,
			updated_at = now()
		WHERE collection = $1 AND id = $2;
	`
	tag, err := g.pool.Exec(ctx, query, string(c), id, raw)
	if err != nil {
		return g.fail("update", c, err)
	}
	if tag.RowsAffected() == 0 {
		return g.fail("update", c, gateway.ErrNotFound)
	}
	return nil
}

// Move relabels the row in place, so readers see it in exactly one collection.
func (g *Gateway) Move(ctx context.Context, from, to gateway.Collection, r gateway.Record) error {
	const query = `
		UPDATE records
		SET collection = $2,
			data = $4,
			updated_at = now()
		WHERE collection = $1 AND id = $3;
	`
	tag, err := g.pool.Exec(ctx, query, string(from), string(to), r.ID, []byte(r.Data))
	if err != nil {
		return g.fail("move", from, fmt.Errorf("to %s: %w", to, err))
	}
	if tag.RowsAffected() == 0 {
		return g.fail("move", from, gateway.ErrNotFound)
	}
	return nil
}

func (g *Gateway) Delete(ctx context.Context, c gateway.Collection, id string) error {
	tag, err := g.pool.Exec(ctx, `DELETE FROM records WHERE collection = $1 AND id = $2`, string(c), id)
	if err != nil {
		return g.fail("delete", c, err)
	}
	if tag.RowsAffected() == 0 {
		return g.fail("delete", c, gateway.ErrNotFound)
	}
	return nil
}

func (g *Gateway) Close() error {
	g.pool.Close()
	return nil
}

func (g *Gateway) fail(op string, c gateway.Collection, err error) error {
	return &gateway.Error{Backend: Name, Op: op, Collection: c, Err: err}
}
