package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"todolist/internal/todo/model"
	"todolist/pkg/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS lists (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	items      JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const dataExceptionClass pq.ErrorClass = "22"

type ListRepository struct {
	DB *sql.DB
}

func NewListRepository(db *sql.DB) *ListRepository {
	return &ListRepository{DB: db}
}

func (r *ListRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, schema); err != nil {
		return r.fail("create schema", err)
	}
	return nil
}

func (r *ListRepository) Ping(ctx context.Context) error {
	if err := r.DB.PingContext(ctx); err != nil {
		return r.fail("ping", err)
	}
	return nil
}

// FindListByName returns model.ErrNotFound when no list has exactly that name.
func (r *ListRepository) FindListByName(ctx context.Context, name string) (*model.List, error) {
	var (
		list  model.List
		items []byte
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name, items, created_at, updated_at FROM lists WHERE name = $1`, name,
	).Scan(&list.ID, &list.Name, &items, &list.CreatedAt, &list.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, r.fail("find list", err, zap.String("list", name))
	}
	if err := json.Unmarshal(items, &list.Items); err != nil {
		return nil, r.fail("decode items", err, zap.String("list", name))
	}
	if list.Items == nil {
		list.Items = []model.Item{}
	}
	return &list, nil
}

// CreateList inserts the list unless one with the same name already exists.
// created is false when the insert was skipped.
func (r *ListRepository) CreateList(ctx context.Context, id, name string, items []model.Item) (created bool, err error) {
	if items == nil {
		items = []model.Item{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return false, r.fail("encode items", err, zap.String("list", name))
	}
	result, err := r.DB.ExecContext(ctx,
		`INSERT INTO lists (id, name, items, created_at, updated_at) VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (name) DO NOTHING`,
		id, name, payload)
	if err != nil {
		return false, r.fail("create list", err, zap.String("list", name))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, r.fail("create list", err, zap.String("list", name))
	}
	return n == 1, nil
}

// AppendItemToList pushes item onto the end of the named list in a single
// statement, so concurrent appends never overwrite each other.
func (r *ListRepository) AppendItemToList(ctx context.Context, name string, item model.Item) error {
	payload, err := json.Marshal([]model.Item{item})
	if err != nil {
		return r.fail("encode item", err, zap.String("list", name))
	}
	result, err := r.DB.ExecContext(ctx,
		`UPDATE lists SET items = items || $2::jsonb, updated_at = NOW() WHERE name = $1`,
		name, payload)
	if err != nil {
		return r.fail("append item", err, zap.String("list", name))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return r.fail("append item", err, zap.String("list", name))
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// DeleteItemFromList pulls the item with the given id, keeping the order of
// the rest. Unknown lists and ids are a no-op; deleted reports which case hit.
func (r *ListRepository) DeleteItemFromList(ctx context.Context, name, itemID string) (deleted bool, err error) {
	result, err := r.DB.ExecContext(ctx, `
		UPDATE lists SET
			items = COALESCE(
				(SELECT jsonb_agg(e.elem ORDER BY e.pos)
				 FROM jsonb_array_elements(items) WITH ORDINALITY AS e(elem, pos)
				 WHERE e.elem->>'id' <> $2),
				'[]'::jsonb),
			updated_at = NOW()
		WHERE name = $1 AND items @> jsonb_build_array(jsonb_build_object('id', $2::text))`,
		name, itemID)
	if err != nil {
		return false, r.fail("delete item", err, zap.String("list", name), zap.String("item", itemID))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, r.fail("delete item", err, zap.String("list", name), zap.String("item", itemID))
	}
	return n > 0, nil
}

// FindAllDefaultItems returns the items of the default list, or an empty
// slice if it has not been seeded yet.
func (r *ListRepository) FindAllDefaultItems(ctx context.Context) ([]model.Item, error) {
	list, err := r.FindListByName(ctx, model.DefaultListName)
	if errors.Is(err, model.ErrNotFound) {
		return []model.Item{}, nil
	}
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

// InsertDefaultItems seeds the default list if it does not exist yet.
func (r *ListRepository) InsertDefaultItems(ctx context.Context, id string, items []model.Item) (bool, error) {
	return r.CreateList(ctx, id, model.DefaultListName, items)
}

func (r *ListRepository) DeleteDefaultItem(ctx context.Context, itemID string) (bool, error) {
	return r.DeleteItemFromList(ctx, model.DefaultListName, itemID)
}

func (r *ListRepository) fail(op string, err error, fields ...zap.Field) error {
	fields = append(fields, zap.String("op", op), zap.Error(err))
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		fields = append(fields, zap.String("pg_code", string(pqErr.Code)), zap.String("pg_error", pqErr.Code.Name()))
		// Class 22 is a data exception: the value was rejected, not the database.
		if pqErr.Code.Class() == dataExceptionClass {
			logger.Log.Warn("Repository rejected value", fields...)
			return model.Invalid("%s: %s", op, pqErr.Message)
		}
	}
	logger.Log.Error("Repository call failed", fields...)
	return &model.StorageError{Op: op, Err: err}
}
