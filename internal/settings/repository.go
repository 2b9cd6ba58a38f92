package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("setting not found")

// Repository stores JSON documents keyed by (setting_key, setting_group).
type Repository interface {
	Get(ctx context.Context, key, group string) (json.RawMessage, error)
	Upsert(ctx context.Context, key, group string, value json.RawMessage) error
	ListGroups(ctx context.Context, key string) ([]string, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, key, group string) (json.RawMessage, error) {
	query := `
		SELECT setting_value
		FROM system_settings
		WHERE setting_key = $1 AND setting_group = $2
	`

	var value []byte
	err := r.db.GetContext(ctx, &value, query, key, group)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return json.RawMessage(value), nil
}

func (r *repository) Upsert(ctx context.Context, key, group string, value json.RawMessage) error {
	query := `
		INSERT INTO system_settings (setting_key, setting_group, setting_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (setting_key, setting_group)
		DO UPDATE SET setting_value = EXCLUDED.setting_value, updated_at = NOW()
	`

	_, err := r.db.ExecContext(ctx, query, key, group, []byte(value))
	return err
}

func (r *repository) ListGroups(ctx context.Context, key string) ([]string, error) {
	query := `
		SELECT setting_group
		FROM system_settings
		WHERE setting_key = $1
		ORDER BY setting_group
	`

	groups := []string{}
	if err := r.db.SelectContext(ctx, &groups, query, key); err != nil {
		return nil, err
	}
	return groups, nil
}
