package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/darbify/schoolbus-backend/module/trips/internal/repository/database"
)

var _ database.SettingsRepository = (*SettingsRepo)(nil)

type SettingsRepo struct {
	db *sql.DB
}

func NewSettingsRepo(db *sql.DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// ApproachRadiusMeters reads the approach_radius_m setting. The value column
// is jsonb shaped as {"value": <meters>}.
func (r *SettingsRepo) ApproachRadiusMeters(ctx context.Context) (float64, bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'approach_radius_m'`,
	)

	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}

	var v struct {
		Value float64 `json:"value"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false, fmt.Errorf("decode approach_radius_m: %w", err)
	}
	if v.Value <= 0 {
		return 0, false, nil
	}
	return v.Value, true, nil
}
