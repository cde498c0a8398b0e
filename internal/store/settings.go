package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
)

type SetSettingRequest struct {
	Key         string
	Value       string
	Type        string
	Description *string
	IsPublic    bool
	UpdatedBy   *int64
}

const settingColumns = `id, setting_key, setting_value, setting_type, description, is_public, updated_by, created_at, updated_at`

func scanSetting(row scanner) (*models.Setting, error) {
	s := &models.Setting{}
	err := row.Scan(&s.ID, &s.Key, &s.Value, &s.Type, &s.Description, &s.IsPublic, &s.UpdatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ValidateSettingValue checks that value parses as the declared setting type.
func ValidateSettingValue(kind, value string) error {
	var err error
	switch kind {
	case models.SettingString:
	case models.SettingNumber:
		_, err = decimal.NewFromString(value)
	case models.SettingBoolean:
		_, err = strconv.ParseBool(value)
	case models.SettingJSON:
		if !json.Valid([]byte(value)) {
			err = errors.New("invalid JSON")
		}
	default:
		return fmt.Errorf("%w: unknown setting type %q", database.ErrConstraintViolation, kind)
	}
	if err != nil {
		return fmt.Errorf("%w: %s value %q: %v", database.ErrConstraintViolation, kind, value, err)
	}
	return nil
}

// SetSetting creates or replaces a setting by key.
func SetSetting(ctx context.Context, db Querier, req SetSettingRequest) (*models.Setting, error) {
	if req.Type == "" {
		req.Type = models.SettingString
	}
	if err := ValidateSettingValue(req.Type, req.Value); err != nil {
		return nil, err
	}

	s, err := scanSetting(db.QueryRowContext(ctx,
		`INSERT INTO system_settings (setting_key, setting_value, setting_type, description, is_public, updated_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (setting_key) DO UPDATE
		 SET setting_value = EXCLUDED.setting_value,
		     setting_type = EXCLUDED.setting_type,
		     description = COALESCE(EXCLUDED.description, system_settings.description),
		     is_public = EXCLUDED.is_public,
		     updated_by = EXCLUDED.updated_by
		 RETURNING `+settingColumns,
		req.Key, req.Value, req.Type, req.Description, req.IsPublic, req.UpdatedBy))
	if err != nil {
		return nil, fmt.Errorf("set setting: %w", database.TranslateError(err))
	}
	return s, nil
}

func GetSetting(ctx context.Context, db Querier, key string) (*models.Setting, error) {
	s, err := scanSetting(db.QueryRowContext(ctx,
		`SELECT `+settingColumns+` FROM system_settings WHERE setting_key = $1`, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrSettingNotFound
		}
		return nil, fmt.Errorf("get setting: %w", err)
	}
	return s, nil
}

func GetSettingDecimal(ctx context.Context, db Querier, key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	s, err := GetSetting(ctx, db, key)
	if errors.Is(err, database.ErrSettingNotFound) {
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}
	d, err := decimal.NewFromString(s.Value)
	if err != nil {
		return fallback, fmt.Errorf("setting %s: %w", key, err)
	}
	return d, nil
}

func GetSettingBool(ctx context.Context, db Querier, key string, fallback bool) (bool, error) {
	s, err := GetSetting(ctx, db, key)
	if errors.Is(err, database.ErrSettingNotFound) {
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}
	b, err := strconv.ParseBool(s.Value)
	if err != nil {
		return fallback, fmt.Errorf("setting %s: %w", key, err)
	}
	return b, nil
}

// ListSettings returns all settings, or only the public ones.
func ListSettings(ctx context.Context, db Querier, publicOnly bool) ([]models.Setting, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+settingColumns+`
		 FROM system_settings
		 WHERE is_public OR NOT $1
		 ORDER BY setting_key`, publicOnly)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []models.Setting
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings = append(settings, *s)
	}
	return settings, rows.Err()
}

func DeleteSetting(ctx context.Context, db Querier, key string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM system_settings WHERE setting_key = $1`, key)
	if err != nil {
		return fmt.Errorf("delete setting: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return database.ErrSettingNotFound
	}
	return nil
}
