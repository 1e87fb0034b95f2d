package statebun

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goliatone/go-profile/profile"
	"github.com/uptrace/bun"
)

// Store persists visitor flags in a key/value table.
type Store struct {
	DB  *bun.DB
	Now func() time.Time
}

var _ profile.StateStore = (*Store)(nil)

// NewStore creates a Bun-backed state store.
func NewStore(db *bun.DB) *Store {
	return &Store{DB: db, Now: time.Now}
}

// EnsureSchema creates the state and export log tables.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	if db == nil {
		return profile.NewError(profile.KindNotImpl, "state database not configured", nil)
	}
	for _, model := range []any{(*stateModel)(nil), (*exportModel)(nil)} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.DB == nil {
		return "", false, profile.NewError(profile.KindNotImpl, "state database not configured", nil)
	}
	if key == "" {
		return "", false, profile.NewError(profile.KindValidation, "state key is required", nil)
	}

	model := new(stateModel)
	err := s.DB.NewSelect().Model(model).Where("state_key = ?", key).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return model.Value, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if s == nil || s.DB == nil {
		return profile.NewError(profile.KindNotImpl, "state database not configured", nil)
	}
	if key == "" {
		return profile.NewError(profile.KindValidation, "state key is required", nil)
	}

	model := &stateModel{Key: key, Value: value, UpdatedAt: s.now()}
	_, err := s.DB.NewInsert().Model(model).
		On("CONFLICT (state_key) DO UPDATE").
		Set("state_value = EXCLUDED.state_value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type stateModel struct {
	bun.BaseModel `bun:"table:profile_state,alias:profile_state"`

	Key       string    `bun:"state_key,pk"`
	Value     string    `bun:"state_value,notnull"`
	UpdatedAt time.Time `bun:"updated_at"`
}
