package profilebun

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/goliatone/go-profile/profile"
	"github.com/uptrace/bun"
)

// Source reads section documents from the profile_sections table.
type Source struct {
	DB  *bun.DB
	Now func() time.Time
}

var _ profile.Source = (*Source)(nil)

// NewSource creates a Bun-backed source.
func NewSource(db *bun.DB) *Source {
	return &Source{DB: db, Now: time.Now}
}

// EnsureSchema creates the profile_sections table.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	if db == nil {
		return profile.NewError(profile.KindNotImpl, "section database not configured", nil)
	}
	_, err := db.NewCreateTable().Model((*sectionModel)(nil)).IfNotExists().Exec(ctx)
	return err
}

func (s *Source) Fetch(ctx context.Context, key string) ([]byte, error) {
	if s == nil || s.DB == nil {
		return nil, profile.NewError(profile.KindNotImpl, "section database not configured", nil)
	}
	if key == "" {
		return nil, profile.NewError(profile.KindValidation, "document key is required", nil)
	}

	model := new(sectionModel)
	err := s.DB.NewSelect().Model(model).Where("section_key = ?", key).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, profile.NewError(profile.KindNotFound, fmt.Sprintf("section %q not found", key), nil)
		}
		return nil, err
	}
	return []byte(model.Document), nil
}

// Put stores one document, replacing any previous version.
func (s *Source) Put(ctx context.Context, key string, document []byte) error {
	if s == nil || s.DB == nil {
		return profile.NewError(profile.KindNotImpl, "section database not configured", nil)
	}
	if key == "" {
		return profile.NewError(profile.KindValidation, "document key is required", nil)
	}
	if !json.Valid(document) {
		return profile.NewError(profile.KindValidation, fmt.Sprintf("section %q is not valid JSON", key), nil)
	}

	model := &sectionModel{Key: key, Document: string(document), UpdatedAt: s.now()}
	_, err := s.DB.NewInsert().Model(model).
		On("CONFLICT (section_key) DO UPDATE").
		Set("document = EXCLUDED.document").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// Seed writes the header, download and every section of cfg in one
// transaction. Existing rows are replaced.
func (s *Source) Seed(ctx context.Context, cfg profile.ConfigStore) error {
	if s == nil || s.DB == nil {
		return profile.NewError(profile.KindNotImpl, "section database not configured", nil)
	}
	docs := map[string]any{
		profile.KeyHeader:   cfg.Header,
		profile.KeyDownload: cfg.Download,
	}
	for key, section := range cfg.Sections {
		docs[string(key)] = section
	}
	keys := make([]string, 0, len(docs))
	for key := range docs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	now := s.now()
	return s.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, key := range keys {
			payload, err := json.Marshal(docs[key])
			if err != nil {
				return profile.NewError(profile.KindValidation, "encode "+key, err)
			}
			model := &sectionModel{Key: key, Document: string(payload), UpdatedAt: now}
			if _, err := tx.NewInsert().Model(model).
				On("CONFLICT (section_key) DO UPDATE").
				Set("document = EXCLUDED.document").
				Set("updated_at = EXCLUDED.updated_at").
				Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

// Keys lists the stored document keys in order.
func (s *Source) Keys(ctx context.Context) ([]string, error) {
	if s == nil || s.DB == nil {
		return nil, profile.NewError(profile.KindNotImpl, "section database not configured", nil)
	}
	var keys []string
	err := s.DB.NewSelect().Model((*sectionModel)(nil)).Column("section_key").Order("section_key ASC").Scan(ctx, &keys)
	return keys, err
}

func (s *Source) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type sectionModel struct {
	bun.BaseModel `bun:"table:profile_sections,alias:profile_sections"`

	Key       string    `bun:"section_key,pk"`
	Document  string    `bun:"document,notnull"`
	UpdatedAt time.Time `bun:"updated_at"`
}
