package statebun

import (
	"context"
	"time"

	"github.com/goliatone/go-profile/profile"
	"github.com/uptrace/bun"
)

// ExportLog records export outcomes in the profile_exports table.
type ExportLog struct {
	DB  *bun.DB
	Now func() time.Time
}

var _ profile.ExportHistory = (*ExportLog)(nil)

// NewExportLog creates a Bun-backed export log.
func NewExportLog(db *bun.DB) *ExportLog {
	return &ExportLog{DB: db, Now: time.Now}
}

// Record stores the outcome of one Exporter.Export call.
func (l *ExportLog) Record(ctx context.Context, req profile.ExportRequest, result profile.ExportResult, exportErr error) (profile.ExportRecord, error) {
	if l == nil || l.DB == nil {
		return profile.ExportRecord{}, profile.NewError(profile.KindNotImpl, "export log database not configured", nil)
	}

	record := profile.NewExportRecord(req, result, exportErr, l.now())
	model := exportModelFromRecord(record)
	if _, err := l.DB.NewInsert().Model(&model).Exec(ctx); err != nil {
		return profile.ExportRecord{}, err
	}
	return record, nil
}

// Recent returns the newest records first.
func (l *ExportLog) Recent(ctx context.Context, limit int) ([]profile.ExportRecord, error) {
	if l == nil || l.DB == nil {
		return nil, profile.NewError(profile.KindNotImpl, "export log database not configured", nil)
	}
	if limit <= 0 {
		limit = 20
	}

	models := make([]exportModel, 0)
	if err := l.DB.NewSelect().Model(&models).Order("created_at DESC").Limit(limit).Scan(ctx); err != nil {
		return nil, err
	}
	records := make([]profile.ExportRecord, 0, len(models))
	for _, m := range models {
		records = append(records, m.toRecord())
	}
	return records, nil
}

func (l *ExportLog) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

type exportModel struct {
	bun.BaseModel `bun:"table:profile_exports,alias:profile_exports"`

	ID          string    `bun:",pk"`
	Format      string    `bun:",notnull"`
	Filename    string    `bun:"filename"`
	ArtifactKey string    `bun:"artifact_key"`
	State       string    `bun:",notnull"`
	Bytes       int64     `bun:"bytes"`
	Error       string    `bun:"error"`
	CreatedAt   time.Time `bun:"created_at"`
}

func exportModelFromRecord(r profile.ExportRecord) exportModel {
	return exportModel{
		ID:          r.ID,
		Format:      string(r.Format),
		Filename:    r.Filename,
		ArtifactKey: r.ArtifactKey,
		State:       string(r.State),
		Bytes:       r.Bytes,
		Error:       r.Error,
		CreatedAt:   r.CreatedAt,
	}
}

func (m exportModel) toRecord() profile.ExportRecord {
	return profile.ExportRecord{
		ID:          m.ID,
		Format:      profile.Format(m.Format),
		Filename:    m.Filename,
		ArtifactKey: m.ArtifactKey,
		State:       profile.ExportState(m.State),
		Bytes:       m.Bytes,
		Error:       m.Error,
		CreatedAt:   m.CreatedAt,
	}
}
