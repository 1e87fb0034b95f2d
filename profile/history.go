package profile

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ExportState is the outcome of an export attempt.
type ExportState string

const (
	ExportCompleted ExportState = "completed"
	ExportFailed    ExportState = "failed"
)

// ExportRecord describes one export attempt.
type ExportRecord struct {
	ID          string      `json:"id"`
	Format      Format      `json:"format"`
	Filename    string      `json:"filename,omitempty"`
	ArtifactKey string      `json:"artifact_key,omitempty"`
	State       ExportState `json:"state"`
	Bytes       int64       `json:"bytes"`
	Error       string      `json:"error,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// ExportHistory keeps export outcomes.
type ExportHistory interface {
	Record(ctx context.Context, req ExportRequest, result ExportResult, exportErr error) (ExportRecord, error)
	Recent(ctx context.Context, limit int) ([]ExportRecord, error)
}

// NewExportRecord builds the record for one Exporter.Export outcome. Failed
// attempts get a fresh id since the exporter returns none.
func NewExportRecord(req ExportRequest, result ExportResult, exportErr error, at time.Time) ExportRecord {
	record := ExportRecord{
		ID:          result.ID,
		Format:      result.Format,
		Filename:    result.Filename,
		ArtifactKey: result.Ref.Key,
		State:       ExportCompleted,
		Bytes:       int64(len(result.Data)),
		CreatedAt:   at,
	}
	if record.Format == "" {
		record.Format = NormalizeFormat(req.Format)
	}
	if exportErr != nil {
		record.State = ExportFailed
		record.Error = exportErr.Error()
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	return record
}

// MemoryExportHistory keeps records in process, newest last.
type MemoryExportHistory struct {
	Now func() time.Time

	mu      sync.Mutex
	records []ExportRecord
}

// Record implements ExportHistory.
func (h *MemoryExportHistory) Record(ctx context.Context, req ExportRequest, result ExportResult, exportErr error) (ExportRecord, error) {
	if err := ctx.Err(); err != nil {
		return ExportRecord{}, err
	}
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	record := NewExportRecord(req, result, exportErr, now())
	h.mu.Lock()
	h.records = append(h.records, record)
	h.mu.Unlock()
	return record, nil
}

// Recent implements ExportHistory.
func (h *MemoryExportHistory) Recent(ctx context.Context, limit int) ([]ExportRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit <= 0 || limit > len(h.records) {
		limit = len(h.records)
	}
	out := make([]ExportRecord, 0, limit)
	for i := len(h.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, h.records[i])
	}
	return out, nil
}
