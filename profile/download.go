package profile

import "sync"

// DownloadTracker holds the export button stage for one visitor.
type DownloadTracker struct {
	mu    sync.Mutex
	stage DownloadStage
}

// NewDownloadTracker starts in the download stage.
func NewDownloadTracker() *DownloadTracker {
	return &DownloadTracker{stage: StageDownload}
}

// Begin moves to downloading. It fails while an export is in flight.
func (t *DownloadTracker) Begin() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stage == StageDownloading {
		return NewError(KindValidation, "export already in progress", nil)
	}
	t.stage = StageDownloading
	return nil
}

// Complete moves to downloaded on success or back to download on failure.
func (t *DownloadTracker) Complete(ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ok {
		t.stage = StageDownloaded
		return
	}
	t.stage = StageDownload
}

// Stage returns the current stage.
func (t *DownloadTracker) Stage() DownloadStage {
	if t == nil {
		return StageDownload
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stage == "" {
		return StageDownload
	}
	return t.stage
}

// Message derives the label for the current stage from the snapshot.
func (t *DownloadTracker) Message(s Snapshot) DownloadMessage {
	return s.DownloadMessage(t.Stage())
}
