package pipeline

import (
	"context"

	"warrantysync/internal/report"
	"warrantysync/pkg/contracts/domain"
)

// Publisher writes a canonical table to a site's destination worksheet
type Publisher interface {
	Publish(ctx context.Context, site domain.Site, table *domain.CanonicalTable) (int, error)
}

// SyncHandler normalizes downloaded exports and publishes them
type SyncHandler struct {
	publisher Publisher
}

// NewSyncHandler creates the per-site handler used by the session
func NewSyncHandler(publisher Publisher) *SyncHandler {
	return &SyncHandler{publisher: publisher}
}

// Normalize reads the downloaded workbook and builds the canonical table
func (h *SyncHandler) Normalize(_ context.Context, path string, batch domain.SerialBatch) (*domain.CanonicalTable, error) {
	raw, err := report.ReadWorkbook(path)
	if err != nil {
		return nil, err
	}
	return report.Normalize(raw, batch)
}

// Publish writes the table to the site's worksheet
func (h *SyncHandler) Publish(ctx context.Context, site domain.Site, table *domain.CanonicalTable) (int, error) {
	return h.publisher.Publish(ctx, site, table)
}
