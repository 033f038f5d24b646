package publish

import (
	"context"
	"log/slog"
	"time"

	"warrantysync/pkg/contracts/domain"
)

// bannerDateLayout renders the banner date as MM/DD/YYYY
const bannerDateLayout = "01/02/2006"

// Store writes rows to a worksheet starting at A1
type Store interface {
	Update(ctx context.Context, spreadsheetID, sheetTitle string, rows [][]string) error
}

// Publisher writes canonical tables to the destination spreadsheet, one
// worksheet per site.
type Publisher struct {
	store         Store
	destinationID string
	now           func() time.Time
	logger        *slog.Logger
}

// Option configures a Publisher
type Option func(*Publisher)

// WithClock overrides the clock used for the banner date
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) { p.now = now }
}

// NewPublisher creates a publisher for the destination spreadsheet
func NewPublisher(store Store, destinationID string, logger *slog.Logger, opts ...Option) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		store:         store,
		destinationID: destinationID,
		now:           time.Now,
		logger:        logger.With(slog.String("component", "publisher")),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish overwrites the site's worksheet from A1 with the banner, the
// header and the table rows. It returns the number of data rows written.
func (p *Publisher) Publish(ctx context.Context, site domain.Site, table *domain.CanonicalTable) (int, error) {
	payload := BuildPayload(table, p.now())
	if err := p.store.Update(ctx, p.destinationID, site.Title, payload); err != nil {
		return 0, err
	}

	rows := len(payload) - 2
	p.logger.InfoContext(ctx, "Published warranty table",
		slog.String("site", site.Title),
		slog.Int("rows", rows))
	return rows, nil
}

// BuildPayload lays out the rows written to a site worksheet: a
// "Last updated" banner padded to the table width, the header, then the
// data rows.
func BuildPayload(table *domain.CanonicalTable, now time.Time) [][]string {
	width := max(table.Width(), 1)

	banner := make([]string, width)
	banner[0] = "Last updated: " + now.Format(bannerDateLayout)

	payload := make([][]string, 0, 2+rowCount(table))
	payload = append(payload, banner)
	if table == nil {
		return append(payload, []string{})
	}
	payload = append(payload, table.Header)
	return append(payload, table.Rows...)
}

func rowCount(table *domain.CanonicalTable) int {
	if table == nil {
		return 0
	}
	return len(table.Rows)
}
