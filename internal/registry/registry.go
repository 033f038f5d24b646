package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"warrantysync/internal/config"
	apperrors "warrantysync/internal/errors"
	"warrantysync/pkg/contracts/domain"
)

// SheetSource reads worksheets of a spreadsheet
type SheetSource interface {
	// SheetTitles lists worksheet titles in spreadsheet order
	SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error)
	// SheetValues returns the populated cells of a worksheet, row-major
	SheetValues(ctx context.Context, spreadsheetID, sheetTitle string) ([][]string, error)
}

// RegistryLookupError reports a registry worksheet without an expected column
type RegistryLookupError struct {
	Sheet  string
	Column string
}

func (e *RegistryLookupError) Error() string {
	return fmt.Sprintf("registry sheet %q has no %q column", e.Sheet, e.Column)
}

// Registry enumerates the tracked sites and their devices from the master spreadsheet
type Registry struct {
	source        SheetSource
	spreadsheetID string
	logger        *slog.Logger
}

// New creates a registry backed by the given spreadsheet
func New(source SheetSource, spreadsheetID string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		source:        source,
		spreadsheetID: spreadsheetID,
		logger:        logger.With(slog.String("component", "registry")),
	}
}

// ListSites returns one site per registry worksheet, in spreadsheet order
func (r *Registry) ListSites(ctx context.Context) ([]domain.Site, error) {
	titles, err := r.source.SheetTitles(ctx, r.spreadsheetID)
	if err != nil {
		return nil, apperrors.NewRegistryError("failed to list registry sheets", err)
	}

	sites := make([]domain.Site, 0, len(titles))
	for _, title := range titles {
		sites = append(sites, domain.Site{Title: title})
	}
	return sites, nil
}

// DevicesFor reads the device name and serial columns of a site's worksheet.
// The two-row header is skipped. The shorter column is padded with blanks so
// a trailing device without a serial is kept; rows where both cells are
// blank end the device list.
func (r *Registry) DevicesFor(ctx context.Context, site domain.Site) ([]domain.Device, error) {
	values, err := r.source.SheetValues(ctx, r.spreadsheetID, site.Title)
	if err != nil {
		return nil, apperrors.NewRegistryError("failed to read registry sheet", err).
			WithContext("site", site.Title)
	}

	names, err := column(values, site.Title, domain.ColumnDeviceName)
	if err != nil {
		return nil, err
	}
	serials, err := column(values, site.Title, domain.ColumnSerialNumber)
	if err != nil {
		return nil, err
	}

	n := max(len(names), len(serials))
	for n > 0 && cellAt(names, n-1) == "" && cellAt(serials, n-1) == "" {
		n--
	}

	devices := make([]domain.Device, n)
	for i := 0; i < n; i++ {
		devices[i] = domain.Device{Name: cellAt(names, i), Serial: cellAt(serials, i)}
	}
	return devices, nil
}

// SerialBatchFor builds the portal submission for a site
func (r *Registry) SerialBatchFor(ctx context.Context, site domain.Site) (domain.SerialBatch, error) {
	devices, err := r.DevicesFor(ctx, site)
	if err != nil {
		return domain.SerialBatch{}, err
	}

	batch := BuildBatch(site, devices)
	for _, e := range batch.Shadowed() {
		r.logger.WarnContext(ctx, "Duplicate serial in registry, device will not be published",
			slog.String("site", site.Title),
			slog.String("device", e.DeviceName),
			slog.String("serial", e.Serial))
	}
	return batch, nil
}

// BuildBatch substitutes MissingSN<k> placeholders for blank serials,
// numbering them 1..n within the batch.
func BuildBatch(site domain.Site, devices []domain.Device) domain.SerialBatch {
	batch := domain.SerialBatch{
		Site:    site,
		Entries: make([]domain.BatchEntry, 0, len(devices)),
	}

	missing := 0
	for _, d := range devices {
		entry := domain.BatchEntry{DeviceName: d.Name, Serial: strings.TrimSpace(d.Serial)}
		if entry.Serial == "" {
			missing++
			entry.Serial = domain.PlaceholderSerial(missing)
			entry.Placeholder = true
		}
		batch.Entries = append(batch.Entries, entry)
	}
	return batch
}

// column locates the header cell anywhere in the sheet and returns that
// column below the fixed header, each cell trimmed.
func column(values [][]string, sheet, header string) ([]string, error) {
	col := -1
	for _, row := range values {
		for j, cell := range row {
			if cell == header {
				col = j
				break
			}
		}
		if col >= 0 {
			break
		}
	}
	if col < 0 {
		return nil, &RegistryLookupError{Sheet: sheet, Column: header}
	}

	var cells []string
	for i := config.RegistryHeaderRows; i < len(values); i++ {
		cell := ""
		if col < len(values[i]) {
			cell = strings.TrimSpace(values[i][col])
		}
		cells = append(cells, cell)
	}
	return cells, nil
}

func cellAt(cells []string, i int) string {
	if i < len(cells) {
		return cells[i]
	}
	return ""
}
