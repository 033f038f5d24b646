package report

import (
	"regexp"
	"strings"
	"time"

	apperrors "warrantysync/internal/errors"
	"warrantysync/pkg/contracts/domain"
)

const (
	// metadataColumn is the portal-internal column dropped from every export
	metadataColumn = 1

	// dateLayout is MM-DD-YYYY; parsing also accepts single-digit month and day
	dateLayout      = "01-02-2006"
	dateParseLayout = "1-2-2006"
)

var (
	placeholderPattern = regexp.MustCompile(`^` + domain.PlaceholderPrefix + `\d+$`)

	dateColumns = []string{domain.ColumnStartDate, domain.ColumnEndDate, domain.ColumnWarrantyExpiry}
)

// Normalize turns a raw export into the canonical table for one site.
//
// The metadata column is dropped, rows are de-duplicated by serial keeping
// the first, device names are attached from the batch, placeholder serials
// become "Missing S/N", dates are re-rendered as MM-DD-YYYY and every empty
// cell is filled with "N/A". Blank rows are skipped.
func Normalize(raw *domain.RawReport, batch domain.SerialBatch) (*domain.CanonicalTable, error) {
	if raw == nil {
		return nil, apperrors.NewParsingError("no report to normalize", nil)
	}

	header := dropColumn(raw.Header, metadataColumn)
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	serialCol := indexOf(header, domain.ColumnSerialNo)
	if serialCol < 0 {
		return nil, apperrors.NewParsingError("export has no "+domain.ColumnSerialNo+" column", nil).
			WithContext("site", batch.Site.Title)
	}

	var dateCols []int
	for _, name := range dateColumns {
		if i := indexOf(header, name); i >= 0 {
			dateCols = append(dateCols, i)
		}
	}

	names := batch.DeviceNames()
	seen := make(map[string]struct{}, len(raw.Rows))

	table := &domain.CanonicalTable{
		Header: append([]string{domain.ColumnDeviceName}, header...),
		Rows:   make([][]string, 0, len(raw.Rows)),
	}

	for _, rawRow := range raw.Rows {
		if isBlank(rawRow) {
			continue
		}

		row := make([]string, len(header))
		copy(row, dropColumn(rawRow, metadataColumn))
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}

		serial := row[serialCol]
		if _, dup := seen[serial]; dup {
			continue
		}
		seen[serial] = struct{}{}

		deviceName := names[serial]
		if placeholderPattern.MatchString(serial) {
			row[serialCol] = domain.MissingSerialMarker
		}

		for _, c := range dateCols {
			row[c] = normalizeDate(row[c])
		}

		out := append([]string{deviceName}, row...)
		for i, cell := range out {
			if cell == "" {
				out[i] = domain.NotAvailable
			}
		}
		table.Rows = append(table.Rows, out)
	}

	return table, nil
}

// normalizeDate re-renders an MM-DD-YYYY date or returns "" when unparseable
func normalizeDate(value string) string {
	t, err := time.Parse(dateParseLayout, value)
	if err != nil {
		return ""
	}
	return t.Format(dateLayout)
}

func dropColumn(row []string, col int) []string {
	if col >= len(row) {
		return append([]string(nil), row...)
	}
	out := make([]string, 0, len(row)-1)
	out = append(out, row[:col]...)
	return append(out, row[col+1:]...)
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
