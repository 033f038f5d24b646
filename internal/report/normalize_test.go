package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	apperrors "warrantysync/internal/errors"
	"warrantysync/internal/registry"
	"warrantysync/internal/shared/testutil"
	"warrantysync/pkg/contracts/domain"
)

func exportRow(serial, start, end, expiry string) []string {
	return []string{serial, "row-7f3", "Edge Router 4", start, end, expiry, "Active"}
}

func TestNormalize_EndToEndScenario(t *testing.T) {
	batch := registry.BuildBatch(domain.Site{Title: "HQ"}, []domain.Device{
		{Name: "Router-A", Serial: "SN1"},
		{Name: "Router-B", Serial: ""},
		{Name: "Router-C", Serial: "SN1"},
	})
	require.Equal(t, []string{"SN1", "MissingSN1", "SN1"}, batch.Serials())

	raw := &domain.RawReport{
		Header: testutil.PortalHeader,
		Rows: [][]string{
			exportRow("SN1", "01-15-2022", "01-15-2025", "01-15-2025"),
			exportRow("MissingSN1", "", "", ""),
			exportRow("SN1", "01-15-2022", "01-15-2025", "01-15-2025"),
		},
	}

	table, err := Normalize(raw, batch)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Device Name", "Serial No.", "Product Description", "Start Date", "End Date", "Warranty Expiry Date", "Status",
	}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"Router-A", "SN1", "Edge Router 4", "01-15-2022", "01-15-2025", "01-15-2025", "Active"}, table.Rows[0])
	assert.Equal(t, []string{"Router-B", "Missing S/N", "Edge Router 4", "N/A", "N/A", "N/A", "Active"}, table.Rows[1])

	for _, row := range table.Rows {
		assert.NotContains(t, row, "Router-C")
	}
}

func TestNormalize_Dates(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"03-04-2025", "03-04-2025"},
		{"3-4-2025", "03-04-2025"},
		{"2025-03-04", "N/A"},
		{"13-01-2025", "N/A"},
		{"not a date", "N/A"},
		{"", "N/A"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			batch := registry.BuildBatch(domain.Site{Title: "HQ"}, []domain.Device{{Name: "AP", Serial: "SN1"}})
			raw := &domain.RawReport{
				Header: testutil.PortalHeader,
				Rows:   [][]string{exportRow("SN1", tt.in, tt.in, tt.in)},
			}

			table, err := Normalize(raw, batch)
			require.NoError(t, err)
			require.Len(t, table.Rows, 1)
			for _, col := range []string{domain.ColumnStartDate, domain.ColumnEndDate, domain.ColumnWarrantyExpiry} {
				assert.Equal(t, tt.want, table.Rows[0][table.Column(col)], col)
			}
		})
	}
}

func TestNormalize_UnknownSerialAndShortRows(t *testing.T) {
	batch := registry.BuildBatch(domain.Site{Title: "HQ"}, []domain.Device{{Name: "AP", Serial: "SN1"}})
	raw := &domain.RawReport{
		Header: testutil.PortalHeader,
		Rows: [][]string{
			{"SN9", "row-1", "Switch"},
			{},
			{"  ", ""},
		},
	}

	table, err := Normalize(raw, batch)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1, "blank rows skipped")
	assert.Equal(t, []string{"N/A", "SN9", "Switch", "N/A", "N/A", "N/A", "N/A"}, table.Rows[0])
}

func TestNormalize_MissingSerialColumn(t *testing.T) {
	raw := &domain.RawReport{
		Header: []string{"Serial", "Row Id", "Start Date"},
		Rows:   [][]string{{"SN1", "x", "01-01-2024"}},
	}

	_, err := Normalize(raw, domain.SerialBatch{Site: domain.Site{Title: "HQ"}})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
}

func TestNormalize_MetadataColumnHoldingSerialIsDropped(t *testing.T) {
	raw := &domain.RawReport{
		Header: []string{"Status", "Serial No.", "Start Date"},
		Rows:   [][]string{{"Active", "SN1", "01-01-2024"}},
	}

	_, err := Normalize(raw, domain.SerialBatch{})
	require.Error(t, err, "column 1 is always dropped")
}

func TestNormalize_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		devices := rapid.SliceOfN(rapid.Custom(func(t *rapid.T) domain.Device {
			return domain.Device{
				Name:   rapid.StringMatching(`Dev-[A-Z]{1,3}`).Draw(t, "name"),
				Serial: rapid.SampledFrom([]string{"", "SN1", "SN2", "SN3", "SN4"}).Draw(t, "serial"),
			}
		}), 1, 12).Draw(t, "devices")
		batch := registry.BuildBatch(domain.Site{Title: "S"}, devices)

		// The portal answers with one row per submitted serial, duplicates included.
		var rows [][]string
		for _, s := range batch.Serials() {
			date := rapid.SampledFrom([]string{"02-28-2024", "garbage", ""}).Draw(t, "date")
			rows = append(rows, exportRow(s, date, date, date))
		}
		raw := &domain.RawReport{Header: testutil.PortalHeader, Rows: rows}

		table, err := Normalize(raw, batch)
		if err != nil {
			t.Fatalf("normalize: %v", err)
		}

		if len(table.Rows) > batch.Len() {
			t.Fatalf("%d rows for a batch of %d", len(table.Rows), batch.Len())
		}

		serialCol := table.Column(domain.ColumnSerialNo)
		firstName := map[string]string{}
		for _, e := range batch.Entries {
			if _, ok := firstName[e.Serial]; !ok {
				firstName[e.Serial] = e.DeviceName
			}
		}

		seen := map[string]bool{}
		placeholders := 0
		for i, row := range table.Rows {
			if len(row) != table.Width() {
				t.Fatalf("row %d has %d cells, want %d", i, len(row), table.Width())
			}
			for j, cell := range row {
				if cell == "" {
					t.Fatalf("row %d cell %d is empty", i, j)
				}
			}
			serial := row[serialCol]
			if serial == domain.MissingSerialMarker {
				placeholders++
				continue
			}
			if seen[serial] {
				t.Fatalf("serial %q published twice", serial)
			}
			seen[serial] = true
			if row[0] != firstName[serial] {
				t.Fatalf("serial %q carries %q, want first device %q", serial, row[0], firstName[serial])
			}
			for _, col := range []string{domain.ColumnStartDate, domain.ColumnEndDate, domain.ColumnWarrantyExpiry} {
				if v := row[table.Column(col)]; v != "02-28-2024" && v != domain.NotAvailable {
					t.Fatalf("date column %s holds %q", col, v)
				}
			}
		}
		if placeholders != batch.Placeholders() {
			t.Fatalf("%d placeholder rows, want %d", placeholders, batch.Placeholders())
		}
	})
}

func TestReadWorkbook(t *testing.T) {
	path := testutil.WriteReportWorkbook(t, t.TempDir(), testutil.PortalHeader, [][]any{
		{"SN1", "row-1", "Edge Router 4", "01-15-2022", "01-15-2025", "01-15-2025", "Active"},
		{"MissingSN1", "row-2", "Access Point", "", "", "", "Unknown"},
	})

	raw, err := ReadWorkbook(path)
	require.NoError(t, err)
	assert.Equal(t, testutil.PortalHeader, raw.Header)
	require.Len(t, raw.Rows, 2)
	assert.Equal(t, "SN1", raw.Rows[0][0])
	assert.Equal(t, "Unknown", raw.Rows[1][6])
}

func TestReadWorkbook_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := ReadWorkbook(t.TempDir() + "/absent.xlsx")
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
	})

	t.Run("header only", func(t *testing.T) {
		path := testutil.WriteReportWorkbook(t, t.TempDir(), testutil.PortalHeader, nil)
		raw, err := ReadWorkbook(path)
		require.NoError(t, err)
		assert.Empty(t, raw.Rows)
	})
}
