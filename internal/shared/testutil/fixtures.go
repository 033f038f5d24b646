package testutil

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"warrantysync/pkg/contracts/domain"
)

// PortalHeader is the column layout of a vendor export as seen in the field.
// Column 1 is the portal's internal row id.
var PortalHeader = []string{
	"Serial No.", "Row Id", "Product Description", "Start Date", "End Date", "Warranty Expiry Date", "Status",
}

// RegistrySheet builds registry worksheet values with the two-row header
// the registry expects and the given devices below it.
func RegistrySheet(devices ...domain.Device) [][]string {
	values := [][]string{
		{"Site inventory", "", ""},
		{domain.ColumnDeviceName, domain.ColumnSerialNumber, "Location"},
	}
	for _, d := range devices {
		values = append(values, []string{d.Name, d.Serial, "Rack 1"})
	}
	return values
}

// WriteReportWorkbook saves a ReportData workbook under dir and returns its path
func WriteReportWorkbook(t *testing.T, dir string, header []string, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "ReportData"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	if err := f.SetSheetRow("ReportData", "A1", &header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		r := row
		if err := f.SetSheetRow("ReportData", cell, &r); err != nil {
			t.Fatalf("write row %d: %v", i, err)
		}
	}

	path := filepath.Join(dir, "ReportData.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}
