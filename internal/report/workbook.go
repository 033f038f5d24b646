package report

import (
	"github.com/xuri/excelize/v2"

	"warrantysync/internal/config"
	apperrors "warrantysync/internal/errors"
	"warrantysync/pkg/contracts/domain"
)

// ReadWorkbook loads the ReportData sheet of a downloaded export. The first
// row is the header; every following row is data.
func ReadWorkbook(path string) (*domain.RawReport, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open export workbook", err).
			WithContext("path", path)
	}
	defer f.Close()

	rows, err := f.GetRows(config.ReportSheetName)
	if err != nil {
		return nil, apperrors.NewParsingError("export workbook has no "+config.ReportSheetName+" sheet", err).
			WithContext("path", path)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewParsingError("export sheet is empty", nil).
			WithContext("path", path)
	}

	return &domain.RawReport{
		Header: rows[0],
		Rows:   rows[1:],
	}, nil
}
