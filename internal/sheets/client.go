package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"warrantysync/internal/config"
	apperrors "warrantysync/internal/errors"
)

// UserEntered makes the Sheets API parse written cells as if typed into
// the UI, so dates and numbers keep their types.
const UserEntered = "USER_ENTERED"

// Client wraps the Sheets API. It serves as the registry source and as the
// destination store; all calls share one rate limiter.
type Client struct {
	service *gsheets.Service
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient creates a client authenticated with the configured service
// account file. Extra options replace the credentials option.
func NewClient(ctx context.Context, cfg config.SheetsConfig, logger *slog.Logger, opts ...option.ClientOption) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts) == 0 {
		opts = []option.ClientOption{
			option.WithCredentialsFile(cfg.CredentialsFile),
			option.WithScopes(gsheets.SpreadsheetsScope),
		}
	}

	service, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, apperrors.NewSheetsError("failed to create sheets service", err)
	}

	logger.InfoContext(ctx, "Google Sheets service initialized",
		slog.Float64("requests_per_second", cfg.RequestsPerSecond),
		slog.Int("burst", cfg.Burst))

	return &Client{
		service: service,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:  logger.With(slog.String("component", "sheets")),
	}, nil
}

// SheetTitles lists the worksheet titles of a spreadsheet in order
func (c *Client) SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.service.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, apperrors.NewSheetsError("failed to read spreadsheet", err).
			WithContext("spreadsheet_id", spreadsheetID)
	}

	titles := make([]string, 0, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties != nil {
			titles = append(titles, s.Properties.Title)
		}
	}

	c.logger.DebugContext(ctx, "Listed worksheets",
		slog.String("spreadsheet_id", spreadsheetID),
		slog.Int("count", len(titles)),
		slog.Duration("duration", time.Since(start)))
	return titles, nil
}

// SheetValues returns the formatted cell values of a whole worksheet
func (c *Client) SheetValues(ctx context.Context, spreadsheetID, sheetTitle string) ([][]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.service.Spreadsheets.Values.Get(spreadsheetID, QuoteSheet(sheetTitle)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, apperrors.NewSheetsError("failed to read worksheet", err).
			WithContext("sheet", sheetTitle)
	}

	values := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		values[i] = make([]string, len(row))
		for j, cell := range row {
			values[i][j] = fmt.Sprint(cell)
		}
	}
	return values, nil
}

// Update overwrites the region of a worksheet starting at A1 with rows.
// Cells outside the written region are left untouched.
func (c *Client) Update(ctx context.Context, spreadsheetID, sheetTitle string, rows [][]string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		values[i] = make([]interface{}, len(row))
		for j, cell := range row {
			values[i][j] = cell
		}
	}

	writeRange := QuoteSheet(sheetTitle) + "!A1"
	resp, err := c.service.Spreadsheets.Values.Update(
		spreadsheetID,
		writeRange,
		&gsheets.ValueRange{Values: values},
	).ValueInputOption(UserEntered).Context(ctx).Do()
	if err != nil {
		return apperrors.NewSheetsError("failed to update worksheet", err).
			WithContext("sheet", sheetTitle).
			WithContext("range", writeRange)
	}

	c.logger.DebugContext(ctx, "Worksheet updated",
		slog.String("range", writeRange),
		slog.Int64("updated_cells", resp.UpdatedCells))
	return nil
}

// QuoteSheet quotes a worksheet title for use in A1 notation
func QuoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
