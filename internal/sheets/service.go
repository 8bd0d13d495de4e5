// Package sheets appends translation results to a Google Sheet so they can be
// reviewed later.
package sheets

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
	"ocrtranslate/internal/logger"
)

// DefaultSheetName is the tab written to when none is configured.
const DefaultSheetName = "Translations"

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

var headers = []interface{}{
	"File", "Original", "Translated", "Confidence",
	"X", "Y", "Width", "Height", "Processed At",
}

// Row is one translated text block.
type Row struct {
	Source     string
	Original   string
	Translated string
	Confidence float64
	X          int
	Y          int
	Width      int
	Height     int
}

// Journal appends rows to one tab of a spreadsheet.
type Journal struct {
	sheetsService *sheets.Service
	spreadsheetID string
	sheetName     string
	log           zerolog.Logger

	ready bool
	now   func() time.Time
}

// NewJournal creates a journal for the spreadsheet at sheetURL using the
// service account in GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS.
func NewJournal(ctx context.Context, sheetURL, sheetName string) (*Journal, error) {
	const op = "NewJournal"

	spreadsheetID, err := extractSpreadsheetID(sheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to extract spreadsheet ID: %w", op, err)
	}

	var creds []byte
	if credsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credsFile != "" {
		creds, err = os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read credentials file: %w", op, err)
		}
	} else if credsJSON := os.Getenv("GOOGLE_CREDENTIALS"); credsJSON != "" {
		creds = []byte(credsJSON)
	} else {
		return nil, fmt.Errorf("%s: neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set", op)
	}

	config, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}

	sheetsService, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	return NewJournalWithService(sheetsService, spreadsheetID, sheetName), nil
}

// NewJournalWithService creates a journal on an existing Sheets client.
func NewJournalWithService(sheetsService *sheets.Service, spreadsheetID, sheetName string) *Journal {
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	return &Journal{
		sheetsService: sheetsService,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		log:           logger.WithComponent("sheets"),
		now:           time.Now,
	}
}

func extractSpreadsheetID(url string) (string, error) {
	matches := spreadsheetIDPattern.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", fmt.Errorf("invalid Google Sheets URL format")
	}
	return matches[1], nil
}

// Append writes rows below the existing content. The tab and its header row
// are created on first use.
func (j *Journal) Append(ctx context.Context, rows []Row) error {
	const op = "Append"

	if len(rows) == 0 {
		return nil
	}
	if !j.ready {
		if err := j.ensureSheetWithHeaders(ctx); err != nil {
			return fmt.Errorf("%s: failed to ensure sheet exists: %w", op, err)
		}
		j.ready = true
	}

	processedAt := j.now().Format("2006-01-02 15:04:05")
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		values[i] = rowToValues(row, processedAt)
	}

	_, err := j.sheetsService.Spreadsheets.Values.Append(
		j.spreadsheetID,
		j.sheetName+"!A:I",
		&sheets.ValueRange{Values: values},
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to append values to sheet: %w", op, err)
	}

	j.log.Debug().
		Int("rows_written", len(values)).
		Str("sheet", j.sheetName).
		Msg("Appended translations to Google Sheet")
	return nil
}

func rowToValues(row Row, processedAt string) []interface{} {
	return []interface{}{
		row.Source,     // A: File
		row.Original,   // B: Original
		row.Translated, // C: Translated
		row.Confidence, // D: Confidence
		row.X,          // E: X
		row.Y,          // F: Y
		row.Width,      // G: Width
		row.Height,     // H: Height
		processedAt,    // I: Processed At
	}
}

func (j *Journal) ensureSheetWithHeaders(ctx context.Context) error {
	const op = "ensureSheetWithHeaders"

	spreadsheet, err := j.sheetsService.Spreadsheets.Get(j.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get spreadsheet: %w", op, err)
	}

	var sheetExists bool
	var sheetID int64
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == j.sheetName {
			sheetExists = true
			sheetID = sheet.Properties.SheetId
			break
		}
	}

	if !sheetExists {
		j.log.Info().Str("sheet", j.sheetName).Msg("Creating new sheet")

		resp, err := j.sheetsService.Spreadsheets.BatchUpdate(j.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{
				{AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: j.sheetName}}},
			},
		}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to create sheet: %w", op, err)
		}
		if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil {
			sheetID = resp.Replies[0].AddSheet.Properties.SheetId
		}
	}

	headerRange := j.sheetName + "!A1:I1"
	resp, err := j.sheetsService.Spreadsheets.Values.Get(j.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get headers: %w", op, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	j.log.Info().Str("sheet", j.sheetName).Msg("Adding headers to sheet")
	_, err = j.sheetsService.Spreadsheets.Values.Update(
		j.spreadsheetID,
		headerRange,
		&sheets.ValueRange{Values: [][]interface{}{headers}},
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to add headers: %w", op, err)
	}

	if err := j.formatHeaders(ctx, sheetID); err != nil {
		j.log.Warn().Err(err).Msg("Failed to format headers, continuing anyway")
	}
	return nil
}

// formatHeaders makes the header row bold and resizes the columns.
func (j *Journal) formatHeaders(ctx context.Context, sheetID int64) error {
	columns := int64(len(headers))
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   columns,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat:      &sheets.TextFormat{Bold: true},
						BackgroundColor: &sheets.Color{Red: 0.9, Green: 0.9, Blue: 0.9},
					},
				},
				Fields: "userEnteredFormat(textFormat,backgroundColor)",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   columns,
				},
			},
		},
	}

	_, err := j.sheetsService.Spreadsheets.BatchUpdate(j.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("formatHeaders: failed to format headers: %w", err)
	}
	return nil
}
