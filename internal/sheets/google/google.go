package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"budget/internal/core"
	ports "budget/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

// Ensure interface conformance
var _ ports.TableStore = (*Client)(nil)

// Credentials selects the service account key. JSON wins over File.
type Credentials struct {
	JSON string
	File string
}

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds := Credentials{
		JSON: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")),
		File: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")),
	}
	if creds.JSON == "" && creds.File == "" {
		creds.File = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	return New(ctx, spreadsheetID, creds)
}

// New creates a Sheets client for one spreadsheet using service account
// credentials. Credential problems are reported as connectivity errors:
// the store cannot be reached with what was configured.
func New(ctx context.Context, spreadsheetID string, creds Credentials) (*Client, error) {
	credentialsJSON, err := loadCredentials(ctx, creds)
	if err != nil {
		return nil, &core.ConnectivityError{Op: "connect", Err: err}
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, &core.ConnectivityError{Op: "connect", Err: fmt.Errorf("create sheets service: %w", err)}
	}
	return NewWithService(svc, spreadsheetID), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID string) *Client {
	return &Client{svc: svc, spreadsheetID: spreadsheetID}
}

func loadCredentials(ctx context.Context, creds Credentials) ([]byte, error) {
	switch {
	case creds.JSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(creds.JSON), nil
	case creds.File != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", creds.File)
		b, err := os.ReadFile(creds.File)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// ReadRows reads the whole sheet. The API drops trailing empty cells, so
// short rows are padded to the header width; longer rows are left as they
// are for the caller to reject.
func (c *Client) ReadRows(ctx context.Context, table string) ([][]string, error) {
	if c.svc == nil {
		return nil, &core.ConnectivityError{Op: "read", Table: table, Err: errors.New("sheets service not initialized")}
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, sheetRange(table, "")).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, &core.ConnectivityError{Op: "read", Table: table, Err: err}
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		rows = append(rows, toStrings(row))
	}
	if len(rows) > 0 {
		width := len(rows[0])
		for i, row := range rows {
			for len(row) < width {
				row = append(row, "")
			}
			rows[i] = row
		}
	}
	return rows, nil
}

// OverwriteRows clears the sheet and writes rows from A1. The two calls are
// not atomic: a failed update leaves the sheet cleared until the next save.
func (c *Client) OverwriteRows(ctx context.Context, table string, rows [][]string) error {
	if c.svc == nil {
		return &core.ConnectivityError{Op: "write", Table: table, Err: errors.New("sheets service not initialized")}
	}
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, sheetRange(table, ""), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return &core.ConnectivityError{Op: "write", Table: table, Err: fmt.Errorf("clear: %w", err)}
	}
	if len(rows) == 0 {
		return nil
	}

	values := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		values[i] = cells
	}
	vr := &gsheet.ValueRange{Values: values}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, sheetRange(table, "A1"), vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return &core.ConnectivityError{Op: "write", Table: table, Err: fmt.Errorf("update: %w", err)}
	}

	slog.DebugContext(ctx, "Sheet overwritten", "sheet", table, "rows", len(rows))
	return nil
}

// sheetRange builds an A1 range, quoting sheet names that need it.
func sheetRange(sheet, cells string) string {
	name := sheet
	if needsQuoting(sheet) {
		name = "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	}
	if cells == "" {
		return name
	}
	return name + "!" + cells
}

func needsQuoting(sheet string) bool {
	for _, r := range sheet {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch x := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(x, 'f', -1, 64)
		case nil:
			out[i] = ""
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(x))
		}
	}
	return out
}
