package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"maintrack/internal/log"
	ports "maintrack/internal/sheets"
)

const defaultLedgerSheet = "Ledger"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	ledgerSheet   string
}

var (
	_ ports.LedgerWriter = (*Client)(nil)
	_ ports.LedgerReader = (*Client)(nil)
)

// New creates a Sheets ledger client authenticated with service account
// credentials from the environment. An empty sheet name means "Ledger".
func New(ctx context.Context, spreadsheetID, sheet string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(svc, spreadsheetID, sheet), nil
}

func newClient(svc *gsheet.Service, spreadsheetID, sheet string) *Client {
	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		sheet = defaultLedgerSheet
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, ledgerSheet: sheet}
}

// CredentialsJSON resolves service account credentials from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS, in that order.
func CredentialsJSON(ctx context.Context) ([]byte, error) {
	inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline service account credentials", log.FieldComponent, log.ComponentSheets)
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.DebugContext(ctx, "Read service account credentials", "path", file, "size", len(b))
		return b, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	creds, err := CredentialsJSON(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// AppendLedgerRow appends the row after the last filled row of the ledger
// sheet and returns the updated A1 range.
func (c *Client) AppendLedgerRow(ctx context.Context, row ports.LedgerRow) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if row.RecordID == "" {
		return "", errors.New("ledger row without record id")
	}

	rng := fmt.Sprintf("%s!A:%s", c.ledgerSheet, lastColumn)
	vr := &gsheet.ValueRange{Values: [][]any{ledgerValues(row)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", c.ledgerSheet, err)
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

// ListLedger reads the ledger body (row 1 is the header).
func (c *Client) ListLedger(ctx context.Context, year int) ([]ports.LedgerRow, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A1:%s", c.ledgerSheet, lastColumn)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return parseLedger(resp.Values, year)
}
