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

	"fintrack/internal/aggregate"
	"fintrack/internal/ports"
)

var _ ports.ReportWriter = (*Client)(nil)

// Client writes one report tab per user into a single spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	prefix        string
}

// Options configures New. CredentialsJSON wins over CredentialsFile.
type Options struct {
	SpreadsheetID   string
	SheetPrefix     string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := loadCredentials(ctx, opts.CredentialsJSON, opts.CredentialsFile)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", opts.SpreadsheetID)
	return NewWithService(svc, opts.SpreadsheetID, opts.SheetPrefix), nil
}

// NewWithService wraps an existing service. An empty prefix means "Report".
func NewWithService(svc *gsheet.Service, spreadsheetID, prefix string) *Client {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "Report"
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, prefix: prefix}
}

// loadCredentials reads service account JSON inline, from a file, or from
// GOOGLE_APPLICATION_CREDENTIALS.
func loadCredentials(ctx context.Context, inline, file string) ([]byte, error) {
	inline = strings.TrimSpace(inline)
	file = strings.TrimSpace(file)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.DebugContext(ctx, "Read service account credentials", "path", file, "size", len(b))
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// WriteReport replaces the contents of the user's tab, creating the tab on
// first use.
func (c *Client) WriteReport(ctx context.Context, userID string, r aggregate.Report) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	title := sheetTitle(c.prefix, userID)
	if err := c.ensureSheet(ctx, title); err != nil {
		return err
	}

	rng := quoteSheet(title) + "!A:Z"
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}

	start := quoteSheet(title) + "!A1"
	vr := &gsheet.ValueRange{Values: reportRows(r)}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, start, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", start, err)
	}
	slog.InfoContext(ctx, "Report written to Google Sheets",
		"user_id", userID,
		"sheet", title,
		"rows", len(vr.Values))
	return nil
}

func (c *Client) ensureSheet(ctx context.Context, title string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return nil
		}
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %q: %w", title, err)
	}
	slog.InfoContext(ctx, "Created report sheet", "sheet", title)
	return nil
}
