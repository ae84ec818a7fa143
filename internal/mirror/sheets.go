// Package mirror pushes ledger rows to an external Google Sheets
// spreadsheet. It is write-only: the local store stays the source of
// truth and the sheet is a view for the user.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"fintrack/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type SheetsMirror struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// New creates a Sheets mirror using service account credentials from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, sheetName string) (*SheetsMirror, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = "Transactions"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &SheetsMirror{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return service, nil
}

// AppendTransaction writes one ledger row to the next free row of the
// sheet, in the CSV column order (date, amount, category, note) with
// the row id first.
func (m *SheetsMirror) AppendTransaction(ctx context.Context, t core.Transaction) (string, error) {
	if m.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	vr := &gsheet.ValueRange{Values: [][]any{{
		t.ID,
		t.Date.String(),
		t.Amount.Decimal().InexactFloat64(),
		t.Category,
		t.Note,
	}}}

	rng := fmt.Sprintf("%s!A:E", m.sheetName)
	resp, err := m.svc.Spreadsheets.Values.Append(m.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", m.sheetName, err)
	}

	ref := ""
	if resp.Updates != nil {
		ref = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Transaction mirrored to sheet",
		"id", t.ID,
		"sheet", m.sheetName,
		"range", ref)
	return ref, nil
}
