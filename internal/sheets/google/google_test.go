package google

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"budget/internal/core"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSheets emulates the values endpoints of the Sheets API for one
// spreadsheet.
type fakeSheets struct {
	mu      sync.Mutex
	values  map[string][][]any
	calls   []string
	failAll bool
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)

	if f.failAll {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"code":403,"message":"The caller does not have permission"}}`)
		return
	}

	const prefix = "/v4/spreadsheets/sheet-id/values/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.NotFound(w, r)
		return
	}
	rng := strings.TrimPrefix(r.URL.Path, prefix)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"range": rng, "majorDimension": "ROWS", "values": f.values[rng]})
	case r.Method == http.MethodPost && strings.HasSuffix(rng, ":clear"):
		delete(f.values, strings.TrimSuffix(rng, ":clear"))
		_, _ = io.WriteString(w, `{}`)
	case r.Method == http.MethodPut:
		var vr struct {
			Values [][]any `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.URL.Query().Get("valueInputOption") != "RAW" {
			http.Error(w, "expected RAW input", http.StatusBadRequest)
			return
		}
		f.values[strings.TrimSuffix(rng, "!A1")] = vr.Values
		_, _ = io.WriteString(w, `{}`)
	default:
		http.Error(w, "unexpected call", http.StatusBadRequest)
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return NewWithService(svc, "sheet-id")
}

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), "sheet-id", Credentials{})
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}
	if !core.IsConnectivity(err) {
		t.Errorf("expected connectivity error, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), "sheet-id", Credentials{File: t.TempDir() + "/missing.json"})
	if !core.IsConnectivity(err) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected connectivity error wrapping ErrNotExist, got %v", err)
	}
}

func TestReadRowsPadsShortRows(t *testing.T) {
	fake := &fakeSheets{values: map[string][][]any{
		"Accounts": {
			{"Account", "Balance"},
			{"Checking", 100.5},
			{"Empty"},
			{"Savings", "0"},
		},
	}}
	c := newTestClient(t, fake)

	rows, err := c.ReadRows(context.Background(), "Accounts")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := [][]string{{"Account", "Balance"}, {"Checking", "100.5"}, {"Empty", ""}, {"Savings", "0"}}
	if len(rows) != len(want) {
		t.Fatalf("rows = %v, want %v", rows, want)
	}
	for i := range want {
		if strings.Join(rows[i], "|") != strings.Join(want[i], "|") {
			t.Errorf("row %d = %v, want %v", i, rows[i], want[i])
		}
	}
}

func TestOverwriteRowsClearsThenWrites(t *testing.T) {
	fake := &fakeSheets{values: map[string][][]any{
		"Budget": {{"Category", "Monthly Budget"}, {"Old", "1"}, {"Stale", "2"}},
	}}
	c := newTestClient(t, fake)
	ctx := context.Background()

	in := [][]string{{"Category", "Monthly Budget"}, {"Food", "50"}}
	if err := c.OverwriteRows(ctx, "Budget", in); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	rows, err := c.ReadRows(ctx, "Budget")
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "Food" || rows[1][1] != "50" {
		t.Fatalf("unexpected rows after overwrite: %v", rows)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.calls) < 2 || !strings.HasSuffix(fake.calls[0], ":clear") || !strings.HasPrefix(fake.calls[1], http.MethodPut) {
		t.Fatalf("expected clear then update, got %v", fake.calls)
	}
}

func TestAPIErrorsAreConnectivityErrors(t *testing.T) {
	c := newTestClient(t, &fakeSheets{values: map[string][][]any{}, failAll: true})
	ctx := context.Background()

	_, err := c.ReadRows(ctx, "Accounts")
	var ce *core.ConnectivityError
	if !errors.As(err, &ce) || ce.Op != "read" || ce.Table != "Accounts" {
		t.Fatalf("expected read connectivity error, got %v", err)
	}
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Code != http.StatusForbidden {
		t.Fatalf("expected wrapped googleapi 403, got %v", err)
	}

	err = c.OverwriteRows(ctx, "Accounts", [][]string{{"Account", "Balance"}})
	if !errors.As(err, &ce) || ce.Op != "write" {
		t.Fatalf("expected write connectivity error, got %v", err)
	}
}

func TestNilServiceFails(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if _, err := c.ReadRows(context.Background(), "Accounts"); !core.IsConnectivity(err) {
		t.Fatalf("expected connectivity error, got %v", err)
	}
	if err := c.OverwriteRows(context.Background(), "Accounts", nil); !core.IsConnectivity(err) {
		t.Fatalf("expected connectivity error, got %v", err)
	}
}

func TestSheetRange(t *testing.T) {
	tests := []struct {
		sheet, cells, want string
	}{
		{"Accounts", "", "Accounts"},
		{"Accounts", "A1", "Accounts!A1"},
		{"My Budget", "A1", "'My Budget'!A1"},
		{"Gaby's", "", "'Gaby''s'"},
	}
	for _, tt := range tests {
		if got := sheetRange(tt.sheet, tt.cells); got != tt.want {
			t.Errorf("sheetRange(%q, %q) = %q, want %q", tt.sheet, tt.cells, got, tt.want)
		}
	}
}
