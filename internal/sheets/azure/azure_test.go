package azure

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"budget/internal/core"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
)

// fakeTable answers entity queries for one table with a fixed page.
func fakeTable(t *testing.T, status int, entities []map[string]any) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || !strings.HasSuffix(r.URL.Path, "/ledgerrows()") {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("$filter"); got != "PartitionKey eq 'Accounts'" {
			t.Errorf("unexpected filter %q", got)
		}
		w.Header().Set("Content-Type", "application/json;odata=minimalmetadata")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = io.WriteString(w, `{"odata.error":{"code":"AuthorizationFailure","message":{"lang":"en-US","value":"denied"}}}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"value": entities})
	}))
	t.Cleanup(srv.Close)

	cred, err := aztables.NewSharedKeyCredential(azuriteAccountName, azuriteAccountKey)
	if err != nil {
		t.Fatalf("credential: %v", err)
	}
	svc, err := aztables.NewServiceClientWithSharedKey(srv.URL+"/"+azuriteAccountName, cred, nil)
	if err != nil {
		t.Fatalf("service client: %v", err)
	}
	return NewWithClient(svc.NewClient("ledgerrows"))
}

func TestReadRowsOrdersByPosition(t *testing.T) {
	c := fakeTable(t, http.StatusOK, []map[string]any{
		{"PartitionKey": "Accounts", "RowKey": "00000001", "Cells": `["Checking","100"]`},
		{"PartitionKey": "Accounts", "RowKey": "00000000", "Cells": `["Name","Balance"]`},
		{"PartitionKey": "Accounts", "RowKey": "00000002", "Cells": `[]`},
	})

	rows, err := c.ReadRows(context.Background(), "Accounts")
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	want := [][]string{{"Name", "Balance"}, {"Checking", "100"}, {}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("ReadRows = %v, want %v", rows, want)
	}
}

func TestReadRowsCorruptCells(t *testing.T) {
	c := fakeTable(t, http.StatusOK, []map[string]any{
		{"PartitionKey": "Accounts", "RowKey": "00000000", "Cells": `not json`},
	})
	_, err := c.ReadRows(context.Background(), "Accounts")
	if !core.IsDataShape(err) {
		t.Fatalf("expected data shape error, got %v", err)
	}
}

func TestReadRowsServiceError(t *testing.T) {
	c := fakeTable(t, http.StatusForbidden, nil)
	_, err := c.ReadRows(context.Background(), "Accounts")
	if !core.IsConnectivity(err) {
		t.Fatalf("expected connectivity error, got %v", err)
	}
}

func TestOverwriteActions(t *testing.T) {
	rows := [][]string{{"Name", "Balance"}, nil}
	actions, err := overwriteActions("Accounts", rows, []string{"00000000", "00000001", "00000002", "00000003"})
	if err != nil {
		t.Fatalf("overwriteActions: %v", err)
	}
	if len(actions) != 4 {
		t.Fatalf("got %d actions, want 2 upserts and 2 deletes", len(actions))
	}

	var upserts, deletes []rowEntity
	for _, a := range actions {
		var e rowEntity
		if err := json.Unmarshal(a.Entity, &e); err != nil {
			t.Fatalf("decode entity: %v", err)
		}
		if e.PartitionKey != "Accounts" {
			t.Errorf("PartitionKey = %q", e.PartitionKey)
		}
		switch a.ActionType {
		case aztables.TransactionTypeInsertReplace:
			upserts = append(upserts, e)
		case aztables.TransactionTypeDelete:
			deletes = append(deletes, e)
		default:
			t.Errorf("unexpected action %v", a.ActionType)
		}
	}
	if upserts[0].RowKey != "00000000" || upserts[0].Cells != `["Name","Balance"]` || upserts[1].Cells != `[]` {
		t.Errorf("unexpected upserts %+v", upserts)
	}
	if len(deletes) != 2 || deletes[0].RowKey != "00000002" || deletes[1].RowKey != "00000003" || deletes[0].Cells != "" {
		t.Errorf("unexpected deletes %+v", deletes)
	}
}

func TestKeysAndFilters(t *testing.T) {
	if got := rowKey(42); got != "00000042" {
		t.Errorf("rowKey(42) = %q", got)
	}
	if got := rowKey(123456789); got != "123456789" {
		t.Errorf("rowKey(123456789) = %q", got)
	}
	if got := partitionFilter("Bob's Budget"); got != "PartitionKey eq 'Bob''s Budget'" {
		t.Errorf("partitionFilter = %q", got)
	}
	if row, err := decodeCells(""); err != nil || len(row) != 0 {
		t.Errorf("decodeCells(\"\") = %v, %v", row, err)
	}
}
