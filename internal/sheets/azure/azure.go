// Package azure stores ledger tables in Azure Table Storage. Every ledger
// table lives in one storage table: the partition key is the ledger table
// name and the row key is the zero-padded row position.
package azure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"budget/internal/core"
	ports "budget/internal/sheets"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
)

const (
	// Standard Azurite account name and key
	azuriteAccountName = "devstoreaccount1"
	azuriteAccountKey  = "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="

	// Entity group transactions accept at most 100 actions.
	batchSize = 100
	keyDigits = 8
)

var _ ports.TableStore = (*Client)(nil)

type Client struct {
	table *aztables.Client
}

type rowEntity struct {
	PartitionKey string
	RowKey       string
	Cells        string `json:",omitempty"`
}

// New connects to the table service at serviceURL and makes sure table
// exists. A plain http URL is treated as a local Azurite emulator and
// signed with its well-known key; anything else uses the default Azure
// credential chain.
func New(ctx context.Context, serviceURL, table string) (*Client, error) {
	svc, err := newServiceClient(serviceURL)
	if err != nil {
		return nil, &core.ConnectivityError{Op: "connect", Err: err}
	}
	if _, err := svc.CreateTable(ctx, table, nil); err != nil {
		var azErr *azcore.ResponseError
		if !errors.As(err, &azErr) || azErr.ErrorCode != "TableAlreadyExists" {
			return nil, &core.ConnectivityError{Op: "connect", Table: table, Err: fmt.Errorf("create table: %w", err)}
		}
	}
	slog.InfoContext(ctx, "Azure table store ready", "service_url", serviceURL, "table", table)
	return NewWithClient(svc.NewClient(table)), nil
}

// NewWithClient wraps an existing table client.
func NewWithClient(table *aztables.Client) *Client {
	return &Client{table: table}
}

func newServiceClient(serviceURL string) (*aztables.ServiceClient, error) {
	if strings.HasPrefix(serviceURL, "http://") {
		cred, err := aztables.NewSharedKeyCredential(azuriteAccountName, azuriteAccountKey)
		if err != nil {
			return nil, fmt.Errorf("create shared key credential: %w", err)
		}
		return aztables.NewServiceClientWithSharedKey(serviceURL, cred, nil)
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("create default azure credential: %w", err)
	}
	return aztables.NewServiceClient(serviceURL, cred, nil)
}

// ReadRows returns the partition for table ordered by position. An unknown
// table has no rows.
func (c *Client) ReadRows(ctx context.Context, table string) ([][]string, error) {
	entities, err := c.list(ctx, table, "RowKey,Cells")
	if err != nil {
		return nil, &core.ConnectivityError{Op: "read", Table: table, Err: err}
	}
	slices.SortFunc(entities, func(a, b rowEntity) int { return strings.Compare(a.RowKey, b.RowKey) })

	rows := make([][]string, 0, len(entities))
	for i, e := range entities {
		row, err := decodeCells(e.Cells)
		if err != nil {
			return nil, &core.DataShapeError{Table: table, Row: i + 1, Reason: err.Error()}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// OverwriteRows upserts every row and deletes the rows past the new end.
// Each batch of 100 is atomic; the whole overwrite is not.
func (c *Client) OverwriteRows(ctx context.Context, table string, rows [][]string) error {
	existing, err := c.list(ctx, table, "RowKey")
	if err != nil {
		return &core.ConnectivityError{Op: "write", Table: table, Err: fmt.Errorf("list existing rows: %w", err)}
	}
	keys := make([]string, len(existing))
	for i, e := range existing {
		keys[i] = e.RowKey
	}

	actions, err := overwriteActions(table, rows, keys)
	if err != nil {
		return err
	}
	for start := 0; start < len(actions); start += batchSize {
		end := min(start+batchSize, len(actions))
		if _, err := c.table.SubmitTransaction(ctx, actions[start:end], nil); err != nil {
			return &core.ConnectivityError{Op: "write", Table: table, Err: fmt.Errorf("submit batch %d-%d: %w", start, end, err)}
		}
	}

	slog.DebugContext(ctx, "Azure table overwritten", "sheet", table, "rows", len(rows), "actions", len(actions))
	return nil
}

func (c *Client) list(ctx context.Context, table, fields string) ([]rowEntity, error) {
	filter := partitionFilter(table)
	pager := c.table.NewListEntitiesPager(&aztables.ListEntitiesOptions{
		Filter: &filter,
		Select: &fields,
	})

	var out []rowEntity
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			var e rowEntity
			if err := json.Unmarshal(raw, &e); err != nil {
				return nil, fmt.Errorf("decode entity: %w", err)
			}
			out = append(out, e)
		}
	}
	return out, nil
}

// overwriteActions builds the batch that turns the stored partition with
// the given row keys into rows.
func overwriteActions(table string, rows [][]string, existingKeys []string) ([]aztables.TransactionAction, error) {
	wanted := make(map[string]bool, len(rows))
	actions := make([]aztables.TransactionAction, 0, len(rows))
	for i, row := range rows {
		if row == nil {
			row = []string{}
		}
		cells, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("encode row %d: %w", i+1, err)
		}
		key := rowKey(i)
		wanted[key] = true
		entity, err := json.Marshal(rowEntity{PartitionKey: table, RowKey: key, Cells: string(cells)})
		if err != nil {
			return nil, fmt.Errorf("encode entity %d: %w", i+1, err)
		}
		actions = append(actions, aztables.TransactionAction{
			ActionType: aztables.TransactionTypeInsertReplace,
			Entity:     entity,
		})
	}

	for _, key := range existingKeys {
		if wanted[key] {
			continue
		}
		entity, err := json.Marshal(rowEntity{PartitionKey: table, RowKey: key})
		if err != nil {
			return nil, fmt.Errorf("encode delete %s: %w", key, err)
		}
		actions = append(actions, aztables.TransactionAction{
			ActionType: aztables.TransactionTypeDelete,
			Entity:     entity,
		})
	}
	return actions, nil
}

func rowKey(position int) string {
	s := strconv.Itoa(position)
	if len(s) >= keyDigits {
		return s
	}
	return strings.Repeat("0", keyDigits-len(s)) + s
}

// partitionFilter quotes table for an OData filter.
func partitionFilter(table string) string {
	return "PartitionKey eq '" + strings.ReplaceAll(table, "'", "''") + "'"
}

func decodeCells(cells string) ([]string, error) {
	if cells == "" {
		return []string{}, nil
	}
	var row []string
	if err := json.Unmarshal([]byte(cells), &row); err != nil {
		return nil, fmt.Errorf("corrupt stored row: %v", err)
	}
	return row, nil
}
