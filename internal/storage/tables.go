package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"budget/internal/core"
	ports "budget/internal/sheets"

	_ "modernc.org/sqlite"
)

var _ ports.TableStore = (*SQLiteTables)(nil)

// SQLiteTables stores ledger tables in a local SQLite file, one row per
// table row with the cells as a JSON array.
type SQLiteTables struct {
	db *sql.DB
}

func NewSQLiteTables(dbPath string) (*SQLiteTables, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; overwrites are whole-table transactions.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteTables{db: db}, nil
}

func (s *SQLiteTables) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ReadRows implements sheets.TableReader
func (s *SQLiteTables) ReadRows(ctx context.Context, table string) ([][]string, error) {
	rs, err := s.db.QueryContext(ctx,
		`SELECT position, cells FROM sheet_rows WHERE sheet = ? ORDER BY position`, table)
	if err != nil {
		return nil, &core.ConnectivityError{Op: "read", Table: table, Err: err}
	}
	defer rs.Close()

	var rows [][]string
	for rs.Next() {
		var (
			pos   int
			cells string
		)
		if err := rs.Scan(&pos, &cells); err != nil {
			return nil, &core.ConnectivityError{Op: "read", Table: table, Err: err}
		}
		var row []string
		if err := json.Unmarshal([]byte(cells), &row); err != nil {
			return nil, &core.DataShapeError{Table: table, Row: pos + 1, Reason: fmt.Sprintf("corrupt stored row: %v", err)}
		}
		rows = append(rows, row)
	}
	if err := rs.Err(); err != nil {
		return nil, &core.ConnectivityError{Op: "read", Table: table, Err: err}
	}
	return rows, nil
}

// OverwriteRows implements sheets.TableWriter. The delete and inserts run
// in one transaction, so readers see the old table or the new one.
func (s *SQLiteTables) OverwriteRows(ctx context.Context, table string, rows [][]string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &core.ConnectivityError{Op: "write", Table: table, Err: err}
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				slog.ErrorContext(ctx, "Rollback failed", "sheet", table, "error", rbErr)
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM sheet_rows WHERE sheet = ?`, table); err != nil {
		return &core.ConnectivityError{Op: "write", Table: table, Err: fmt.Errorf("clear: %w", err)}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO sheet_rows (sheet, position, cells) VALUES (?, ?, ?)`)
	if err != nil {
		return &core.ConnectivityError{Op: "write", Table: table, Err: err}
	}
	defer stmt.Close()

	for i, row := range rows {
		if row == nil {
			row = []string{}
		}
		cells, mErr := json.Marshal(row)
		if mErr != nil {
			err = fmt.Errorf("encode row %d: %w", i+1, mErr)
			return err
		}
		if _, err = stmt.ExecContext(ctx, table, i, string(cells)); err != nil {
			return &core.ConnectivityError{Op: "write", Table: table, Err: fmt.Errorf("insert row %d: %w", i+1, err)}
		}
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO sheet_writes (sheet, row_count, written_at) VALUES (?, ?, ?)
		 ON CONFLICT(sheet) DO UPDATE SET row_count = excluded.row_count, written_at = excluded.written_at`,
		table, len(rows), time.Now().UTC()); err != nil {
		return &core.ConnectivityError{Op: "write", Table: table, Err: err}
	}

	if err = tx.Commit(); err != nil {
		return &core.ConnectivityError{Op: "write", Table: table, Err: fmt.Errorf("commit: %w", err)}
	}
	return nil
}

// TableWrite describes the last overwrite of a table.
type TableWrite struct {
	Sheet     string
	RowCount  int
	WrittenAt time.Time
}

// LastWrites lists when each table was last overwritten.
func (s *SQLiteTables) LastWrites(ctx context.Context) ([]TableWrite, error) {
	rs, err := s.db.QueryContext(ctx, `SELECT sheet, row_count, written_at FROM sheet_writes ORDER BY sheet`)
	if err != nil {
		return nil, fmt.Errorf("query sheet writes: %w", err)
	}
	defer rs.Close()

	var out []TableWrite
	for rs.Next() {
		var w TableWrite
		if err := rs.Scan(&w.Sheet, &w.RowCount, &w.WrittenAt); err != nil {
			return nil, fmt.Errorf("scan sheet write: %w", err)
		}
		out = append(out, w)
	}
	return out, rs.Err()
}
