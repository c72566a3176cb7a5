package memory

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"

	ports "budget/internal/sheets"
)

var _ ports.TableStore = (*Store)(nil)

// Store keeps tables in process memory. Rows are copied on the way in and
// out so callers never share slices with the store.
type Store struct {
	mu     sync.Mutex
	tables map[string][][]string
	writes int
}

func New() *Store {
	return &Store{tables: map[string][][]string{}}
}

// NewFromFiles seeds the store with "<base>/<table>.csv" for every name.
// Missing or unreadable files leave the table empty.
func NewFromFiles(base string, names ...string) *Store {
	s := New()
	for _, name := range names {
		rows := readCSV(filepath.Join(base, name+".csv"))
		if len(rows) > 0 {
			s.tables[name] = rows
		}
	}
	return s
}

// ReadRows returns a copy of the table, or no rows for an unknown table.
func (s *Store) ReadRows(_ context.Context, table string) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyRows(s.tables[table]), nil
}

// OverwriteRows replaces the table.
func (s *Store) OverwriteRows(_ context.Context, table string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = copyRows(rows)
	s.writes++
	return nil
}

// Writes returns how many overwrites the store has accepted.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func readCSV(path string) [][]string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // shape is checked by the ledger codec
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil
	}
	return rows
}

func copyRows(in [][]string) [][]string {
	if in == nil {
		return nil
	}
	out := make([][]string, len(in))
	for i, row := range in {
		out[i] = append([]string(nil), row...)
	}
	return out
}
