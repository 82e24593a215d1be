package vocab

import "github.com/conorfennell/wordquiz/internal/domain"

// Column names of the word table, in display order.
const (
	ColumnWord         = "word"
	ColumnActive       = "active"
	ColumnSources      = "sources"
	ColumnProgress     = "progress"
	ColumnMasteryCount = "mastery_count"
	ColumnDateAdded    = "date_added"
	ColumnWritingDone  = "writing_done"
	ColumnLevel        = "level"
)

var columns = []string{
	ColumnWord, ColumnActive, ColumnSources, ColumnProgress,
	ColumnMasteryCount, ColumnDateAdded, ColumnWritingDone, ColumnLevel,
}

// Table is a read-only view of a word list with a fixed column schema.
// The zero Table has no columns and answers every query with nothing.
type Table struct {
	columns []string
	rows    []domain.VocabEntry
}

// NewTable wraps rows with the full column schema, even when rows is empty.
func NewTable(rows []domain.VocabEntry) Table {
	return Table{
		columns: append([]string(nil), columns...),
		rows:    rows,
	}
}

func (t Table) Columns() []string {
	return t.columns
}

func (t Table) HasColumn(name string) bool {
	for _, c := range t.columns {
		if c == name {
			return true
		}
	}
	return false
}

func (t Table) Len() int {
	return len(t.rows)
}

func (t Table) Rows() []domain.VocabEntry {
	return t.rows
}

// Entry returns the row of word.
func (t Table) Entry(word string) (domain.VocabEntry, bool) {
	for _, e := range t.rows {
		if e.Word == word {
			return e, true
		}
	}
	return domain.VocabEntry{}, false
}

// Active returns the active rows. A table without the active column has none.
func (t Table) Active() []domain.VocabEntry {
	return t.filter(true)
}

// Inactive returns the inactive rows. A table without the active column has none.
func (t Table) Inactive() []domain.VocabEntry {
	return t.filter(false)
}

func (t Table) filter(active bool) []domain.VocabEntry {
	if !t.HasColumn(ColumnActive) {
		return nil
	}
	var out []domain.VocabEntry
	for _, e := range t.rows {
		if e.Active == active {
			out = append(out, e)
		}
	}
	return out
}
