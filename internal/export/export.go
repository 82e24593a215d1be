// Package export writes a user's progress document as a spreadsheet.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/conorfennell/wordquiz/internal/domain"
)

// Sheet names, in workbook order.
const (
	SheetWords     = "Words"
	SheetHistory   = "History"
	SheetWriting   = "Writing"
	SheetSentences = "Sentences"
)

const stampLayout = "2006-01-02 15:04"

// Write renders doc as an xlsx workbook to w.
func Write(w io.Writer, doc *domain.Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetWords); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	for _, name := range []string{SheetHistory, SheetWriting, SheetSentences} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	sheets := []struct {
		name   string
		header []interface{}
		rows   [][]interface{}
	}{
		{SheetWords, []interface{}{"Word", "Active", "Level", "Date added", "Mastery", "Writing done", "Sources", "Progress"}, wordRows(doc)},
		{SheetHistory, []interface{}{"Mode", "Date", "Correct", "Incorrect", "Score", "Total", "Missed words"}, historyRows(doc)},
		{SheetWriting, []interface{}{"Word", "Text", "Date"}, writingRows(doc)},
		{SheetSentences, []interface{}{"Word key", "Text", "Date"}, sentenceRows(doc)},
	}
	for _, s := range sheets {
		if err := writeRows(f, s.name, s.header, s.rows); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func wordRows(doc *domain.Document) [][]interface{} {
	rows := make([][]interface{}, 0, len(doc.Words))
	for _, e := range doc.Words {
		rows = append(rows, []interface{}{
			e.Word, e.Active, e.Level, e.DateAdded, e.MasteryCount, e.WritingDone,
			strings.Join(e.Sources, ", "), progress(e),
		})
	}
	return rows
}

// progress renders the progress map as "kind=status" pairs in kind order.
func progress(e domain.VocabEntry) string {
	kinds := make([]string, 0, len(e.Progress))
	for k := range e.Progress {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	pairs := make([]string, len(kinds))
	for i, k := range kinds {
		pairs[i] = fmt.Sprintf("%s=%s", k, e.Progress[domain.ExerciseKind(k)])
	}
	return strings.Join(pairs, "; ")
}

func historyRows(doc *domain.Document) [][]interface{} {
	var rows [][]interface{}
	for _, mode := range domain.Modes() {
		for _, s := range doc.History[mode.HistoryKey()] {
			rows = append(rows, []interface{}{
				string(mode), stamp(s.Timestamp), s.Correct, s.Incorrect, s.Score, s.Total,
				strings.Join(s.Missed, ", "),
			})
		}
	}
	return rows
}

func writingRows(doc *domain.Document) [][]interface{} {
	rows := make([][]interface{}, 0, len(doc.WritingLog))
	for _, e := range doc.WritingLog {
		rows = append(rows, []interface{}{e.Word, e.Text, stamp(e.Timestamp)})
	}
	return rows
}

func sentenceRows(doc *domain.Document) [][]interface{} {
	rows := make([][]interface{}, 0, len(doc.SentenceLog))
	for _, e := range doc.SentenceLog {
		rows = append(rows, []interface{}{e.WordKey, e.Text, stamp(e.Timestamp)})
	}
	return rows
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(stampLayout)
}
