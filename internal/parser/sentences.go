package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/conorfennell/wordquiz/internal/domain"
)

var sentenceColumns = map[string]string{
	"word": "word", "palavra": "word",
	"class": "class", "classe": "class",
	"level": "level", "nivel": "level", "nível": "level", "cefr": "level",
	"sentence": "sentence", "frase": "sentence", "outra frase": "sentence",
	"language": "language", "idioma": "language", "lang": "language",
}

// ParseSentences reads the semicolon separated sentence word list. When the
// file has a language column only rows for language are kept.
func ParseSentences(r io.Reader, language string) ([]domain.SentenceWord, []Issue, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int)
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if canonical, ok := sentenceColumns[name]; ok {
			columns[canonical] = i
		}
	}
	if _, ok := columns["word"]; !ok {
		return nil, nil, fmt.Errorf("sentence data has no word column")
	}

	var words []domain.SentenceWord
	var issues []Issue
	seen := make(map[string]bool)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				issues = append(issues, Issue{Line: perr.Line, Msg: perr.Err.Error()})
				continue
			}
			return nil, nil, fmt.Errorf("failed to read sentence data: %w", err)
		}
		line, _ := reader.FieldPos(0)

		get := func(col string) string {
			i, ok := columns[col]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		row := domain.SentenceWord{
			Word:     get("word"),
			Class:    get("class"),
			Level:    get("level"),
			Sentence: get("sentence"),
			Language: get("language"),
		}
		if row.Word == "" {
			issues = append(issues, Issue{Line: line, Msg: "row without a word"})
			continue
		}
		if _, ok := columns["language"]; ok && language != "" && !strings.EqualFold(row.Language, language) {
			continue
		}
		row.Key = fmt.Sprintf("%s_%s_%s", row.Word, row.Class, row.Level)
		if seen[row.Key] {
			issues = append(issues, Issue{Line: line, Msg: fmt.Sprintf("duplicate key %q", row.Key)})
			continue
		}
		seen[row.Key] = true
		words = append(words, row)
	}
	return words, issues, nil
}
