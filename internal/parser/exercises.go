package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/conorfennell/wordquiz/internal/domain"
	"github.com/conorfennell/wordquiz/internal/fingerprint"
)

const (
	fieldSeparator  = ";"
	optionSeparator = "|"
)

// ParseExercises reads one generated exercise per line:
//
//	word;kind;prompt;option|option|...;answer[;level]
//
// Blank lines and lines starting with # are ignored.
func ParseExercises(r io.Reader) ([]domain.GeneratedExercise, []Issue, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var exercises []domain.GeneratedExercise
	var issues []Issue
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, fieldSeparator)
		if len(fields) < 5 {
			issues = append(issues, Issue{Line: lineNo, Msg: "expected at least 5 ';' separated fields"})
			continue
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		ex := domain.GeneratedExercise{
			Word:    fields[0],
			Kind:    domain.ParseKind(fields[1]),
			Prompt:  fields[2],
			Options: splitOptions(fields[3]),
			Answer:  fields[4],
		}
		if len(fields) > 5 {
			ex.Level = fields[5]
		}
		if ex.Word == "" || ex.Kind == "" || ex.Answer == "" {
			issues = append(issues, Issue{Line: lineNo, Msg: "word, kind and answer are required"})
			continue
		}
		ex.ID = fingerprint.Short(ex.Word, string(ex.Kind), ex.Prompt)
		exercises = append(exercises, ex)
	}

	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return exercises, issues, nil
}

func splitOptions(raw string) []string {
	var opts []string
	for _, o := range strings.Split(raw, optionSeparator) {
		if o = strings.TrimSpace(o); o != "" {
			opts = append(opts, o)
		}
	}
	return opts
}
