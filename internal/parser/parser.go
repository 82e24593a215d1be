// Package parser reads the plain-text content formats: key/value blocks for
// flashcards and cloze texts, semicolon lines for generated exercises and a
// semicolon CSV for sentence-practice words.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Issue is a recoverable problem in the input. The offending record is skipped.
type Issue struct {
	Line int
	Msg  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("line %d: %s", i.Line, i.Msg)
}

// block is one blank-line separated group of key/value lines.
type block struct {
	line   int
	fields map[string]string
}

type state int

const (
	seeking state = iota
	readingValue
)

// parseBlocks splits r into blocks. aliases maps every accepted key spelling
// (lowercase) to its canonical name. A line whose prefix is not a known key
// continues the previous value.
func parseBlocks(r io.Reader, aliases map[string]string) ([]block, []Issue, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var blocks []block
	var issues []Issue
	var current block
	var currentKey string
	var currentValue []string
	currentState := seeking
	lineNo := 0

	flushValue := func() {
		if currentKey != "" {
			current.fields[currentKey] = strings.TrimSpace(strings.Join(currentValue, "\n"))
		}
		currentKey = ""
		currentValue = nil
	}

	finishBlock := func() {
		flushValue()
		if len(current.fields) > 0 {
			blocks = append(blocks, current)
		}
		current = block{}
		currentState = seeking
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			finishBlock()
			continue
		}
		if currentState == seeking && strings.HasPrefix(trimmed, "#") {
			continue
		}

		if key, value, ok := splitKey(trimmed, aliases); ok {
			if currentState == seeking {
				current = block{line: lineNo, fields: make(map[string]string)}
				currentState = readingValue
			}
			flushValue()
			if _, dup := current.fields[key]; dup {
				issues = append(issues, Issue{Line: lineNo, Msg: fmt.Sprintf("duplicate key %q, keeping the last value", key)})
			}
			currentKey = key
			currentValue = append(currentValue, value)
			continue
		}

		if currentState == readingValue && currentKey != "" {
			currentValue = append(currentValue, trimmed)
			continue
		}
		issues = append(issues, Issue{Line: lineNo, Msg: "text outside of a key: value field"})
	}

	finishBlock()

	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return blocks, issues, nil
}

func splitKey(line string, aliases map[string]string) (string, string, bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	key, ok := aliases[strings.ToLower(strings.TrimSpace(line[:idx]))]
	if !ok {
		return "", "", false
	}
	return key, strings.TrimSpace(line[idx+1:]), true
}
