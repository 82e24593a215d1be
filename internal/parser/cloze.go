package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/conorfennell/wordquiz/internal/domain"
	"github.com/conorfennell/wordquiz/internal/fingerprint"
)

var clozeKeys = map[string]string{
	"title": "title", "titulo": "title", "título": "title", "palavra": "title", "word": "title",
	"text": "text", "texto": "text", "texto_cloze": "text", "cloze_text": "text",
	"level": "level", "cefr": "level", "nivel": "level", "nível": "level",
}

// ParseCloze reads cloze text blocks. A text must contain at least one [gap].
func ParseCloze(r io.Reader) ([]domain.ClozeText, []Issue, error) {
	blocks, issues, err := parseBlocks(r, clozeKeys)
	if err != nil {
		return nil, nil, err
	}

	var texts []domain.ClozeText
	for _, b := range blocks {
		text := b.fields["text"]
		if !strings.Contains(text, "[") || !strings.Contains(text, "]") {
			issues = append(issues, Issue{Line: b.line, Msg: "cloze block without a [gap]"})
			continue
		}
		title := b.fields["title"]
		if title == "" {
			title = fmt.Sprintf("Cloze text #%d", len(texts)+1)
		}
		texts = append(texts, domain.ClozeText{
			ID:    fingerprint.Short(title, text),
			Title: title,
			Text:  text,
			Level: b.fields["level"],
		})
	}
	return texts, issues, nil
}
