package parser

import (
	"io"

	"github.com/conorfennell/wordquiz/internal/domain"
)

var flashcardKeys = map[string]string{
	"word": "word", "palavra": "word",
	"definition": "definition", "definicao": "definition", "definição": "definition",
	"translation": "translation", "traducao": "translation", "tradução": "translation",
	"synonym": "synonym", "sinonimo": "synonym", "sinônimo": "synonym",
	"example": "example", "exemplo": "example", "frase": "example",
	"level": "level", "cefr": "level", "nivel": "level", "nível": "level",
}

// ParseFlashcards reads blank-line separated flashcard blocks.
// Blocks without a word are reported as issues and skipped.
func ParseFlashcards(r io.Reader) ([]domain.Flashcard, []Issue, error) {
	blocks, issues, err := parseBlocks(r, flashcardKeys)
	if err != nil {
		return nil, nil, err
	}

	var cards []domain.Flashcard
	for _, b := range blocks {
		if b.fields["word"] == "" {
			issues = append(issues, Issue{Line: b.line, Msg: "flashcard without a word"})
			continue
		}
		cards = append(cards, domain.Flashcard{
			Word:        b.fields["word"],
			Definition:  b.fields["definition"],
			Translation: b.fields["translation"],
			Synonym:     b.fields["synonym"],
			Example:     b.fields["example"],
			Level:       b.fields["level"],
		})
	}
	return cards, issues, nil
}
