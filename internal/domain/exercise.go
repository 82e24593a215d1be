package domain

import (
	"regexp"
	"strings"
)

// ExerciseKind identifies a question variant. Its string value is the key
// used in a word's progress map.
type ExerciseKind string

// Kinds built from flashcard content.
const (
	KindMeaning     ExerciseKind = "mcq_meaning"
	KindTranslation ExerciseKind = "mcq_translation"
	KindSynonym     ExerciseKind = "mcq_synonym"
	KindFillGap     ExerciseKind = "fill_gap"
	KindReading     ExerciseKind = "reading"
)

// Kinds authored in generated-exercise content.
const (
	KindSynonymMCQ    ExerciseKind = "synonym_mcq"
	KindAntonymMCQ    ExerciseKind = "antonym_mcq"
	KindDefinitionMCQ ExerciseKind = "definition_mcq"
	KindContextMCQ    ExerciseKind = "context_mcq"
	KindFillBlank1    ExerciseKind = "fill_in_the_blank_1"
	KindFillBlank2    ExerciseKind = "fill_in_the_blank_2"
	KindCloze         ExerciseKind = "cloze_text"
)

// Origin tells which content family backs an exercise kind.
type Origin int

const (
	OriginFlashcard Origin = iota + 1
	OriginGenerated
)

var flashcardKinds = []ExerciseKind{KindMeaning, KindTranslation, KindSynonym, KindFillGap, KindReading}

var generatedKinds = []ExerciseKind{
	KindSynonymMCQ, KindAntonymMCQ, KindDefinitionMCQ, KindContextMCQ,
	KindFillBlank1, KindFillBlank2, KindCloze,
}

var kindLabels = map[ExerciseKind]string{
	KindMeaning:     "Meaning",
	KindTranslation: "Translation",
	KindSynonym:     "Synonym",
	KindFillGap:     "Fill the gap",
	KindReading:     "Reading",
}

// Identifiers used by the first version of the app.
var legacyKinds = map[string]ExerciseKind{
	"gerar_mcq_significado":       KindMeaning,
	"gerar_mcq_traducao_ingles":   KindTranslation,
	"gerar_mcq_sinonimo":          KindSynonym,
	"gerar_fill_gap":              KindFillGap,
	"gerar_reading_comprehension": KindReading,
	"sinonimo_mcq":                KindSynonymMCQ,
}

// FlashcardKinds lists the kinds derived from flashcard records, in display order.
func FlashcardKinds() []ExerciseKind {
	return append([]ExerciseKind(nil), flashcardKinds...)
}

// GeneratedKinds lists the well-known generated kinds, in display order.
func GeneratedKinds() []ExerciseKind {
	return append([]ExerciseKind(nil), generatedKinds...)
}

// ParseKind normalizes an identifier read from content or a stored document.
func ParseKind(raw string) ExerciseKind {
	id := strings.ToLower(strings.TrimSpace(raw))
	if k, ok := legacyKinds[id]; ok {
		return k
	}
	return ExerciseKind(id)
}

func (k *ExerciseKind) UnmarshalText(b []byte) error {
	*k = ParseKind(string(b))
	return nil
}

// Origin reports the content family of k. Unknown identifiers are generated kinds.
func (k ExerciseKind) Origin() Origin {
	if _, ok := kindLabels[k]; ok {
		return OriginFlashcard
	}
	return OriginGenerated
}

// Label is the display type shown above a question.
func (k ExerciseKind) Label() string {
	if l, ok := kindLabels[k]; ok {
		return l + " (ANKI)"
	}
	return string(k) + " (GPT)"
}

// Flashcard is an externally authored word record.
type Flashcard struct {
	Word        string
	Definition  string
	Translation string
	Synonym     string
	Example     string
	Level       string
}

// Field returns the flashcard value a question of the given kind asks for.
func (f Flashcard) Field(kind ExerciseKind) string {
	switch kind {
	case KindMeaning, KindReading:
		return f.Definition
	case KindTranslation:
		return f.Translation
	case KindSynonym:
		return f.Synonym
	case KindFillGap:
		return f.Word
	}
	return ""
}

// Supports reports whether the record carries what a question of kind needs.
func (f Flashcard) Supports(kind ExerciseKind) bool {
	switch kind {
	case KindFillGap:
		return ContainsWord(f.Example, f.Word)
	case KindReading:
		return f.Example != "" && f.Definition != ""
	}
	return f.Field(kind) != ""
}

// wordPattern matches word together with any letters glued to either side of
// it, so a match equal to word is a whole-word occurrence.
func wordPattern(word string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\p{L}*` + regexp.QuoteMeta(word) + `\p{L}*`)
}

// ContainsWord reports whether text holds word as a whole word, ignoring case.
func ContainsWord(text, word string) bool {
	if word == "" {
		return false
	}
	for _, m := range wordPattern(word).FindAllString(text, -1) {
		if strings.EqualFold(m, word) {
			return true
		}
	}
	return false
}

// BlankWord replaces every whole-word occurrence of word in text with gap.
// Longer words that merely contain word are left alone.
func BlankWord(text, word, gap string) string {
	if word == "" {
		return text
	}
	return wordPattern(word).ReplaceAllStringFunc(text, func(m string) string {
		if strings.EqualFold(m, word) {
			return gap
		}
		return m
	})
}

// GeneratedExercise is an externally authored sentence-based question.
type GeneratedExercise struct {
	ID      string
	Word    string
	Kind    ExerciseKind
	Prompt  string
	Options []string
	Answer  string
	Level   string
}

// ClozeText is a passage whose [bracketed] spans are the gaps to fill.
type ClozeText struct {
	ID    string
	Title string
	Text  string
	Level string
}

// SentenceWord is one row of the sentence-practice word list.
type SentenceWord struct {
	Key      string
	Word     string
	Class    string
	Level    string
	Sentence string
	Language string
}
