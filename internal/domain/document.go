package domain

import (
	"encoding/json"
	"time"
)

// Mode is a quiz mode. Each mode keeps its own history list.
type Mode string

const (
	ModeAnki   Mode = "anki"
	ModeGPT    Mode = "gpt"
	ModeMixed  Mode = "mixed"
	ModeReview Mode = "review"
	ModeFocus  Mode = "focus"
	ModeCloze  Mode = "cloze"
)

var historyKeys = map[Mode]string{
	ModeAnki:   "quiz",
	ModeGPT:    "gpt_quiz",
	ModeMixed:  "mixed_quiz",
	ModeReview: "review_quiz",
	ModeFocus:  "focus_quiz",
	ModeCloze:  "cloze_quiz",
}

// Modes lists every quiz mode in menu order.
func Modes() []Mode {
	return []Mode{ModeAnki, ModeGPT, ModeMixed, ModeReview, ModeFocus, ModeCloze}
}

// ParseMode validates a mode taken from a URL.
func ParseMode(s string) (Mode, bool) {
	m := Mode(s)
	_, ok := historyKeys[m]
	return m, ok
}

// HistoryKey is the document key under which sessions of m are stored.
func (m Mode) HistoryKey() string {
	return historyKeys[m]
}

// HistorySession summarises one finished quiz.
type HistorySession struct {
	Timestamp time.Time `json:"timestamp"`
	Correct   int       `json:"correct"`
	Incorrect int       `json:"incorrect"`
	Score     int       `json:"score"`
	Total     int       `json:"total"`
	Missed    []string  `json:"missed_words"`
}

var legacyTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (h *HistorySession) UnmarshalJSON(b []byte) error {
	var doc struct {
		Timestamp string   `json:"timestamp"`
		Correct   *int     `json:"correct"`
		Incorrect *int     `json:"incorrect"`
		Score     int      `json:"score"`
		Total     int      `json:"total"`
		Missed    []string `json:"missed_words"`

		Data            string   `json:"data"`
		Acertos         int      `json:"acertos"`
		Erros           int      `json:"erros"`
		PalavrasErradas []string `json:"palavras_erradas"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	*h = HistorySession{Score: doc.Score, Total: doc.Total, Missed: doc.Missed}

	stamp := doc.Timestamp
	if stamp == "" {
		stamp = doc.Data
	}
	for _, layout := range legacyTimeLayouts {
		if t, err := time.Parse(layout, stamp); err == nil {
			h.Timestamp = t
			break
		}
	}
	h.Correct = doc.Acertos
	if doc.Correct != nil {
		h.Correct = *doc.Correct
	}
	h.Incorrect = doc.Erros
	if doc.Incorrect != nil {
		h.Incorrect = *doc.Incorrect
	}
	if h.Missed == nil {
		h.Missed = doc.PalavrasErradas
	}
	return nil
}

// WritingEntry is a free text the user wrote for a word.
type WritingEntry struct {
	Word      string    `json:"word"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// SentenceLogEntry is a sentence written for a sentence-practice word key.
type SentenceLogEntry struct {
	WordKey   string    `json:"word_key"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Document is everything stored for one (user, language) pair.
type Document struct {
	Words       []VocabEntry                `json:"words"`
	History     map[string][]HistorySession `json:"history"`
	WritingLog  []WritingEntry              `json:"writing_log"`
	SentenceLog []SentenceLogEntry          `json:"sentence_log"`
}

// NewDocument returns the document of a user that has never practiced a language.
func NewDocument() *Document {
	d := &Document{}
	d.Normalize()
	return d
}

// Normalize fills nil collections and makes sure every mode has a history list.
func (d *Document) Normalize() {
	if d.Words == nil {
		d.Words = []VocabEntry{}
	}
	if d.History == nil {
		d.History = make(map[string][]HistorySession)
	}
	for _, m := range Modes() {
		if d.History[m.HistoryKey()] == nil {
			d.History[m.HistoryKey()] = []HistorySession{}
		}
	}
	if d.WritingLog == nil {
		d.WritingLog = []WritingEntry{}
	}
	if d.SentenceLog == nil {
		d.SentenceLog = []SentenceLogEntry{}
	}
}

// UnmarshalJSON also reads documents stored with the legacy top-level keys.
func (d *Document) UnmarshalJSON(b []byte) error {
	type current Document
	var doc struct {
		current
		VocabDatabase []VocabEntry                `json:"vocab_database"`
		Historico     map[string][]HistorySession `json:"historico"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	*d = Document(doc.current)
	if d.Words == nil {
		d.Words = doc.VocabDatabase
	}
	if d.History == nil {
		d.History = doc.Historico
	}
	d.Normalize()
	return nil
}

// Find returns the index of word in the list, or -1.
func (d *Document) Find(word string) int {
	for i := range d.Words {
		if d.Words[i].Word == word {
			return i
		}
	}
	return -1
}
