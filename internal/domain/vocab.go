package domain

import (
	"encoding/json"
	"strings"
)

// Status is the outcome of the last attempt of one exercise kind for a word.
type Status string

const (
	StatusUntested  Status = "untested"
	StatusCorrect   Status = "correct"
	StatusIncorrect Status = "incorrect"
)

// UnknownLevel is the proficiency level given to words the synchronizer creates.
const UnknownLevel = "unknown"

// ParseStatus maps current and legacy spellings onto a Status.
// Values it does not recognise are kept verbatim.
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "correct", "acerto":
		return StatusCorrect
	case "incorrect", "erro":
		return StatusIncorrect
	case "", "untested", "nao_testado":
		return StatusUntested
	default:
		return Status(raw)
	}
}

// Priority is the selection bucket of a status: incorrect=0, untested=1, correct=2.
// Unrecognised statuses share the correct bucket.
func (s Status) Priority() int {
	switch s {
	case StatusIncorrect:
		return 0
	case StatusUntested, "":
		return 1
	default:
		return 2
	}
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = ParseStatus(raw)
	return nil
}

// VocabEntry is one tracked word of a user's per-language list.
type VocabEntry struct {
	Word         string                  `json:"word"`
	Active       bool                    `json:"active"`
	Sources      []string                `json:"sources"`
	Progress     map[ExerciseKind]Status `json:"progress"`
	MasteryCount int                     `json:"mastery_count"`
	DateAdded    string                  `json:"date_added"`
	WritingDone  bool                    `json:"writing_done"`
	Level        string                  `json:"level"`
}

// NewVocabEntry returns the entry created when a word first shows up in source content.
func NewVocabEntry(word, dateAdded string) VocabEntry {
	return VocabEntry{
		Word:      word,
		Active:    true,
		Sources:   []string{},
		Progress:  map[ExerciseKind]Status{},
		DateAdded: dateAdded,
		Level:     UnknownLevel,
	}
}

// StatusOf returns the recorded status for kind, untested when never attempted.
func (e VocabEntry) StatusOf(kind ExerciseKind) Status {
	if s, ok := e.Progress[kind]; ok {
		return s
	}
	return StatusUntested
}

// UnmarshalJSON accepts both the current keys and the ones written by the
// first version of the app (palavra, ativo/ativa, progresso, ...).
func (e *VocabEntry) UnmarshalJSON(b []byte) error {
	type current VocabEntry
	var doc struct {
		current
		Palavra          *string                 `json:"palavra"`
		Ativo            *bool                   `json:"ativo"`
		Ativa            *bool                   `json:"ativa"`
		Fonte            []string                `json:"fonte"`
		Progresso        map[ExerciseKind]Status `json:"progresso"`
		ContagemMaestria *int                    `json:"contagem_maestria"`
		DataAdicao       *string                 `json:"data_adicao"`
		EscritaCompleta  *bool                   `json:"escrita_completa"`
		CEFR             *string                 `json:"cefr"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	*e = VocabEntry(doc.current)

	if e.Word == "" && doc.Palavra != nil {
		e.Word = *doc.Palavra
	}
	if doc.Ativo != nil {
		e.Active = *doc.Ativo
	} else if doc.Ativa != nil {
		e.Active = *doc.Ativa
	}
	if e.Sources == nil {
		e.Sources = doc.Fonte
	}
	if e.Progress == nil {
		e.Progress = doc.Progresso
	}
	if doc.ContagemMaestria != nil {
		e.MasteryCount = *doc.ContagemMaestria
	}
	if e.DateAdded == "" && doc.DataAdicao != nil {
		e.DateAdded = *doc.DataAdicao
	}
	if doc.EscritaCompleta != nil {
		e.WritingDone = *doc.EscritaCompleta
	}
	if e.Level == "" && doc.CEFR != nil {
		e.Level = *doc.CEFR
	}

	if e.Sources == nil {
		e.Sources = []string{}
	}
	if e.Progress == nil {
		e.Progress = map[ExerciseKind]Status{}
	}
	return nil
}
