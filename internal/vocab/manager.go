package vocab

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/conorfennell/wordquiz/internal/domain"
	"github.com/conorfennell/wordquiz/internal/mastery"
)

// ErrEmptyEntry is returned when a log entry lacks its key or text.
var ErrEmptyEntry = errors.New("entry key and text are required")

// Outcome is what finishing a quiz changed.
type Outcome struct {
	Session     domain.HistorySession
	Deactivated []string
	Reactivated []string
}

// NewSession summarises results of a quiz over total playlist items.
func NewSession(results []domain.QuizResult, total int) domain.HistorySession {
	s := domain.HistorySession{Total: total, Missed: []string{}}
	seen := make(map[string]bool)
	for _, r := range results {
		if r.Correct {
			s.Correct++
			continue
		}
		s.Incorrect++
		if !seen[r.Word] {
			seen[r.Word] = true
			s.Missed = append(s.Missed, r.Word)
		}
	}
	if total > 0 {
		s.Score = s.Correct * 100 / total
	}
	return s
}

// CompleteQuiz records the results of a finished quiz: per-word progress,
// mastery, a history entry for mode and, in review mode, reactivation of
// every word answered wrongly.
func (m *Manager) CompleteQuiz(ctx context.Context, userID, language string, mode domain.Mode, results []domain.QuizResult, total int) (Outcome, error) {
	var out Outcome
	err := m.update(ctx, userID, language, func(doc *domain.Document) error {
		ApplyResults(doc, results)

		for word, rating := range mastery.Rate(results) {
			idx := doc.Find(word)
			if idx < 0 {
				continue
			}
			if m.mastery.Apply(&doc.Words[idx], rating) {
				out.Deactivated = append(out.Deactivated, word)
			}
		}

		sort.Strings(out.Deactivated)

		if mode == domain.ModeReview {
			out.Reactivated = Reactivate(doc, results)
		}

		out.Session = NewSession(results, total)
		out.Session.Timestamp = m.now().UTC()
		key := mode.HistoryKey()
		doc.History[key] = append(doc.History[key], out.Session)
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	slog.Info("Quiz completed",
		"user", userID,
		"language", language,
		"mode", mode,
		"score", out.Session.Score,
		"deactivated", len(out.Deactivated),
		"reactivated", len(out.Reactivated),
	)
	return out, nil
}

// ApplyResults sets progress[kind] of every answered word. Words no longer in
// the list are skipped.
func ApplyResults(doc *domain.Document, results []domain.QuizResult) {
	for _, r := range results {
		idx := doc.Find(r.Word)
		if idx < 0 {
			continue
		}
		entry := &doc.Words[idx]
		if entry.Progress == nil {
			entry.Progress = make(map[domain.ExerciseKind]domain.Status)
		}
		if r.Correct {
			entry.Progress[r.Kind] = domain.StatusCorrect
		} else {
			entry.Progress[r.Kind] = domain.StatusIncorrect
		}
	}
}

// Reactivate forces every wrongly answered word back to active with an empty
// progress map and returns those words.
func Reactivate(doc *domain.Document, results []domain.QuizResult) []string {
	var words []string
	seen := make(map[string]bool)
	for _, r := range results {
		if r.Correct || seen[r.Word] {
			continue
		}
		idx := doc.Find(r.Word)
		if idx < 0 {
			continue
		}
		seen[r.Word] = true
		doc.Words[idx].Active = true
		doc.Words[idx].Progress = map[domain.ExerciseKind]domain.Status{}
		words = append(words, r.Word)
	}
	return words
}

// RecordCloze appends a cloze session with correct gaps out of total.
func (m *Manager) RecordCloze(ctx context.Context, userID, language string, correct, total int) (domain.HistorySession, error) {
	s := domain.HistorySession{
		Timestamp: m.now().UTC(),
		Correct:   correct,
		Incorrect: total - correct,
		Total:     total,
		Missed:    []string{},
	}
	if total > 0 {
		s.Score = correct * 100 / total
	}
	err := m.update(ctx, userID, language, func(doc *domain.Document) error {
		key := domain.ModeCloze.HistoryKey()
		doc.History[key] = append(doc.History[key], s)
		return nil
	})
	return s, err
}

// ClearHistory empties the history of every mode.
func (m *Manager) ClearHistory(ctx context.Context, userID, language string) error {
	return m.update(ctx, userID, language, func(doc *domain.Document) error {
		for key := range doc.History {
			doc.History[key] = []domain.HistorySession{}
		}
		return nil
	})
}

// SetActive activates or deactivates words and returns how many changed.
func (m *Manager) SetActive(ctx context.Context, userID, language string, words []string, active bool) (int, error) {
	changed := 0
	err := m.update(ctx, userID, language, func(doc *domain.Document) error {
		for _, w := range words {
			if idx := doc.Find(w); idx >= 0 && doc.Words[idx].Active != active {
				doc.Words[idx].Active = active
				changed++
			}
		}
		return nil
	})
	return changed, err
}

// DeleteWords removes words from the list and returns how many were removed.
func (m *Manager) DeleteWords(ctx context.Context, userID, language string, words []string) (int, error) {
	drop := make(map[string]bool, len(words))
	for _, w := range words {
		drop[w] = true
	}
	removed := 0
	err := m.update(ctx, userID, language, func(doc *domain.Document) error {
		kept := doc.Words[:0]
		for _, e := range doc.Words {
			if drop[e.Word] {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		doc.Words = kept
		return nil
	})
	return removed, err
}

// AddWritingEntry stores text as the writing of word, replacing an earlier
// one, and marks the word's writing as done.
func (m *Manager) AddWritingEntry(ctx context.Context, userID, language, word, text string) error {
	if word == "" || text == "" {
		return ErrEmptyEntry
	}
	return m.update(ctx, userID, language, func(doc *domain.Document) error {
		log := doc.WritingLog[:0]
		for _, e := range doc.WritingLog {
			if e.Word != word {
				log = append(log, e)
			}
		}
		doc.WritingLog = append(log, domain.WritingEntry{Word: word, Text: text, Timestamp: m.now().UTC()})
		if idx := doc.Find(word); idx >= 0 {
			doc.Words[idx].WritingDone = true
		}
		return nil
	})
}

// DeleteWritingEntries removes the given (word, text) pairs. Words left
// without any entry lose their writing-done flag.
func (m *Manager) DeleteWritingEntries(ctx context.Context, userID, language string, entries []domain.WritingEntry) error {
	type pair struct{ word, text string }
	drop := make(map[pair]bool, len(entries))
	for _, e := range entries {
		drop[pair{e.Word, e.Text}] = true
	}

	return m.update(ctx, userID, language, func(doc *domain.Document) error {
		remaining := make(map[string]bool)
		log := doc.WritingLog[:0]
		for _, e := range doc.WritingLog {
			if drop[pair{e.Word, e.Text}] {
				continue
			}
			remaining[e.Word] = true
			log = append(log, e)
		}
		doc.WritingLog = log

		for _, e := range entries {
			if idx := doc.Find(e.Word); idx >= 0 && !remaining[e.Word] {
				doc.Words[idx].WritingDone = false
			}
		}
		return nil
	})
}

// SaveSentence stores text for a sentence-practice key, replacing an earlier one.
func (m *Manager) SaveSentence(ctx context.Context, userID, language, key, text string) error {
	if key == "" || text == "" {
		return ErrEmptyEntry
	}
	return m.update(ctx, userID, language, func(doc *domain.Document) error {
		log := doc.SentenceLog[:0]
		for _, e := range doc.SentenceLog {
			if e.WordKey != key {
				log = append(log, e)
			}
		}
		doc.SentenceLog = append(log, domain.SentenceLogEntry{WordKey: key, Text: text, Timestamp: m.now().UTC()})
		return nil
	})
}

// DeleteSentence removes the sentence stored for key.
func (m *Manager) DeleteSentence(ctx context.Context, userID, language, key string) error {
	return m.update(ctx, userID, language, func(doc *domain.Document) error {
		log := doc.SentenceLog[:0]
		for _, e := range doc.SentenceLog {
			if e.WordKey != key {
				log = append(log, e)
			}
		}
		doc.SentenceLog = log
		return nil
	})
}
