// Package vocab keeps a user's per-language document: the word list merged
// from source content, quiz progress, history and the writing logs.
package vocab

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/conorfennell/wordquiz/internal/domain"
	"github.com/conorfennell/wordquiz/internal/mastery"
)

const dateLayout = "2006-01-02"

// Store reads and replaces whole documents.
type Store interface {
	GetDocument(ctx context.Context, userID, language string) (*domain.Document, error)
	PutDocument(ctx context.Context, userID, language string, doc *domain.Document) error
}

// Manager applies every change to a user's document as a whole-document
// read, modify and replace.
type Manager struct {
	store   Store
	mastery *mastery.Params
	now     func() time.Time
}

func NewManager(store Store, params *mastery.Params) *Manager {
	if params == nil {
		params = mastery.DefaultParams()
	}
	return &Manager{store: store, mastery: params, now: time.Now}
}

// Merge returns existing plus a new entry for every source word it lacks.
// Existing entries are kept untouched and in order; new ones follow in the
// order of sourceWords.
func Merge(existing []domain.VocabEntry, sourceWords []string, today string) ([]domain.VocabEntry, int) {
	merged := make([]domain.VocabEntry, len(existing), len(existing)+len(sourceWords))
	copy(merged, existing)

	known := make(map[string]bool, len(existing))
	for _, e := range existing {
		known[e.Word] = true
	}

	added := 0
	for _, w := range sourceWords {
		if w == "" || known[w] {
			continue
		}
		known[w] = true
		merged = append(merged, domain.NewVocabEntry(w, today))
		added++
	}
	return merged, added
}

// Sync makes sure every source word has an entry in the stored list of
// (userID, language) and returns the resulting table. The document is only
// written when entries were added.
func (m *Manager) Sync(ctx context.Context, userID, language string, sourceWords []string) (Table, error) {
	doc, err := m.store.GetDocument(ctx, userID, language)
	if err != nil {
		return Table{}, fmt.Errorf("failed to load word list: %w", err)
	}

	merged, added := Merge(doc.Words, sourceWords, m.now().Format(dateLayout))
	if added > 0 {
		doc.Words = merged
		if err := m.store.PutDocument(ctx, userID, language, doc); err != nil {
			return Table{}, fmt.Errorf("failed to save word list: %w", err)
		}
		slog.Info("Word list synchronized",
			"user", userID,
			"language", language,
			"source_words", len(sourceWords),
			"added", added,
			"total", len(merged),
		)
	}
	return NewTable(merged), nil
}

// Document returns the stored document of (userID, language).
func (m *Manager) Document(ctx context.Context, userID, language string) (*domain.Document, error) {
	doc, err := m.store.GetDocument(ctx, userID, language)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return doc, nil
}

func (m *Manager) update(ctx context.Context, userID, language string, fn func(doc *domain.Document) error) error {
	doc, err := m.store.GetDocument(ctx, userID, language)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}
	if err := fn(doc); err != nil {
		return err
	}
	if err := m.store.PutDocument(ctx, userID, language, doc); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}
