package vocab

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/conorfennell/wordquiz/internal/domain"
	"github.com/conorfennell/wordquiz/internal/mastery"
)

// memStore keeps documents as JSON, like the real store, and counts writes.
type memStore struct {
	docs map[string][]byte
	puts int
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string][]byte)}
}

func (s *memStore) GetDocument(_ context.Context, userID, language string) (*domain.Document, error) {
	body, ok := s.docs[userID+"/"+language]
	if !ok {
		return domain.NewDocument(), nil
	}
	var doc domain.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *memStore) PutDocument(_ context.Context, userID, language string, doc *domain.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.docs[userID+"/"+language] = body
	s.puts++
	return nil
}

func newTestManager(store Store, threshold int) *Manager {
	m := NewManager(store, &mastery.Params{Threshold: threshold})
	m.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return m
}

func seed(t *testing.T, store *memStore, entries ...domain.VocabEntry) {
	t.Helper()
	doc := domain.NewDocument()
	doc.Words = entries
	if err := store.PutDocument(context.Background(), "u1", "en", doc); err != nil {
		t.Fatalf("Failed to seed document: %v", err)
	}
	store.puts = 0
}

func entry(word string, active bool, progress map[domain.ExerciseKind]domain.Status) domain.VocabEntry {
	e := domain.NewVocabEntry(word, "2024-01-01")
	e.Active = active
	if progress != nil {
		e.Progress = progress
	}
	return e
}

func TestMerge(t *testing.T) {
	testCases := []struct {
		name          string
		existing      []string
		source        []string
		expectedWords []string
		expectedAdded int
	}{
		{
			name:          "Empty list",
			source:        []string{"cat", "dog"},
			expectedWords: []string{"cat", "dog"},
			expectedAdded: 2,
		},
		{
			name:          "Existing words are kept in place",
			existing:      []string{"zebra", "cat"},
			source:        []string{"cat", "dog"},
			expectedWords: []string{"zebra", "cat", "dog"},
			expectedAdded: 1,
		},
		{
			name:          "Duplicate and empty source words",
			source:        []string{"cat", "", "cat"},
			expectedWords: []string{"cat"},
			expectedAdded: 1,
		},
		{
			name:          "Words missing from source are never removed",
			existing:      []string{"old"},
			source:        nil,
			expectedWords: []string{"old"},
			expectedAdded: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var existing []domain.VocabEntry
			for _, w := range tc.existing {
				existing = append(existing, entry(w, false, nil))
			}
			merged, added := Merge(existing, tc.source, "2024-05-01")

			if added != tc.expectedAdded {
				t.Errorf("Expected %d added, but got %d", tc.expectedAdded, added)
			}
			if len(merged) != len(tc.expectedWords) {
				t.Fatalf("Expected %d entries, but got %d", len(tc.expectedWords), len(merged))
			}
			for i, w := range tc.expectedWords {
				if merged[i].Word != w {
					t.Errorf("Expected entry %d to be '%s', but got '%s'", i, w, merged[i].Word)
				}
			}
			for _, e := range merged[len(existing):] {
				if !e.Active || e.MasteryCount != 0 || len(e.Progress) != 0 || e.Level != domain.UnknownLevel || e.DateAdded != "2024-05-01" {
					t.Errorf("Unexpected defaults for new entry %+v", e)
				}
			}
			for _, e := range merged[:len(existing)] {
				if e.Active {
					t.Errorf("Expected existing entry %s to be left untouched", e.Word)
				}
			}
		})
	}
}

func TestSync(t *testing.T) {
	store := newMemStore()
	m := newTestManager(store, 3)
	ctx := context.Background()

	table, err := m.Sync(ctx, "u1", "en", []string{"cat", "dog"})
	if err != nil {
		t.Fatalf("Sync() returned an unexpected error: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Expected 2 entries after sync, but got %d", table.Len())
	}
	for _, e := range table.Rows() {
		if !e.Active || e.MasteryCount != 0 {
			t.Errorf("Expected active entry with mastery 0, but got %+v", e)
		}
	}
	if store.puts != 1 {
		t.Errorf("Expected 1 write, but got %d", store.puts)
	}

	again, err := m.Sync(ctx, "u1", "en", []string{"cat", "dog"})
	if err != nil {
		t.Fatalf("Second Sync() returned an unexpected error: %v", err)
	}
	if store.puts != 1 {
		t.Errorf("Expected the second sync not to write, but got %d writes", store.puts)
	}
	if again.Len() != table.Len() {
		t.Errorf("Expected identical tables, but got %d and %d entries", table.Len(), again.Len())
	}
}

func TestSyncEmptyKeepsSchema(t *testing.T) {
	store := newMemStore()
	m := newTestManager(store, 3)

	table, err := m.Sync(context.Background(), "u1", "en", nil)
	if err != nil {
		t.Fatalf("Sync() returned an unexpected error: %v", err)
	}
	if table.Len() != 0 || len(table.Columns()) != 8 || !table.HasColumn(ColumnActive) {
		t.Errorf("Expected an empty table with the full schema, but got %v", table.Columns())
	}
	if store.puts != 0 {
		t.Errorf("Expected no writes, but got %d", store.puts)
	}

	var zero Table
	if zero.Active() != nil || zero.Inactive() != nil {
		t.Error("Expected a table without columns to have no active or inactive rows")
	}
}

func TestCompleteQuiz(t *testing.T) {
	store := newMemStore()
	seed(t, store,
		entry("cat", true, map[domain.ExerciseKind]domain.Status{domain.KindMeaning: domain.StatusCorrect}),
		entry("dog", true, nil),
	)
	store.docs["u1/en"] = mustMasteryCount(t, store, "cat", 2)
	m := newTestManager(store, 3)

	results := []domain.QuizResult{
		{Word: "cat", Kind: domain.KindSynonym, Correct: true},
		{Word: "dog", Kind: domain.KindMeaning, Correct: false},
		{Word: "ghost", Kind: domain.KindMeaning, Correct: true},
	}
	out, err := m.CompleteQuiz(context.Background(), "u1", "en", domain.ModeMixed, results, 4)
	if err != nil {
		t.Fatalf("CompleteQuiz() returned an unexpected error: %v", err)
	}

	if out.Session.Correct != 2 || out.Session.Incorrect != 1 || out.Session.Score != 50 || out.Session.Total != 4 {
		t.Errorf("Unexpected session %+v", out.Session)
	}
	if len(out.Session.Missed) != 1 || out.Session.Missed[0] != "dog" {
		t.Errorf("Expected dog to be missed, but got %v", out.Session.Missed)
	}
	if len(out.Deactivated) != 1 || out.Deactivated[0] != "cat" {
		t.Errorf("Expected cat to reach mastery, but got %v", out.Deactivated)
	}
	if len(out.Reactivated) != 0 {
		t.Errorf("Expected no reactivation outside review mode, but got %v", out.Reactivated)
	}

	doc, _ := store.GetDocument(context.Background(), "u1", "en")
	cat, dog := doc.Words[doc.Find("cat")], doc.Words[doc.Find("dog")]
	if cat.Active || cat.MasteryCount != 3 || cat.StatusOf(domain.KindSynonym) != domain.StatusCorrect {
		t.Errorf("Unexpected cat entry %+v", cat)
	}
	if dog.StatusOf(domain.KindMeaning) != domain.StatusIncorrect || len(dog.Progress) != 1 {
		t.Errorf("Expected only the attempted kind in dog's progress, but got %v", dog.Progress)
	}
	if len(doc.History["mixed_quiz"]) != 1 {
		t.Errorf("Expected one mixed session in history, but got %d", len(doc.History["mixed_quiz"]))
	}
	if doc.Find("ghost") != -1 {
		t.Error("Expected results for unknown words to be ignored")
	}
}

func mustMasteryCount(t *testing.T, store *memStore, word string, count int) []byte {
	t.Helper()
	doc, err := store.GetDocument(context.Background(), "u1", "en")
	if err != nil {
		t.Fatalf("GetDocument() returned an unexpected error: %v", err)
	}
	doc.Words[doc.Find(word)].MasteryCount = count
	body, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Failed to encode document: %v", err)
	}
	return body
}

func TestCompleteReviewReactivatesWrongWords(t *testing.T) {
	store := newMemStore()
	seed(t, store,
		entry("cat", false, map[domain.ExerciseKind]domain.Status{
			domain.KindMeaning: domain.StatusCorrect,
			domain.KindSynonym: domain.StatusCorrect,
		}),
	)
	m := newTestManager(store, 3)

	out, err := m.CompleteQuiz(context.Background(), "u1", "en", domain.ModeReview,
		[]domain.QuizResult{{Word: "cat", Kind: domain.KindMeaning, Correct: false}}, 1)
	if err != nil {
		t.Fatalf("CompleteQuiz() returned an unexpected error: %v", err)
	}
	if len(out.Reactivated) != 1 || out.Reactivated[0] != "cat" {
		t.Errorf("Expected cat to be reactivated, but got %v", out.Reactivated)
	}

	doc, _ := store.GetDocument(context.Background(), "u1", "en")
	cat := doc.Words[0]
	if !cat.Active {
		t.Error("Expected cat to be active after a wrong review answer")
	}
	if len(cat.Progress) != 0 {
		t.Errorf("Expected cat's progress to be reset, but got %v", cat.Progress)
	}
	if len(doc.History["review_quiz"]) != 1 {
		t.Error("Expected the review session to be recorded")
	}
}

func TestWordManagement(t *testing.T) {
	store := newMemStore()
	seed(t, store, entry("cat", true, nil), entry("dog", true, nil), entry("fox", false, nil))
	m := newTestManager(store, 3)
	ctx := context.Background()

	changed, err := m.SetActive(ctx, "u1", "en", []string{"cat", "fox", "nope"}, false)
	if err != nil || changed != 1 {
		t.Errorf("Expected 1 change, but got (%d, %v)", changed, err)
	}
	removed, err := m.DeleteWords(ctx, "u1", "en", []string{"dog"})
	if err != nil || removed != 1 {
		t.Errorf("Expected 1 removal, but got (%d, %v)", removed, err)
	}

	doc, _ := store.GetDocument(ctx, "u1", "en")
	if len(doc.Words) != 2 || doc.Find("dog") != -1 {
		t.Fatalf("Expected dog to be deleted, but got %+v", doc.Words)
	}
	if doc.Words[doc.Find("cat")].Active {
		t.Error("Expected cat to be inactive")
	}
}

func TestWritingLog(t *testing.T) {
	store := newMemStore()
	seed(t, store, entry("cat", true, nil), entry("dog", true, nil))
	m := newTestManager(store, 3)
	ctx := context.Background()

	if err := m.AddWritingEntry(ctx, "u1", "en", "cat", "first"); err != nil {
		t.Fatalf("AddWritingEntry() returned an unexpected error: %v", err)
	}
	if err := m.AddWritingEntry(ctx, "u1", "en", "cat", "second"); err != nil {
		t.Fatalf("AddWritingEntry() returned an unexpected error: %v", err)
	}
	if err := m.AddWritingEntry(ctx, "u1", "en", "dog", "woof"); err != nil {
		t.Fatalf("AddWritingEntry() returned an unexpected error: %v", err)
	}
	if err := m.AddWritingEntry(ctx, "u1", "en", "dog", ""); !errors.Is(err, ErrEmptyEntry) {
		t.Errorf("Expected ErrEmptyEntry, but got %v", err)
	}

	doc, _ := store.GetDocument(ctx, "u1", "en")
	if len(doc.WritingLog) != 2 {
		t.Fatalf("Expected one entry per word, but got %+v", doc.WritingLog)
	}
	if !doc.Words[0].WritingDone || !doc.Words[1].WritingDone {
		t.Error("Expected both words to have writing done")
	}

	err := m.DeleteWritingEntries(ctx, "u1", "en", []domain.WritingEntry{{Word: "cat", Text: "second"}, {Word: "dog", Text: "other"}})
	if err != nil {
		t.Fatalf("DeleteWritingEntries() returned an unexpected error: %v", err)
	}
	doc, _ = store.GetDocument(ctx, "u1", "en")
	if len(doc.WritingLog) != 1 || doc.WritingLog[0].Word != "dog" {
		t.Errorf("Expected only dog's entry to remain, but got %+v", doc.WritingLog)
	}
	if doc.Words[doc.Find("cat")].WritingDone {
		t.Error("Expected cat to lose its writing-done flag")
	}
	if !doc.Words[doc.Find("dog")].WritingDone {
		t.Error("Expected dog to keep its writing-done flag")
	}
}

func TestSentenceLog(t *testing.T) {
	store := newMemStore()
	m := newTestManager(store, 3)
	ctx := context.Background()

	for _, text := range []string{"I run.", "I run fast."} {
		if err := m.SaveSentence(ctx, "u1", "en", "run_verb_A1", text); err != nil {
			t.Fatalf("SaveSentence() returned an unexpected error: %v", err)
		}
	}
	if err := m.SaveSentence(ctx, "u1", "en", "cat_noun_A1", "A cat."); err != nil {
		t.Fatalf("SaveSentence() returned an unexpected error: %v", err)
	}

	doc, _ := store.GetDocument(ctx, "u1", "en")
	if len(doc.SentenceLog) != 2 {
		t.Fatalf("Expected 2 sentences, but got %+v", doc.SentenceLog)
	}

	if err := m.DeleteSentence(ctx, "u1", "en", "run_verb_A1"); err != nil {
		t.Fatalf("DeleteSentence() returned an unexpected error: %v", err)
	}
	doc, _ = store.GetDocument(ctx, "u1", "en")
	if len(doc.SentenceLog) != 1 || doc.SentenceLog[0].WordKey != "cat_noun_A1" {
		t.Errorf("Expected only cat_noun_A1 to remain, but got %+v", doc.SentenceLog)
	}
}

func TestHistoryAndSummary(t *testing.T) {
	store := newMemStore()
	seed(t, store, entry("cat", true, nil), entry("dog", false, nil))
	m := newTestManager(store, 0)
	ctx := context.Background()

	s, err := m.Summary(ctx, "u1", "en")
	if err != nil {
		t.Fatalf("Summary() returned an unexpected error: %v", err)
	}
	if s.Total != 2 || s.Active != 1 || s.Inactive != 1 || s.Accuracy != "N/A" || s.Sessions != 0 {
		t.Errorf("Unexpected empty summary %+v", s)
	}

	if _, err := m.CompleteQuiz(ctx, "u1", "en", domain.ModeAnki, []domain.QuizResult{
		{Word: "cat", Kind: domain.KindMeaning, Correct: true},
		{Word: "cat", Kind: domain.KindSynonym, Correct: false},
	}, 2); err != nil {
		t.Fatalf("CompleteQuiz() returned an unexpected error: %v", err)
	}
	if _, err := m.RecordCloze(ctx, "u1", "en", 2, 2); err != nil {
		t.Fatalf("RecordCloze() returned an unexpected error: %v", err)
	}

	s, _ = m.Summary(ctx, "u1", "en")
	if s.Sessions != 2 || s.SessionsByMode[domain.ModeCloze] != 1 || s.SessionsByMode[domain.ModeAnki] != 1 {
		t.Errorf("Unexpected session counts %+v", s)
	}
	if s.Accuracy != "75.0%" {
		t.Errorf("Expected accuracy 75.0%%, but got %s", s.Accuracy)
	}

	if err := m.ClearHistory(ctx, "u1", "en"); err != nil {
		t.Fatalf("ClearHistory() returned an unexpected error: %v", err)
	}
	doc, _ := store.GetDocument(ctx, "u1", "en")
	if len(doc.History) != len(domain.Modes()) {
		t.Errorf("Expected history keys to be kept, but got %d", len(doc.History))
	}
	for key, sessions := range doc.History {
		if len(sessions) != 0 {
			t.Errorf("Expected %s to be empty, but got %d sessions", key, len(sessions))
		}
	}
}
