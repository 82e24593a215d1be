package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/conorfennell/wordquiz/internal/domain"
	"github.com/conorfennell/wordquiz/internal/parser"
)

// Files names the content files. Flashcards, Exercises and Cloze live in a
// directory per language, Sentences at the source root.
type Files struct {
	Flashcards string
	Exercises  string
	Cloze      string
	Sentences  string
}

// DefaultFiles returns the file names used when none are configured.
func DefaultFiles() Files {
	return Files{
		Flashcards: "flashcards.txt",
		Exercises:  "exercises.txt",
		Cloze:      "cloze.txt",
		Sentences:  "sentences.csv",
	}
}

// Bundle is the parsed content of one language.
type Bundle struct {
	Language  string
	LoadedAt  time.Time
	Warnings  []string
	Cloze     []domain.ClozeText
	Sentences []domain.SentenceWord

	// unavailable is set when no content file could be read at all.
	unavailable bool

	flashcards     map[string]domain.Flashcard
	flashcardWords []string
	exercises      map[string][]domain.GeneratedExercise
	exerciseWords  []string
}

func newBundle(lang string) *Bundle {
	return &Bundle{
		Language:   lang,
		flashcards: make(map[string]domain.Flashcard),
		exercises:  make(map[string][]domain.GeneratedExercise),
	}
}

// NewBundle builds a bundle from already parsed records.
func NewBundle(lang string, cards []domain.Flashcard, exercises []domain.GeneratedExercise) *Bundle {
	b := newBundle(lang)
	b.addFlashcards(cards)
	b.addExercises(exercises)
	return b
}

func (b *Bundle) addFlashcards(cards []domain.Flashcard) {
	for _, c := range cards {
		if _, dup := b.flashcards[c.Word]; dup {
			b.Warnings = append(b.Warnings, fmt.Sprintf("duplicate flashcard for %q ignored", c.Word))
			continue
		}
		b.flashcards[c.Word] = c
		b.flashcardWords = append(b.flashcardWords, c.Word)
	}
}

func (b *Bundle) addExercises(exercises []domain.GeneratedExercise) {
	for _, ex := range exercises {
		if _, seen := b.exercises[ex.Word]; !seen {
			b.exerciseWords = append(b.exerciseWords, ex.Word)
		}
		b.exercises[ex.Word] = append(b.exercises[ex.Word], ex)
	}
}

// Flashcard returns the flashcard of word.
func (b *Bundle) Flashcard(word string) (domain.Flashcard, bool) {
	c, ok := b.flashcards[word]
	return c, ok
}

// FlashcardWords lists every word with a flashcard, in file order.
func (b *Bundle) FlashcardWords() []string {
	return b.flashcardWords
}

// Exercises returns the generated exercises of word, in file order.
func (b *Bundle) Exercises(word string) []domain.GeneratedExercise {
	return b.exercises[word]
}

// ExerciseWords lists every word with a generated exercise, in file order.
func (b *Bundle) ExerciseWords() []string {
	return b.exerciseWords
}

// Words is the sorted set of words found in flashcard or generated content.
func (b *Bundle) Words() []string {
	set := make(map[string]struct{}, len(b.flashcardWords)+len(b.exerciseWords))
	for _, w := range b.flashcardWords {
		set[w] = struct{}{}
	}
	for _, w := range b.exerciseWords {
		set[w] = struct{}{}
	}
	words := make([]string, 0, len(set))
	for w := range set {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// ClozeText looks a cloze text up by id.
func (b *Bundle) ClozeText(id string) (domain.ClozeText, bool) {
	for _, c := range b.Cloze {
		if c.ID == id {
			return c, true
		}
	}
	return domain.ClozeText{}, false
}

// Sentence looks a sentence-practice word up by key.
func (b *Bundle) Sentence(key string) (domain.SentenceWord, bool) {
	for _, s := range b.Sentences {
		if s.Key == key {
			return s, true
		}
	}
	return domain.SentenceWord{}, false
}

// Loader fetches and caches content bundles per language.
type Loader struct {
	source Source
	files  Files
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]*Bundle
}

func NewLoader(source Source, files Files) *Loader {
	return &Loader{
		source: source,
		files:  files,
		now:    time.Now,
		cache:  make(map[string]*Bundle),
	}
}

// Load returns the cached bundle of lang, fetching it on first use. A bundle
// for which no file could be read is not cached, so the next Load retries.
func (l *Loader) Load(ctx context.Context, lang string) *Bundle {
	l.mu.Lock()
	b, ok := l.cache[lang]
	l.mu.Unlock()
	if ok {
		return b
	}

	b = l.Fetch(ctx, lang)
	if b.unavailable {
		return b
	}
	l.mu.Lock()
	l.cache[lang] = b
	l.mu.Unlock()
	return b
}

// Refresh syncs the source when it keeps a local copy, then refetches every
// cached language.
func (l *Loader) Refresh(ctx context.Context) {
	if s, ok := l.source.(Syncer); ok {
		if err := s.Sync(ctx); err != nil {
			slog.Error("Failed to sync content source", "source", l.source.String(), "error", err)
		}
	}

	l.mu.Lock()
	langs := make([]string, 0, len(l.cache))
	for lang := range l.cache {
		langs = append(langs, lang)
	}
	l.mu.Unlock()

	for _, lang := range langs {
		b := l.Fetch(ctx, lang)
		if b.unavailable {
			slog.Warn("Keeping cached content, source unavailable", "language", lang)
			continue
		}
		l.mu.Lock()
		l.cache[lang] = b
		l.mu.Unlock()
	}
	slog.Info("Content refreshed", "languages", len(langs))
}

// Fetch downloads and parses the content of lang. It never fails: missing or
// malformed files leave the matching part of the bundle empty and add a warning.
func (l *Loader) Fetch(ctx context.Context, lang string) *Bundle {
	b := newBundle(lang)

	files := []struct {
		name  string
		parse func(io.Reader) ([]parser.Issue, error)
	}{
		{path.Join(lang, l.files.Flashcards), func(r io.Reader) ([]parser.Issue, error) {
			cards, issues, err := parser.ParseFlashcards(r)
			b.addFlashcards(cards)
			return issues, err
		}},
		{path.Join(lang, l.files.Exercises), func(r io.Reader) ([]parser.Issue, error) {
			exercises, issues, err := parser.ParseExercises(r)
			b.addExercises(exercises)
			return issues, err
		}},
		{path.Join(lang, l.files.Cloze), func(r io.Reader) ([]parser.Issue, error) {
			texts, issues, err := parser.ParseCloze(r)
			b.Cloze = texts
			return issues, err
		}},
		{l.files.Sentences, func(r io.Reader) ([]parser.Issue, error) {
			words, issues, err := parser.ParseSentences(r, lang)
			b.Sentences = words
			return issues, err
		}},
	}
	read := 0
	for _, f := range files {
		if l.read(ctx, b, f.name, f.parse) {
			read++
		}
	}

	b.unavailable = read == 0
	b.LoadedAt = l.now()
	slog.Info("Content loaded",
		"language", lang,
		"source", l.source.String(),
		"flashcards", len(b.flashcardWords),
		"exercise_words", len(b.exerciseWords),
		"cloze_texts", len(b.Cloze),
		"sentence_words", len(b.Sentences),
		"warnings", len(b.Warnings),
	)
	return b
}

// read opens and parses one file and reports whether it could be read.
func (l *Loader) read(ctx context.Context, b *Bundle, name string, parse func(io.Reader) ([]parser.Issue, error)) bool {
	rc, err := l.source.Open(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			b.Warnings = append(b.Warnings, fmt.Sprintf("%s is not available", name))
		} else {
			b.Warnings = append(b.Warnings, fmt.Sprintf("%s could not be loaded", name))
		}
		slog.Warn("Content file unavailable", "file", name, "error", err)
		return false
	}
	defer rc.Close()

	issues, err := parse(rc)
	if err != nil {
		b.Warnings = append(b.Warnings, fmt.Sprintf("%s could not be parsed", name))
		slog.Warn("Content file malformed", "file", name, "error", err)
		return false
	}
	for _, issue := range issues {
		b.Warnings = append(b.Warnings, fmt.Sprintf("%s: %s", name, issue.Error()))
	}
	if len(issues) > 0 {
		slog.Warn("Content file has skipped records", "file", name, "issues", len(issues))
	}
	return true
}
