// Package quiz selects exercises for a quiz, turns them into multiple-choice
// questions and tracks a running quiz.
package quiz

import (
	"math/rand"
	"sort"

	"github.com/conorfennell/wordquiz/internal/domain"
	"github.com/conorfennell/wordquiz/internal/vocab"
)

// Content is the source content questions are built from.
type Content interface {
	Flashcard(word string) (domain.Flashcard, bool)
	FlashcardWords() []string
	Exercises(word string) []domain.GeneratedExercise
}

// Pool selects which words of a table a priority selection draws from.
type Pool int

const (
	ActivePool Pool = iota
	InactivePool
)

// Filter narrows the candidate exercise kinds. Zero fields match anything.
type Filter struct {
	Kind   domain.ExerciseKind
	Origin domain.Origin
}

func (f Filter) match(k domain.ExerciseKind) bool {
	if f.Kind != "" && f.Kind != k {
		return false
	}
	if f.Origin != 0 && f.Origin != k.Origin() {
		return false
	}
	return true
}

// AvailableKinds lists the exercise kinds that can be asked for word:
// flashcard kinds whose backing field is present, then every generated kind
// authored for the word except cloze texts.
func AvailableKinds(word string, c Content) []domain.ExerciseKind {
	var kinds []domain.ExerciseKind
	if card, ok := c.Flashcard(word); ok {
		for _, k := range domain.FlashcardKinds() {
			if card.Supports(k) {
				kinds = append(kinds, k)
			}
		}
	}
	seen := make(map[domain.ExerciseKind]bool)
	for _, ex := range c.Exercises(word) {
		if ex.Kind == domain.KindCloze || seen[ex.Kind] {
			continue
		}
		seen[ex.Kind] = true
		kinds = append(kinds, ex.Kind)
	}
	return kinds
}

// PoolKinds lists the distinct kinds available over a pool of the table,
// restricted to origin when it is set.
func PoolKinds(table vocab.Table, pool Pool, c Content, origin domain.Origin) []domain.ExerciseKind {
	var kinds []domain.ExerciseKind
	seen := make(map[domain.ExerciseKind]bool)
	for _, e := range poolRows(table, pool) {
		for _, k := range AvailableKinds(e.Word, c) {
			if seen[k] || (origin != 0 && k.Origin() != origin) {
				continue
			}
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func poolRows(table vocab.Table, pool Pool) []domain.VocabEntry {
	if pool == InactivePool {
		return table.Inactive()
	}
	return table.Active()
}

// CountCandidates is the number of (word, kind) pairs a priority selection
// over the pool can draw from.
func CountCandidates(table vocab.Table, pool Pool, c Content, f Filter) int {
	count := 0
	for _, e := range poolRows(table, pool) {
		for _, k := range AvailableKinds(e.Word, c) {
			if f.match(k) {
				count++
			}
		}
	}
	return count
}

// SelectPrioritized picks up to n (word, kind) pairs from the pool, wrongly
// answered kinds first, then untested ones, then correct ones. Ties keep table
// order. The picked items are returned shuffled.
func SelectPrioritized(table vocab.Table, pool Pool, c Content, n int, f Filter, rng *rand.Rand) []domain.PlaylistItem {
	if n <= 0 {
		return nil
	}

	var candidates []domain.PlaylistItem
	for _, e := range poolRows(table, pool) {
		for _, k := range AvailableKinds(e.Word, c) {
			if !f.match(k) {
				continue
			}
			candidates = append(candidates, domain.PlaylistItem{
				Word:     e.Word,
				Kind:     k,
				Priority: e.StatusOf(k).Priority(),
			})
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority < candidates[j].Priority
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	return candidates
}

// SelectDiverse picks up to n distinct active words that have a generated
// exercise of kind (any kind when empty, cloze texts excluded). Without
// repetition one random matching exercise is used per word; with repetition
// every matching exercise of each picked word is used.
func SelectDiverse(table vocab.Table, c Content, n int, kind domain.ExerciseKind, allowRepeat bool, rng *rand.Rand) []domain.PlaylistItem {
	type candidate struct {
		entry     domain.VocabEntry
		exercises []domain.GeneratedExercise
	}

	var candidates []candidate
	for _, e := range table.Active() {
		var matching []domain.GeneratedExercise
		for _, ex := range c.Exercises(e.Word) {
			if ex.Kind == domain.KindCloze || (kind != "" && ex.Kind != kind) {
				continue
			}
			matching = append(matching, ex)
		}
		if len(matching) > 0 {
			candidates = append(candidates, candidate{entry: e, exercises: matching})
		}
	}
	if n > len(candidates) {
		n = len(candidates)
	}
	if n <= 0 {
		return nil
	}

	var playlist []domain.PlaylistItem
	for _, i := range rng.Perm(len(candidates))[:n] {
		cand := candidates[i]
		picked := cand.exercises
		if !allowRepeat {
			picked = []domain.GeneratedExercise{cand.exercises[rng.Intn(len(cand.exercises))]}
		}
		for _, ex := range picked {
			playlist = append(playlist, domain.PlaylistItem{
				Word:       cand.entry.Word,
				Kind:       ex.Kind,
				Priority:   cand.entry.StatusOf(ex.Kind).Priority(),
				ExerciseID: ex.ID,
			})
		}
	}
	rng.Shuffle(len(playlist), func(i, j int) {
		playlist[i], playlist[j] = playlist[j], playlist[i]
	})
	return playlist
}

// DiverseWords counts the active words having a generated exercise of kind.
func DiverseWords(table vocab.Table, c Content, kind domain.ExerciseKind) int {
	count := 0
	for _, e := range table.Active() {
		for _, ex := range c.Exercises(e.Word) {
			if ex.Kind != domain.KindCloze && (kind == "" || ex.Kind == kind) {
				count++
				break
			}
		}
	}
	return count
}

// FocusPlaylist returns every available kind of word, shuffled.
func FocusPlaylist(entry domain.VocabEntry, c Content, rng *rand.Rand) []domain.PlaylistItem {
	var playlist []domain.PlaylistItem
	for _, k := range AvailableKinds(entry.Word, c) {
		playlist = append(playlist, domain.PlaylistItem{
			Word:     entry.Word,
			Kind:     k,
			Priority: entry.StatusOf(k).Priority(),
		})
	}
	rng.Shuffle(len(playlist), func(i, j int) {
		playlist[i], playlist[j] = playlist[j], playlist[i]
	})
	return playlist
}

// DefaultCount is the suggested number of questions for a pool of words.
func DefaultCount(mode domain.Mode, words int) int {
	n := words
	if mode == domain.ModeMixed || mode == domain.ModeAnki || mode == domain.ModeReview {
		n = words * 8
	}
	if n > 10 {
		n = 10
	}
	return n
}
