// Package mastery decides when a word has been learned well enough to leave
// the active practice pool.
package mastery

import "github.com/conorfennell/wordquiz/internal/domain"

// Rating is how a word did over one finished quiz.
type Rating int

const (
	Again Rating = 1 // at least one answer for the word was wrong
	Good  Rating = 3 // every answer for the word was right
)

// Params holds the mastery policy.
type Params struct {
	// Threshold is the number of clean quizzes after which a fully correct
	// word is deactivated. Zero disables automatic deactivation.
	Threshold int
}

// DefaultParams deactivates a word after three clean quizzes.
func DefaultParams() *Params {
	return &Params{Threshold: 3}
}

// Rate folds the results of one quiz into a rating per word.
func Rate(results []domain.QuizResult) map[string]Rating {
	ratings := make(map[string]Rating)
	for _, r := range results {
		if !r.Correct {
			ratings[r.Word] = Again
			continue
		}
		if _, seen := ratings[r.Word]; !seen {
			ratings[r.Word] = Good
		}
	}
	return ratings
}

// Apply updates the mastery count of entry and reports whether the entry was
// deactivated by this rating. A Good rating only counts once every attempted
// kind of the word is correct.
func (p *Params) Apply(entry *domain.VocabEntry, rating Rating) bool {
	if rating == Again {
		entry.MasteryCount = 0
		return false
	}
	if !allCorrect(entry) {
		return false
	}
	entry.MasteryCount++

	if p.Threshold > 0 && entry.Active && entry.MasteryCount >= p.Threshold {
		entry.Active = false
		return true
	}
	return false
}

func allCorrect(entry *domain.VocabEntry) bool {
	if len(entry.Progress) == 0 {
		return false
	}
	for _, s := range entry.Progress {
		if s != domain.StatusCorrect {
			return false
		}
	}
	return true
}
