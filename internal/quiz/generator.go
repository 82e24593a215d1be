package quiz

import (
	"fmt"
	"math/rand"

	"github.com/conorfennell/wordquiz/internal/domain"
	"github.com/conorfennell/wordquiz/internal/vocab"
)

const (
	optionCount = 4
	gap         = "_____"
)

// Question is a materialised multiple-choice question.
type Question struct {
	Word        string
	Kind        domain.ExerciseKind
	DisplayType string
	Prompt      string
	Options     []string
	Answer      int
	Level       string
}

// AnswerText is the text of the correct option.
func (q Question) AnswerText() string {
	return q.Options[q.Answer]
}

// Generate builds the question for item. It reports false when the content
// the item refers to no longer exists.
func Generate(item domain.PlaylistItem, c Content, table vocab.Table, rng *rand.Rand) (Question, bool) {
	var (
		q  Question
		ok bool
	)
	if item.Kind.Origin() == domain.OriginFlashcard {
		q, ok = flashcardQuestion(item, c, rng)
	} else {
		q, ok = generatedQuestion(item, c, rng)
	}
	if !ok {
		return Question{}, false
	}

	q.Word = item.Word
	q.Kind = item.Kind
	q.DisplayType = item.Kind.Label()
	if q.Level == "" {
		if e, found := table.Entry(item.Word); found {
			q.Level = e.Level
		}
	}
	if q.Level == "" {
		q.Level = domain.UnknownLevel
	}
	return q, true
}

func flashcardQuestion(item domain.PlaylistItem, c Content, rng *rand.Rand) (Question, bool) {
	card, ok := c.Flashcard(item.Word)
	if !ok || !card.Supports(item.Kind) {
		return Question{}, false
	}
	correct := card.Field(item.Kind)

	var others []string
	for _, w := range c.FlashcardWords() {
		if w != item.Word {
			others = append(others, w)
		}
	}

	options := []string{correct}
	seen := map[string]bool{correct: true}
	add := func(word string) {
		other, ok := c.Flashcard(word)
		if !ok {
			return
		}
		v := other.Field(item.Kind)
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		options = append(options, v)
	}

	// Up to three distractors first, then top up from the remaining words.
	perm := rng.Perm(len(others))
	distractors := min(optionCount-1, len(others))
	for _, i := range perm[:distractors] {
		add(others[i])
	}
	for _, i := range perm[distractors:] {
		if len(options) >= optionCount {
			break
		}
		add(others[i])
	}

	shuffle(options, rng)
	return Question{
		Prompt:  flashcardPrompt(item.Kind, card),
		Options: options,
		Answer:  indexOf(options, correct),
		Level:   card.Level,
	}, true
}

func flashcardPrompt(kind domain.ExerciseKind, card domain.Flashcard) string {
	switch kind {
	case domain.KindMeaning:
		return fmt.Sprintf("What is the meaning of %q?", card.Word)
	case domain.KindTranslation:
		return fmt.Sprintf("What is the translation of %q?", card.Word)
	case domain.KindSynonym:
		return fmt.Sprintf("Which is a synonym of %q?", card.Word)
	case domain.KindFillGap:
		return fmt.Sprintf("Which word fills the gap?\n%s", domain.BlankWord(card.Example, card.Word, gap))
	case domain.KindReading:
		return fmt.Sprintf("%s\nWhat does %q mean in this sentence?", card.Example, card.Word)
	}
	return card.Word
}

func generatedQuestion(item domain.PlaylistItem, c Content, rng *rand.Rand) (Question, bool) {
	ex, ok := findExercise(c.Exercises(item.Word), item.Kind, item.ExerciseID)
	if !ok {
		return Question{}, false
	}

	options := RepairOptions(ex.Options, ex.Answer, rng)
	shuffle(options, rng)
	return Question{
		Prompt:  ex.Prompt,
		Options: options,
		Answer:  indexOf(options, ex.Answer),
		Level:   ex.Level,
	}, true
}

// findExercise prefers the exercise pinned by id and falls back to the first
// one of kind.
func findExercise(exercises []domain.GeneratedExercise, kind domain.ExerciseKind, id string) (domain.GeneratedExercise, bool) {
	if id != "" {
		for _, ex := range exercises {
			if ex.ID == id && ex.Kind == kind {
				return ex, true
			}
		}
	}
	for _, ex := range exercises {
		if ex.Kind == kind {
			return ex, true
		}
	}
	return domain.GeneratedExercise{}, false
}

// RepairOptions returns a deduplicated copy of options that contains answer
// exactly once. A missing answer replaces a random option.
func RepairOptions(options []string, answer string, rng *rand.Rand) []string {
	out := make([]string, 0, len(options)+1)
	seen := make(map[string]bool, len(options))
	for _, o := range options {
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, o)
	}
	if seen[answer] {
		return out
	}
	if len(out) == 0 {
		return []string{answer}
	}
	out[rng.Intn(len(out))] = answer
	return out
}

func shuffle(values []string, rng *rand.Rand) {
	rng.Shuffle(len(values), func(i, j int) {
		values[i], values[j] = values[j], values[i]
	})
}

func indexOf(values []string, v string) int {
	for i, x := range values {
		if x == v {
			return i
		}
	}
	return -1
}
