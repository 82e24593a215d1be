package quiz

import (
	"math/rand"
	"regexp"

	"github.com/conorfennell/wordquiz/internal/domain"
)

var gapPattern = regexp.MustCompile(`\[(.*?)\]`)

// Cloze is a cloze text split around its gaps. Segments has one more element
// than Answers; gap i sits between Segments[i] and Segments[i+1].
type Cloze struct {
	ID       string
	Title    string
	Level    string
	Segments []string
	Answers  []string
	Options  []string
}

// ClozeResult is the grading of one attempt.
type ClozeResult struct {
	Correct int
	Total   int
	Score   int
	PerGap  []bool
}

// NewCloze prepares t for display with its answers shuffled as options.
func NewCloze(t domain.ClozeText, rng *rand.Rand) Cloze {
	c := Cloze{ID: t.ID, Title: t.Title, Level: t.Level}

	last := 0
	for _, m := range gapPattern.FindAllStringSubmatchIndex(t.Text, -1) {
		c.Segments = append(c.Segments, t.Text[last:m[0]])
		c.Answers = append(c.Answers, t.Text[m[2]:m[3]])
		last = m[1]
	}
	c.Segments = append(c.Segments, t.Text[last:])

	c.Options = append([]string(nil), c.Answers...)
	shuffle(c.Options, rng)
	return c
}

// Gaps is the number of gaps to fill.
func (c Cloze) Gaps() int {
	return len(c.Answers)
}

// Grade compares choices with the answers gap by gap. Missing choices count
// as wrong.
func (c Cloze) Grade(choices []string) ClozeResult {
	res := ClozeResult{Total: len(c.Answers), PerGap: make([]bool, len(c.Answers))}
	for i, answer := range c.Answers {
		if i < len(choices) && choices[i] == answer {
			res.PerGap[i] = true
			res.Correct++
		}
	}
	if res.Total > 0 {
		res.Score = res.Correct * 100 / res.Total
	}
	return res
}
