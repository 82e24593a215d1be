package vocab

import (
	"context"
	"fmt"

	"github.com/conorfennell/wordquiz/internal/domain"
)

// Summary holds the figures shown on the stats page.
type Summary struct {
	Total          int
	Active         int
	Inactive       int
	Accuracy       string
	Sessions       int
	SessionsByMode map[domain.Mode]int
	Writings       int
	Sentences      int
}

// Summarize computes the stats of a document.
func Summarize(doc *domain.Document) Summary {
	s := Summary{
		Total:          len(doc.Words),
		Accuracy:       "N/A",
		SessionsByMode: make(map[domain.Mode]int),
		Writings:       len(doc.WritingLog),
		Sentences:      len(doc.SentenceLog),
	}
	for _, e := range doc.Words {
		if e.Active {
			s.Active++
		}
	}
	s.Inactive = s.Total - s.Active

	correct, incorrect := 0, 0
	for _, m := range domain.Modes() {
		sessions := doc.History[m.HistoryKey()]
		s.SessionsByMode[m] = len(sessions)
		s.Sessions += len(sessions)
		for _, h := range sessions {
			correct += h.Correct
			incorrect += h.Incorrect
		}
	}
	if correct+incorrect > 0 {
		s.Accuracy = fmt.Sprintf("%.1f%%", float64(correct)/float64(correct+incorrect)*100)
	}
	return s
}

// Summary loads the document of (userID, language) and summarises it.
func (m *Manager) Summary(ctx context.Context, userID, language string) (Summary, error) {
	doc, err := m.Document(ctx, userID, language)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(doc), nil
}
