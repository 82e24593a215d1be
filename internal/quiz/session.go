package quiz

import (
	"errors"

	"github.com/conorfennell/wordquiz/internal/domain"
	"github.com/conorfennell/wordquiz/internal/vocab"
)

var (
	ErrNoValidQuestions = errors.New("no valid questions for this selection")
	ErrNotInProgress    = errors.New("quiz is not in progress")
	ErrAlreadyChecked   = errors.New("question already checked")
)

// State is the phase of a quiz session.
type State int

const (
	Configuring State = iota
	InProgress
	Finished
)

func (s State) String() string {
	switch s {
	case Configuring:
		return "configuring"
	case InProgress:
		return "in_progress"
	case Finished:
		return "finished"
	}
	return "unknown"
}

// GenerateFunc materialises the question of a playlist item. False skips it.
type GenerateFunc func(domain.PlaylistItem) (Question, bool)

// Session walks a playlist one question at a time. It is not safe for
// concurrent use.
type Session struct {
	Mode  domain.Mode
	State State

	playlist  []domain.PlaylistItem
	index     int
	question  *Question
	checked   bool
	choice    int
	results   []domain.QuizResult
	persisted bool
}

// NewSession returns a session waiting for its playlist.
func NewSession(mode domain.Mode) *Session {
	return &Session{Mode: mode, State: Configuring}
}

// Start moves a configuring session in progress. An empty playlist leaves the
// session configuring.
func (s *Session) Start(playlist []domain.PlaylistItem) error {
	if len(playlist) == 0 {
		return ErrNoValidQuestions
	}
	s.playlist = playlist
	s.index = 0
	s.question = nil
	s.checked = false
	s.results = nil
	s.persisted = false
	s.State = InProgress
	return nil
}

// Current returns the question at the cursor, generating it on first access.
// Items gen cannot build are skipped; running past the end finishes the
// session and returns false.
func (s *Session) Current(gen GenerateFunc) (Question, bool) {
	if s.State != InProgress {
		return Question{}, false
	}
	for s.question == nil {
		if s.index >= len(s.playlist) {
			s.State = Finished
			return Question{}, false
		}
		if q, ok := gen(s.playlist[s.index]); ok {
			s.question = &q
			break
		}
		s.index++
	}
	return *s.question, true
}

// Check reveals the answer of the current question and records whether
// choice was right.
func (s *Session) Check(choice int) (bool, error) {
	if s.State != InProgress || s.question == nil {
		return false, ErrNotInProgress
	}
	if s.checked {
		return false, ErrAlreadyChecked
	}
	correct := choice == s.question.Answer
	s.checked = true
	s.choice = choice
	s.results = append(s.results, domain.QuizResult{
		Word:    s.question.Word,
		Kind:    s.question.Kind,
		Correct: correct,
	})
	return correct, nil
}

// Checked reports whether the current question was answered and the chosen option.
func (s *Session) Checked() (bool, int) {
	return s.checked, s.choice
}

// Next advances the cursor. An unchecked question is skipped without a result.
func (s *Session) Next() error {
	if s.State != InProgress {
		return ErrNotInProgress
	}
	s.index++
	s.question = nil
	s.checked = false
	if s.index >= len(s.playlist) {
		s.State = Finished
	}
	return nil
}

// Cancel drops the playlist and results and returns to configuring.
func (s *Session) Cancel() {
	*s = Session{Mode: s.Mode, State: Configuring}
}

// Progress returns the 1-based position of the cursor and the playlist size.
func (s *Session) Progress() (int, int) {
	pos := s.index + 1
	if pos > len(s.playlist) {
		pos = len(s.playlist)
	}
	return pos, len(s.playlist)
}

// Results returns the answers recorded so far.
func (s *Session) Results() []domain.QuizResult {
	return append([]domain.QuizResult(nil), s.results...)
}

// Summary scores the recorded answers against the full playlist. Items that
// were skipped, by Next without Check or because their content no longer
// exists, count as neither correct nor incorrect but stay in Total, so they
// lower the score.
func (s *Session) Summary() domain.HistorySession {
	return vocab.NewSession(s.results, len(s.playlist))
}

// MarkPersisted reports whether the caller should persist the session now.
// It returns true once per finished session.
func (s *Session) MarkPersisted() bool {
	if s.State != Finished || s.persisted {
		return false
	}
	s.persisted = true
	return true
}
