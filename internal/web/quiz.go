package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/conorfennell/wordquiz/internal/content"
	"github.com/conorfennell/wordquiz/internal/domain"
	"github.com/conorfennell/wordquiz/internal/quiz"
	"github.com/conorfennell/wordquiz/internal/vocab"
)

// quizMode resolves {lang} and {mode}. Cloze texts have their own pages.
func (s *Server) quizMode(w http.ResponseWriter, r *http.Request) (string, domain.Mode, bool) {
	lang, ok := s.language(w, r)
	if !ok {
		return "", "", false
	}
	mode, ok := domain.ParseMode(r.PathValue("mode"))
	if !ok {
		http.NotFound(w, r)
		return "", "", false
	}
	if mode == domain.ModeCloze {
		http.Redirect(w, r, langURL(lang, "cloze"), http.StatusSeeOther)
		return "", "", false
	}
	return lang, mode, true
}

// loadTable fetches the content of lang and syncs the user's word list with it.
func (s *Server) loadTable(ctx context.Context, sess *Session, lang string) (*content.Bundle, vocab.Table, error) {
	bundle := s.content.Load(ctx, lang)
	table, err := s.vocab.Sync(ctx, sess.User.UID, lang, bundle.Words())
	return bundle, table, err
}

func (s *Server) handleQuizPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang, mode, ok := s.quizMode(w, r)
		if !ok {
			return
		}
		sess := SessionFrom(r.Context())
		sess.mu.Lock()
		defer sess.mu.Unlock()

		st := sess.quiz(lang, mode)
		if st == nil || st.session.State == quiz.Configuring {
			s.renderQuizConfig(w, r, sess, lang, mode, "")
			return
		}

		if st.session.State == quiz.InProgress {
			q, ok := st.session.Current(st.generate)
			if ok {
				checked, choice := st.session.Checked()
				pos, total := st.session.Progress()
				data := page(sess, lang)
				data["Mode"] = mode
				data["Question"] = q
				data["Position"] = pos
				data["Total"] = total
				data["Checked"] = checked
				data["Choice"] = choice
				data["Correct"] = checked && choice == q.Answer
				s.render(w, "quiz_question", data)
				return
			}
		}

		// Finished, possibly because the remaining items were all skipped.
		s.complete(r.Context(), sess, lang, mode, st)
		s.renderQuizSummary(w, sess, lang, mode, st)
	}
}

func (st *quizState) generate(item domain.PlaylistItem) (quiz.Question, bool) {
	return quiz.Generate(item, st.content, st.table, st.rng)
}

// renderQuizConfig shows the selection form of a mode with what the pool offers.
func (s *Server) renderQuizConfig(w http.ResponseWriter, r *http.Request, sess *Session, lang string, mode domain.Mode, errMsg string) {
	bundle, table, err := s.loadTable(r.Context(), sess, lang)
	if err != nil {
		serverError(w, "Error syncing vocabulary", err, "language", lang)
		return
	}

	data := page(sess, lang)
	data["Mode"] = mode
	data["Error"] = errMsg
	data["Warnings"] = bundle.Warnings

	available := 0
	switch mode {
	case domain.ModeAnki:
		available = quiz.CountCandidates(table, quiz.ActivePool, bundle, quiz.Filter{Origin: domain.OriginFlashcard})
		data["Kinds"] = quiz.PoolKinds(table, quiz.ActivePool, bundle, domain.OriginFlashcard)
		data["Default"] = min(quiz.DefaultCount(mode, len(table.Active())), available)
	case domain.ModeMixed:
		available = quiz.CountCandidates(table, quiz.ActivePool, bundle, quiz.Filter{})
		data["Kinds"] = quiz.PoolKinds(table, quiz.ActivePool, bundle, 0)
		data["Default"] = min(quiz.DefaultCount(mode, len(table.Active())), available)
	case domain.ModeReview:
		available = quiz.CountCandidates(table, quiz.InactivePool, bundle, quiz.Filter{})
		data["Kinds"] = quiz.PoolKinds(table, quiz.InactivePool, bundle, 0)
		data["Default"] = min(quiz.DefaultCount(mode, len(table.Inactive())), available)
	case domain.ModeGPT:
		available = quiz.DiverseWords(table, bundle, "")
		data["Kinds"] = quiz.PoolKinds(table, quiz.ActivePool, bundle, domain.OriginGenerated)
		data["Default"] = quiz.DefaultCount(mode, available)
	case domain.ModeFocus:
		var words []string
		for _, e := range table.Active() {
			if len(quiz.AvailableKinds(e.Word, bundle)) > 0 {
				words = append(words, e.Word)
			}
		}
		available = len(words)
		data["Words"] = words
	}
	data["Available"] = available
	s.render(w, "quiz_config", data)
}

func formInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.PostFormValue(key))
	return n
}

// handleQuizStart builds the playlist of a mode and starts the quiz.
func (s *Server) handleQuizStart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang, mode, ok := s.quizMode(w, r)
		if !ok {
			return
		}
		sess := SessionFrom(r.Context())
		sess.mu.Lock()
		defer sess.mu.Unlock()

		bundle, table, err := s.loadTable(r.Context(), sess, lang)
		if err != nil {
			serverError(w, "Error syncing vocabulary", err, "language", lang)
			return
		}

		rng := s.newRand()
		n := formInt(r, "count")
		kind := domain.ParseKind(r.PostFormValue("kind"))

		var playlist []domain.PlaylistItem
		switch mode {
		case domain.ModeAnki:
			playlist = quiz.SelectPrioritized(table, quiz.ActivePool, bundle, n, quiz.Filter{Kind: kind, Origin: domain.OriginFlashcard}, rng)
		case domain.ModeMixed:
			playlist = quiz.SelectPrioritized(table, quiz.ActivePool, bundle, n, quiz.Filter{Kind: kind}, rng)
		case domain.ModeReview:
			playlist = quiz.SelectPrioritized(table, quiz.InactivePool, bundle, n, quiz.Filter{Kind: kind}, rng)
		case domain.ModeGPT:
			playlist = quiz.SelectDiverse(table, bundle, n, kind, r.PostFormValue("repeat") != "", rng)
		case domain.ModeFocus:
			if e, found := table.Entry(r.PostFormValue("word")); found && e.Active {
				playlist = quiz.FocusPlaylist(e, bundle, rng)
			}
		}

		qs := quiz.NewSession(mode)
		if err := qs.Start(playlist); err != nil {
			if errors.Is(err, quiz.ErrNoValidQuestions) {
				s.renderQuizConfig(w, r, sess, lang, mode, "No valid questions for this selection.")
				return
			}
			serverError(w, "Error starting quiz", err)
			return
		}

		sess.setQuiz(lang, mode, &quizState{session: qs, table: table, content: bundle, rng: rng})
		slog.Info("Quiz started", "user", sess.User.UID, "language", lang, "mode", mode, "questions", len(playlist))
		http.Redirect(w, r, langURL(lang, "quiz", string(mode)), http.StatusSeeOther)
	}
}

// handleQuizCheck reveals the answer to the current question.
func (s *Server) handleQuizCheck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang, mode, ok := s.quizMode(w, r)
		if !ok {
			return
		}
		sess := SessionFrom(r.Context())
		sess.mu.Lock()
		defer sess.mu.Unlock()

		if st := sess.quiz(lang, mode); st != nil {
			if _, ok := st.session.Current(st.generate); ok {
				choice, err := strconv.Atoi(r.PostFormValue("choice"))
				if err != nil {
					choice = -1
				}
				if _, err := st.session.Check(choice); err != nil && !errors.Is(err, quiz.ErrAlreadyChecked) {
					slog.Warn("Check rejected", "user", sess.User.UID, "mode", mode, "error", err)
				}
			}
		}
		http.Redirect(w, r, langURL(lang, "quiz", string(mode)), http.StatusSeeOther)
	}
}

// handleQuizNext advances to the next question and records the quiz once it ends.
func (s *Server) handleQuizNext() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang, mode, ok := s.quizMode(w, r)
		if !ok {
			return
		}
		sess := SessionFrom(r.Context())
		sess.mu.Lock()
		defer sess.mu.Unlock()

		if st := sess.quiz(lang, mode); st != nil && st.session.Next() == nil {
			if st.session.State == quiz.Finished {
				s.complete(r.Context(), sess, lang, mode, st)
			}
		}
		http.Redirect(w, r, langURL(lang, "quiz", string(mode)), http.StatusSeeOther)
	}
}

// handleQuizCancel drops the running quiz without recording anything.
func (s *Server) handleQuizCancel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang, mode, ok := s.quizMode(w, r)
		if !ok {
			return
		}
		sess := SessionFrom(r.Context())
		sess.mu.Lock()
		defer sess.mu.Unlock()

		if st := sess.quiz(lang, mode); st != nil {
			st.session.Cancel()
			sess.setQuiz(lang, mode, nil)
		}
		http.Redirect(w, r, langURL(lang, "quiz", string(mode)), http.StatusSeeOther)
	}
}

// handleQuizFinish leaves the summary of a finished quiz.
func (s *Server) handleQuizFinish() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang, mode, ok := s.quizMode(w, r)
		if !ok {
			return
		}
		sess := SessionFrom(r.Context())
		sess.mu.Lock()
		defer sess.mu.Unlock()

		st := sess.quiz(lang, mode)
		if st != nil && st.session.State != quiz.Finished {
			http.Redirect(w, r, langURL(lang, "quiz", string(mode)), http.StatusSeeOther)
			return
		}
		if st != nil {
			s.complete(r.Context(), sess, lang, mode, st)
			sess.setQuiz(lang, mode, nil)
		}
		http.Redirect(w, r, langURL(lang), http.StatusSeeOther)
	}
}

// complete persists a finished quiz. It does nothing after the first call.
func (s *Server) complete(ctx context.Context, sess *Session, lang string, mode domain.Mode, st *quizState) {
	if !st.session.MarkPersisted() {
		return
	}
	_, total := st.session.Progress()
	out, err := s.vocab.CompleteQuiz(ctx, sess.User.UID, lang, mode, st.session.Results(), total)
	if err != nil {
		slog.Error("Failed to record quiz", "user", sess.User.UID, "language", lang, "mode", mode, "error", err)
		st.saveErr = err
		return
	}
	st.outcome = &out
}

func (s *Server) renderQuizSummary(w http.ResponseWriter, sess *Session, lang string, mode domain.Mode, st *quizState) {
	summary := st.session.Summary()
	data := page(sess, lang)
	data["Mode"] = mode
	if st.outcome != nil {
		summary = st.outcome.Session
		data["Deactivated"] = st.outcome.Deactivated
		data["Reactivated"] = st.outcome.Reactivated
	}
	data["Summary"] = summary
	data["SaveFailed"] = st.saveErr != nil
	s.render(w, "quiz_summary", data)
}
