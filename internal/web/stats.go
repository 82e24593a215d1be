package web

import (
	"net/http"
	"sort"

	"github.com/conorfennell/wordquiz/internal/domain"
	"github.com/conorfennell/wordquiz/internal/vocab"
)

type historyRow struct {
	Mode    domain.Mode
	Session domain.HistorySession
}

// handleStats shows the performance summary, the word manager and the history.
func (s *Server) handleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang, ok := s.language(w, r)
		if !ok {
			return
		}
		sess := SessionFrom(r.Context())
		doc, err := s.vocab.Document(r.Context(), sess.User.UID, lang)
		if err != nil {
			serverError(w, "Error loading document", err, "language", lang)
			return
		}

		var history []historyRow
		for _, m := range domain.Modes() {
			for _, h := range doc.History[m.HistoryKey()] {
				history = append(history, historyRow{Mode: m, Session: h})
			}
		}
		sort.SliceStable(history, func(i, j int) bool {
			return history[i].Session.Timestamp.After(history[j].Session.Timestamp)
		})

		data := page(sess, lang)
		data["Summary"] = vocab.Summarize(doc)
		data["Words"] = doc.Words
		data["History"] = history
		data["Kinds"] = append(domain.FlashcardKinds(), domain.GeneratedKinds()...)
		s.render(w, "stats", data)
	}
}

// handleWords activates, deactivates or deletes the selected words.
func (s *Server) handleWords() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang, ok := s.language(w, r)
		if !ok {
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}
		sess := SessionFrom(r.Context())
		words := r.PostForm["word"]

		var err error
		switch r.PostFormValue("action") {
		case "activate":
			_, err = s.vocab.SetActive(r.Context(), sess.User.UID, lang, words, true)
		case "deactivate":
			_, err = s.vocab.SetActive(r.Context(), sess.User.UID, lang, words, false)
		case "delete":
			_, err = s.vocab.DeleteWords(r.Context(), sess.User.UID, lang, words)
		default:
			http.Error(w, "Unknown action", http.StatusBadRequest)
			return
		}
		if err != nil {
			serverError(w, "Error updating words", err, "language", lang)
			return
		}
		http.Redirect(w, r, langURL(lang, "stats"), http.StatusSeeOther)
	}
}

func (s *Server) handleClearHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang, ok := s.language(w, r)
		if !ok {
			return
		}
		sess := SessionFrom(r.Context())
		if err := s.vocab.ClearHistory(r.Context(), sess.User.UID, lang); err != nil {
			serverError(w, "Error clearing history", err, "language", lang)
			return
		}
		http.Redirect(w, r, langURL(lang, "stats"), http.StatusSeeOther)
	}
}
