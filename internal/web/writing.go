package web

import (
	"errors"
	"net/http"

	"github.com/conorfennell/wordquiz/internal/domain"
	"github.com/conorfennell/wordquiz/internal/vocab"
)

type sentenceRow struct {
	domain.SentenceWord
	Saved string
}

func (s *Server) renderWriting(w http.ResponseWriter, r *http.Request, lang string, status int, errMsg string) {
	sess := SessionFrom(r.Context())
	doc, err := s.vocab.Document(r.Context(), sess.User.UID, lang)
	if err != nil {
		serverError(w, "Error loading document", err, "language", lang)
		return
	}

	var pending []string
	for _, e := range doc.Words {
		if e.Active && !e.WritingDone {
			pending = append(pending, e.Word)
		}
	}
	data := page(sess, lang)
	data["Pending"] = pending
	data["Entries"] = doc.WritingLog
	data["Error"] = errMsg
	s.renderStatus(w, status, "writing", data)
}

func (s *Server) handleWritingPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang, ok := s.language(w, r)
		if !ok {
			return
		}
		s.renderWriting(w, r, lang, http.StatusOK, "")
	}
}

func (s *Server) handleWritingAdd() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang, ok := s.language(w, r)
		if !ok {
			return
		}
		sess := SessionFrom(r.Context())
		err := s.vocab.AddWritingEntry(r.Context(), sess.User.UID, lang, r.PostFormValue("word"), r.PostFormValue("text"))
		if errors.Is(err, vocab.ErrEmptyEntry) {
			s.renderWriting(w, r, lang, http.StatusBadRequest, "Pick a word and write something first.")
			return
		}
		if err != nil {
			serverError(w, "Error saving writing", err, "language", lang)
			return
		}
		http.Redirect(w, r, langURL(lang, "writing"), http.StatusSeeOther)
	}
}

// handleWritingDelete removes the entries of the selected words.
func (s *Server) handleWritingDelete() http.HandlerFunc {
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
		doc, err := s.vocab.Document(r.Context(), sess.User.UID, lang)
		if err != nil {
			serverError(w, "Error loading document", err, "language", lang)
			return
		}

		selected := make(map[string]bool)
		for _, word := range r.PostForm["word"] {
			selected[word] = true
		}
		var entries []domain.WritingEntry
		for _, e := range doc.WritingLog {
			if selected[e.Word] {
				entries = append(entries, e)
			}
		}
		if err := s.vocab.DeleteWritingEntries(r.Context(), sess.User.UID, lang, entries); err != nil {
			serverError(w, "Error deleting writing", err, "language", lang)
			return
		}
		http.Redirect(w, r, langURL(lang, "writing"), http.StatusSeeOther)
	}
}

func (s *Server) renderSentences(w http.ResponseWriter, r *http.Request, lang string, status int, errMsg string) {
	sess := SessionFrom(r.Context())
	doc, err := s.vocab.Document(r.Context(), sess.User.UID, lang)
	if err != nil {
		serverError(w, "Error loading document", err, "language", lang)
		return
	}
	saved := make(map[string]string, len(doc.SentenceLog))
	for _, e := range doc.SentenceLog {
		saved[e.WordKey] = e.Text
	}

	bundle := s.content.Load(r.Context(), lang)
	rows := make([]sentenceRow, 0, len(bundle.Sentences))
	for _, sw := range bundle.Sentences {
		rows = append(rows, sentenceRow{SentenceWord: sw, Saved: saved[sw.Key]})
	}

	data := page(sess, lang)
	data["Rows"] = rows
	data["Warnings"] = bundle.Warnings
	data["Error"] = errMsg
	s.renderStatus(w, status, "sentences", data)
}

func (s *Server) handleSentencesPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang, ok := s.language(w, r)
		if !ok {
			return
		}
		s.renderSentences(w, r, lang, http.StatusOK, "")
	}
}

func (s *Server) handleSentenceSave() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang, ok := s.language(w, r)
		if !ok {
			return
		}
		key := r.PostFormValue("key")
		if _, found := s.content.Load(r.Context(), lang).Sentence(key); !found {
			http.Error(w, "Unknown word", http.StatusBadRequest)
			return
		}
		sess := SessionFrom(r.Context())
		err := s.vocab.SaveSentence(r.Context(), sess.User.UID, lang, key, r.PostFormValue("text"))
		if errors.Is(err, vocab.ErrEmptyEntry) {
			s.renderSentences(w, r, lang, http.StatusBadRequest, "Write a sentence before saving.")
			return
		}
		if err != nil {
			serverError(w, "Error saving sentence", err, "language", lang)
			return
		}
		http.Redirect(w, r, langURL(lang, "sentences"), http.StatusSeeOther)
	}
}

func (s *Server) handleSentenceDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang, ok := s.language(w, r)
		if !ok {
			return
		}
		sess := SessionFrom(r.Context())
		if err := s.vocab.DeleteSentence(r.Context(), sess.User.UID, lang, r.PostFormValue("key")); err != nil {
			serverError(w, "Error deleting sentence", err, "language", lang)
			return
		}
		http.Redirect(w, r, langURL(lang, "sentences"), http.StatusSeeOther)
	}
}
