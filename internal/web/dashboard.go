package web

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/conorfennell/wordquiz/internal/domain"
	"github.com/conorfennell/wordquiz/internal/export"
	"github.com/conorfennell/wordquiz/internal/vocab"
)

type languageCard struct {
	Code    string
	Summary vocab.Summary
}

// handleLanguages lists the practice languages with their progress.
func (s *Server) handleLanguages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFrom(r.Context())
		cards := make([]languageCard, 0, len(s.languages))
		for _, lang := range s.languages {
			sum, err := s.vocab.Summary(r.Context(), sess.User.UID, lang)
			if err != nil {
				serverError(w, "Error summarising progress", err, "language", lang)
				return
			}
			cards = append(cards, languageCard{Code: lang, Summary: sum})
		}
		data := page(sess, "")
		data["Languages"] = cards
		s.render(w, "languages", data)
	}
}

// handleDashboard syncs the word list with the current content and shows the
// quiz menu.
func (s *Server) handleDashboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang, ok := s.language(w, r)
		if !ok {
			return
		}
		sess := SessionFrom(r.Context())

		bundle := s.content.Load(r.Context(), lang)
		if _, err := s.vocab.Sync(r.Context(), sess.User.UID, lang, bundle.Words()); err != nil {
			serverError(w, "Error syncing vocabulary", err, "language", lang)
			return
		}
		sum, err := s.vocab.Summary(r.Context(), sess.User.UID, lang)
		if err != nil {
			serverError(w, "Error summarising progress", err, "language", lang)
			return
		}

		data := page(sess, lang)
		data["Summary"] = sum
		data["Warnings"] = bundle.Warnings
		data["LoadedAt"] = bundle.LoadedAt
		data["Modes"] = domain.Modes()
		data["ClozeTexts"] = len(bundle.Cloze)
		data["SentenceWords"] = len(bundle.Sentences)
		s.render(w, "dashboard", data)
	}
}

// handleExport downloads the progress document of a language as a workbook.
func (s *Server) handleExport() http.HandlerFunc {
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
		var buf bytes.Buffer
		if err := export.Write(&buf, doc); err != nil {
			serverError(w, "Error exporting document", err, "language", lang)
			return
		}

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "wordquiz-"+lang+".xlsx"))
		buf.WriteTo(w)
	}
}
