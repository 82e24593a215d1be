package web

import (
	"fmt"
	"net/http"

	"github.com/conorfennell/wordquiz/internal/quiz"
)

// clozePart is a run of text or a gap of a cloze text as shown on the page.
type clozePart struct {
	Text    string
	Gap     int
	IsGap   bool
	Chosen  string
	Answer  string
	Correct bool
}

func (c *clozeState) parts() []clozePart {
	var parts []clozePart
	for i, seg := range c.cloze.Segments {
		parts = append(parts, clozePart{Text: seg})
		if i >= c.cloze.Gaps() {
			continue
		}
		p := clozePart{Gap: i, IsGap: true, Answer: c.cloze.Answers[i]}
		if i < len(c.chosen) {
			p.Chosen = c.chosen[i]
		}
		if c.result != nil {
			p.Correct = c.result.PerGap[i]
		}
		parts = append(parts, p)
	}
	return parts
}

func (s *Server) handleClozeList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang, ok := s.language(w, r)
		if !ok {
			return
		}
		bundle := s.content.Load(r.Context(), lang)
		data := page(SessionFrom(r.Context()), lang)
		data["Texts"] = bundle.Cloze
		data["Warnings"] = bundle.Warnings
		s.render(w, "cloze_list", data)
	}
}

// handleClozePage shows a cloze text. A new attempt starts when the text
// changes or reset is requested.
func (s *Server) handleClozePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang, ok := s.language(w, r)
		if !ok {
			return
		}
		text, found := s.content.Load(r.Context(), lang).ClozeText(r.PathValue("id"))
		if !found {
			http.NotFound(w, r)
			return
		}
		sess := SessionFrom(r.Context())
		sess.mu.Lock()
		defer sess.mu.Unlock()

		st := sess.cloze[lang]
		if st == nil || st.cloze.ID != text.ID || r.URL.Query().Get("reset") != "" {
			st = &clozeState{cloze: quiz.NewCloze(text, s.newRand())}
			sess.cloze[lang] = st
		}
		s.renderCloze(w, sess, lang, st)
	}
}

// handleClozeSubmit grades the chosen options and records the attempt.
func (s *Server) handleClozeSubmit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang, ok := s.language(w, r)
		if !ok {
			return
		}
		id := r.PathValue("id")
		sess := SessionFrom(r.Context())
		sess.mu.Lock()
		defer sess.mu.Unlock()

		st := sess.cloze[lang]
		if st == nil || st.cloze.ID != id {
			http.Redirect(w, r, langURL(lang, "cloze", id), http.StatusSeeOther)
			return
		}
		if st.result != nil {
			s.renderCloze(w, sess, lang, st)
			return
		}

		chosen := make([]string, st.cloze.Gaps())
		for i := range chosen {
			chosen[i] = r.PostFormValue(fmt.Sprintf("gap%d", i))
		}
		res := st.cloze.Grade(chosen)
		if _, err := s.vocab.RecordCloze(r.Context(), sess.User.UID, lang, res.Correct, res.Total); err != nil {
			serverError(w, "Error recording cloze attempt", err, "language", lang, "cloze", id)
			return
		}
		st.chosen = chosen
		st.result = &res
		s.renderCloze(w, sess, lang, st)
	}
}

func (s *Server) renderCloze(w http.ResponseWriter, sess *Session, lang string, st *clozeState) {
	data := page(sess, lang)
	data["Cloze"] = st.cloze
	data["Parts"] = st.parts()
	data["Result"] = st.result
	s.render(w, "cloze", data)
}
