package web

import (
	"context"
	"io"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/conorfennell/wordquiz/internal/content"
	"github.com/conorfennell/wordquiz/internal/domain"
	"github.com/conorfennell/wordquiz/internal/identity"
	"github.com/conorfennell/wordquiz/internal/mastery"
	"github.com/conorfennell/wordquiz/internal/storage"
	"github.com/conorfennell/wordquiz/internal/vocab"
)

const flashcards = `word: cat
definition: a small furry animal

word: dog
definition: a loyal animal

word: bird
definition: an animal that flies

word: fish
definition: an animal that swims
`

type testApp struct {
	srv      *httptest.Server
	identity *identity.Provider
	vocab    *vocab.Manager
}

func setupApp(t *testing.T) *testApp {
	t.Helper()
	db, err := storage.Open(storage.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/content/en/flashcards.txt", []byte(flashcards), 0o644); err != nil {
		t.Fatalf("Failed to write flashcards: %v", err)
	}

	app := &testApp{
		identity: identity.NewProvider(db, false),
		vocab:    vocab.NewManager(db, mastery.DefaultParams()),
	}
	s, err := NewServer(Options{
		Identity:  app.identity,
		Vocab:     app.vocab,
		Content:   content.NewLoader(content.NewDirSource(fs, "/content"), content.DefaultFiles()),
		Sessions:  NewSessionStore(time.Hour, false),
		Languages: []string{"en", "fr"},
		NewRand:   func() *rand.Rand { return rand.New(rand.NewSource(7)) },
	})
	if err != nil {
		t.Fatalf("NewServer() returned an unexpected error: %v", err)
	}
	app.srv = httptest.NewServer(s)
	t.Cleanup(app.srv.Close)
	return app
}

// client returns a client that keeps cookies and follows redirects.
func (a *testApp) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("Failed to create cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	return string(body)
}

func (a *testApp) get(t *testing.T, c *http.Client, path string) (int, string) {
	t.Helper()
	resp, err := c.Get(a.srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	return resp.StatusCode, readBody(t, resp)
}

func (a *testApp) post(t *testing.T, c *http.Client, path string, form url.Values) (int, string) {
	t.Helper()
	resp, err := c.PostForm(a.srv.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	return resp.StatusCode, readBody(t, resp)
}

func (a *testApp) register(t *testing.T, c *http.Client) {
	t.Helper()
	status, body := a.post(t, c, "/register", url.Values{
		"email":        {"ana@example.com"},
		"password":     {"secret1"},
		"display_name": {"Ana"},
	})
	if status != http.StatusOK || !strings.Contains(body, "Choose a language") {
		t.Fatalf("Expected the language page after registering, but got %d: %s", status, body)
	}
}

func TestAnonymousRequestsRedirectToLogin(t *testing.T) {
	app := setupApp(t)
	c := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}

	for _, path := range []string{"/", "/lang/en", "/lang/en/quiz/mixed", "/lang/en/export.xlsx"} {
		resp, err := c.Get(app.srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
			t.Errorf("%s: expected a redirect to /login, but got %d %q", path, resp.StatusCode, resp.Header.Get("Location"))
		}
	}
}

func TestLoginErrors(t *testing.T) {
	app := setupApp(t)
	c := app.client(t)

	_, body := app.post(t, c, "/login", url.Values{"email": {"nobody@example.com"}})
	if !strings.Contains(body, "No account found for this email.") {
		t.Errorf("Expected an unknown account message, but got: %s", body)
	}

	app.register(t, c)
	_, body = app.post(t, app.client(t), "/register", url.Values{
		"email":        {"ana@example.com"},
		"password":     {"secret1"},
		"display_name": {"Ana"},
	})
	if !strings.Contains(body, "This email is already registered.") {
		t.Errorf("Expected a duplicate email message, but got: %s", body)
	}

	other := app.client(t)
	_, body = app.post(t, other, "/login", url.Values{"email": {"ANA@example.com"}})
	if !strings.Contains(body, "Choose a language") {
		t.Errorf("Expected login by email to succeed, but got: %s", body)
	}
}

func TestDashboard(t *testing.T) {
	app := setupApp(t)
	c := app.client(t)
	app.register(t, c)

	status, body := app.get(t, c, "/lang/en")
	if status != http.StatusOK {
		t.Fatalf("Expected 200, but got %d", status)
	}
	for _, want := range []string{"Dashboard (en)", "content warning", "/lang/en/quiz/mixed"} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected dashboard to contain %q", want)
		}
	}

	if status, _ := app.get(t, c, "/lang/xx"); status != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown language, but got %d", status)
	}
	if status, _ := app.get(t, c, "/lang/en/quiz/bogus"); status != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown mode, but got %d", status)
	}
}

func TestMixedQuizFlow(t *testing.T) {
	app := setupApp(t)
	c := app.client(t)
	app.register(t, c)

	_, body := app.get(t, c, "/lang/en/quiz/mixed")
	if !strings.Contains(body, "Start quiz") {
		t.Fatalf("Expected the quiz configuration form, but got: %s", body)
	}

	_, body = app.post(t, c, "/lang/en/quiz/mixed/start", url.Values{"count": {"2"}})
	if !strings.Contains(body, "Question 1 of 2") {
		t.Fatalf("Expected the first question, but got: %s", body)
	}

	for i := 0; i < 5 && !strings.Contains(body, "Quiz finished"); i++ {
		_, body = app.post(t, c, "/lang/en/quiz/mixed/check", url.Values{"choice": {"0"}})
		if !strings.Contains(body, "The answer is") && !strings.Contains(body, "Correct!") {
			t.Fatalf("Expected a checked question, but got: %s", body)
		}
		_, body = app.post(t, c, "/lang/en/quiz/mixed/next", nil)
	}
	if !strings.Contains(body, "Quiz finished") {
		t.Fatalf("Expected the quiz summary, but got: %s", body)
	}

	_, body = app.post(t, c, "/lang/en/quiz/mixed/finish", nil)
	if !strings.Contains(body, "Dashboard (en)") {
		t.Errorf("Expected to land on the dashboard, but got: %s", body)
	}

	u, err := app.identity.LookupByEmail(context.Background(), "ana@example.com")
	if err != nil {
		t.Fatalf("LookupByEmail() returned an unexpected error: %v", err)
	}
	doc, err := app.vocab.Document(context.Background(), u.UID, "en")
	if err != nil {
		t.Fatalf("Document() returned an unexpected error: %v", err)
	}
	history := doc.History[domain.ModeMixed.HistoryKey()]
	if len(history) != 1 {
		t.Fatalf("Expected 1 recorded session, but got %d", len(history))
	}
	if history[0].Total != 2 || history[0].Correct+history[0].Incorrect != 2 {
		t.Errorf("Expected 2 answered questions, but got %+v", history[0])
	}
	if len(doc.Words) != 4 {
		t.Errorf("Expected 4 synced words, but got %d", len(doc.Words))
	}
}

func TestQuizCancelDoesNotRecord(t *testing.T) {
	app := setupApp(t)
	c := app.client(t)
	app.register(t, c)

	app.post(t, c, "/lang/en/quiz/anki/start", url.Values{"count": {"3"}})
	_, body := app.post(t, c, "/lang/en/quiz/anki/cancel", nil)
	if !strings.Contains(body, "Start quiz") {
		t.Errorf("Expected the configuration form after cancel, but got: %s", body)
	}

	u, _ := app.identity.LookupByEmail(context.Background(), "ana@example.com")
	doc, err := app.vocab.Document(context.Background(), u.UID, "en")
	if err != nil {
		t.Fatalf("Document() returned an unexpected error: %v", err)
	}
	if n := len(doc.History[domain.ModeAnki.HistoryKey()]); n != 0 {
		t.Errorf("Expected no recorded session, but got %d", n)
	}
}

func TestReviewWithoutInactiveWords(t *testing.T) {
	app := setupApp(t)
	c := app.client(t)
	app.register(t, c)

	_, body := app.post(t, c, "/lang/en/quiz/review/start", url.Values{"count": {"5"}})
	if !strings.Contains(body, "No valid questions for this selection.") {
		t.Errorf("Expected the no-questions error, but got: %s", body)
	}
}

func TestExport(t *testing.T) {
	app := setupApp(t)
	c := app.client(t)
	app.register(t, c)
	app.get(t, c, "/lang/en")

	resp, err := c.Get(app.srv.URL + "/lang/en/export.xlsx")
	if err != nil {
		t.Fatalf("GET export failed: %v", err)
	}
	body := readBody(t, resp)
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Expected a workbook content type, but got %q", ct)
	}
	if !strings.HasPrefix(body, "PK") {
		t.Error("Expected a zip archive body")
	}
}

func TestWriting(t *testing.T) {
	app := setupApp(t)
	c := app.client(t)
	app.register(t, c)
	app.get(t, c, "/lang/en")

	status, _ := app.post(t, c, "/lang/en/writing", url.Values{"word": {"cat"}, "text": {""}})
	if status != http.StatusBadRequest {
		t.Errorf("Expected 400 for an empty entry, but got %d", status)
	}

	_, body := app.post(t, c, "/lang/en/writing", url.Values{"word": {"cat"}, "text": {"My cat sleeps all day."}})
	if !strings.Contains(body, "My cat sleeps all day.") {
		t.Errorf("Expected the saved entry on the writing page, but got: %s", body)
	}

	_, body = app.post(t, c, "/lang/en/writing/delete", url.Values{"word": {"cat"}})
	if !strings.Contains(body, "Nothing written yet.") {
		t.Errorf("Expected the entry to be deleted, but got: %s", body)
	}
}

func TestSessionStore(t *testing.T) {
	store := NewSessionStore(time.Hour, false)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	a := store.Create(identity.User{UID: "u1"})
	b := store.Create(identity.User{UID: "u2"})
	if got := store.Get(a.Token); got != a {
		t.Fatal("Expected the created session to be found")
	}

	now = now.Add(30 * time.Minute)
	b.ExpiresAt = now.Add(2 * time.Hour)

	now = now.Add(time.Hour)
	if got := store.Get(a.Token); got != nil {
		t.Error("Expected an expired session to be dropped")
	}
	if removed := store.Sweep(); removed != 0 {
		t.Errorf("Expected nothing left to sweep, but removed %d", removed)
	}
	if got := store.Get(b.Token); got != b {
		t.Error("Expected the live session to survive")
	}

	now = now.Add(3 * time.Hour)
	if removed := store.Sweep(); removed != 1 {
		t.Errorf("Expected 1 swept session, but removed %d", removed)
	}
}

func TestMiddlewareIgnoresUnknownCookie(t *testing.T) {
	store := NewSessionStore(time.Hour, false)
	var found *Session
	h := store.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		found = SessionFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "stale"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	if found != nil {
		t.Error("Expected no session for an unknown token")
	}
}
