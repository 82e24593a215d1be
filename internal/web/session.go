package web

import (
	"context"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/wordquiz/internal/domain"
	"github.com/conorfennell/wordquiz/internal/identity"
	"github.com/conorfennell/wordquiz/internal/quiz"
	"github.com/conorfennell/wordquiz/internal/vocab"
)

const cookieName = "wordquiz_session"

type contextKey string

const sessionKey contextKey = "session"

// Session is the server-side state of one login. Handlers lock mu while they
// read or change it.
type Session struct {
	mu        sync.Mutex
	Token     string
	User      identity.User
	ExpiresAt time.Time

	quizzes map[string]*quizState
	cloze   map[string]*clozeState
}

// quizState is a running quiz of one mode for one language.
type quizState struct {
	session *quiz.Session
	table   vocab.Table
	content quiz.Content
	rng     *rand.Rand
	outcome *vocab.Outcome
	saveErr error
}

// clozeState is the cloze text a user is working on.
type clozeState struct {
	cloze  quiz.Cloze
	result *quiz.ClozeResult
	chosen []string
}

func stateKey(lang string, mode domain.Mode) string {
	return lang + "/" + string(mode)
}

func (s *Session) quiz(lang string, mode domain.Mode) *quizState {
	return s.quizzes[stateKey(lang, mode)]
}

func (s *Session) setQuiz(lang string, mode domain.Mode, q *quizState) {
	if q == nil {
		delete(s.quizzes, stateKey(lang, mode))
		return
	}
	s.quizzes[stateKey(lang, mode)] = q
}

// SessionStore keeps sessions in memory, keyed by cookie token.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	secure   bool
	now      func() time.Time
}

func NewSessionStore(ttl time.Duration, secure bool) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		secure:   secure,
		now:      time.Now,
	}
}

// Create starts a session for u.
func (s *SessionStore) Create(u identity.User) *Session {
	sess := &Session{
		Token:     uuid.NewString(),
		User:      u,
		ExpiresAt: s.now().Add(s.ttl),
		quizzes:   make(map[string]*quizState),
		cloze:     make(map[string]*clozeState),
	}
	s.mu.Lock()
	s.sessions[sess.Token] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the live session of token, or nil.
func (s *SessionStore) Get(token string) *Session {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	if s.now().After(sess.ExpiresAt) {
		s.Delete(token)
		return nil
	}
	return sess
}

func (s *SessionStore) Delete(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Sweep drops expired sessions and returns how many were removed.
func (s *SessionStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

// SetCookie attaches the session cookie of sess to w.
func (s *SessionStore) SetCookie(w http.ResponseWriter, sess *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (s *SessionStore) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
	})
}

// Middleware puts the session of the request cookie, if any, in the context.
func (s *SessionStore) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(cookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		sess := s.Get(cookie.Value)
		if sess == nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionFrom returns the session the middleware found, or nil.
func SessionFrom(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionKey).(*Session)
	return sess
}

// requireLogin redirects anonymous requests to the login page.
func requireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if SessionFrom(r.Context()) == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}
