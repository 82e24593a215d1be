package web

import (
	"errors"
	"net/http"

	"github.com/conorfennell/wordquiz/internal/identity"
)

func (s *Server) handleLoginPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if SessionFrom(r.Context()) != nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		s.render(w, "login", map[string]interface{}{"IsRegister": false})
	}
}

func (s *Server) handleRegisterPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, "login", map[string]interface{}{"IsRegister": true})
	}
}

// handleLogin confirms the identity of the posted email and starts a session.
func (s *Server) handleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := r.PostFormValue("email")
		u, err := s.identity.Login(r.Context(), email, r.PostFormValue("password"))
		if err != nil {
			msg := ""
			switch {
			case errors.Is(err, identity.ErrUserNotFound):
				msg = "No account found for this email."
			case errors.Is(err, identity.ErrInvalidPassword):
				msg = "Invalid email or password."
			default:
				serverError(w, "Error looking up user", err, "email", email)
				return
			}
			s.render(w, "login", map[string]interface{}{
				"IsRegister": false,
				"Error":      msg,
				"Email":      email,
			})
			return
		}

		sess := s.sessions.Create(*u)
		s.sessions.SetCookie(w, sess)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (s *Server) handleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := identity.SignUp{
			Email:       r.PostFormValue("email"),
			Password:    r.PostFormValue("password"),
			DisplayName: r.PostFormValue("display_name"),
		}
		u, err := s.identity.Create(r.Context(), form)
		if err != nil {
			msg := ""
			switch {
			case errors.Is(err, identity.ErrEmailTaken):
				msg = "This email is already registered."
			case errors.Is(err, identity.ErrInvalidSignUp):
				msg = err.Error()
			default:
				serverError(w, "Error creating user", err, "email", form.Email)
				return
			}
			s.render(w, "login", map[string]interface{}{
				"IsRegister":  true,
				"Error":       msg,
				"Email":       form.Email,
				"DisplayName": form.DisplayName,
			})
			return
		}

		sess := s.sessions.Create(*u)
		s.sessions.SetCookie(w, sess)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (s *Server) handleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sess := SessionFrom(r.Context()); sess != nil {
			s.sessions.Delete(sess.Token)
		}
		s.sessions.ClearCookie(w)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}
