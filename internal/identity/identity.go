// Package identity confirms who a user is and registers new users.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/conorfennell/wordquiz/internal/storage"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrInvalidPassword = errors.New("invalid email or password")
	ErrInvalidSignUp   = errors.New("invalid registration")
)

// Store is the user table the provider works on.
type Store interface {
	InsertUser(ctx context.Context, u storage.User) error
	FindUserByEmail(ctx context.Context, email string) (*storage.User, error)
	FindUserByID(ctx context.Context, uid string) (*storage.User, error)
}

// User is a confirmed identity.
type User struct {
	UID         string
	Email       string
	DisplayName string
}

// SignUp is the registration form.
type SignUp struct {
	Email       string `validate:"required,email"`
	Password    string `validate:"required,min=6"`
	DisplayName string `validate:"required,max=64"`
}

// Provider looks users up and creates them.
type Provider struct {
	store           Store
	validate        *validator.Validate
	verifyPasswords bool
	now             func() time.Time
}

// NewProvider returns a provider over store. With verifyPasswords set,
// Login also checks the password hash stored at registration.
func NewProvider(store Store, verifyPasswords bool) *Provider {
	return &Provider{
		store:           store,
		validate:        validator.New(),
		verifyPasswords: verifyPasswords,
		now:             time.Now,
	}
}

// LookupByEmail confirms that email belongs to a registered user.
func (p *Provider) LookupByEmail(ctx context.Context, email string) (*User, error) {
	u, err := p.store.FindUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return toUser(u), nil
}

// Lookup returns the user with uid.
func (p *Provider) Lookup(ctx context.Context, uid string) (*User, error) {
	u, err := p.store.FindUserByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return toUser(u), nil
}

// Login confirms email and, when password verification is enabled, the password.
func (p *Provider) Login(ctx context.Context, email, password string) (*User, error) {
	u, err := p.store.FindUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if p.verifyPasswords {
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
			return nil, ErrInvalidPassword
		}
	}
	return toUser(u), nil
}

// Create registers a new user.
func (p *Provider) Create(ctx context.Context, form SignUp) (*User, error) {
	form.Email = normalizeEmail(form.Email)
	form.DisplayName = strings.TrimSpace(form.DisplayName)
	if err := p.validate.Struct(form); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSignUp, describe(err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := storage.User{
		UID:          uuid.NewString(),
		Email:        form.Email,
		DisplayName:  form.DisplayName,
		PasswordHash: string(hash),
		CreatedAt:    p.now().UTC(),
	}
	if err := p.store.InsertUser(ctx, u); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	slog.Info("User registered", "uid", u.UID, "email", u.Email)
	return toUser(&u), nil
}

func toUser(u *storage.User) *User {
	return &User{UID: u.UID, Email: u.Email, DisplayName: u.DisplayName}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// describe turns validation errors into a short message for the form.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "email":
			msgs = append(msgs, "email is not valid")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is not valid", fe.Field()))
		}
	}
	return strings.Join(msgs, ", ")
}
