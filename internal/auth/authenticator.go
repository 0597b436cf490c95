package auth

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("username already exists")
)

// CredentialStore finds users by name. A missing user is (nil, nil).
type CredentialStore interface {
	Lookup(ctx context.Context, username string) (*User, error)
}

// dummyHash keeps the timing of unknown usernames close to a real compare.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("torrentfront-no-such-user"), bcrypt.DefaultCost)

type Authenticator struct {
	Store  CredentialStore
	Tokens TokenService
}

func NewAuthenticator(store CredentialStore, tokens TokenService) *Authenticator {
	return &Authenticator{Store: store, Tokens: tokens}
}

// Issue checks the credentials and signs a session token.
func (a *Authenticator) Issue(ctx context.Context, username, password string) (string, time.Time, *User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", time.Time{}, nil, ErrInvalidCredentials
	}

	u, err := a.Store.Lookup(ctx, username)
	if err != nil {
		return "", time.Time{}, nil, errors.Wrap(err, "lookup user")
	}
	if u == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return "", time.Time{}, nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", time.Time{}, nil, ErrInvalidCredentials
	}

	token, exp, err := a.Tokens.Sign(u)
	if err != nil {
		return "", time.Time{}, nil, err
	}
	return token, exp, u, nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(hash), nil
}
