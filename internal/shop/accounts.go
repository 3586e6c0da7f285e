package shop

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/kalambet/shopbot/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

// Accounts reads and updates shopper profiles.
type Accounts struct {
	store *storage.Store
	cost  int
}

func NewAccounts(store *storage.Store) *Accounts {
	return &Accounts{store: store, cost: bcrypt.DefaultCost}
}

func (a *Accounts) GetUser(ctx context.Context, id int64) (User, error) {
	u, err := a.store.GetUser(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return User{}, fmt.Errorf("%w: %d", ErrUserNotFound, id)
	}
	if err != nil {
		return User{}, err
	}
	return User{ID: u.ID, Name: u.Name, Email: u.Email}, nil
}

// CreateUser registers a new shopper. The password is stored as a bcrypt hash.
func (a *Accounts) CreateUser(ctx context.Context, name, email, password string) (User, error) {
	if err := validateEmail(email); err != nil {
		return User{}, err
	}
	hash, err := a.hash(password)
	if err != nil {
		return User{}, err
	}
	u, err := a.store.CreateUser(ctx, storage.User{Name: strings.TrimSpace(name), Email: email, PasswordHash: hash})
	if errors.Is(err, storage.ErrConflict) {
		return User{}, fmt.Errorf("%w: %s", ErrEmailTaken, email)
	}
	if err != nil {
		return User{}, err
	}
	return User{ID: u.ID, Name: u.Name, Email: u.Email}, nil
}

// UpdateUser applies the given changes. A new email must not belong to
// another account.
func (a *Accounts) UpdateUser(ctx context.Context, id int64, upd UserUpdate) (User, error) {
	var patch storage.UserPatch
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return User{}, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		patch.Name = &name
	}
	if upd.Email != nil {
		email := strings.TrimSpace(*upd.Email)
		if err := validateEmail(email); err != nil {
			return User{}, err
		}
		if other, err := a.store.GetUserByEmail(ctx, email); err == nil && other.ID != id {
			return User{}, fmt.Errorf("%w: %s", ErrEmailTaken, email)
		}
		patch.Email = &email
	}
	if upd.Password != nil {
		hash, err := a.hash(*upd.Password)
		if err != nil {
			return User{}, err
		}
		patch.PasswordHash = &hash
	}

	u, err := a.store.UpdateUser(ctx, id, patch)
	switch {
	case errors.Is(err, storage.ErrConflict):
		return User{}, fmt.Errorf("%w: %s", ErrEmailTaken, *patch.Email)
	case errors.Is(err, storage.ErrNotFound):
		return User{}, fmt.Errorf("%w: %d", ErrUserNotFound, id)
	case err != nil:
		return User{}, err
	}
	return User{ID: u.ID, Name: u.Name, Email: u.Email}, nil
}

func (a *Accounts) hash(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(b), nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: %q is not a valid email address", ErrInvalidInput, email)
	}
	return nil
}
