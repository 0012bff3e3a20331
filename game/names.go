// File: game/names.go
package game

import (
	"context"
	"fmt"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/lguibr/fujipong/utils"
)

// Field-level validation messages.
const (
	ErrMsgNameTooShort   = "Name must be at least 3 characters"
	ErrMsgNameTooLong    = "Name must be at most 9 characters"
	ErrMsgNameHasSpaces  = "Name cannot contain spaces"
	ErrMsgNamesDuplicate = "Names must be different"
)

// NameErrors holds the message shown under each name field. Empty means valid.
type NameErrors [utils.MaxPlayers]string

// Valid reports whether no field carries an error.
func (e NameErrors) Valid() bool {
	for _, msg := range e {
		if msg != "" {
			return false
		}
	}
	return true
}

// SameName compares two names case-insensitively.
func SameName(a, b string) bool {
	// A Caser is stateful and must not be shared between goroutines.
	fold := cases.Fold()
	return fold.String(a) == fold.String(b)
}

// ValidatePlayerName applies the single-field rules: length between the
// configured bounds (counted in characters) and no whitespace.
func ValidatePlayerName(cfg utils.Config, name string) string {
	n := utf8.RuneCountInString(name)
	switch {
	case n < cfg.NameMinLength:
		return ErrMsgNameTooShort
	case n > cfg.NameMaxLength:
		return ErrMsgNameTooLong
	case utils.ContainsWhitespace(name):
		return ErrMsgNameHasSpaces
	}
	return ""
}

// ValidateNames is the authoritative check run when Start is pressed. In
// two-human mode both names must also differ; a clash marks both fields.
func ValidateNames(cfg utils.Config, mode Mode, names [utils.MaxPlayers]string) NameErrors {
	var errs NameErrors
	errs[utils.LeftIndex] = ValidatePlayerName(cfg, names[utils.LeftIndex])
	if mode != ModeTwoHuman {
		return errs
	}
	errs[utils.RightIndex] = ValidatePlayerName(cfg, names[utils.RightIndex])
	if errs.Valid() && SameName(names[utils.LeftIndex], names[utils.RightIndex]) {
		errs[utils.LeftIndex] = ErrMsgNamesDuplicate
		errs[utils.RightIndex] = ErrMsgNamesDuplicate
	}
	return errs
}

// LiveNameErrors is the advisory check run while typing. Only the duplicate
// case is flagged, and only once both names are filled in.
func LiveNameErrors(mode Mode, names [utils.MaxPlayers]string) NameErrors {
	var errs NameErrors
	left, right := names[utils.LeftIndex], names[utils.RightIndex]
	if mode == ModeTwoHuman && left != "" && right != "" && SameName(left, right) {
		errs[utils.LeftIndex] = ErrMsgNamesDuplicate
		errs[utils.RightIndex] = ErrMsgNamesDuplicate
	}
	return errs
}

// NameStore persists player names between sessions. Get returns "" when no
// name was stored.
type NameStore interface {
	GetName(ctx context.Context, key string) (string, error)
	SetName(ctx context.Context, key, value string) error
}

// MemoryNameStore is a NameStore kept in process memory.
type MemoryNameStore struct {
	mu    sync.RWMutex
	names map[string]string
}

func NewMemoryNameStore() *MemoryNameStore {
	return &MemoryNameStore{names: make(map[string]string)}
}

func (s *MemoryNameStore) GetName(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.names[key], nil
}

func (s *MemoryNameStore) SetName(_ context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("set name: empty key")
	}
	s.mu.Lock()
	s.names[key] = value
	s.mu.Unlock()
	return nil
}
