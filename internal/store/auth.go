package store

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/xelns/xelns-web/internal/cryptoutil"
	"github.com/xelns/xelns-web/internal/entity"
	"github.com/xelns/xelns-web/internal/xerrors"
)

const bcryptCost = 12

// IsAuthenticated reports whether the admin session flag is set.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	return Get(ctx, s, entity.AdminSessionKey, false)
}

// Login sets the session flag when password matches the admin credential.
func (s *Store) Login(ctx context.Context, password string) bool {
	if !s.CheckPassword(ctx, password) {
		s.logger.Warn(ctx, "store: admin login rejected")
		return false
	}
	if err := s.Set(ctx, entity.AdminSessionKey, true); err != nil {
		return false
	}
	return true
}

func (s *Store) Logout(ctx context.Context) error {
	return s.Delete(ctx, entity.AdminSessionKey)
}

// CheckPassword compares password with the stored credential. Stored values
// are bcrypt hashes; plaintext values from older exports are still accepted.
// With nothing stored, the built-in default password applies.
func (s *Store) CheckPassword(ctx context.Context, password string) bool {
	stored, ok := lookup[string](ctx, s, entity.AdminPassword.StorageKey())
	if !ok || stored == "" {
		stored = entity.DefaultAdminPassword
	}
	if isBcrypt(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return cryptoutil.EqualSecret(stored, password)
}

// SaveAdminPassword replaces the admin credential with a bcrypt hash of
// password.
func (s *Store) SaveAdminPassword(ctx context.Context, password string) error {
	if strings.TrimSpace(password) == "" {
		return xerrors.New("admin password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return xerrors.Wrap(err, "hash admin password")
	}
	return s.setEntity(ctx, entity.AdminPassword, string(hash))
}

func isBcrypt(v string) bool {
	return strings.HasPrefix(v, "$2a$") || strings.HasPrefix(v, "$2b$") || strings.HasPrefix(v, "$2y$")
}
