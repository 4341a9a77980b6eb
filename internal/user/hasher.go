package user

import "golang.org/x/crypto/bcrypt"

const DefaultBcryptCost = 12

// ErrPasswordTooLong is returned for passwords over bcrypt's 72-byte limit.
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// PasswordHasher defines minimal hashing interface (abstract so we can swap to argon2 later).
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(hash, pw string) bool
}

// BcryptHasher implementation. Zero Cost means DefaultBcryptCost; anything
// outside bcrypt's range is clamped.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) cost() int {
	switch {
	case b.Cost == 0:
		return DefaultBcryptCost
	case b.Cost < bcrypt.MinCost:
		return bcrypt.MinCost
	case b.Cost > bcrypt.MaxCost:
		return bcrypt.MaxCost
	}
	return b.Cost
}

func (b BcryptHasher) Hash(pw string) (string, error) {
	if len(pw) > 72 {
		return "", ErrPasswordTooLong
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), b.cost())
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verify reports whether pw matches hash. Malformed hashes never match.
func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
