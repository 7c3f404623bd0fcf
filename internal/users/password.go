package users

import "golang.org/x/crypto/bcrypt"

// Hasher turns a plaintext password into its stored form. The directory
// never stores or returns plaintext.
type Hasher interface {
	Hash(plain string) (string, error)
}

// BcryptHasher hashes passwords with bcrypt.
type BcryptHasher struct {
	Cost int
}

// Hash implements Hasher.
func (h BcryptHasher) Hash(plain string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
