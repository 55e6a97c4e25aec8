// Package security checks login passwords against the stored admin hash.
// The hash is provisioned out of band (htpasswd-style) and carried in
// configuration; nothing in the running system ever creates one.
package security

import "golang.org/x/crypto/bcrypt"

// PasswordVerifier compares a plaintext password against a bcrypt hash.
type PasswordVerifier interface {
	Verify(hash, password string) error
}

type bcryptVerifier struct{}

func NewBcryptVerifier() PasswordVerifier {
	return bcryptVerifier{}
}

func (bcryptVerifier) Verify(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
