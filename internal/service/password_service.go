package service

// PasswordService hashes credentials one way and verifies them.
type PasswordService interface {
	// Hash returns a self-describing encoded hash. Two calls with the
	// same password yield different encodings (random salt).
	Hash(password string) (string, error)
	// Verify reports whether password matches the encoded hash. Malformed
	// encodings and empty passwords are a mismatch, not an error.
	Verify(password, encodedHash string) bool
}
