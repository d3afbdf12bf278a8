// AngelaMos | 2026
// security.go

package core

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = bcrypt.DefaultCost

// HashPassword hashes a plaintext password with bcrypt, the primary scheme
// for all newly stored credentials.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword checks a candidate password against a stored hash. Besides
// bcrypt it accepts two legacy formats still present in the users table from
// before the bcrypt migration:
//
//	64 hex chars            unsalted sha256 digest
//	<salt>$<64 hex chars>   sha256 of salt+password
//
// The format is chosen by string shape. Unrecognized shapes verify false.
func VerifyPassword(password, storedHash string) bool {
	switch {
	case strings.HasPrefix(storedHash, "$2a$"),
		strings.HasPrefix(storedHash, "$2b$"),
		strings.HasPrefix(storedHash, "$2y$"):
		return bcrypt.CompareHashAndPassword(
			[]byte(storedHash),
			[]byte(password),
		) == nil

	case isHexDigest(storedHash):
		sum := sha256.Sum256([]byte(password))
		return constantTimeHexEqual(hex.EncodeToString(sum[:]), storedHash)

	case strings.Contains(storedHash, "$"):
		salt, digest, ok := strings.Cut(storedHash, "$")
		if !ok || !isHexDigest(digest) {
			slog.Warn("unrecognized password hash format")
			return false
		}
		sum := sha256.Sum256([]byte(salt + password))
		return constantTimeHexEqual(hex.EncodeToString(sum[:]), digest)

	default:
		slog.Warn("unrecognized password hash format")
		return false
	}
}

// NeedsRehash reports whether a stored hash uses a legacy scheme and should
// be upgraded to bcrypt on the next successful login.
func NeedsRehash(storedHash string) bool {
	return !strings.HasPrefix(storedHash, "$2a$") &&
		!strings.HasPrefix(storedHash, "$2b$") &&
		!strings.HasPrefix(storedHash, "$2y$")
}

var dummyHash string

func init() {
	hash, err := HashPassword("dummy_password_for_timing_attack_prevention")
	if err != nil {
		panic(fmt.Sprintf("security: failed to generate dummy hash: %v", err))
	}
	dummyHash = hash
}

// VerifyPasswordTimingSafe behaves like VerifyPassword but burns the same
// work when no stored hash exists, so unknown-email and wrong-password
// lookups are indistinguishable to a caller timing the request.
func VerifyPasswordTimingSafe(password string, storedHash *string) bool {
	hashToVerify := dummyHash
	if storedHash != nil && *storedHash != "" {
		hashToVerify = *storedHash
	}

	valid := VerifyPassword(password, hashToVerify)

	if storedHash == nil || *storedHash == "" {
		return false
	}

	return valid
}

func isHexDigest(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func constantTimeHexEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// HashToken produces the storable digest of a refresh token. Raw tokens are
// never written to the sessions table.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func CompareTokenHash(token, hash string) bool {
	tokenHash := HashToken(token)
	return subtle.ConstantTimeCompare([]byte(tokenHash), []byte(hash)) == 1
}
