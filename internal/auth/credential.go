// Package auth loads the bearer credential that decides the session mode.
// Presence is checked once at bootstrap; the cart never flips modes
// mid-session.
package auth

import (
	"os"
	"strings"

	"github.com/dukerupert/ostara/internal/domain"
)

// Credential is the bearer token for authenticated cart endpoints.
// The zero value is a guest session.
type Credential struct {
	Token string
}

// Present reports whether a credential exists.
func (c Credential) Present() bool {
	return c.Token != ""
}

// Load resolves the credential: an explicit token wins, otherwise the
// token file is read. A missing file means a guest session, not an error;
// an unreadable file surfaces ESTORAGE so the caller can decide.
func Load(token, tokenPath string) (Credential, error) {
	if token != "" {
		return Credential{Token: token}, nil
	}
	if tokenPath == "" {
		return Credential{}, nil
	}

	data, err := os.ReadFile(tokenPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Credential{}, nil
		}
		return Credential{}, domain.WrapError(err, domain.ESTORAGE, "auth.load", "failed to read credential file")
	}

	return Credential{Token: strings.TrimSpace(string(data))}, nil
}
