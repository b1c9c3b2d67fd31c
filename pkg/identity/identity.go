// Package identity derives the stable client identity presented to the
// server. The server keys player rows by this identity, so it must be
// reproducible across sessions from the same credentials.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// TokenSize is the derived identity length in bytes.
const TokenSize = 32

// derivation domain separator; changing it invalidates every identity
var deriveInfo = []byte("system-metaverse identity v1")

// Derivation errors.
var (
	ErrEmptySecret = errors.New("identity secret is empty")
	ErrEmptyRealm  = errors.New("identity realm is empty")
)

// Token is a derived client identity.
type Token [TokenSize]byte

// String returns the lowercase hex form, the format player rows carry.
func (t Token) String() string {
	return hex.EncodeToString(t[:])
}

// Derive computes the client identity from an account secret and the realm
// the account belongs to. The realm acts as the HKDF salt so the same
// secret yields unrelated identities on different server deployments.
func Derive(secret []byte, realm string) (Token, error) {
	var tok Token

	if len(secret) == 0 {
		return tok, ErrEmptySecret
	}
	if realm == "" {
		return tok, ErrEmptyRealm
	}

	r := hkdf.New(sha256.New, secret, []byte(realm), deriveInfo)
	if _, err := io.ReadFull(r, tok[:]); err != nil {
		return tok, fmt.Errorf("derive identity: %w", err)
	}
	return tok, nil
}

// Parse decodes a hex identity produced by Token.String.
func Parse(s string) (Token, error) {
	var tok Token

	raw, err := hex.DecodeString(s)
	if err != nil {
		return tok, fmt.Errorf("parse identity: %w", err)
	}
	if len(raw) != TokenSize {
		return tok, fmt.Errorf("parse identity: got %d bytes, want %d", len(raw), TokenSize)
	}

	copy(tok[:], raw)
	return tok, nil
}
