package phonepe

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Signer computes the X-VERIFY checksum the gateway requires on every request
// and callback: sha256 of the payload concatenated with the salt key, suffixed
// with "###<saltIndex>". The salt key is never logged.
type Signer struct {
	saltKey   string
	saltIndex string
}

func NewSigner(saltKey, saltIndex string) *Signer {
	if saltIndex == "" {
		saltIndex = "1"
	}
	return &Signer{
		saltKey:   saltKey,
		saltIndex: saltIndex,
	}
}

// SignPayload signs a base64-encoded request body for POST-style calls.
func (s *Signer) SignPayload(payload string) string {
	return s.sign(payload)
}

// SignPath signs a request path for GET-style calls (status queries), where
// the gateway expects the checksum over path+salt instead of body+salt.
func (s *Signer) SignPath(path string) string {
	return s.sign(path)
}

func (s *Signer) sign(input string) string {
	sum := sha256.Sum256([]byte(input + s.saltKey))
	return hex.EncodeToString(sum[:]) + "###" + s.saltIndex
}

// Verify recomputes the checksum and compares in constant time. It never
// fails with an error: an unverifiable signature means "untrusted", nothing
// more.
func (s *Signer) Verify(payload, provided string) bool {
	expected := s.sign(payload)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) == 1
}
