// Package signing signs and verifies service-to-service requests between the
// campaign API and the extraction server.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"
)

// Header names carried by signed requests.
const (
	HeaderSignature = "X-Campaign-Signature"
	HeaderTimestamp = "X-Campaign-Timestamp"
)

// MaxSkew is how far a request timestamp may drift from the verifier's clock.
const MaxSkew = 5 * time.Minute

var (
	ErrMissingSignature = errors.New("missing signature")
	ErrTimestampExpired = errors.New("timestamp expired")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Signer creates and checks HMAC-SHA256 request signatures.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner creates a signer with the shared secret.
func NewSigner(secret string) *Signer {
	return &Signer{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Headers are the values to attach to a signed request.
type Headers struct {
	Signature string
	Timestamp string
}

// Sign creates a signature over timestamp|method|path|sha256(body).
func (s *Signer) Sign(method, path string, body []byte) Headers {
	timestamp := strconv.FormatInt(s.now().Unix(), 10)
	return Headers{
		Signature: s.mac(timestamp, method, path, body),
		Timestamp: timestamp,
	}
}

// Verify checks a signature produced by Sign with the same secret.
func (s *Signer) Verify(signature, timestamp, method, path string, body []byte) error {
	if signature == "" || timestamp == "" {
		return ErrMissingSignature
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	skew := s.now().Sub(time.Unix(ts, 0))
	if skew > MaxSkew || skew < -MaxSkew {
		return ErrTimestampExpired
	}

	expected := s.mac(timestamp, method, path, body)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrInvalidSignature
	}
	return nil
}

func (s *Signer) mac(timestamp, method, path string, body []byte) string {
	bodyHash := sha256.Sum256(body)
	message := timestamp + "|" + method + "|" + path + "|" + hex.EncodeToString(bodyHash[:])

	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}
