package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidSignature is returned when a gateway callback signature does not match.
var ErrInvalidSignature = errors.New("invalid payment signature")

// Verifier checks gateway callback signatures of the form HMAC-SHA256(orderID|paymentID).
type Verifier struct {
	keyID  string
	secret []byte
}

// NewVerifier constructs a verifier for the given gateway credentials.
func NewVerifier(keyID, secret string) *Verifier {
	return &Verifier{keyID: keyID, secret: []byte(secret)}
}

// KeyID exposes the public gateway key handed to the checkout client.
func (v *Verifier) KeyID() string {
	return v.keyID
}

// Sign computes the hex encoded signature for an order/payment pair.
func (v *Verifier) Sign(orderID, paymentID string) (string, error) {
	if len(v.secret) == 0 {
		return "", fmt.Errorf("payment secret missing")
	}
	mac := hmac.New(sha256.New, v.secret)
	_, _ = mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify returns ErrInvalidSignature unless signature matches the pair.
func (v *Verifier) Verify(orderID, paymentID, signature string) error {
	if orderID == "" || paymentID == "" || signature == "" {
		return ErrInvalidSignature
	}
	expected, err := v.Sign(orderID, paymentID)
	if err != nil {
		return err
	}
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return ErrInvalidSignature
	}
	return nil
}

// NewOrderID generates a local order reference.
func NewOrderID() string {
	return "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
}
