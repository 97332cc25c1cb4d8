// Package signature authenticates payment callbacks from the gateway.
//
// The gateway signs "<order_id>|<payment_id>" with HMAC-SHA256 using the
// merchant key secret and hex-encodes the digest.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns the hex-encoded signature the gateway would attach to a
// payment for orderID and paymentID.
func Sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature is the gateway's signature for the given
// order and payment. Empty inputs never verify.
func Verify(orderID, paymentID, signature, secret string) bool {
	if orderID == "" || paymentID == "" || signature == "" || secret == "" {
		return false
	}
	expected := Sign(orderID, paymentID, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
