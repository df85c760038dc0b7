// Identity derivation for users and orders.
//
// UserFingerprint and BatchID are deterministic so that repeat contacts
// and the fulfillment wire contract behave predictably. OrderKey is the
// opposite: it folds in a client-supplied idempotency token (or a random
// nonce) precisely so that two distinct orders can never share a storage
// key, which the truncated BatchID cannot guarantee.
package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// fingerprintHexLen is the length of a user fingerprint in hex characters.
const fingerprintHexLen = 16

// batchIDHexLen is the length of a fulfillment batch id in hex characters.
const batchIDHexLen = 8

// UserFingerprint derives the stable user id from a display name. The
// name is trimmed and case-folded first so "Ada  " and "ada" resolve to
// the same customer. Distinct people sharing a name collide by design;
// the product accepts that until a real auth layer exists.
func UserFingerprint(name string) string {
	folded := cases.Fold().String(strings.TrimSpace(name))
	sum := sha256.Sum256([]byte(folded))
	return hex.EncodeToString(sum[:])[:fingerprintHexLen]
}

// BatchID derives the fulfillment-facing batch key from the user id, the
// customer name, and the first item name. It is deliberately stable for
// identical inputs and therefore NOT unique across repeated orders; it
// exists because the fulfillment API requires it on the wire. Storage
// keys use OrderKey instead.
func BatchID(userID, customerName, firstItemName string) string {
	sum := sha256.Sum256([]byte(userID + "|" + customerName + "|" + firstItemName))
	return hex.EncodeToString(sum[:])[:batchIDHexLen]
}

// OrderKey derives the unique storage key for an order from the user id,
// every item line, and a caller-supplied idempotency token. When the
// caller supplies no token a random nonce is used, making each placement
// a distinct order.
func OrderKey(userID string, items []OrderItem, token string) string {
	if strings.TrimSpace(token) == "" {
		token = randomNonce()
	}
	var b strings.Builder
	b.WriteString(userID)
	for _, it := range items {
		fmt.Fprintf(&b, "|%s;%d;%s;%s;%s", it.Name, it.Quantity, it.Dosage, it.Form, it.Note)
	}
	b.WriteString("|" + token)
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// randomNonce returns 16 bytes of hex-encoded randomness.
func randomNonce() string {
	var buf [16]byte
	_, _ = rand.Read(buf[:])
	return hex.EncodeToString(buf[:])
}
