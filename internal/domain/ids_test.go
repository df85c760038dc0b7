package domain

import (
	"strings"
	"testing"
)

func TestUserFingerprint_StableAndNormalized(t *testing.T) {
	a := UserFingerprint("Ada Obi")
	b := UserFingerprint("  ada obi  ")
	if a != b {
		t.Fatalf("fingerprint not normalization-stable: %q vs %q", a, b)
	}
	if len(a) != 16 {
		t.Fatalf("fingerprint length = %d, want 16", len(a))
	}
	for _, r := range a {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Fatalf("fingerprint contains non-hex rune %q", r)
		}
	}
	if UserFingerprint("Ada Obi") != a {
		t.Fatal("fingerprint not deterministic across calls")
	}
	if UserFingerprint("Chike Obi") == a {
		t.Fatal("distinct names produced identical fingerprints")
	}
}

func TestBatchID_DeterministicAndEightHex(t *testing.T) {
	id1 := BatchID("user1234user1234", "Ada Obi", "Paracetamol")
	id2 := BatchID("user1234user1234", "Ada Obi", "Paracetamol")
	if id1 != id2 {
		t.Fatalf("batch id not deterministic: %q vs %q", id1, id2)
	}
	if len(id1) != 8 {
		t.Fatalf("batch id length = %d, want 8", len(id1))
	}
	if BatchID("user1234user1234", "Ada Obi", "Ibuprofen") == id1 {
		t.Fatal("different first item produced identical batch id")
	}
}

// Two orders that share user, customer name, and first item collide on
// batch_id. The storage idempotency key must still tell them apart.
func TestBatchID_CollisionVersusOrderKey(t *testing.T) {
	userID := UserFingerprint("Ada Obi")

	orderA := []OrderItem{{Name: "Paracetamol", Quantity: 2, Dosage: "500mg", Form: "tablet"}}
	orderB := []OrderItem{
		{Name: "Paracetamol", Quantity: 2, Dosage: "500mg", Form: "tablet"},
		{Name: "Vitamin C", Quantity: 1, Dosage: "1000mg", Form: "effervescent"},
	}

	if BatchID(userID, "Ada Obi", orderA[0].Name) != BatchID(userID, "Ada Obi", orderB[0].Name) {
		t.Fatal("expected batch ids to collide for same user/name/first-item")
	}
	if OrderKey(userID, orderA, "tok") == OrderKey(userID, orderB, "tok") {
		t.Fatal("order keys must differ when item lists differ")
	}
}

func TestOrderKey_TokenControlsIdempotency(t *testing.T) {
	items := []OrderItem{{Name: "Amoxicillin", Quantity: 1, Dosage: "250mg", Form: "capsule"}}

	k1 := OrderKey("u", items, "client-token-1")
	k2 := OrderKey("u", items, "client-token-1")
	if k1 != k2 {
		t.Fatal("same token must yield same key")
	}
	if OrderKey("u", items, "client-token-2") == k1 {
		t.Fatal("different tokens must yield different keys")
	}

	// No token: every call is a fresh intent, keys must not repeat.
	if OrderKey("u", items, "") == OrderKey("u", items, "") {
		t.Fatal("tokenless keys must be unique per call")
	}
}
