package security

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost, 2)
	ctx := context.Background()

	hash, err := h.Hash(ctx, []byte("correct horse battery staple"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "" || hash == "correct horse battery staple" {
		t.Fatal("hash empty or equal to plaintext")
	}

	ok, err := h.Verify(ctx, []byte("correct horse battery staple"), hash)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Error("Verify: want match for correct password")
	}
}

func TestHasher_VerifyWrongPassword(t *testing.T) {
	h := NewHasher(bcrypt.MinCost, 2)
	ctx := context.Background()

	hash, err := h.Hash(ctx, []byte("password123"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	ok, err := h.Verify(ctx, []byte("password124"), hash)
	if err != nil {
		t.Fatalf("Verify: mismatch must not be an error, got %v", err)
	}
	if ok {
		t.Error("Verify: wrong password reported as match")
	}
}

func TestHasher_VerifyMalformedHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost, 2)
	ok, err := h.Verify(context.Background(), []byte("whatever"), "not-a-bcrypt-hash")
	if err == nil {
		t.Fatal("Verify: want error for malformed stored hash")
	}
	if ok {
		t.Error("Verify: malformed hash reported as match")
	}
}

func TestHasher_CanceledContext(t *testing.T) {
	h := NewHasher(bcrypt.MinCost, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := h.Hash(ctx, []byte("p")); err == nil {
		t.Error("Hash: want error for canceled context")
	}
	if _, err := h.Verify(ctx, []byte("p"), "$2a$04$abcdefghijklmnopqrstuv"); err == nil {
		t.Error("Verify: want error for canceled context")
	}
}

func TestHasher_CostClamped(t *testing.T) {
	if h := NewHasher(0, 0); h.Cost != bcrypt.DefaultCost {
		t.Errorf("cost 0: got %d, want default %d", h.Cost, bcrypt.DefaultCost)
	}
	if h := NewHasher(100, 0); h.Cost != bcrypt.MaxCost {
		t.Errorf("cost 100: got %d, want max %d", h.Cost, bcrypt.MaxCost)
	}
	if h := NewHasher(2, 0); h.Cost != bcrypt.MinCost {
		t.Errorf("cost 2: got %d, want min %d", h.Cost, bcrypt.MinCost)
	}
}
