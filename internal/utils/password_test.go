package utils

import "testing"

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("SecurePass123!", 4) // min cost keeps the test fast
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "SecurePass123!" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !VerifyPassword(hash, "SecurePass123!") {
		t.Fatal("original password must verify")
	}
	if VerifyPassword(hash, "securepass123!") {
		t.Fatal("different password must not verify")
	}
	if VerifyPassword("", "SecurePass123!") {
		t.Fatal("empty hash must not verify")
	}
}
