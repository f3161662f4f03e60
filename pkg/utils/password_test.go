package utils

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("pw1", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "pw1" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("unexpected hash %q", hash)
	}

	ok, err := VerifyPassword("pw1", hash)
	if err != nil || !ok {
		t.Errorf("VerifyPassword(correct) = %v, %v; want true, nil", ok, err)
	}
	ok, err = VerifyPassword("pw2", hash)
	if err != nil || ok {
		t.Errorf("VerifyPassword(wrong) = %v, %v; want false, nil", ok, err)
	}
}

func TestHashPassword_SaltsEachHash(t *testing.T) {
	a, _ := HashPassword("same", bcrypt.MinCost)
	b, _ := HashPassword("same", bcrypt.MinCost)
	if a == b {
		t.Error("two hashes of the same password should differ")
	}
}

func TestHashPassword_OutOfRangeCostUsesDefault(t *testing.T) {
	hash, err := HashPassword("pw", 99)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("bcrypt.Cost: %v", err)
	}
	if cost != DefaultBcryptCost {
		t.Errorf("cost = %d, want %d", cost, DefaultBcryptCost)
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	if _, err := VerifyPassword("pw", "not-a-hash"); err == nil {
		t.Error("expected error for malformed hash")
	}
}
