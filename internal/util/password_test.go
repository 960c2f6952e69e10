package util

import "testing"

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		password string
		ok       bool
	}{
		{"longenough1", true},
		{"short1", false},
		{"onlyletterslong", false},
		{"0123456789", false},
		{"pass1word2ok", true},
	}
	for _, tc := range cases {
		err := ValidatePassword(tc.password)
		if tc.ok && err != nil {
			t.Errorf("ValidatePassword(%q) = %v, want nil", tc.password, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("ValidatePassword(%q) = nil, want error", tc.password)
		}
	}
}

func TestDeriveAndVerifyPassword(t *testing.T) {
	hash, salt, err := DerivePassword("correct horse 1")
	if err != nil {
		t.Fatalf("DerivePassword: %v", err)
	}
	if !VerifyPassword("correct horse 1", salt, hash) {
		t.Fatal("correct password rejected")
	}
	if VerifyPassword("wrong horse 1", salt, hash) {
		t.Fatal("wrong password accepted")
	}
	if VerifyPassword("", salt, hash) {
		t.Fatal("empty password accepted")
	}

	otherHash, otherSalt, err := DerivePassword("correct horse 1")
	if err != nil {
		t.Fatalf("DerivePassword: %v", err)
	}
	if string(otherSalt) == string(salt) || string(otherHash) == string(hash) {
		t.Fatal("derivation reused a salt")
	}
}

func TestGenerateNumericOTP(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		code, err := GenerateNumericOTP(6)
		if err != nil {
			t.Fatalf("GenerateNumericOTP: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q length = %d, want 6", code, len(code))
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("code %q contains non-digit", code)
			}
		}
		seen[code] = struct{}{}
	}
	if len(seen) < 2 {
		t.Fatal("fifty draws produced a single code, generator looks broken")
	}
}
