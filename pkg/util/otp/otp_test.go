package otp

import (
	"strconv"
	"strings"
	"testing"

	"github.com/Alijeyrad/medcenter_backend/config"
)

func TestGenerateRange(t *testing.T) {
	for i := 0; i < 2000; i++ {
		code, err := GenerateDefault()
		if err != nil {
			t.Fatalf("GenerateDefault: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q is not 6 digits", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("code %q is not numeric", code)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("code %d outside [100000, 999999]", n)
		}
	}
}

func TestRange(t *testing.T) {
	tests := []struct {
		length  int
		lo, hi  int64
		wantErr bool
	}{
		{4, 1000, 9999, false},
		{6, 100000, 999999, false},
		{10, 1000000000, 9999999999, false},
		{3, 0, 0, true},
		{11, 0, 0, true},
	}
	for _, tt := range tests {
		lo, hi, err := Range(tt.length)
		if tt.wantErr {
			if err != ErrInvalidLength {
				t.Errorf("Range(%d) err = %v, want ErrInvalidLength", tt.length, err)
			}
			continue
		}
		if err != nil || lo != tt.lo || hi != tt.hi {
			t.Errorf("Range(%d) = %d, %d, %v", tt.length, lo, hi, err)
		}
	}
}

func TestHashVerify(t *testing.T) {
	h := Hash("482913")
	if err := Verify(h, "482913"); err != nil {
		t.Errorf("Verify(same) = %v", err)
	}
	if err := Verify(h, " 482913\n"); err != nil {
		t.Errorf("Verify(padded) = %v", err)
	}
	if err := Verify(h, "482914"); err != ErrMismatch {
		t.Errorf("Verify(other) = %v, want ErrMismatch", err)
	}
	if err := Verify("", ""); err != ErrMismatch {
		t.Errorf("Verify(empty hash) = %v, want ErrMismatch", err)
	}
}

func TestConfig(t *testing.T) {
	cfg := FromCentralConfig(config.OTPConfig{})
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Length != 6 {
		t.Errorf("default length = %d", cfg.Length)
	}

	bad := FromCentralConfig(config.OTPConfig{DefaultLength: 12})
	if bad.Validate() == nil {
		t.Error("length 12 should be rejected")
	}
	md5 := FromCentralConfig(config.OTPConfig{HashAlgorithm: "md5"})
	if md5.Validate() == nil {
		t.Error("md5 should be rejected")
	}
}

func TestArgon2RoundTrip(t *testing.T) {
	h, err := HashWith(AlgorithmArgon2id, "482913")
	if err != nil {
		t.Fatalf("HashWith: %v", err)
	}
	if !strings.HasPrefix(h, "$argon2id$v=19$m=19456,t=2,p=1$") {
		t.Fatalf("unexpected encoding %q", h)
	}
	if err := Verify(h, " 482913 "); err != nil {
		t.Errorf("Verify(match) = %v", err)
	}
	if err := Verify(h, "482914"); err != ErrMismatch {
		t.Errorf("Verify(other) = %v, want ErrMismatch", err)
	}

	again, err := HashWith(AlgorithmArgon2id, "482913")
	if err != nil {
		t.Fatalf("HashWith: %v", err)
	}
	if again == h {
		t.Error("argon2 hashes must be salted")
	}

	if err := Verify("$argon2id$v=19$garbage", "482913"); err != ErrInvalidHash {
		t.Errorf("Verify(malformed) = %v, want ErrInvalidHash", err)
	}
	if _, err := HashWith("md5", "1"); err == nil {
		t.Error("md5 should be rejected")
	}
	sha, err := HashWith("", "482913")
	if err != nil || sha != Hash("482913") {
		t.Errorf("empty algorithm should fall back to sha256, got %q, %v", sha, err)
	}
}
