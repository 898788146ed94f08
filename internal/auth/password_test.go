package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestHasher() *PasswordHasher {
	return NewPasswordHasherWithCost(bcrypt.MinCost)
}

func TestHash_OutputLooksBcrypt(t *testing.T) {
	h := newTestHasher()

	hash, err := h.Hash("password123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("Hash() does not look like a bcrypt hash: %q", hash)
	}
}

func TestHash_SaltIsRandom(t *testing.T) {
	h := newTestHasher()

	a, _ := h.Hash("same-password")
	b, _ := h.Hash("same-password")
	if a == b {
		t.Error("Hash() produced identical hashes for the same password")
	}
}

func TestHash_LengthLimit(t *testing.T) {
	h := newTestHasher()

	if _, err := h.Hash(strings.Repeat("a", MaxPasswordBytes+1)); err == nil {
		t.Error("Hash() should reject passwords longer than 72 bytes")
	}
	if _, err := h.Hash(strings.Repeat("a", MaxPasswordBytes)); err != nil {
		t.Errorf("Hash() should accept a 72-byte password, got %v", err)
	}
}

func TestNewPasswordHasherWithCost_ClampsToMinimum(t *testing.T) {
	h := NewPasswordHasherWithCost(1)
	if h.cost != bcrypt.MinCost {
		t.Errorf("cost = %d, want %d", h.cost, bcrypt.MinCost)
	}
}

func TestCompare(t *testing.T) {
	h := newTestHasher()

	hash, err := h.Hash("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	cases := []struct {
		name    string
		hash    string
		input   string
		wantErr error
		anyErr  bool
	}{
		{name: "match", hash: hash, input: "correct-horse-battery-staple"},
		{name: "mismatch", hash: hash, input: "wrong", wantErr: ErrPasswordMismatch},
		{name: "empty input", hash: hash, input: "", wantErr: ErrPasswordMismatch},
		{name: "garbage hash", hash: "not-a-bcrypt-hash", input: "x", anyErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := h.Compare(tc.hash, tc.input)
			switch {
			case tc.wantErr != nil:
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("Compare() error = %v, want %v", err, tc.wantErr)
				}
			case tc.anyErr:
				if err == nil || errors.Is(err, ErrPasswordMismatch) {
					t.Errorf("Compare() error = %v, want a non-mismatch error", err)
				}
			default:
				if err != nil {
					t.Errorf("Compare() error = %v, want nil", err)
				}
			}
		})
	}
}

func TestHashCompare_RoundTrip(t *testing.T) {
	h := newTestHasher()

	for _, pw := range []string{"hello123", "p@$$w0rd!#%", "пароль-密码", "  padded  ", " "} {
		hash, err := h.Hash(pw)
		if err != nil {
			t.Fatalf("Hash(%q) error = %v", pw, err)
		}
		if err := h.Compare(hash, pw); err != nil {
			t.Errorf("Compare() failed for %q: %v", pw, err)
		}
	}
}
