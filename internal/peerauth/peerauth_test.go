package peerauth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-must-be-at-least-32-characters-long"

func TestNewManager(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		wantErr bool
	}{
		{"valid secret", testSecret, false},
		{"short secret", "too-short", true},
		{"empty secret", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewManager(tt.secret)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewManager(%q) error = %v, wantErr %v", tt.secret, err, tt.wantErr)
			}
		})
	}
}

func TestManager_IssueAndVerify(t *testing.T) {
	m, err := NewManager(testSecret)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	token, err := m.Issue("plasma://peer-a:9100")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	peerURL, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if peerURL != "plasma://peer-a:9100" {
		t.Errorf("Verify() = %q, want %q", peerURL, "plasma://peer-a:9100")
	}
}

func TestManager_Verify_Rejections(t *testing.T) {
	m, err := NewManager(testSecret)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	other, err := NewManager("a-completely-different-secret-of-32-chars-plus")
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	foreignToken, err := other.Issue("plasma://peer-b:9100")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"garbage token", "not-a-jwt"},
		{"wrong signing key", foreignToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Verify(tt.token); err == nil {
				t.Errorf("Verify(%q) = nil error, want an error", tt.token)
			}
		})
	}
}

func TestManager_Verify_Expired(t *testing.T) {
	m, err := NewManager(testSecret)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	claims := peerClaims{PeerURL: "plasma://peer-a:9100"}
	claims.IssuedAt = jwt.NewNumericDate(time.Now().Add(-2 * TokenTTL))
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-TokenTTL))
	token, err := m.sign(claims)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := m.Verify(token); err == nil {
		t.Error("Verify() of an expired token = nil error, want an error")
	}
}
