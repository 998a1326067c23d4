package auth

import (
	"testing"
	"time"
)

func TestSignAndParseToken(t *testing.T) {
	secret := []byte("provider-secret")
	signer, err := NewSigner(secret, "renewable-monitor", "console", 0)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	signer.now = func() time.Time { return time.Now().Add(-time.Minute) }

	token, err := signer.Sign("production:read")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := ParseToken(token, secret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Scope != "production:read" || claims.Issuer != "renewable-monitor" || claims.Subject != "console" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Sub(claims.IssuedAt.Time) != DefaultTokenTTL {
		t.Fatalf("unexpected expiry %+v", claims.ExpiresAt)
	}
	if _, err := ParseToken(token, []byte("other")); err == nil {
		t.Fatalf("expected signature failure")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	secret := []byte("provider-secret")
	signer, _ := NewSigner(secret, "", "", time.Minute)
	signer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := signer.Sign("")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseToken(token, secret); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestNewSignerRequiresSecret(t *testing.T) {
	if _, err := NewSigner(nil, "", "", 0); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
