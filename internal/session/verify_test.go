package session_test

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"samsonix/internal/session"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// unsigned builds a structurally valid JWT with the given claims; the
// signature segment is left empty because format verification never checks it.
func unsigned(t *testing.T, claims map[string]any) string {
	t.Helper()
	enc := func(v any) string {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		return base64.RawURLEncoding.EncodeToString(b)
	}
	return enc(map[string]any{"alg": "none", "typ": "JWT"}) + "." + enc(claims) + "."
}

func TestVerifyFormatRejectsMalformedTokens(t *testing.T) {
	bad := []string{
		"",
		"justonechunk",
		"two.chunks",
		"one.too.many.chunks",
		"not.base64.!!!",
	}
	for _, tok := range bad {
		if session.VerifyFormat(tok, testNow) {
			t.Errorf("token %q: want invalid", tok)
		}
	}
}

func TestVerifyFormatExpiry(t *testing.T) {
	past := unsigned(t, map[string]any{"sub": "admin", "exp": testNow.Add(-time.Minute).Unix()})
	if session.VerifyFormat(past, testNow) {
		t.Error("expired token accepted")
	}

	future := unsigned(t, map[string]any{"sub": "admin", "exp": testNow.Add(time.Hour).Unix()})
	if !session.VerifyFormat(future, testNow) {
		t.Error("unexpired token rejected")
	}

	// expiry is compared in whole seconds; exp == now is still valid
	edge := unsigned(t, map[string]any{"exp": testNow.Unix()})
	if !session.VerifyFormat(edge, testNow) {
		t.Error("token expiring this second rejected")
	}
}

func TestVerifyFormatWithoutExpIsValid(t *testing.T) {
	tok := unsigned(t, map[string]any{"sub": "admin", "iat": testNow.Unix()})
	if !session.VerifyFormat(tok, testNow) {
		t.Error("token without exp rejected")
	}
}

func TestVerifyFormatFailsClosedOnBadExpClaim(t *testing.T) {
	tok := unsigned(t, map[string]any{"exp": "soon"})
	if session.VerifyFormat(tok, testNow) {
		t.Error("unparseable exp claim accepted")
	}
}
