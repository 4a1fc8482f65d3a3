package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"
)

// helper: собирает payload с валидной подписью и заданным issued_at
func buildSSOPayload(secret string, issuedAt time.Time, extra map[string]string) string {
	params := url.Values{}
	params.Set("issued_at", strconv.FormatInt(issuedAt.Unix(), 10))
	for k, v := range extra {
		params.Set(k, v)
	}

	var pairs []string
	for key, values := range params {
		for _, v := range values {
			pairs = append(pairs, fmt.Sprintf("%s=%s", key, v))
		}
	}
	sort.Strings(pairs)
	dataCheckString := strings.Join(pairs, "\n")

	signingKey := hmacSHA256([]byte("PlatformSSO"), []byte(secret))
	sig := hmacSHA256(signingKey, []byte(dataCheckString))
	params.Set("sig", hex.EncodeToString(sig))

	return params.Encode()
}

func TestValidatePlatformSSO_ValidSig(t *testing.T) {
	secret := "test-sso-secret-12345"

	payload := buildSSOPayload(secret, time.Now().Add(-30*time.Second), map[string]string{
		"email": "client@example.com",
		"name":  "Test Client",
		"role":  "client",
	})

	result, err := ValidatePlatformSSO(payload, secret, 5*time.Minute)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if result.Get("email") != "client@example.com" {
		t.Errorf("expected email=client@example.com, got %s", result.Get("email"))
	}
	if result.Get("role") != "client" {
		t.Errorf("expected role=client, got %s", result.Get("role"))
	}
}

func TestValidatePlatformSSO_ExpiredIssuedAt(t *testing.T) {
	secret := "test-sso-secret-12345"

	// issued_at 10 минут назад, maxAge = 5 мин → expired
	payload := buildSSOPayload(secret, time.Now().Add(-10*time.Minute), map[string]string{
		"email": "client@example.com",
	})

	_, err := ValidatePlatformSSO(payload, secret, 5*time.Minute)
	if err == nil {
		t.Fatal("expected error for expired payload")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Errorf("expected 'expired' in error, got: %s", err.Error())
	}
}

func TestValidatePlatformSSO_FutureIssuedAt(t *testing.T) {
	secret := "test-sso-secret-12345"

	payload := buildSSOPayload(secret, time.Now().Add(5*time.Minute), map[string]string{
		"email": "client@example.com",
	})

	_, err := ValidatePlatformSSO(payload, secret, 5*time.Minute)
	if err == nil {
		t.Fatal("expected error for future issued_at")
	}
	if !strings.Contains(err.Error(), "future") {
		t.Errorf("expected 'future' in error, got: %s", err.Error())
	}
}

func TestValidatePlatformSSO_DefaultMaxAge(t *testing.T) {
	secret := "test-sso-secret-12345"

	// issued_at свежий, maxAge = 0 → должен использоваться DefaultSSOMaxAge (5 мин)
	payload := buildSSOPayload(secret, time.Now().Add(-10*time.Second), map[string]string{
		"email": "client@example.com",
	})

	_, err := ValidatePlatformSSO(payload, secret, 0)
	if err != nil {
		t.Fatalf("expected no error with default maxAge, got: %v", err)
	}
}

func TestValidatePlatformSSO_InvalidSig(t *testing.T) {
	params := url.Values{}
	params.Set("issued_at", strconv.FormatInt(time.Now().Unix(), 10))
	params.Set("email", "client@example.com")
	params.Set("sig", "invalidsig")

	_, err := ValidatePlatformSSO(params.Encode(), "test-sso-secret-12345", 5*time.Minute)
	if err == nil {
		t.Fatal("expected error for invalid sig")
	}
}

func TestValidatePlatformSSO_MissingSig(t *testing.T) {
	params := url.Values{}
	params.Set("issued_at", strconv.FormatInt(time.Now().Unix(), 10))

	_, err := ValidatePlatformSSO(params.Encode(), "secret", 5*time.Minute)
	if err == nil {
		t.Fatal("expected error for missing sig")
	}
}

func TestValidatePlatformSSO_MissingIssuedAt(t *testing.T) {
	params := url.Values{}
	params.Set("email", "client@example.com")
	params.Set("sig", "somesig")

	_, err := ValidatePlatformSSO(params.Encode(), "secret", 5*time.Minute)
	if err == nil {
		t.Fatal("expected error for missing issued_at")
	}
}

func TestValidatePlatformSSO_TamperedField(t *testing.T) {
	secret := "test-sso-secret-12345"

	payload := buildSSOPayload(secret, time.Now(), map[string]string{
		"email": "client@example.com",
		"role":  "client",
	})

	// Подменяем роль после подписания
	vals, _ := url.ParseQuery(payload)
	vals.Set("role", "admin")

	_, err := ValidatePlatformSSO(vals.Encode(), secret, 5*time.Minute)
	if err == nil {
		t.Fatal("expected error for tampered payload")
	}
}

func TestHmacSHA256(t *testing.T) {
	key := []byte("test-key")
	data := []byte("test-data")

	result := hmacSHA256(key, data)

	h := hmac.New(sha256.New, key)
	h.Write(data)
	expected := h.Sum(nil)

	if !hmac.Equal(result, expected) {
		t.Error("hmacSHA256 result doesn't match expected")
	}
}
