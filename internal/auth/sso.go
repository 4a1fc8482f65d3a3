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
	"time"
)

// DefaultSSOMaxAge — максимальный возраст issued_at в SSO-пейлоаде.
// Веб-приложение подписывает пейлоад при каждом переходе в кабинет,
// поэтому 5 минут достаточно.
const DefaultSSOMaxAge = 5 * time.Minute

// ValidatePlatformSSO validates the signed identity payload the web
// application hands over when redirecting a user into the API.
// The payload is a URL-encoded query string carrying at least email,
// role, issued_at and sig.
//
// maxAge — максимально допустимый возраст issued_at. Если <= 0, используется DefaultSSOMaxAge.
func ValidatePlatformSSO(payload string, secret string, maxAge time.Duration) (url.Values, error) {
	if maxAge <= 0 {
		maxAge = DefaultSSOMaxAge
	}

	vals, err := url.ParseQuery(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid payload format: %w", err)
	}

	receivedSig := vals.Get("sig")
	if receivedSig == "" {
		return nil, fmt.Errorf("sig is missing from payload")
	}

	// ---- Проверяем issued_at (свежесть) ----
	issuedAtStr := vals.Get("issued_at")
	if issuedAtStr == "" {
		return nil, fmt.Errorf("issued_at is missing from payload")
	}
	issuedAtUnix, err := strconv.ParseInt(issuedAtStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("issued_at is not a valid unix timestamp")
	}
	issuedAt := time.Unix(issuedAtUnix, 0)
	if time.Since(issuedAt) > maxAge {
		return nil, fmt.Errorf("payload expired: issued_at is %s old (max %s)", time.Since(issuedAt).Round(time.Second), maxAge)
	}
	// Защита от issued_at из будущего (clock skew макс. 1 мин)
	if issuedAt.After(time.Now().Add(1 * time.Minute)) {
		return nil, fmt.Errorf("issued_at is in the future")
	}

	// ---- Проверяем HMAC-SHA256 подпись ----
	var pairs []string
	for key, values := range vals {
		if key == "sig" {
			continue
		}
		for _, v := range values {
			pairs = append(pairs, fmt.Sprintf("%s=%s", key, v))
		}
	}
	sort.Strings(pairs)
	dataCheckString := strings.Join(pairs, "\n")

	// signing_key = HMAC-SHA256("PlatformSSO", secret)
	signingKey := hmacSHA256([]byte("PlatformSSO"), []byte(secret))
	sig := hmacSHA256(signingKey, []byte(dataCheckString))
	calculatedSig := hex.EncodeToString(sig)

	if !hmac.Equal([]byte(calculatedSig), []byte(receivedSig)) {
		return nil, fmt.Errorf("invalid sig: data integrity check failed")
	}

	return vals, nil
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}
