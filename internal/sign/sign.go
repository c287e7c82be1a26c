// Package sign computes the time-boxed request signature expected by the
// recognition gateway. Every call gets a fresh timestamp and nonce, so
// headers are single-use and a captured set cannot be replayed.
package sign

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Credentials identify this app to the recognition gateway. They are
// loaded once at startup and passed in explicitly; nothing in this
// package reads ambient state.
type Credentials struct {
	AppID       string `json:"app_id"`
	AppSecret   string `json:"app_secret"`
	GatewayPath string `json:"gateway_path"`
}

// Headers are the four values the gateway needs to recompute and verify
// the signature.
type Headers struct {
	AppID     string
	Timestamp string
	Nonce     string
	Signature string
}

// Sign produces a fresh signed header set for one outbound request. The
// canonical string joins method, path, unix-second timestamp, a 128-bit
// random nonce, and the app id with newlines, then is HMAC-SHA256'd with
// the app secret.
func Sign(creds Credentials, method, path string) (Headers, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return Headers{}, fmt.Errorf("sign: generate nonce: %w", err)
	}

	h := Headers{
		AppID:     creds.AppID,
		Timestamp: strconv.FormatInt(time.Now().Unix(), 10),
		Nonce:     hex.EncodeToString(nonce),
	}
	h.Signature = signature(creds.AppSecret, canonical(method, path, h))
	return h, nil
}

// Verify recomputes the signature for a received header set. The gateway
// side does the same; here it mostly serves tests and local tooling.
func Verify(creds Credentials, method, path string, h Headers) bool {
	want := signature(creds.AppSecret, canonical(method, path, h))
	return hmac.Equal([]byte(want), []byte(h.Signature))
}

func canonical(method, path string, h Headers) string {
	return strings.Join([]string{method, path, h.Timestamp, h.Nonce, h.AppID}, "\n")
}

func signature(secret, canonical string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}
