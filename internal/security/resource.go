package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

const fingerprintPrefix = "fp_"

func SignResource(secret string, parts ...string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	payload := strings.Join(parts, ":")
	mac.Write([]byte(payload))
	sum := mac.Sum(nil)
	return []byte(base64.RawURLEncoding.EncodeToString(sum))
}

// DeviceFingerprint derives a stable device id for clients that did not
// send one. It is keyed so ids cannot be forged from a known ip and agent.
func DeviceFingerprint(secret string, ip string, userAgent string) string {
	sig := SignResource(secret, "device", ip, userAgent)
	return fingerprintPrefix + string(sig[:22])
}
