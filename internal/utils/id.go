package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

// NewID returns a best-effort unique identifier, used for connection ids.
func NewID() string {
	return RandomHex(12)
}

// RandomHex returns size random bytes hex-encoded.
func RandomHex(size int) string {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}

	// Fallback to timestamp if crypto/rand is unavailable.
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}

// DocumentFilename builds a stored document name like pdf-<unix ms>-<random>.pdf.
func DocumentFilename(now time.Time) string {
	return "pdf-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + RandomHex(4) + ".pdf"
}
