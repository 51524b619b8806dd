// Package access derives the rotating access key that gates premium use.
//
// The key for a window is the first 12 hex characters of
// sha256(prefix + window index + secret), where the window index is the
// number of whole windows since the Unix epoch.
package access

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPrefix = "gomega-local-salt-"
	DefaultWindow = 12 * time.Hour
	keyLen        = 12
)

// Keyer computes and checks access keys.
type Keyer struct {
	Prefix string
	Secret string
	Window time.Duration
}

func (k Keyer) window() time.Duration {
	if k.Window <= 0 {
		return DefaultWindow
	}
	return k.Window
}

func (k Keyer) index(now time.Time) int64 {
	return now.UnixMilli() / k.window().Milliseconds()
}

// Key returns the key valid at now.
func (k Keyer) Key(now time.Time) string {
	raw := k.Prefix + strconv.FormatInt(k.index(now), 10) + k.Secret
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])[:keyLen]
}

// Expires returns the end of the window containing now.
func (k Keyer) Expires(now time.Time) time.Time {
	w := k.window().Milliseconds()
	return time.UnixMilli((k.index(now) + 1) * w)
}

// Verify reports whether key matches the key valid at now. Comparison is
// case-insensitive and constant time.
func (k Keyer) Verify(key string, now time.Time) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	want := k.Key(now)
	return subtle.ConstantTimeCompare([]byte(key), []byte(want)) == 1
}
