package webhook

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// fingerprintIDLimit bounds how many article ids feed the digest. Ten is
// enough to tell batches apart without hashing arbitrarily large bodies.
const fingerprintIDLimit = 10

// Fingerprint computes the deterministic replay digest of an event:
// blake3 over event type, timestamp and the first ten article ids, with
// NUL separators so field boundaries can't be gamed by concatenation.
func Fingerprint(eventType, timestamp string, articleIDs []string) string {
	h := blake3.New()
	h.Write([]byte(eventType))
	h.Write([]byte{0})
	h.Write([]byte(timestamp))
	for i, id := range articleIDs {
		if i >= fingerprintIDLimit {
			break
		}
		h.Write([]byte{0})
		h.Write([]byte(id))
	}
	return hex.EncodeToString(h.Sum(nil))
}
