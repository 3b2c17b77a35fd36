package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Fingerprint computes the deterministic identity of an error within its
// context. It serves as both the analysis id and the cache key, so repeated
// failures of the same shape resolve to the same cached result. Only fields
// that influence classification and strategy selection participate; volatile
// context like event timestamps does not.
func Fingerprint(rec ErrorRecord, actx *AnalysisContext) string {
	source := ""
	if actx != nil {
		source = actx.Source
	}
	canonical := fmt.Sprintf("message=%s|code=%s|critical=%t|source=%s",
		rec.Message, rec.Code, rec.Critical, source)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// shortID trims a fingerprint for log lines.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
