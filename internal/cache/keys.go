package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

func RunStatusKey(sessionID string) string {
	return fmt.Sprintf("run:status:%s", sessionID)
}

func ReportKey(sessionID string) string {
	return fmt.Sprintf("run:report:%s", sessionID)
}

func RateLimitKey(client string) string {
	return fmt.Sprintf("ratelimit:%s", client)
}

// QuestionSetKey identifies a generated question set by its normalized inputs.
func QuestionSetKey(brand, industry string, count int) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(brand)) + "\x00" +
		strings.ToLower(strings.TrimSpace(industry))))
	return fmt.Sprintf("questions:%s:%d", hex.EncodeToString(sum[:8]), count)
}
