package collector

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// NormalizeURL produces the canonical form used for deduplication and for
// article identity: lowercased, query string dropped, trailing slash removed.
// Two URLs that normalize equally are treated as the same article.
func NormalizeURL(rawURL string) string {
	normalized := strings.ToLower(strings.TrimSpace(rawURL))
	if idx := strings.Index(normalized, "?"); idx != -1 {
		normalized = normalized[:idx]
	}
	normalized = strings.TrimSuffix(normalized, "/")
	return normalized
}

// ArticleID derives the stable article identifier from a URL: the first 16
// hex characters of the md5 digest of the normalized URL.
func ArticleID(rawURL string) string {
	sum := md5.Sum([]byte(NormalizeURL(rawURL)))
	return hex.EncodeToString(sum[:])[:16]
}
