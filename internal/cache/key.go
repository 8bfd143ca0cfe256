package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Key namespaces. Versioned so a format change never serves stale payloads.
const (
	searchKeyPrefix = "codescope:search:v1:"
	repoTagPrefix   = "codescope:tag:repo:"
	globalTagKey    = "codescope:tag:global"
)

// SearchKey derives the deterministic cache key for a search call.
// Inputs must already be normalized; two equivalent calls yield the same
// key. revision names the expansion-table version a cached ranking was
// produced with, so bumping the table never serves results ranked by the
// old vocabulary.
func SearchKey(text string, topK int, repositoryID, language, mode, revision string) string {
	h := sha256.Sum256(fmt.Appendf(nil, "%s\x00%d\x00%s\x00%s\x00%s\x00%s",
		text, topK, repositoryID, language, mode, revision))
	return searchKeyPrefix + hex.EncodeToString(h[:])
}

// IndexReportKey is the cache key for a repository's last indexing
// report.
func IndexReportKey(repositoryID string) string {
	return "codescope:index:v1:" + repositoryID
}

// repoTagKey names the invalidation set for one repository.
func repoTagKey(repositoryID string) string {
	return repoTagPrefix + repositoryID
}

// tagFor maps a repository filter to its invalidation tag. Entries with no
// repository filter are tagged global: they may contain any repository's
// chunks, so every repository invalidation clears them.
func tagFor(repositoryID string) string {
	if repositoryID == "" {
		return globalTagKey
	}
	return repoTagKey(repositoryID)
}
