// Package errors provides structured error handling for codescope.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Cache errors (never surfaced to callers)
//   - 3XX: External dependency errors (embedding, vector index)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryCache indicates cache backend errors. Always swallowed and
	// converted to a cache miss; logged but never returned to callers.
	CategoryCache Category = "CACHE"
	// CategoryRetrieval indicates external dependency failures during
	// search (embedding provider, vector index).
	CategoryRetrieval Category = "RETRIEVAL"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Cache errors (200-299)
	ErrCodeCacheUnavailable = "ERR_201_CACHE_UNAVAILABLE"
	ErrCodeCacheTimeout     = "ERR_202_CACHE_TIMEOUT"
	ErrCodeCacheCorrupt     = "ERR_203_CACHE_CORRUPT"

	// External dependency errors (300-399)
	ErrCodeEmbeddingFailed = "ERR_301_EMBEDDING_FAILED"
	ErrCodeIndexFailed     = "ERR_302_INDEX_FAILED"
	ErrCodeRetrievalFailed = "ERR_303_RETRIEVAL_FAILED"

	// Validation errors (400-499)
	ErrCodeInvalidQuery  = "ERR_401_INVALID_QUERY"
	ErrCodeQueryEmpty    = "ERR_402_QUERY_EMPTY"
	ErrCodeInvalidTopK   = "ERR_403_INVALID_TOP_K"
	ErrCodeInvalidChunk  = "ERR_404_INVALID_CHUNK"
	ErrCodeInvalidFilter = "ERR_405_INVALID_FILTER"

	// Internal errors (500-599)
	ErrCodeInternal       = "ERR_501_INTERNAL"
	ErrCodeIndexingFailed = "ERR_502_INDEXING_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Numeric portion, e.g. "401" from "ERR_401_INVALID_QUERY".
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryCache
	case '3':
		return CategoryRetrieval
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}
