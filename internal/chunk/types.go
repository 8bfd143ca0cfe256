// Package chunk defines the indexed unit of code and its ingestion boundary.
//
// Chunks are produced by an external extraction step; this package only
// validates and carries them. A chunk is immutable once stored: re-indexing
// a repository supersedes its chunks, it never mutates them.
package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	cserrors "github.com/codescope/codescope/internal/errors"
)

// SymbolType is the kind of code symbol a chunk represents.
type SymbolType string

const (
	// SymbolTypeFunction is a function or method body.
	SymbolTypeFunction SymbolType = "function"
	// SymbolTypeCall is a call site.
	SymbolTypeCall SymbolType = "call"
)

// Chunk is one indexed unit of code with location metadata.
type Chunk struct {
	// ID is the stable identity, derived from repository, file path,
	// start line, and symbol name. See ComputeID.
	ID string `json:"id"`

	// RepositoryID identifies the repository snapshot this chunk belongs to.
	RepositoryID string `json:"repository_id"`

	// FilePath is relative to the repository root.
	FilePath string `json:"file_path"`

	// Language is the programming language, lower-case ("python", "go").
	Language string `json:"language"`

	// SymbolType is "function" or "call".
	SymbolType SymbolType `json:"symbol_type"`

	// SymbolName is the function or callee name.
	SymbolName string `json:"symbol_name"`

	// StartLine and EndLine are 1-indexed, inclusive, StartLine <= EndLine.
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`

	// SourceText is the chunk's code text.
	SourceText string `json:"source_text"`
}

// ComputeID derives the stable chunk identity.
func ComputeID(repositoryID, filePath string, startLine int, symbolName string) string {
	h := sha256.Sum256(fmt.Appendf(nil, "%s\x00%s\x00%d\x00%s",
		repositoryID, filePath, startLine, symbolName))
	return hex.EncodeToString(h[:])
}

// Validate checks the record at the ingestion boundary and fills in a
// missing ID. Rejecting malformed records here eliminates silent
// missing-field failures downstream.
func (c *Chunk) Validate() error {
	if c.RepositoryID == "" {
		return cserrors.New(cserrors.ErrCodeInvalidChunk, "chunk repository_id is empty", nil)
	}
	if c.FilePath == "" {
		return cserrors.New(cserrors.ErrCodeInvalidChunk, "chunk file_path is empty", nil)
	}
	if c.SymbolType != SymbolTypeFunction && c.SymbolType != SymbolTypeCall {
		return cserrors.New(cserrors.ErrCodeInvalidChunk,
			fmt.Sprintf("chunk symbol_type must be %q or %q, got %q",
				SymbolTypeFunction, SymbolTypeCall, c.SymbolType), nil)
	}
	if c.StartLine < 1 {
		return cserrors.New(cserrors.ErrCodeInvalidChunk,
			fmt.Sprintf("chunk start_line must be >= 1, got %d", c.StartLine), nil)
	}
	if c.EndLine < c.StartLine {
		return cserrors.New(cserrors.ErrCodeInvalidChunk,
			fmt.Sprintf("chunk end_line %d precedes start_line %d", c.EndLine, c.StartLine), nil)
	}
	if c.SourceText == "" {
		return cserrors.New(cserrors.ErrCodeInvalidChunk, "chunk source_text is empty", nil)
	}

	if c.ID == "" {
		c.ID = ComputeID(c.RepositoryID, c.FilePath, c.StartLine, c.SymbolName)
	}
	return nil
}
