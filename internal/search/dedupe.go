package search

import "fmt"

// Dedupe collapses results that represent the same code location retrieved
// through different channels. Identity is (repository_id, file_path,
// start_line, symbol_name). Input must already be ranked best-first; the
// first occurrence of each identity wins, so the kept copy carries the
// highest score. Relative order is preserved.
func Dedupe(results []*RankedResult) []*RankedResult {
	seen := make(map[string]bool, len(results))
	out := results[:0:0]
	for _, r := range results {
		key := fmt.Sprintf("%s\x00%s\x00%d\x00%s",
			r.Chunk.RepositoryID, r.Chunk.FilePath, r.Chunk.StartLine, r.Chunk.SymbolName)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}
