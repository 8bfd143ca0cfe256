package search

// LexicalScore computes the normalized token overlap between query text and
// a candidate's source text: |query tokens ∩ source tokens| / |query tokens|,
// in [0,1]. Pure function of its inputs; zero is a valid score meaning no
// shared vocabulary.
func LexicalScore(queryText, sourceText string) float64 {
	queryTokens := tokenize(queryText)
	if len(queryTokens) == 0 {
		return 0
	}

	unique := make(map[string]bool, len(queryTokens))
	for _, tok := range queryTokens {
		unique[tok] = true
	}
	source := tokenSet(sourceText)

	matched := 0
	for tok := range unique {
		if source[tok] {
			matched++
		}
	}
	return float64(matched) / float64(len(unique))
}
