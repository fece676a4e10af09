// Package similarity scores how alike two person names are.
//
// Score combines four measures over normalized input (lowercase, diacritics
// folded, punctuation stripped, whitespace collapsed):
//
//	0.3 x Jaro-Winkler
//	0.2 x normalized Levenshtein
//	0.3 x token-set Jaccard
//	0.2 x phonetic code equality
//
// The result is rounded to three decimals. Token-set Jaccard makes word order
// irrelevant, so "Silva João" and "João Silva" score high even though their
// edit distance is large. The phonetic code is a Soundex-style code adapted to
// Portuguese phoneme classes and is computed over sorted tokens.
//
// BestMatch and FindMultipleMatches search candidate x target grids. Callers
// that score the same targets repeatedly should Prepare them once.
package similarity
