package retrieval

import (
	"sort"
	"strings"
	"unicode"
)

// tokenize lowercases and splits on non-letter/digit runes, then applies a
// light suffix-stripping stemmer so "jumping"/"jumps"/"jumped" collapse to
// the same term. Not a real stemmer (no Porter algorithm) — good enough for
// ranking, not for linguistic correctness.
func tokenize(text string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, stem(cur.String()))
			cur.Reset()
		}
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

func stem(term string) string {
	for _, suf := range []string{"ing", "ed", "es", "s"} {
		if len(term) > len(suf)+2 && strings.HasSuffix(term, suf) {
			return strings.TrimSuffix(term, suf)
		}
	}
	return term
}

// termFreq builds per-chunk LexicalEntry postings from content.
func termFreq(content string) []LexicalEntry {
	counts := make(map[string]int)
	for _, t := range tokenize(content) {
		counts[t]++
	}
	entries := make([]LexicalEntry, 0, len(counts))
	for term, freq := range counts {
		entries = append(entries, LexicalEntry{Term: term, Freq: freq})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Term < entries[j].Term })
	return entries
}

// lexicalHit is a chunk's raw text-mode score before ranking.
type lexicalHit struct {
	chunkID string
	score   float64
}

// lexicalScore ranks chunks against a query's term set: score is the sum of
// per-term frequency in the chunk, each multiplied by 1/df, where df is the
// number of candidate chunks containing that term (an inverse-document-
// frequency-lite factor) — so terms common across the candidates count for
// less, and a chunk matching many distinct query terms outranks one that
// repeats a single common term.
func lexicalScore(queryTerms []string, chunks []Chunk) []lexicalHit {
	if len(queryTerms) == 0 {
		return nil
	}

	docFreq := make(map[string]int, len(queryTerms))
	qset := make(map[string]bool, len(queryTerms))
	for _, t := range queryTerms {
		qset[t] = true
	}
	for _, c := range chunks {
		seen := make(map[string]bool)
		for _, e := range c.Terms {
			if qset[e.Term] && !seen[e.Term] {
				docFreq[e.Term]++
				seen[e.Term] = true
			}
		}
	}

	var hits []lexicalHit
	for _, c := range chunks {
		var score float64
		for _, e := range c.Terms {
			if !qset[e.Term] {
				continue
			}
			df := docFreq[e.Term]
			if df == 0 {
				continue
			}
			idf := 1.0 / float64(df)
			score += float64(e.Freq) * idf
		}
		if score > 0 {
			hits = append(hits, lexicalHit{chunkID: c.ID, score: score})
		}
	}
	return hits
}
