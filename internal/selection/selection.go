// Package selection picks a diverse, high-quality subset from a list of
// candidate texts. Candidates are deduplicated by Jaccard word overlap,
// scored, and selected so that every category present keeps at least one
// representative before the quota is filled by score.
package selection

import (
	"sort"
	"strings"

	"github.com/dusk-indust/contentgen/internal/product"
)

// JaccardThreshold is the word-overlap similarity above which two candidates
// are treated as near-duplicates. 0.7 collapses redundant phrasings while
// keeping variants that add nuance.
const JaccardThreshold = 0.7

// Length scoring thresholds (in characters).
const (
	lengthIdealMin      = 40
	lengthIdealMax      = 100
	lengthAcceptableMin = 20
	lengthAcceptableMax = 150
)

// baseScore is the starting score for every candidate.
const baseScore = 5.0

// categoryWeights ranks categories by importance for selection. Safety and
// usage content outranks purely informational content. Categories not listed
// here get the lowest weight.
var categoryWeights = map[product.Category]float64{
	product.CategorySafety:        2.5,
	product.CategoryUsage:         2.0,
	product.CategoryComparison:    1.5,
	product.CategoryInformational: 1.0,
	product.CategoryPurchase:      1.0,
}

// specificityPhrases earn a small bonus for candidates that reference the
// product directly rather than speaking in generalities.
var specificityPhrases = []string{"this product", "the serum", "this serum"}

// Candidate is one item under consideration. Score and Selected are computed
// by Select; values supplied by the caller are ignored.
type Candidate struct {
	ID       string
	Category product.Category
	Text     string

	Score    float64
	Selected bool
}

// Select deduplicates, scores and picks up to minCount candidates. It is
// deterministic for a fixed input ordering and never fails: the result has
// exactly min(minCount, deduplicated-count) items.
//
// Every category present after deduplication keeps at least one representative
// provided minCount is at least the number of distinct categories. When
// minCount is smaller than that, the per-category picks are truncated in
// category enumeration order, so earlier categories keep their slot.
func Select(candidates []Candidate, minCount int) []Candidate {
	if minCount <= 0 {
		return nil
	}

	unique := Deduplicate(candidates)
	for i := range unique {
		unique[i].Score = score(unique[i])
	}

	// Diversity first: the highest-scored member of each present category, in
	// enumeration order.
	selected := make([]Candidate, 0, minCount)
	taken := make(map[string]bool, minCount)
	for _, cat := range product.Categories {
		best := -1
		for i, c := range unique {
			if c.Category != cat {
				continue
			}
			if best < 0 || c.Score > unique[best].Score {
				best = i
			}
		}
		if best >= 0 {
			unique[best].Selected = true
			selected = append(selected, unique[best])
			taken[unique[best].ID] = true
		}
	}

	// Quota fill by score, descending. The sort is stable so ties keep their
	// original relative order.
	byScore := make([]Candidate, len(unique))
	copy(byScore, unique)
	sort.SliceStable(byScore, func(i, j int) bool {
		return byScore[i].Score > byScore[j].Score
	})
	for _, c := range byScore {
		if len(selected) >= minCount {
			break
		}
		if taken[c.ID] {
			continue
		}
		c.Selected = true
		selected = append(selected, c)
		taken[c.ID] = true
	}

	if len(selected) > minCount {
		selected = selected[:minCount]
	}
	return selected
}

// Deduplicate drops near-duplicate candidates, keeping the first of each
// cluster in input order. Two candidates are near-duplicates when the Jaccard
// similarity of their token sets exceeds JaccardThreshold. Quadratic in the
// accepted-set size, which is fine for the expected input sizes (~30).
func Deduplicate(candidates []Candidate) []Candidate {
	accepted := make([]Candidate, 0, len(candidates))
	acceptedTokens := make([]map[string]bool, 0, len(candidates))

	for _, c := range candidates {
		tokens := tokenSet(c.Text)
		duplicate := false
		for _, existing := range acceptedTokens {
			if Jaccard(tokens, existing) > JaccardThreshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			accepted = append(accepted, c)
			acceptedTokens = append(acceptedTokens, tokens)
		}
	}
	return accepted
}

// Jaccard computes |A∩B| / |A∪B| over two token sets. Empty sets yield 0.
func Jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// tokenSet case-folds and whitespace-splits text into a set of tokens.
func tokenSet(text string) map[string]bool {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}

// score rates a candidate on a 0-10 scale from its length, category weight,
// and product specificity.
func score(c Candidate) float64 {
	s := baseScore

	switch n := len(c.Text); {
	case n >= lengthIdealMin && n <= lengthIdealMax:
		s += 2.0
	case n >= lengthAcceptableMin && n <= lengthAcceptableMax:
		s += 1.0
	}

	if w, ok := categoryWeights[c.Category]; ok {
		s += w
	} else {
		s += 1.0
	}

	lower := strings.ToLower(c.Text)
	for _, phrase := range specificityPhrases {
		if strings.Contains(lower, phrase) {
			s += 0.5
			break
		}
	}
	return s
}
