package selection

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/contentgen/internal/product"
)

// candidateTexts are distinct enough that no pair crosses the dedup
// threshold; index i maps to category i mod 5.
var candidateTexts = []string{
	"What ingredients make up the core serum formula?",
	"Is the formula tested on sensitive or reactive skin?",
	"How many drops should be applied each morning?",
	"Does the subscription plan reduce the monthly cost?",
	"Which retail alternatives offer comparable vitamin content?",
	"Where are the botanical extracts actually sourced from?",
	"Can pregnant users apply it without consulting a doctor?",
	"Should sunscreen be layered on after absorption?",
	"Are bulk orders discounted for salon professionals?",
	"Why pick a gel texture over a cream competitor?",
	"What shelf life remains once the bottle is opened?",
	"Do fragrances in the mix trigger common allergies?",
	"How soon do visible results typically appear with use?",
	"Is there a refund window for unopened returns?",
	"What sets the pump design apart from rival packaging?",
	"Which skin types benefit most from regular application?",
	"Can it irritate the eye area during humid weather?",
	"When during a routine does exfoliation fit best?",
}

// makeCandidates builds n candidates spread across all five categories.
func makeCandidates(n int) []Candidate {
	out := make([]Candidate, n)
	for i := 0; i < n; i++ {
		out[i] = Candidate{
			ID:       fmt.Sprintf("q%02d", i+1),
			Category: product.Categories[i%len(product.Categories)],
			Text:     candidateTexts[i%len(candidateTexts)],
		}
	}
	return out
}

func TestJaccard(t *testing.T) {
	a := tokenSet("is this product safe for daily use")
	b := tokenSet("is this product safe for everyday use")
	assert.InDelta(t, 6.0/8.0, Jaccard(a, b), 1e-9)

	assert.Equal(t, 0.0, Jaccard(tokenSet(""), a))
	assert.Equal(t, 1.0, Jaccard(a, a))
}

func TestDeduplicateKeepsFirstOfCluster(t *testing.T) {
	candidates := []Candidate{
		{ID: "a", Text: "Is this product safe for sensitive skin types?"},
		{ID: "b", Text: "Is this product safe for sensitive skin type?"},
		{ID: "c", Text: "How much does shipping cost to remote areas?"},
	}

	unique := Deduplicate(candidates)
	require.Len(t, unique, 2)
	assert.Equal(t, "a", unique[0].ID)
	assert.Equal(t, "c", unique[1].ID)
}

func TestDeduplicateBelowThresholdKeepsBoth(t *testing.T) {
	candidates := []Candidate{
		{ID: "a", Text: "What ingredients are inside this serum formula?"},
		{ID: "b", Text: "How should the serum be stored after opening?"},
	}
	assert.Len(t, Deduplicate(candidates), 2)
}

func TestScoreComponents(t *testing.T) {
	// 40-100 chars, Safety weight, specificity phrase: 5 + 2 + 2.5 + 0.5.
	ideal := Candidate{
		Category: product.CategorySafety,
		Text:     "Is this product safe to apply every single day?",
	}
	require.GreaterOrEqual(t, len(ideal.Text), lengthIdealMin)
	require.LessOrEqual(t, len(ideal.Text), lengthIdealMax)
	assert.InDelta(t, 10.0, score(ideal), 1e-9)

	// Short text misses both length bonuses.
	short := Candidate{Category: product.CategoryPurchase, Text: "Price?"}
	assert.InDelta(t, baseScore+1.0, score(short), 1e-9)
}

func TestSelectMeetsQuotaWithDiversity(t *testing.T) {
	selected := Select(makeCandidates(18), 15)
	require.Len(t, selected, 15)

	perCategory := map[product.Category]int{}
	seen := map[string]bool{}
	for _, c := range selected {
		assert.True(t, c.Selected)
		assert.False(t, seen[c.ID], "candidate %s selected twice", c.ID)
		seen[c.ID] = true
		perCategory[c.Category]++
	}
	for _, cat := range product.Categories {
		assert.GreaterOrEqual(t, perCategory[cat], 1, "category %s unrepresented", cat)
	}

	// No near-duplicate pair survives selection.
	for i := range selected {
		for j := i + 1; j < len(selected); j++ {
			sim := Jaccard(tokenSet(selected[i].Text), tokenSet(selected[j].Text))
			assert.LessOrEqual(t, sim, JaccardThreshold,
				"%s and %s are near-duplicates", selected[i].ID, selected[j].ID)
		}
	}
}

func TestSelectDeterministic(t *testing.T) {
	first := Select(makeCandidates(18), 15)
	second := Select(makeCandidates(18), 15)
	require.Equal(t, first, second)
}

func TestSelectFewerCandidatesThanQuota(t *testing.T) {
	selected := Select(makeCandidates(7), 15)
	assert.Len(t, selected, 7)
}

func TestSelectQuotaBelowCategoryCount(t *testing.T) {
	// Quota 3 with all 5 categories present: earlier categories keep their
	// slot, so the result covers the first three in enumeration order.
	candidates := makeCandidates(10)
	selected := Select(candidates, 3)
	require.Len(t, selected, 3)
	for i, cat := range product.Categories[:3] {
		assert.Equal(t, cat, selected[i].Category)
	}
}

func TestSelectPrefersHigherScores(t *testing.T) {
	// Two purchase candidates; the ideal-length specific one must win the
	// category slot over the terse one.
	candidates := []Candidate{
		{ID: "terse", Category: product.CategoryPurchase, Text: "Cost?"},
		{ID: "rich", Category: product.CategoryPurchase, Text: "Is this product worth the price compared to rivals?"},
	}
	selected := Select(candidates, 1)
	require.Len(t, selected, 1)
	assert.Equal(t, "rich", selected[0].ID)
}

func TestSelectZeroQuota(t *testing.T) {
	assert.Nil(t, Select(makeCandidates(5), 0))
}

func TestTokenSetCaseFolds(t *testing.T) {
	set := tokenSet("Safe SAFE safe daily")
	assert.Len(t, set, 2)
	assert.True(t, set["safe"])
	assert.True(t, set[strings.ToLower("DAILY")])
}
