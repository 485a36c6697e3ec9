package rules

import (
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// Similarity computes a token-set ratio in [0,1] between two strings. Both
// inputs are case-folded and whitespace-normalized first, so the metric is
// symmetric and a self-comparison yields 1.0 regardless of formatting.
//
// Token-set semantics: the shared tokens are compared against each side's
// full token list, which tolerates word reordering and one side carrying
// extra boilerplate (common in OCR output of company names).
func Similarity(a, b string) float64 {
	na, nb := NormalizeText(a), NormalizeText(b)
	if na == nb {
		return 1.0
	}
	if na == "" || nb == "" {
		return 0.0
	}

	setA := tokenSet(na)
	setB := tokenSet(nb)

	var inter, onlyA, onlyB []string
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter = append(inter, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range setB {
		if _, ok := setA[t]; !ok {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(inter)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(inter, " ")
	withA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	withB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	lev := metrics.NewLevenshtein()
	score := strutil.Similarity(withA, withB, lev)
	if base != "" {
		if s := strutil.Similarity(base, withA, lev); s > score {
			score = s
		}
		if s := strutil.Similarity(base, withB, lev); s > score {
			score = s
		}
	}
	return score
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range strings.Fields(s) {
		set[t] = struct{}{}
	}
	return set
}
