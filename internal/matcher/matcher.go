// Package matcher resolves free-text product names against an owner's
// catalog. Scoring is the maximum of several structural signals rather than
// a sum, so a name cannot double-count its way past the threshold.
package matcher

import (
	"strings"

	"tillchat/internal/domain"
)

const (
	DefaultThreshold = 0.3

	keywordScore     = 0.9
	brandScore       = 0.9
	substringCap     = 0.99
	overlapBonus     = 0.15
	overlapMinimum   = 0.7
	similarityWeight = 0.8
)

type Resolver struct {
	corrections map[string]string
	brands      map[string]struct{}
	threshold   float64
}

// New builds a resolver with injected typo and brand dictionaries. Nil maps
// fall back to the built-in defaults; a non-positive threshold falls back to
// DefaultThreshold. Acceptance is strictly greater than the threshold.
func New(corrections map[string]string, brands []string, threshold float64) *Resolver {
	if corrections == nil {
		corrections = DefaultTypoCorrections()
	}
	if brands == nil {
		brands = DefaultBrandLexicon()
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	brandSet := make(map[string]struct{}, len(brands))
	for _, brand := range brands {
		for _, token := range strings.Fields(strings.ToLower(brand)) {
			brandSet[token] = struct{}{}
		}
	}

	return &Resolver{
		corrections: corrections,
		brands:      brandSet,
		threshold:   threshold,
	}
}

// Resolve scores every catalog product against nameText and returns the best
// candidate, or ok=false when nothing clears the threshold. Ties go to the
// smaller product id so resolution is deterministic.
func (r *Resolver) Resolve(nameText string, catalog []domain.CatalogProduct) (domain.MatchCandidate, bool) {
	query, corrected := r.correct(normalize(nameText))
	if query == "" {
		return domain.MatchCandidate{}, false
	}

	best := domain.MatchCandidate{}
	found := false
	for _, product := range catalog {
		score, via := r.score(query, product)
		if score <= r.threshold {
			continue
		}
		if corrected && via != domain.MatchedViaSimilarity {
			via = domain.MatchedViaTypoCorrected
		}
		if !found || score > best.Score || (score == best.Score && product.ID < best.ProductID) {
			best = domain.MatchCandidate{ProductID: product.ID, Score: score, MatchedVia: via}
			found = true
		}
	}
	return best, found
}

// score computes the maximum structural signal for one candidate, falling
// back to weighted character similarity when no structural signal fires.
func (r *Resolver) score(query string, product domain.CatalogProduct) (float64, string) {
	productName := normalize(product.DisplayName)
	if productName == "" {
		return 0, ""
	}

	if query == productName {
		return 1.0, domain.MatchedViaExact
	}

	score := 0.0
	via := ""

	if ratio, ok := substringRatio(query, productName); ok && ratio > score {
		score = ratio
		via = domain.MatchedViaSubstring
	}

	queryWords := strings.Fields(query)
	nameWords := wordSet(productName, "")
	brandWords := wordSet(productName, product.Brand)

	if kw := primaryKeyword(queryWords); kw != "" {
		if _, ok := nameWords[kw]; ok && keywordScore > score {
			score = keywordScore
			via = domain.MatchedViaKeyword
		}
	}

	if r.brandMatches(queryWords, brandWords) && brandScore > score {
		score = brandScore
		via = domain.MatchedViaBrand
	}

	if score > 0 {
		if overlapRatio(queryWords, nameWords) >= overlapMinimum {
			score += overlapBonus
			if score > 1.0 {
				score = 1.0
			}
		}
		return score, via
	}

	// No structural signal fired; fall back to edit-distance similarity,
	// weighted down so it never beats a structural match elsewhere.
	return similarity(query, productName) * similarityWeight, domain.MatchedViaSimilarity
}

// brandMatches reports whether the query names this product through a brand
// token alone. A bare brand word is enough, but any other query word that is
// absent from the product name contradicts the match: "mazoe raspberry" must
// not be absorbed by "Mazoe Orange Crush" while "raspberry" dangles.
func (r *Resolver) brandMatches(queryWords []string, productWords map[string]struct{}) bool {
	brandHit := false
	for _, word := range queryWords {
		_, inProduct := productWords[word]
		_, isBrand := r.brands[word]
		if isBrand && inProduct {
			brandHit = true
			continue
		}
		if !inProduct {
			return false
		}
	}
	return brandHit
}

// correct applies the typo dictionary word by word; corrections are applied
// before any scoring, never silently dropped.
func (r *Resolver) correct(query string) (string, bool) {
	words := strings.Fields(query)
	changed := false
	for i, word := range words {
		if fixed, ok := r.corrections[word]; ok && fixed != word {
			words[i] = fixed
			changed = true
		}
	}
	return strings.Join(words, " "), changed
}

func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(text))), " ")
}

func substringRatio(a string, b string) (float64, bool) {
	if !strings.Contains(a, b) && !strings.Contains(b, a) {
		return 0, false
	}
	shorter, longer := len(a), len(b)
	if shorter > longer {
		shorter, longer = longer, shorter
	}
	if longer == 0 {
		return 0, false
	}
	ratio := float64(shorter) / float64(longer)
	if ratio > substringCap {
		ratio = substringCap
	}
	return ratio, true
}

// primaryKeyword is the longest word of the query; on equal lengths the
// earlier word wins, keeping resolution deterministic.
func primaryKeyword(words []string) string {
	keyword := ""
	for _, word := range words {
		if len(word) > len(keyword) {
			keyword = word
		}
	}
	return keyword
}

func wordSet(productName string, brand string) map[string]struct{} {
	set := make(map[string]struct{}, 8)
	for _, word := range strings.Fields(productName) {
		set[word] = struct{}{}
	}
	for _, word := range strings.Fields(strings.ToLower(brand)) {
		set[word] = struct{}{}
	}
	return set
}

func overlapRatio(queryWords []string, productWords map[string]struct{}) float64 {
	if len(queryWords) == 0 {
		return 0
	}
	matched := 0
	for _, word := range queryWords {
		if _, ok := productWords[word]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(queryWords))
}

// similarity is a normalized Levenshtein ratio in [0,1].
func similarity(a string, b string) float64 {
	if a == b {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshtein(a, b))/float64(longest)
}

func levenshtein(a string, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a int, b int, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
