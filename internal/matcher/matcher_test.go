package matcher

import (
	"strings"
	"testing"

	"tillchat/internal/domain"
)

func testCatalog() []domain.CatalogProduct {
	return []domain.CatalogProduct{
		{ID: "p-001", DisplayName: "Mazoe Orange Crush", Brand: "Mazoe", UnitPrice: 3.50, StockQuantity: 24, Category: "beverage"},
		{ID: "p-002", DisplayName: "Raspberry Juice", Brand: "Mazoe", UnitPrice: 2.75, StockQuantity: 12, Category: "beverage"},
		{ID: "p-003", DisplayName: "Bread", Brand: "Lobels", UnitPrice: 1.25, StockQuantity: 40, Category: "bakery"},
		{ID: "p-004", DisplayName: "Fresh Milk 1L", Brand: "Dairibord", UnitPrice: 2.50, StockQuantity: 18, Category: "dairy"},
	}
}

func newTestResolver() *Resolver {
	return New(nil, nil, 0)
}

func TestResolveExactMatch(t *testing.T) {
	resolver := newTestResolver()

	candidate, ok := resolver.Resolve("bread", testCatalog())
	if !ok {
		t.Fatalf("expected a match for 'bread'")
	}
	if candidate.ProductID != "p-003" {
		t.Fatalf("expected p-003, got %s", candidate.ProductID)
	}
	if candidate.Score != 1.0 || candidate.MatchedVia != domain.MatchedViaExact {
		t.Fatalf("expected exact score 1.0, got %v via %s", candidate.Score, candidate.MatchedVia)
	}
}

func TestResolveKeywordMatch(t *testing.T) {
	resolver := newTestResolver()

	candidate, ok := resolver.Resolve("orange crush drink", testCatalog())
	if !ok {
		t.Fatalf("expected a match for 'orange crush drink'")
	}
	if candidate.ProductID != "p-001" {
		t.Fatalf("expected p-001, got %s", candidate.ProductID)
	}
}

func TestResolveBrandOnly(t *testing.T) {
	resolver := newTestResolver()

	candidate, ok := resolver.Resolve("mazoe", testCatalog())
	if !ok {
		t.Fatalf("expected a match for bare brand 'mazoe'")
	}
	if candidate.ProductID != "p-001" {
		t.Fatalf("expected p-001, got %s", candidate.ProductID)
	}
	if candidate.Score < 0.9 {
		t.Fatalf("expected brand-level score, got %v", candidate.Score)
	}
}

func TestResolveBrandDisambiguation(t *testing.T) {
	resolver := newTestResolver()

	// "ruspburry" corrects to "raspberry"; the unmatched word must stop the
	// brand token from pulling the query into Mazoe Orange Crush.
	candidate, ok := resolver.Resolve("mazoe ruspburry", testCatalog())
	if !ok {
		t.Fatalf("expected a match for 'mazoe ruspburry'")
	}
	if candidate.ProductID != "p-002" {
		t.Fatalf("expected Raspberry Juice (p-002), got %s", candidate.ProductID)
	}
	if candidate.MatchedVia != domain.MatchedViaTypoCorrected {
		t.Fatalf("expected typo_corrected, got %s", candidate.MatchedVia)
	}
}

func TestResolveTypoCorrection(t *testing.T) {
	resolver := newTestResolver()

	candidate, ok := resolver.Resolve("bred", testCatalog())
	if !ok {
		t.Fatalf("expected a match for 'bred'")
	}
	if candidate.ProductID != "p-003" {
		t.Fatalf("expected p-003, got %s", candidate.ProductID)
	}
	if candidate.MatchedVia != domain.MatchedViaTypoCorrected {
		t.Fatalf("expected typo_corrected, got %s", candidate.MatchedVia)
	}
}

func TestResolveThresholdBoundary(t *testing.T) {
	resolver := newTestResolver()

	// Substring ratio is len(shorter)/len(longer): 3/10 scores exactly 0.3
	// and must be rejected; 31/100 scores 0.31 and must be accepted.
	atBoundary := []domain.CatalogProduct{
		{ID: "p-100", DisplayName: strings.Repeat("a", 10)},
	}
	if _, ok := resolver.Resolve(strings.Repeat("a", 3), atBoundary); ok {
		t.Fatalf("score of exactly 0.3 must be rejected")
	}

	aboveBoundary := []domain.CatalogProduct{
		{ID: "p-101", DisplayName: strings.Repeat("b", 100)},
	}
	candidate, ok := resolver.Resolve(strings.Repeat("b", 31), aboveBoundary)
	if !ok {
		t.Fatalf("score of 0.31 must be accepted")
	}
	if candidate.Score != 0.31 {
		t.Fatalf("expected score 0.31, got %v", candidate.Score)
	}
}

func TestResolveNoMatch(t *testing.T) {
	resolver := newTestResolver()

	if candidate, ok := resolver.Resolve("zzzz qqqq wwww", testCatalog()); ok {
		t.Fatalf("expected no match, got %+v", candidate)
	}
}

func TestResolveDeterministic(t *testing.T) {
	resolver := newTestResolver()

	first, ok := resolver.Resolve("mazoe orange", testCatalog())
	if !ok {
		t.Fatalf("expected a match")
	}
	for i := 0; i < 5; i++ {
		again, ok := resolver.Resolve("mazoe orange", testCatalog())
		if !ok || again != first {
			t.Fatalf("non-deterministic resolution: %+v vs %+v", again, first)
		}
	}
}

func TestResolveTieBreakSmallerID(t *testing.T) {
	resolver := newTestResolver()

	catalog := []domain.CatalogProduct{
		{ID: "p-200", DisplayName: "Milk"},
		{ID: "p-105", DisplayName: "Milk"},
	}
	candidate, ok := resolver.Resolve("milk", catalog)
	if !ok {
		t.Fatalf("expected a match")
	}
	if candidate.ProductID != "p-105" {
		t.Fatalf("expected smaller id p-105 to win the tie, got %s", candidate.ProductID)
	}
}

func TestLoadDictionariesDefaults(t *testing.T) {
	corrections, err := LoadTypoCorrections("")
	if err != nil {
		t.Fatalf("load defaults failed: %v", err)
	}
	if corrections["ruspburry"] != "raspberry" {
		t.Fatalf("expected default correction for ruspburry")
	}

	brands, err := LoadBrandLexicon("")
	if err != nil {
		t.Fatalf("load defaults failed: %v", err)
	}
	found := false
	for _, brand := range brands {
		if brand == "mazoe" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected mazoe in default brand lexicon")
	}
}
