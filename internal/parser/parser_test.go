package parser

import (
	"errors"
	"testing"
)

func TestParseQuantityNamePrice(t *testing.T) {
	entries, err := Parse("3x Bread @1.25")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Quantity != 3 {
		t.Fatalf("expected quantity 3, got %v", entry.Quantity)
	}
	if entry.MatchText != "bread" {
		t.Fatalf("expected match text 'bread', got %q", entry.MatchText)
	}
	if entry.DisplayText != "Bread" {
		t.Fatalf("expected display text 'Bread', got %q", entry.DisplayText)
	}
	if entry.UnitPrice == nil || *entry.UnitPrice != 1.25 {
		t.Fatalf("expected unit price 1.25, got %v", entry.UnitPrice)
	}
}

func TestParseSeparators(t *testing.T) {
	entries, err := Parse("2 bread @1.25, 1 milk @2.50\n3 eggs")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[1].MatchText != "milk" || *entries[1].UnitPrice != 2.50 {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
	if entries[2].Quantity != 3 || entries[2].UnitPrice != nil {
		t.Fatalf("unexpected third entry: %+v", entries[2])
	}
}

func TestParseAndSeparatorOnlyBeforeQuantity(t *testing.T) {
	entries, err := Parse("I sold 2 mazoe ruspburry and 1 bread")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].MatchText != "mazoe ruspburry" {
		t.Fatalf("expected 'mazoe ruspburry', got %q", entries[0].MatchText)
	}
	if entries[1].MatchText != "bread" || entries[1].Quantity != 1 {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}

	entries, err = Parse("1 sugar and spice mix")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(entries) != 1 || entries[0].MatchText != "sugar and spice mix" {
		t.Fatalf("expected 'and' kept inside name, got %+v", entries)
	}
}

func TestParseBareNameDefaultsQuantityOne(t *testing.T) {
	entries, err := Parse("milk")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if entries[0].Quantity != 1 || entries[0].MatchText != "milk" {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
}

func TestParsePriceSpacingTolerated(t *testing.T) {
	entries, err := Parse("2 bread @ 1.25")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if entries[0].UnitPrice == nil || *entries[0].UnitPrice != 1.25 {
		t.Fatalf("expected price 1.25, got %v", entries[0].UnitPrice)
	}
}

func TestParseGluedSegment(t *testing.T) {
	entries, err := Parse("2bread@1.25")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if entries[0].Quantity != 2 || entries[0].MatchText != "bread" || *entries[0].UnitPrice != 1.25 {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
}

func TestParseEmptyMessage(t *testing.T) {
	if _, err := Parse("   \n  ,, "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestParseMalformedSegment(t *testing.T) {
	if _, err := Parse("2 @1.25"); !errors.Is(err, ErrMalformedSegment) {
		t.Fatalf("expected ErrMalformedSegment, got %v", err)
	}
	if _, err := Parse("0 bread"); !errors.Is(err, ErrMalformedSegment) {
		t.Fatalf("expected ErrMalformedSegment for zero quantity, got %v", err)
	}
}

func TestParseDeterministic(t *testing.T) {
	first, err := Parse("2 bread, 1 milk")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	second, err := Parse("2 bread, 1 milk")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("non-deterministic segment count")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("non-deterministic entry %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}
